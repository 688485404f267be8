package ast

import "fmt"

// Language identifies a shader dialect.
type Language uint8

const (
	LangWGSL Language = iota
	LangGLSL
	LangHLSL
	LangISF
)

// String returns the canonical lowercase name of the language.
func (l Language) String() string {
	switch l {
	case LangWGSL:
		return "wgsl"
	case LangGLSL:
		return "glsl"
	case LangHLSL:
		return "hlsl"
	case LangISF:
		return "isf"
	default:
		return fmt.Sprintf("Language(%d)", uint8(l))
	}
}

// ParseLanguage maps a name (or common file extension) to a Language.
func ParseLanguage(name string) (Language, error) {
	switch name {
	case "wgsl":
		return LangWGSL, nil
	case "glsl", "frag", "vert", "comp":
		return LangGLSL, nil
	case "hlsl":
		return LangHLSL, nil
	case "isf", "fs":
		return LangISF, nil
	default:
		return 0, fmt.Errorf("unknown shader language %q", name)
	}
}
