package glsl

import (
	"unicode"
	"unicode/utf8"

	"github.com/gogpu/shaderconv/ast"
)

// lexer tokenizes GLSL source code. Preprocessor directives come out as
// single TokenHash tokens carrying the whole directive line; the parser
// decides which directives matter.
type lexer struct {
	source string
	pos    int
	line   int
	column int
	start  int
	startLine,
	startCol int
	tokens []ast.Token
}

func newLexer(source string) *lexer {
	estTokens := len(source) / 6
	if estTokens < 16 {
		estTokens = 16
	}
	return &lexer{
		source: source,
		line:   1,
		column: 1,
		tokens: make([]ast.Token, 0, estTokens),
	}
}

func (l *lexer) tokenize() []ast.Token {
	for !l.isAtEnd() {
		l.start = l.pos
		l.startLine = l.line
		l.startCol = l.column
		l.scanToken()
	}
	l.start = l.pos
	l.startLine = l.line
	l.startCol = l.column
	l.addToken(ast.TokenEOF)
	return l.tokens
}

func (l *lexer) scanToken() {
	r := l.advance()

	switch r {
	case '(':
		l.addToken(ast.TokenLeftParen)
	case ')':
		l.addToken(ast.TokenRightParen)
	case '{':
		l.addToken(ast.TokenLeftBrace)
	case '}':
		l.addToken(ast.TokenRightBrace)
	case '[':
		l.addToken(ast.TokenLeftBracket)
	case ']':
		l.addToken(ast.TokenRightBracket)
	case ',':
		l.addToken(ast.TokenComma)
	case ':':
		l.addToken(ast.TokenColon)
	case ';':
		l.addToken(ast.TokenSemicolon)
	case '?':
		l.addToken(ast.TokenQuestion)
	case '~':
		l.addToken(ast.TokenTilde)
	case '#':
		l.directive()
	case '.':
		if isDigit(l.peek()) {
			l.number()
		} else {
			l.addToken(ast.TokenDot)
		}
	case '%':
		if l.match('=') {
			l.addToken(ast.TokenPercentEqual)
		} else {
			l.addToken(ast.TokenPercent)
		}
	case '^':
		if l.match('=') {
			l.addToken(ast.TokenCaretEqual)
		} else {
			l.addToken(ast.TokenCaret)
		}
	case '+':
		if l.match('+') {
			l.addToken(ast.TokenPlusPlus)
		} else if l.match('=') {
			l.addToken(ast.TokenPlusEqual)
		} else {
			l.addToken(ast.TokenPlus)
		}
	case '-':
		if l.match('-') {
			l.addToken(ast.TokenMinusMinus)
		} else if l.match('=') {
			l.addToken(ast.TokenMinusEqual)
		} else {
			l.addToken(ast.TokenMinus)
		}
	case '*':
		if l.match('=') {
			l.addToken(ast.TokenStarEqual)
		} else {
			l.addToken(ast.TokenStar)
		}
	case '/':
		if l.match('/') {
			for l.peek() != '\n' && !l.isAtEnd() {
				l.advance()
			}
		} else if l.match('*') {
			l.blockComment()
		} else if l.match('=') {
			l.addToken(ast.TokenSlashEqual)
		} else {
			l.addToken(ast.TokenSlash)
		}
	case '=':
		if l.match('=') {
			l.addToken(ast.TokenEqualEqual)
		} else {
			l.addToken(ast.TokenEqual)
		}
	case '!':
		if l.match('=') {
			l.addToken(ast.TokenBangEqual)
		} else {
			l.addToken(ast.TokenBang)
		}
	case '<':
		if l.match('<') {
			if l.match('=') {
				l.addToken(ast.TokenLessLessEqual)
			} else {
				l.addToken(ast.TokenLessLess)
			}
		} else if l.match('=') {
			l.addToken(ast.TokenLessEqual)
		} else {
			l.addToken(ast.TokenLess)
		}
	case '>':
		if l.match('>') {
			if l.match('=') {
				l.addToken(ast.TokenGreaterGreaterEqual)
			} else {
				l.addToken(ast.TokenGreaterGreater)
			}
		} else if l.match('=') {
			l.addToken(ast.TokenGreaterEqual)
		} else {
			l.addToken(ast.TokenGreater)
		}
	case '&':
		if l.match('&') {
			l.addToken(ast.TokenAmpAmp)
		} else if l.match('=') {
			l.addToken(ast.TokenAmpEqual)
		} else {
			l.addToken(ast.TokenAmpersand)
		}
	case '|':
		if l.match('|') {
			l.addToken(ast.TokenPipePipe)
		} else if l.match('=') {
			l.addToken(ast.TokenPipeEqual)
		} else {
			l.addToken(ast.TokenPipe)
		}

	case ' ', '\r', '\t':
		// Ignore whitespace.
	case '\n':
		l.line++
		l.column = 1

	default:
		if isDigit(r) {
			l.number()
		} else if isAlpha(r) || r == '_' {
			l.identifier()
		} else {
			l.addToken(ast.TokenError)
		}
	}
}

// directive consumes a preprocessor line, honoring backslash line
// continuations, and emits one TokenHash token with the full text.
func (l *lexer) directive() {
	for !l.isAtEnd() {
		if l.peek() == '\\' && l.peekNext() == '\n' {
			l.advance()
			l.advance()
			l.line++
			l.column = 1
			continue
		}
		if l.peek() == '\n' {
			break
		}
		l.advance()
	}
	l.addToken(ast.TokenHash)
}

func (l *lexer) blockComment() {
	// GLSL block comments do not nest.
	for !l.isAtEnd() {
		if l.peek() == '*' && l.peekNext() == '/' {
			l.advance()
			l.advance()
			return
		}
		if l.peek() == '\n' {
			l.line++
			l.column = 0
		}
		l.advance()
	}
}

func (l *lexer) number() {
	if l.source[l.start] == '0' && (l.peek() == 'x' || l.peek() == 'X') {
		l.advance()
		for isHexDigit(l.peek()) {
			l.advance()
		}
		if l.peek() == 'u' || l.peek() == 'U' {
			l.advance()
		}
		l.addToken(ast.TokenIntLiteral)
		return
	}

	isFloat := l.source[l.start] == '.'
	for isDigit(l.peek()) {
		l.advance()
	}

	if !isFloat && l.peek() == '.' {
		isFloat = true
		l.advance()
		for isDigit(l.peek()) {
			l.advance()
		}
	}
	if l.peek() == 'e' || l.peek() == 'E' {
		isFloat = true
		l.advance()
		if l.peek() == '+' || l.peek() == '-' {
			l.advance()
		}
		for isDigit(l.peek()) {
			l.advance()
		}
	}

	if l.peek() == 'f' || l.peek() == 'F' {
		l.advance()
		l.addToken(ast.TokenFloatLiteral)
		return
	}
	// "lf" marks a double literal.
	if l.peek() == 'l' || l.peek() == 'L' {
		l.advance()
		if l.peek() == 'f' || l.peek() == 'F' {
			l.advance()
		}
		l.addToken(ast.TokenFloatLiteral)
		return
	}
	if isFloat {
		l.addToken(ast.TokenFloatLiteral)
		return
	}

	if l.peek() == 'u' || l.peek() == 'U' {
		l.advance()
	}
	l.addToken(ast.TokenIntLiteral)
}

func (l *lexer) identifier() {
	for isAlphaNumeric(l.peek()) || l.peek() == '_' {
		l.advance()
	}
	l.addToken(ast.TokenIdent)
}

func (l *lexer) addToken(kind ast.TokenKind) {
	l.tokens = append(l.tokens, ast.Token{
		Kind:   kind,
		Lexeme: l.source[l.start:l.pos],
		Span: ast.Span{
			Start: ast.Position{Line: l.startLine, Column: l.startCol, Offset: l.start},
			End:   ast.Position{Line: l.line, Column: l.column, Offset: l.pos},
		},
	})
}

func (l *lexer) advance() rune {
	r, size := utf8.DecodeRuneInString(l.source[l.pos:])
	l.pos += size
	l.column++
	return r
}

func (l *lexer) peek() rune {
	if l.isAtEnd() {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.source[l.pos:])
	return r
}

func (l *lexer) peekNext() rune {
	if l.pos+1 >= len(l.source) {
		return 0
	}
	_, size := utf8.DecodeRuneInString(l.source[l.pos:])
	r, _ := utf8.DecodeRuneInString(l.source[l.pos+size:])
	return r
}

func (l *lexer) match(expected rune) bool {
	if l.isAtEnd() {
		return false
	}
	r, size := utf8.DecodeRuneInString(l.source[l.pos:])
	if r != expected {
		return false
	}
	l.pos += size
	l.column++
	return true
}

func (l *lexer) isAtEnd() bool {
	return l.pos >= len(l.source)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isHexDigit(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func isAlpha(r rune) bool {
	return unicode.IsLetter(r)
}

func isAlphaNumeric(r rune) bool {
	return isAlpha(r) || isDigit(r)
}
