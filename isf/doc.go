// Package isf provides the ISF (Interactive Shader Format) front-end
// and back-end.
//
// An ISF document is a GLSL fragment shader paired with a JSON metadata
// block describing host-bound inputs. Two container forms exist: a
// leading /*{ ... }*/ comment followed by the GLSL body, and a bare
// JSON document whose FRAGMENT_SHADER field holds the body. The
// front-end decodes either form, synthesizes declarations for the
// inputs and the standard uniforms, and delegates the body to the GLSL
// front-end. In the comment form the header is blanked rather than
// removed so body diagnostics keep the original line numbers.
package isf
