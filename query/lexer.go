package query

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Lexer tokenizes SQL query strings. Input is scanned rune by rune so
// multi-byte UTF-8 in string literals and identifiers survives intact;
// token positions stay byte offsets.
type Lexer struct {
	input string
	pos   int // byte offset of ch
	next  int // byte offset after ch
	ch    rune
}

// NewLexer creates a new lexer.
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

// readChar reads the next rune.
func (l *Lexer) readChar() {
	if l.next >= len(l.input) {
		l.ch = 0
		l.pos = len(l.input)
		return
	}
	r, w := utf8.DecodeRuneInString(l.input[l.next:])
	l.ch = r
	l.pos = l.next
	l.next += w
}

// peekChar looks at the next rune without advancing.
func (l *Lexer) peekChar() rune {
	if l.next >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.next:])
	return r
}

// skipWhitespace skips whitespace characters.
func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}
}

// readString reads a single-quoted string literal. Returns the literal
// contents and whether the closing quote was found.
func (l *Lexer) readString() (string, bool) {
	var result strings.Builder
	l.readChar() // skip opening quote

	for l.ch != '\'' && l.ch != 0 {
		if l.ch == '\\' {
			l.readChar()
			switch l.ch {
			case 'n':
				result.WriteRune('\n')
			case 't':
				result.WriteRune('\t')
			case '\\':
				result.WriteRune('\\')
			case '\'':
				result.WriteRune('\'')
			default:
				result.WriteRune(l.ch)
			}
		} else {
			result.WriteRune(l.ch)
		}
		l.readChar()
	}

	if l.ch != '\'' {
		return result.String(), false
	}
	l.readChar() // skip closing quote
	return result.String(), true
}

// readNumber reads a numeric literal.
func (l *Lexer) readNumber() string {
	var result strings.Builder

	if l.ch == '-' {
		result.WriteRune(l.ch)
		l.readChar()
	}

	for unicode.IsDigit(l.ch) || l.ch == '.' {
		result.WriteRune(l.ch)
		l.readChar()
	}
	return result.String()
}

// readIdentifier reads an identifier or keyword.
func (l *Lexer) readIdentifier() string {
	var result strings.Builder
	for unicode.IsLetter(l.ch) || unicode.IsDigit(l.ch) || l.ch == '_' {
		result.WriteRune(l.ch)
		l.readChar()
	}
	return result.String()
}

// NextToken returns the next token.
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	tok := Token{Pos: l.pos}

	switch l.ch {
	case 0:
		tok.Type = TokenEOF
	case '=':
		tok.Type, tok.Value = TokenEqual, "="
		l.readChar()
	case '!':
		if l.peekChar() == '=' {
			l.readChar()
			tok.Type, tok.Value = TokenNotEqual, "!="
			l.readChar()
		} else {
			tok.Type, tok.Value = TokenError, "!"
			l.readChar()
		}
	case '<':
		if l.peekChar() == '=' {
			l.readChar()
			tok.Type, tok.Value = TokenLessEqual, "<="
			l.readChar()
		} else {
			tok.Type, tok.Value = TokenLess, "<"
			l.readChar()
		}
	case '>':
		if l.peekChar() == '=' {
			l.readChar()
			tok.Type, tok.Value = TokenGreaterEqual, ">="
			l.readChar()
		} else {
			tok.Type, tok.Value = TokenGreater, ">"
			l.readChar()
		}
	case '\'':
		value, terminated := l.readString()
		if !terminated {
			tok.Type, tok.Value = TokenError, "unterminated string literal"
		} else {
			tok.Type, tok.Value = TokenString, value
		}
	case '*':
		tok.Type, tok.Value = TokenStar, "*"
		l.readChar()
	case ',':
		tok.Type, tok.Value = TokenComma, ","
		l.readChar()
	case '.':
		tok.Type, tok.Value = TokenDot, "."
		l.readChar()
	case '(':
		tok.Type, tok.Value = TokenLeftParen, "("
		l.readChar()
	case ')':
		tok.Type, tok.Value = TokenRightParen, ")"
		l.readChar()
	default:
		if unicode.IsDigit(l.ch) || l.ch == '-' {
			value := l.readNumber()
			if value == "-" {
				tok.Type, tok.Value = TokenError, "-"
			} else {
				tok.Type, tok.Value = TokenNumber, value
			}
		} else if unicode.IsLetter(l.ch) || l.ch == '_' {
			value := l.readIdentifier()
			tok.Type, tok.Value = identifierType(value), value
		} else {
			tok.Type, tok.Value = TokenError, string(l.ch)
			l.readChar()
		}
	}

	return tok
}

// Tokenize returns all tokens from the input. Tokenization stops at the
// first error token, which the parser reports as a ParseError.
func Tokenize(input string) []Token {
	lexer := NewLexer(input)
	var tokens []Token

	for {
		tok := lexer.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF || tok.Type == TokenError {
			break
		}
	}

	return tokens
}
