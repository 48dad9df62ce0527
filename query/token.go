package query

import "strings"

// TokenType identifies the type of a lexical token.
type TokenType int

const (
	// Keywords
	TokenSelect TokenType = iota
	TokenFrom
	TokenWhere
	TokenAnd
	TokenOr
	TokenNot
	TokenJoin
	TokenUsing
	TokenOn
	TokenGroup
	TokenBy
	TokenHaving
	TokenOrder
	TokenAsc
	TokenDesc
	TokenLimit
	TokenAs

	// Operators
	TokenEqual
	TokenNotEqual
	TokenLess
	TokenLessEqual
	TokenGreater
	TokenGreaterEqual

	// Literals and identifiers
	TokenString
	TokenNumber
	TokenIdent

	// Punctuation
	TokenComma
	TokenLeftParen
	TokenRightParen
	TokenDot
	TokenStar

	// Control
	TokenEOF
	TokenError
)

// Token is a lexical token with its byte offset in the query string.
type Token struct {
	Type  TokenType
	Value string
	Pos   int
}

var keywords = map[string]TokenType{
	"SELECT": TokenSelect,
	"FROM":   TokenFrom,
	"WHERE":  TokenWhere,
	"AND":    TokenAnd,
	"OR":     TokenOr,
	"NOT":    TokenNot,
	"JOIN":   TokenJoin,
	"USING":  TokenUsing,
	"ON":     TokenOn,
	"GROUP":  TokenGroup,
	"BY":     TokenBy,
	"HAVING": TokenHaving,
	"ORDER":  TokenOrder,
	"ASC":    TokenAsc,
	"DESC":   TokenDesc,
	"LIMIT":  TokenLimit,
	"AS":     TokenAs,
}

// identifierType classifies an identifier as a keyword or plain
// identifier. Keywords are case-insensitive.
func identifierType(ident string) TokenType {
	if t, ok := keywords[strings.ToUpper(ident)]; ok {
		return t
	}
	return TokenIdent
}
