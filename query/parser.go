package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/metaq/metaq/table"
)

// Parser turns a token stream into an executable query plan. Parsing
// and plan construction happen together: the parser resolves table
// names against the database and builds the same immutable plan the
// fluent builder produces, so SQL and builder queries share one
// execution path.
type Parser struct {
	tokens  []Token
	pos     int
	db      *table.Database
	aliases map[string]string
}

type selectItem struct {
	field string
	alias string
	agg   *AggregateSpec
	star  bool
}

// Compile parses an SQL query against the database and returns its
// plan. Syntax errors are ParseErrors carrying the byte offset of the
// offending token; unknown tables and invalid groupings are
// SchemaErrors.
func Compile(db *table.Database, text string) (*Query, error) {
	p := &Parser{
		tokens:  Tokenize(text),
		db:      db,
		aliases: make(map[string]string),
	}
	p.collectAliases()
	return p.parseQuery()
}

// collectAliases pre-registers table names and aliases from the FROM
// and JOIN clauses, so qualified references in the select list resolve
// even though it is parsed first.
func (p *Parser) collectAliases() {
	for i := 0; i+1 < len(p.tokens); i++ {
		if p.tokens[i].Type != TokenFrom && p.tokens[i].Type != TokenJoin {
			continue
		}
		j := i + 1
		if p.tokens[j].Type != TokenIdent {
			continue
		}
		name := p.tokens[j].Value
		p.aliases[name] = name
		j++
		if j < len(p.tokens) && p.tokens[j].Type == TokenAs {
			j++
		}
		if j < len(p.tokens) && p.tokens[j].Type == TokenIdent {
			p.aliases[p.tokens[j].Value] = name
		}
	}
}

func (p *Parser) current() Token {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	return Token{Type: TokenEOF}
}

func (p *Parser) advance() Token {
	tok := p.current()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) expect(t TokenType, what string) (Token, error) {
	tok := p.current()
	if tok.Type != t {
		return tok, p.errorf(tok, "expected %s", what)
	}
	return p.advance(), nil
}

func (p *Parser) errorf(tok Token, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	near := tok.Value
	if tok.Type == TokenEOF {
		near = ""
		msg += ", got end of query"
	}
	return &ParseError{Pos: tok.Pos, Near: near, Msg: msg}
}

func (p *Parser) parseQuery() (*Query, error) {
	if _, err := p.expect(TokenSelect, "SELECT"); err != nil {
		return nil, err
	}

	items, err := p.parseSelectList()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(TokenFrom, "FROM"); err != nil {
		return nil, err
	}
	src, err := p.parseTableRef()
	if err != nil {
		return nil, err
	}

	q := From(src)

	for p.current().Type == TokenJoin {
		p.advance()
		right, key, err := p.parseJoin()
		if err != nil {
			return nil, err
		}
		q = q.Join(right, key)
	}

	if p.current().Type == TokenWhere {
		p.advance()
		pred, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		q = q.WhereExpr(pred)
	}

	var groupBy []string
	if p.current().Type == TokenGroup {
		p.advance()
		if _, err := p.expect(TokenBy, "BY after GROUP"); err != nil {
			return nil, err
		}
		groupBy, err = p.parseFieldList()
		if err != nil {
			return nil, err
		}
		q = q.GroupBy(groupBy...)
	}

	if p.current().Type == TokenHaving {
		if groupBy == nil {
			return nil, schemaErrorf("HAVING requires a prior GROUP BY")
		}
		p.advance()
		pred, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		q = q.HavingExpr(pred)
	}

	if p.current().Type == TokenOrder {
		p.advance()
		if _, err := p.expect(TokenBy, "BY after ORDER"); err != nil {
			return nil, err
		}
		field, err := p.parseFieldRef()
		if err != nil {
			return nil, err
		}
		desc := false
		switch p.current().Type {
		case TokenAsc:
			p.advance()
		case TokenDesc:
			p.advance()
			desc = true
		}
		q = q.OrderBy(field, desc)
	}

	if p.current().Type == TokenLimit {
		p.advance()
		tok, err := p.expect(TokenNumber, "a number after LIMIT")
		if err != nil {
			return nil, err
		}
		n, convErr := strconv.Atoi(tok.Value)
		if convErr != nil || n < 0 {
			return nil, p.errorf(tok, "LIMIT wants a non-negative integer")
		}
		q = q.Limit(n)
	}

	tok := p.current()
	switch tok.Type {
	case TokenEOF:
	case TokenError:
		return nil, &ParseError{Pos: tok.Pos, Near: tok.Value, Msg: "invalid token"}
	default:
		return nil, p.errorf(tok, "unexpected trailing input")
	}

	return p.applySelect(q, items, groupBy)
}

// applySelect turns the select list into aggregate specs and a final
// projection. In a grouped query every plain column must be a group
// field; a column named by the aggregate output convention (COUNT,
// SUM_amount, ...) selects that aggregate instead.
func (p *Parser) applySelect(q *Query, items []selectItem, groupBy []string) (*Query, error) {
	grouped := groupBy != nil

	if len(items) == 1 && items[0].star {
		return q, nil
	}

	inGroup := make(map[string]bool, len(groupBy))
	for _, f := range groupBy {
		inGroup[f] = true
	}

	var specs []AggregateSpec
	type proj struct{ field, alias string }
	var projs []proj

	for _, it := range items {
		if it.star {
			return nil, schemaErrorf("SELECT * cannot be mixed with other select items")
		}
		if it.agg != nil {
			spec := *it.agg
			spec.Alias = it.alias
			specs = append(specs, spec)
			projs = append(projs, proj{field: spec.OutName()})
			continue
		}
		if grouped && !inGroup[it.field] {
			if spec, ok := specFromName(it.field); ok {
				spec.Alias = it.alias
				specs = append(specs, spec)
				projs = append(projs, proj{field: spec.OutName()})
				continue
			}
			return nil, schemaErrorf("column %q is neither grouped nor aggregated", it.field)
		}
		projs = append(projs, proj{field: it.field, alias: it.alias})
	}

	if len(specs) > 0 {
		q = q.Aggregate(specs...)
	}

	for _, pr := range projs {
		if pr.alias != "" {
			q = q.SelectAs(pr.field, pr.alias)
		} else {
			q = q.Select(pr.field)
		}
	}
	return q, nil
}

func (p *Parser) parseSelectList() ([]selectItem, error) {
	var items []selectItem
	for {
		it, err := p.parseSelectItem()
		if err != nil {
			return nil, err
		}
		items = append(items, it)
		if p.current().Type != TokenComma {
			return items, nil
		}
		p.advance()
	}
}

func (p *Parser) parseSelectItem() (selectItem, error) {
	tok := p.current()

	if tok.Type == TokenStar {
		p.advance()
		return selectItem{star: true}, nil
	}

	if tok.Type != TokenIdent {
		return selectItem{}, p.errorf(tok, "expected a column")
	}
	p.advance()

	var it selectItem

	switch {
	case p.current().Type == TokenLeftParen:
		spec, err := p.parseAggregateCall(tok)
		if err != nil {
			return selectItem{}, err
		}
		it.agg = &spec
	case p.current().Type == TokenDot:
		p.advance()
		fieldTok, err := p.expect(TokenIdent, "a column after '.'")
		if err != nil {
			return selectItem{}, err
		}
		field, rerr := p.resolveQualified(tok, fieldTok.Value)
		if rerr != nil {
			return selectItem{}, rerr
		}
		it.field = field
	default:
		it.field = tok.Value
	}

	if p.current().Type == TokenAs {
		p.advance()
		aliasTok, err := p.expect(TokenIdent, "an alias after AS")
		if err != nil {
			return selectItem{}, err
		}
		it.alias = aliasTok.Value
	}

	return it, nil
}

var aggFuncs = map[string]AggFunc{
	"COUNT": AggCount,
	"SUM":   AggSum,
	"AVG":   AggAvg,
	"MIN":   AggMin,
	"MAX":   AggMax,
}

func (p *Parser) parseAggregateCall(nameTok Token) (AggregateSpec, error) {
	fn, ok := aggFuncs[strings.ToUpper(nameTok.Value)]
	if !ok {
		return AggregateSpec{}, p.errorf(nameTok, "unknown function %q", nameTok.Value)
	}
	p.advance() // (

	var field string
	tok := p.current()
	switch tok.Type {
	case TokenStar:
		if fn != AggCount {
			return AggregateSpec{}, p.errorf(tok, "%s(*) is not supported", fn)
		}
		field = "*"
		p.advance()
	case TokenIdent:
		f, err := p.parseFieldRef()
		if err != nil {
			return AggregateSpec{}, err
		}
		field = f
	default:
		return AggregateSpec{}, p.errorf(tok, "expected a column in %s()", fn)
	}

	if _, err := p.expect(TokenRightParen, "')'"); err != nil {
		return AggregateSpec{}, err
	}
	return AggregateSpec{Func: fn, Field: field}, nil
}

// parseTableRef parses "name [AS alias | alias]" and resolves the name
// in the database.
func (p *Parser) parseTableRef() (*table.Table, error) {
	tok, err := p.expect(TokenIdent, "a table name")
	if err != nil {
		return nil, err
	}
	t, ok := p.db.Get(tok.Value)
	if !ok {
		return nil, schemaErrorf("unknown table %q", tok.Value)
	}

	switch p.current().Type {
	case TokenAs:
		p.advance()
		aliasTok, err := p.expect(TokenIdent, "an alias after AS")
		if err != nil {
			return nil, err
		}
		p.aliases[aliasTok.Value] = tok.Value
	case TokenIdent:
		aliasTok := p.advance()
		p.aliases[aliasTok.Value] = tok.Value
	}
	p.aliases[tok.Value] = tok.Value

	return t, nil
}

// parseJoin parses "table [alias] USING ( field )" after the JOIN
// keyword.
func (p *Parser) parseJoin() (*table.Table, string, error) {
	t, err := p.parseTableRef()
	if err != nil {
		return nil, "", err
	}
	if _, err := p.expect(TokenUsing, "USING"); err != nil {
		return nil, "", err
	}
	if _, err := p.expect(TokenLeftParen, "'('"); err != nil {
		return nil, "", err
	}
	keyTok, err := p.expect(TokenIdent, "a join key")
	if err != nil {
		return nil, "", err
	}
	if _, err := p.expect(TokenRightParen, "')'"); err != nil {
		return nil, "", err
	}
	return t, keyTok.Value, nil
}

func (p *Parser) parseFieldList() ([]string, error) {
	var fields []string
	for {
		f, err := p.parseFieldRef()
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
		if p.current().Type != TokenComma {
			return fields, nil
		}
		p.advance()
	}
}

// parseFieldRef parses "field" or "alias.field". Qualified references
// check the alias against the tables named in FROM and JOIN; rows are
// flat after joining, so the qualifier only validates, the bare field
// name is what the plan sees.
func (p *Parser) parseFieldRef() (string, error) {
	tok, err := p.expect(TokenIdent, "a column")
	if err != nil {
		return "", err
	}
	if p.current().Type != TokenDot {
		return tok.Value, nil
	}
	p.advance()
	fieldTok, err := p.expect(TokenIdent, "a column after '.'")
	if err != nil {
		return "", err
	}
	return p.resolveQualified(tok, fieldTok.Value)
}

func (p *Parser) resolveQualified(aliasTok Token, field string) (string, error) {
	if _, ok := p.aliases[aliasTok.Value]; !ok {
		return "", p.errorf(aliasTok, "unknown table alias %q", aliasTok.Value)
	}
	return field, nil
}

// Precedence: NOT binds tighter than AND, AND tighter than OR.

func (p *Parser) parseOr() (Predicate, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.current().Type == TokenOr {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = Or{Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (Predicate, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.current().Type == TokenAnd {
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = And{Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseNot() (Predicate, error) {
	if p.current().Type == TokenNot {
		p.advance()
		inner, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return Not{Inner: inner}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (Predicate, error) {
	if p.current().Type == TokenLeftParen {
		p.advance()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRightParen, "')'"); err != nil {
			return nil, err
		}
		return Group{Inner: inner}, nil
	}

	field, err := p.parseFieldRef()
	if err != nil {
		return nil, err
	}

	opTok := p.current()
	op, ok := tokenOp(opTok.Type)
	if !ok {
		return nil, p.errorf(opTok, "expected a comparison operator")
	}
	p.advance()

	value, err := p.parseLiteral()
	if err != nil {
		return nil, err
	}

	return Comparison{Field: field, Op: op, Value: value}, nil
}

func tokenOp(t TokenType) (Op, bool) {
	switch t {
	case TokenEqual:
		return OpEq, true
	case TokenNotEqual:
		return OpNe, true
	case TokenLess:
		return OpLt, true
	case TokenLessEqual:
		return OpLe, true
	case TokenGreater:
		return OpGt, true
	case TokenGreaterEqual:
		return OpGe, true
	default:
		return 0, false
	}
}

// parseLiteral parses a comparison right-hand side: a quoted string, a
// number (int unless it carries a decimal point), or the bare words
// true, false and null.
func (p *Parser) parseLiteral() (table.Value, error) {
	tok := p.current()
	switch tok.Type {
	case TokenString:
		p.advance()
		return table.String(tok.Value), nil
	case TokenNumber:
		p.advance()
		if strings.Contains(tok.Value, ".") {
			f, err := strconv.ParseFloat(tok.Value, 64)
			if err != nil {
				return table.Null(), p.errorf(tok, "invalid number %q", tok.Value)
			}
			return table.Float(f), nil
		}
		i, err := strconv.ParseInt(tok.Value, 10, 64)
		if err != nil {
			return table.Null(), p.errorf(tok, "invalid number %q", tok.Value)
		}
		return table.Int(i), nil
	case TokenIdent:
		switch strings.ToUpper(tok.Value) {
		case "TRUE":
			p.advance()
			return table.Bool(true), nil
		case "FALSE":
			p.advance()
			return table.Bool(false), nil
		case "NULL":
			p.advance()
			return table.Null(), nil
		}
	case TokenError:
		return table.Null(), &ParseError{Pos: tok.Pos, Near: tok.Value, Msg: "invalid token"}
	}
	return table.Null(), p.errorf(tok, "expected a literal value")
}
