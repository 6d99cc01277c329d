package query

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseError is the error type for malformed query text. It carries a
// plain-text reason and is distinct from engine (materialization) errors,
// so callers can surface it without touching the active relation.
type ParseError struct {
	Message string
}

func (e *ParseError) Error() string {
	return "parse error: " + e.Message
}

// parseErrorf builds a ParseError.
func parseErrorf(format string, args ...interface{}) error {
	return &ParseError{Message: fmt.Sprintf(format, args...)}
}

// aggregateFunctions are the names accepted as aggregate calls in a SELECT
// list.
var aggregateFunctions = map[string]bool{
	"count": true,
	"sum":   true,
	"avg":   true,
	"min":   true,
	"max":   true,
}

// Parser parses query tokens into an AST
type Parser struct {
	tokens       []Token
	pos          int
	depthCounter *ExpressionDepthCounter
}

// NewParser creates a new parser
func NewParser(tokens []Token) *Parser {
	return &Parser{
		tokens:       tokens,
		pos:          0,
		depthCounter: NewExpressionDepthCounter(),
	}
}

// current returns the current token
func (p *Parser) current() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenEOF, Value: ""}
	}
	return p.tokens[p.pos]
}

// advance moves to the next token
func (p *Parser) advance() {
	p.pos++
}

// expect checks if current token matches expected type and advances
func (p *Parser) expect(tokType TokenType) error {
	if p.current().Type != tokType {
		return parseErrorf("expected %v, got %q", tokType, p.current().Value)
	}
	p.advance()
	return nil
}

// Parse parses a full query:
//
//	SELECT list [FROM name] [WHERE expr] [GROUP BY cols] [ORDER BY cols] [LIMIT n]
//
// The FROM clause is optional because the browser always queries the
// currently open dataset.
func Parse(text string) (*Query, error) {
	if err := ValidateQuery(text); err != nil {
		return nil, &ParseError{Message: err.Error()}
	}

	tokens := Tokenize(text)
	if err := ValidateTokens(tokens); err != nil {
		return nil, &ParseError{Message: err.Error()}
	}

	parser := NewParser(tokens)
	q, err := parser.parseQuery()
	if err != nil {
		return nil, err
	}
	if parser.current().Type != TokenEOF {
		return nil, parseErrorf("unexpected trailing input: %q", parser.current().Value)
	}
	if err := ValidateSelectList(q.SelectList, q.GroupBy); err != nil {
		return nil, &ParseError{Message: err.Error()}
	}
	return q, nil
}

// ParseFilter parses a bare WHERE-style expression, for the browser's
// filter prompt.
func ParseFilter(text string) (Expression, error) {
	if err := ValidateQuery(text); err != nil {
		return nil, &ParseError{Message: err.Error()}
	}

	tokens := Tokenize(text)
	if err := ValidateTokens(tokens); err != nil {
		return nil, &ParseError{Message: err.Error()}
	}

	parser := NewParser(tokens)
	expr, err := parser.parseOr()
	if err != nil {
		return nil, err
	}
	if parser.current().Type != TokenEOF {
		return nil, parseErrorf("unexpected trailing input: %q", parser.current().Value)
	}
	return expr, nil
}

// parseQuery parses the clause sequence after validation.
func (p *Parser) parseQuery() (*Query, error) {
	if err := p.expect(TokenSelect); err != nil {
		return nil, parseErrorf("query must start with SELECT")
	}

	selectList, err := p.parseSelectList()
	if err != nil {
		return nil, err
	}

	q := &Query{SelectList: selectList}

	if p.current().Type == TokenFrom {
		p.advance()
		if p.current().Type != TokenIdent && p.current().Type != TokenString {
			return nil, parseErrorf("expected table name after FROM")
		}
		q.From = p.current().Value
		p.advance()
	}

	if p.current().Type == TokenWhere {
		p.advance()
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		q.Filter = expr
	}

	if p.current().Type == TokenGroup {
		p.advance()
		if err := p.expect(TokenBy); err != nil {
			return nil, parseErrorf("expected BY after GROUP")
		}
		cols, err := p.parseIdentList()
		if err != nil {
			return nil, err
		}
		q.GroupBy = cols
	}

	if p.current().Type == TokenOrder {
		p.advance()
		if err := p.expect(TokenBy); err != nil {
			return nil, parseErrorf("expected BY after ORDER")
		}
		items, err := p.parseOrderByList()
		if err != nil {
			return nil, err
		}
		q.OrderBy = items
	}

	if p.current().Type == TokenLimit {
		p.advance()
		if p.current().Type != TokenNumber {
			return nil, parseErrorf("expected number after LIMIT")
		}
		n, err := strconv.ParseInt(p.current().Value, 10, 64)
		if err != nil || n < 0 {
			return nil, parseErrorf("invalid LIMIT: %s", p.current().Value)
		}
		p.advance()
		q.Limit = &n
	}

	return q, nil
}

// parseSelectList parses: item ("," item)*
func (p *Parser) parseSelectList() ([]SelectItem, error) {
	var items []SelectItem
	for {
		item, err := p.parseSelectItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)

		if p.current().Type != TokenComma {
			break
		}
		p.advance()
	}
	return items, nil
}

// parseSelectItem parses one SELECT list entry: *, a column reference, or
// an aggregate call, each with an optional AS alias.
func (p *Parser) parseSelectItem() (SelectItem, error) {
	tok := p.current()
	if tok.Type != TokenIdent {
		return SelectItem{}, parseErrorf("expected column or aggregate in SELECT list, got %q", tok.Value)
	}

	name := tok.Value
	p.advance()

	var expr SelectExpression
	if aggregateFunctions[strings.ToLower(name)] && p.current().Type == TokenLeftParen {
		p.advance()
		agg := &AggregateExpr{Function: strings.ToLower(name)}
		switch {
		case p.current().Type == TokenIdent && p.current().Value == "*":
			agg.Star = true
			p.advance()
		case p.current().Type == TokenIdent:
			agg.Column = p.current().Value
			p.advance()
		default:
			return SelectItem{}, parseErrorf("expected column or * in %s()", name)
		}
		if err := p.expect(TokenRightParen); err != nil {
			return SelectItem{}, parseErrorf("expected ) after %s argument", name)
		}
		expr = agg
	} else {
		if err := ValidateColumnName(name); err != nil {
			return SelectItem{}, &ParseError{Message: err.Error()}
		}
		expr = &ColumnRef{Column: name}
	}

	item := SelectItem{Expr: expr}
	if p.current().Type == TokenAs {
		p.advance()
		if p.current().Type != TokenIdent {
			return SelectItem{}, parseErrorf("expected alias after AS")
		}
		item.Alias = p.current().Value
		p.advance()
	}
	return item, nil
}

// parseIdentList parses: ident ("," ident)*
func (p *Parser) parseIdentList() ([]string, error) {
	var cols []string
	for {
		if p.current().Type != TokenIdent {
			return nil, parseErrorf("expected column name, got %q", p.current().Value)
		}
		cols = append(cols, p.current().Value)
		p.advance()

		if p.current().Type != TokenComma {
			break
		}
		p.advance()
	}
	return cols, nil
}

// parseOrderByList parses: ident [ASC|DESC] ("," ident [ASC|DESC])*
func (p *Parser) parseOrderByList() ([]OrderByItem, error) {
	var items []OrderByItem
	for {
		if p.current().Type != TokenIdent {
			return nil, parseErrorf("expected column name in ORDER BY, got %q", p.current().Value)
		}
		item := OrderByItem{Column: p.current().Value}
		p.advance()

		switch p.current().Type {
		case TokenAsc:
			p.advance()
		case TokenDesc:
			item.Desc = true
			p.advance()
		}
		items = append(items, item)

		if p.current().Type != TokenComma {
			break
		}
		p.advance()
	}
	return items, nil
}

// parseOr parses OR expressions (lowest precedence)
func (p *Parser) parseOr() (Expression, error) {
	if err := p.depthCounter.Enter(); err != nil {
		return nil, &ParseError{Message: err.Error()}
	}
	defer p.depthCounter.Exit()

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
		left = &BinaryExpr{Left: left, Operator: TokenOr, Right: right}
	}

	return left, nil
}

// parseAnd parses AND expressions (higher precedence than OR)
func (p *Parser) parseAnd() (Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for p.current().Type == TokenAnd {
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Left: left, Operator: TokenAnd, Right: right}
	}

	return left, nil
}

// parseUnary parses NOT and parenthesized expressions.
func (p *Parser) parseUnary() (Expression, error) {
	switch p.current().Type {
	case TokenNot:
		p.advance()
		expr, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &NotExpr{Expr: expr}, nil
	case TokenLeftParen:
		p.advance()
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(TokenRightParen); err != nil {
			return nil, parseErrorf("expected closing )")
		}
		return expr, nil
	default:
		return p.parseComparison()
	}
}

// parseComparison parses a column followed by a comparison, IN, LIKE,
// BETWEEN, or IS [NOT] NULL.
func (p *Parser) parseComparison() (Expression, error) {
	if p.current().Type != TokenIdent {
		return nil, parseErrorf("expected column name, got %q", p.current().Value)
	}
	column := p.current().Value
	if err := ValidateColumnName(column); err != nil {
		return nil, &ParseError{Message: err.Error()}
	}
	p.advance()

	negate := false
	if p.current().Type == TokenNot {
		negate = true
		p.advance()
	}

	switch p.current().Type {
	case TokenIs:
		if negate {
			return nil, parseErrorf("NOT cannot precede IS; use IS NOT NULL")
		}
		p.advance()
		isNegate := false
		if p.current().Type == TokenNot {
			isNegate = true
			p.advance()
		}
		if err := p.expect(TokenNull); err != nil {
			return nil, parseErrorf("expected NULL after IS")
		}
		return &IsNullExpr{Column: column, Negate: isNegate}, nil

	case TokenIn:
		p.advance()
		if err := p.expect(TokenLeftParen); err != nil {
			return nil, parseErrorf("expected ( after IN")
		}
		var values []interface{}
		for {
			v, err := p.parseValue()
			if err != nil {
				return nil, err
			}
			values = append(values, v)
			if p.current().Type != TokenComma {
				break
			}
			p.advance()
		}
		if err := p.expect(TokenRightParen); err != nil {
			return nil, parseErrorf("expected ) to close IN list")
		}
		return &InExpr{Column: column, Values: values, Negate: negate}, nil

	case TokenLike:
		p.advance()
		if p.current().Type != TokenString {
			return nil, parseErrorf("expected string pattern after LIKE")
		}
		pattern := p.current().Value
		p.advance()
		return &LikeExpr{Column: column, Pattern: pattern, Negate: negate}, nil

	case TokenBetween:
		p.advance()
		lower, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		if err := p.expect(TokenAnd); err != nil {
			return nil, parseErrorf("expected AND in BETWEEN")
		}
		upper, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		return &BetweenExpr{Column: column, Lower: lower, Upper: upper, Negate: negate}, nil
	}

	if negate {
		return nil, parseErrorf("expected IN, LIKE or BETWEEN after NOT")
	}

	operator := p.current().Type
	switch operator {
	case TokenEqual, TokenNotEqual, TokenLess, TokenGreater, TokenLessEqual, TokenGreaterEqual:
		p.advance()
	default:
		return nil, parseErrorf("expected comparison operator, got %q", p.current().Value)
	}

	// A right-hand identifier means a column-to-column comparison.
	if p.current().Type == TokenIdent {
		right := p.current().Value
		p.advance()
		return &ColumnComparisonExpr{LeftColumn: column, Operator: operator, RightColumn: right}, nil
	}

	value, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	return &ComparisonExpr{Column: column, Operator: operator, Value: value}, nil
}

// parseValue parses a literal (string, number, or bool).
func (p *Parser) parseValue() (interface{}, error) {
	switch p.current().Type {
	case TokenString:
		v := p.current().Value
		p.advance()
		return v, nil
	case TokenNumber:
		numStr := p.current().Value
		p.advance()
		if intVal, err := strconv.ParseInt(numStr, 10, 64); err == nil {
			return intVal, nil
		}
		if floatVal, err := strconv.ParseFloat(numStr, 64); err == nil {
			return floatVal, nil
		}
		return nil, parseErrorf("invalid number: %s", numStr)
	case TokenBool:
		v := strings.EqualFold(p.current().Value, "true")
		p.advance()
		return v, nil
	default:
		return nil, parseErrorf("expected value (string, number, or bool), got %q", p.current().Value)
	}
}
