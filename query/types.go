// Package query provides parsing and evaluation for the browser's query
// language.
//
// It implements a SQL-like grammar with SELECT lists (columns and
// aggregates), WHERE clauses with comparison operators and boolean logic
// (AND/OR), GROUP BY, ORDER BY and LIMIT. The package includes a lexer for
// tokenization, a parser for building ASTs, and evaluators for filtering
// data rows.
//
// Example usage:
//
//	q, err := query.Parse("select region, sum(amount) where amount > 0 group by region")
//	if err != nil {
//	    log.Fatal(err)
//	}
package query

import "fmt"

// TokenType represents the type of a token
type TokenType int

const (
	// Keywords
	TokenSelect TokenType = iota
	TokenFrom
	TokenWhere
	TokenAnd
	TokenOr
	TokenAs
	TokenGroup
	TokenBy
	TokenOrder
	TokenAsc
	TokenDesc
	TokenLimit
	TokenIn
	TokenLike
	TokenBetween
	TokenIs
	TokenNot
	TokenNull

	// Operators
	TokenEqual        // =
	TokenNotEqual     // !=
	TokenLess         // <
	TokenGreater      // >
	TokenLessEqual    // <=
	TokenGreaterEqual // >=

	// Literals
	TokenString
	TokenNumber
	TokenIdent
	TokenBool

	// Delimiters
	TokenComma      // ,
	TokenLeftParen  // (
	TokenRightParen // )

	// Special
	TokenEOF
	TokenError
)

// Token represents a lexical token
type Token struct {
	Type  TokenType
	Value string
}

// Query represents a parsed query
type Query struct {
	SelectList []SelectItem
	From       string // Optional: the browser operates on the open dataset
	Filter     Expression
	GroupBy    []string
	OrderBy    []OrderByItem
	Limit      *int64
}

// HasAggregates reports whether any SELECT item is an aggregate call.
func (q *Query) HasAggregates() bool {
	for _, item := range q.SelectList {
		if _, ok := item.Expr.(*AggregateExpr); ok {
			return true
		}
	}
	return false
}

// IsSelectStar reports whether the SELECT list is a bare *.
func (q *Query) IsSelectStar() bool {
	if len(q.SelectList) != 1 {
		return false
	}
	ref, ok := q.SelectList[0].Expr.(*ColumnRef)
	return ok && ref.Column == "*"
}

// OrderByItem represents a column to sort by
type OrderByItem struct {
	Column string
	Desc   bool
}

// SelectItem represents a column or aggregate in the SELECT list
type SelectItem struct {
	Expr  SelectExpression
	Alias string // Optional alias (AS name)
}

// SelectExpression is an expression that can appear in a SELECT list
type SelectExpression interface {
	selectExpr()
}

// ColumnRef references a column (or * for all columns)
type ColumnRef struct {
	Column string
}

func (*ColumnRef) selectExpr() {}

// AggregateExpr represents an aggregate function call (COUNT, SUM, AVG,
// MIN, MAX). An empty Column with Star set represents COUNT(*).
type AggregateExpr struct {
	Function string
	Column   string
	Star     bool
}

func (*AggregateExpr) selectExpr() {}

// Expression represents a boolean expression in the WHERE clause
type Expression interface {
	Evaluate(row map[string]interface{}) (bool, error)
}

// BinaryExpr represents a binary expression (AND/OR)
type BinaryExpr struct {
	Left     Expression
	Operator TokenType // TokenAnd or TokenOr
	Right    Expression
}

// ComparisonExpr represents a comparison expression (column op literal)
type ComparisonExpr struct {
	Column   string
	Operator TokenType
	Value    interface{}
}

// ColumnComparisonExpr represents a column-to-column comparison (col1 op col2)
type ColumnComparisonExpr struct {
	LeftColumn  string
	Operator    TokenType
	RightColumn string
}

// InExpr represents an IN expression (col IN (val1, val2, ...))
type InExpr struct {
	Column string
	Values []interface{}
	Negate bool // NOT IN
}

// LikeExpr represents a LIKE expression (col LIKE 'pattern')
type LikeExpr struct {
	Column  string
	Pattern string
	Negate  bool // NOT LIKE
}

// BetweenExpr represents a BETWEEN expression (col BETWEEN lower AND upper)
type BetweenExpr struct {
	Column string
	Lower  interface{}
	Upper  interface{}
	Negate bool // NOT BETWEEN
}

// IsNullExpr represents an IS NULL expression (col IS NULL / col IS NOT NULL)
type IsNullExpr struct {
	Column string
	Negate bool // IS NOT NULL
}

// NotExpr negates a nested expression.
type NotExpr struct {
	Expr Expression
}

// Evaluate evaluates a binary expression
func (b *BinaryExpr) Evaluate(row map[string]interface{}) (bool, error) {
	left, err := b.Left.Evaluate(row)
	if err != nil {
		return false, err
	}

	right, err := b.Right.Evaluate(row)
	if err != nil {
		return false, err
	}

	switch b.Operator {
	case TokenAnd:
		return left && right, nil
	case TokenOr:
		return left || right, nil
	default:
		return false, fmt.Errorf("unsupported binary operator: %v", b.Operator)
	}
}

// Evaluate evaluates a comparison expression
func (c *ComparisonExpr) Evaluate(row map[string]interface{}) (bool, error) {
	value, exists := row[c.Column]
	if !exists {
		return false, fmt.Errorf("column %q not found", c.Column)
	}

	return compare(value, c.Operator, c.Value)
}

// Evaluate evaluates a column-to-column comparison expression
func (c *ColumnComparisonExpr) Evaluate(row map[string]interface{}) (bool, error) {
	leftValue, leftExists := row[c.LeftColumn]
	if !leftExists {
		return false, fmt.Errorf("column %q not found", c.LeftColumn)
	}
	rightValue, rightExists := row[c.RightColumn]
	if !rightExists {
		return false, fmt.Errorf("column %q not found", c.RightColumn)
	}

	return compare(leftValue, c.Operator, rightValue)
}

// Evaluate evaluates an IN expression
func (i *InExpr) Evaluate(row map[string]interface{}) (bool, error) {
	value, exists := row[i.Column]
	if !exists {
		return false, fmt.Errorf("column %q not found", i.Column)
	}

	found := false
	for _, listValue := range i.Values {
		match, err := compare(value, TokenEqual, listValue)
		if err != nil {
			return false, err
		}
		if match {
			found = true
			break
		}
	}

	if i.Negate {
		return !found, nil
	}
	return found, nil
}

// Evaluate evaluates a LIKE expression
func (l *LikeExpr) Evaluate(row map[string]interface{}) (bool, error) {
	value, exists := row[l.Column]
	if !exists {
		return false, fmt.Errorf("column %q not found", l.Column)
	}

	str, ok := value.(string)
	if !ok {
		return false, fmt.Errorf("LIKE requires string column, got %T", value)
	}

	match := matchLikePattern(str, l.Pattern)
	if l.Negate {
		return !match, nil
	}
	return match, nil
}

// Evaluate evaluates a BETWEEN expression
func (b *BetweenExpr) Evaluate(row map[string]interface{}) (bool, error) {
	value, exists := row[b.Column]
	if !exists {
		return false, fmt.Errorf("column %q not found", b.Column)
	}

	lowerMatch, err := compare(value, TokenGreaterEqual, b.Lower)
	if err != nil {
		return false, err
	}
	upperMatch, err := compare(value, TokenLessEqual, b.Upper)
	if err != nil {
		return false, err
	}

	between := lowerMatch && upperMatch
	if b.Negate {
		return !between, nil
	}
	return between, nil
}

// Evaluate evaluates an IS NULL expression
func (i *IsNullExpr) Evaluate(row map[string]interface{}) (bool, error) {
	value, exists := row[i.Column]
	isNull := !exists || value == nil

	if i.Negate {
		return !isNull, nil
	}
	return isNull, nil
}

// Evaluate evaluates a NOT expression
func (n *NotExpr) Evaluate(row map[string]interface{}) (bool, error) {
	v, err := n.Expr.Evaluate(row)
	if err != nil {
		return false, err
	}
	return !v, nil
}
