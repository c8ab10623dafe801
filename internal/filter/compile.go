package filter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Dialect selects placeholder syntax.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	MySQL    Dialect = "mysql"
	Postgres Dialect = "postgres"
)

// likeEscape is the LIKE escape character. '!' needs no quoting in any dialect.
const likeEscape = '!'

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Compile converts q to SQL for d. Values are always bound as parameters,
// never interpolated; identifiers are validated. Selects without an explicit
// order are ordered by their first column so output is deterministic.
func Compile(q Query, d Dialect) (string, []any, error) {
	if q == nil {
		return "", nil, fmt.Errorf("cannot compile nil query")
	}
	c := &compiler{dialect: d}
	var (
		sql string
		err error
	)
	switch query := q.(type) {
	case Select:
		sql, err = c.compileSelect(query)
	case *Select:
		sql, err = c.compileSelect(*query)
	case Count:
		sql, err = c.compileCount(query)
	case *Count:
		sql, err = c.compileCount(*query)
	case GroupCount:
		sql, err = c.compileGroupCount(query)
	case *GroupCount:
		sql, err = c.compileGroupCount(*query)
	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}
	if err != nil {
		return "", nil, err
	}
	return sql, c.args, nil
}

type compiler struct {
	dialect Dialect
	args    []any
}

func (c *compiler) bind(v any) string {
	c.args = append(c.args, v)
	if c.dialect == Postgres {
		return "$" + strconv.Itoa(len(c.args))
	}
	return "?"
}

func ident(name string) (string, error) {
	if !identRe.MatchString(name) {
		return "", fmt.Errorf("invalid identifier %q", name)
	}
	return name, nil
}

func (c *compiler) compileSelect(q Select) (string, error) {
	from, err := ident(q.From)
	if err != nil {
		return "", err
	}
	if len(q.Columns) == 0 {
		return "", fmt.Errorf("select from %s: no columns", from)
	}
	cols := make([]string, len(q.Columns))
	for i, col := range q.Columns {
		if cols[i], err = ident(col); err != nil {
			return "", err
		}
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(cols, ", "))
	b.WriteString(" FROM ")
	b.WriteString(from)
	if err := c.writeWhere(&b, q.Where); err != nil {
		return "", err
	}

	order := q.OrderBy
	if len(order) == 0 {
		order = []Order{Asc(cols[0])}
	}
	parts := make([]string, 0, len(order))
	for _, o := range order {
		part, err := c.compileOrder(o)
		if err != nil {
			return "", err
		}
		parts = append(parts, part)
	}
	b.WriteString(" ORDER BY ")
	b.WriteString(strings.Join(parts, ", "))

	if q.Limit > 0 {
		b.WriteString(" LIMIT ")
		b.WriteString(c.bind(q.Limit))
	}
	return b.String(), nil
}

func (c *compiler) compileCount(q Count) (string, error) {
	from, err := ident(q.From)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("SELECT COUNT(*) AS count FROM ")
	b.WriteString(from)
	if err := c.writeWhere(&b, q.Where); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (c *compiler) compileGroupCount(q GroupCount) (string, error) {
	from, err := ident(q.From)
	if err != nil {
		return "", err
	}
	if len(q.GroupBy) == 0 {
		return "", fmt.Errorf("group count on %s: no group columns", from)
	}
	cols := make([]string, len(q.GroupBy))
	for i, col := range q.GroupBy {
		if cols[i], err = ident(col); err != nil {
			return "", err
		}
	}
	list := strings.Join(cols, ", ")

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(list)
	b.WriteString(", COUNT(*) AS count FROM ")
	b.WriteString(from)
	if err := c.writeWhere(&b, q.Where); err != nil {
		return "", err
	}
	b.WriteString(" GROUP BY ")
	b.WriteString(list)
	b.WriteString(" ORDER BY count DESC, ")
	b.WriteString(list)
	if q.Limit > 0 {
		b.WriteString(" LIMIT ")
		b.WriteString(c.bind(q.Limit))
	}
	return b.String(), nil
}

func (c *compiler) writeWhere(b *strings.Builder, p Predicate) error {
	if p == nil {
		return nil
	}
	sql, err := c.compilePredicate(p)
	if err != nil {
		return fmt.Errorf("compile filter: %w", err)
	}
	b.WriteString(" WHERE ")
	b.WriteString(sql)
	return nil
}

func (c *compiler) compileOrder(o Order) (string, error) {
	col, err := ident(o.Column)
	if err != nil {
		return "", err
	}
	expr := col
	if len(o.Ranks) > 0 {
		expr = c.rankExpr(col, o.Ranks)
	}
	if o.Desc {
		return expr + " DESC", nil
	}
	return expr + " ASC", nil
}

// rankExpr maps col's value to its index in ranks, or -1.
func (c *compiler) rankExpr(col string, ranks []string) string {
	var b strings.Builder
	b.WriteString("CASE ")
	b.WriteString(col)
	for i, r := range ranks {
		b.WriteString(" WHEN ")
		b.WriteString(c.bind(r))
		b.WriteString(" THEN ")
		b.WriteString(strconv.Itoa(i))
	}
	b.WriteString(" ELSE -1 END")
	return b.String()
}

func (c *compiler) compilePredicate(p Predicate) (string, error) {
	switch pred := p.(type) {
	case Eq:
		return c.binary(pred.Column, "=", pred.Value)
	case NotEq:
		return c.binary(pred.Column, "<>", pred.Value)
	case Gt:
		return c.binary(pred.Column, ">", pred.Value)
	case Gte:
		return c.binary(pred.Column, ">=", pred.Value)
	case Lte:
		return c.binary(pred.Column, "<=", pred.Value)
	case Contains:
		return c.like(pred.Column, "%"+EscapeLike(pred.Substring)+"%")
	case HasPrefix:
		return c.like(pred.Column, EscapeLike(pred.Prefix)+"%")
	case In:
		col, err := ident(pred.Column)
		if err != nil {
			return "", err
		}
		if len(pred.Values) == 0 {
			return "1 = 0", nil
		}
		marks := make([]string, len(pred.Values))
		for i, v := range pred.Values {
			marks[i] = c.bind(v)
		}
		return col + " IN (" + strings.Join(marks, ", ") + ")", nil
	case IsNull:
		col, err := ident(pred.Column)
		if err != nil {
			return "", err
		}
		return col + " IS NULL", nil
	case NotNull:
		col, err := ident(pred.Column)
		if err != nil {
			return "", err
		}
		return col + " IS NOT NULL", nil
	case AtLeast:
		col, err := ident(pred.Column)
		if err != nil {
			return "", err
		}
		min := -1
		for i, r := range pred.Ranks {
			if r == pred.Min {
				min = i
			}
		}
		if min < 0 {
			return "", fmt.Errorf("ordinal %q not in ranks %v", pred.Min, pred.Ranks)
		}
		return c.rankExpr(col, pred.Ranks) + " >= " + c.bind(min), nil
	case And:
		return c.join(pred, " AND ", "1 = 1")
	case Or:
		return c.join(pred, " OR ", "1 = 0")
	case nil:
		return "1 = 1", nil
	default:
		return "", fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func (c *compiler) binary(column, op string, value any) (string, error) {
	col, err := ident(column)
	if err != nil {
		return "", err
	}
	return col + " " + op + " " + c.bind(value), nil
}

func (c *compiler) like(column, pattern string) (string, error) {
	col, err := ident(column)
	if err != nil {
		return "", err
	}
	return col + " LIKE " + c.bind(pattern) + " ESCAPE '" + string(likeEscape) + "'", nil
}

func (c *compiler) join(preds []Predicate, sep, empty string) (string, error) {
	if len(preds) == 0 {
		return empty, nil
	}
	parts := make([]string, 0, len(preds))
	for _, p := range preds {
		sql, err := c.compilePredicate(p)
		if err != nil {
			return "", err
		}
		parts = append(parts, sql)
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	return "(" + strings.Join(parts, sep) + ")", nil
}

// EscapeLike escapes LIKE wildcards in s so that it matches literally.
func EscapeLike(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r == '%' || r == '_' || r == likeEscape {
			b.WriteRune(likeEscape)
		}
		b.WriteRune(r)
	}
	return b.String()
}
