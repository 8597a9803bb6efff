package querybuilder

type Condition interface {
	writeTo(w *sqlWriter)
}

type compareCondition struct {
	column string
	op     string
	value  any
}

func (c compareCondition) writeTo(w *sqlWriter) {
	w.raw(c.column)
	w.raw(" ")
	w.raw(c.op)
	w.raw(" ")
	w.bind(c.value)
}

func Eq(column string, value any) Condition  { return compareCondition{column, "=", value} }
func Ne(column string, value any) Condition  { return compareCondition{column, "<>", value} }
func Lt(column string, value any) Condition  { return compareCondition{column, "<", value} }
func Lte(column string, value any) Condition { return compareCondition{column, "<=", value} }
func Gt(column string, value any) Condition  { return compareCondition{column, ">", value} }
func Gte(column string, value any) Condition { return compareCondition{column, ">=", value} }

type inCondition struct {
	column string
	values []any
}

// In renders "1=0" for an empty set so the statement still parses.
func In(column string, values []any) Condition {
	return inCondition{column: column, values: values}
}

func (c inCondition) writeTo(w *sqlWriter) {
	if len(c.values) == 0 {
		w.raw("1=0")
		return
	}
	w.raw(c.column)
	w.raw(" IN (")
	for i, v := range c.values {
		if i > 0 {
			w.raw(", ")
		}
		w.bind(v)
	}
	w.raw(")")
}

type nullCondition struct {
	column string
	not    bool
}

func IsNull(column string) Condition  { return nullCondition{column: column} }
func NotNull(column string) Condition { return nullCondition{column: column, not: true} }

func (c nullCondition) writeTo(w *sqlWriter) {
	w.raw(c.column)
	if c.not {
		w.raw(" IS NOT NULL")
		return
	}
	w.raw(" IS NULL")
}

type exprCondition struct {
	expr string
	args []any
}

// Expr is a raw predicate with '?' placeholders.
func Expr(expr string, args ...any) Condition {
	return exprCondition{expr: expr, args: args}
}

func (c exprCondition) writeTo(w *sqlWriter) {
	w.expr(c.expr, c.args)
}

type literalCondition struct {
	column string
	value  string
}

func EqLiteral(column, value string) Condition {
	return literalCondition{column: column, value: value}
}

func (c literalCondition) writeTo(w *sqlWriter) {
	w.raw(c.column)
	w.raw(" = ")
	w.raw(quoteLiteral(c.value))
}

type groupCondition struct {
	sep        string
	conditions []Condition
}

func Or(conditions ...Condition) Condition {
	return groupCondition{sep: " OR ", conditions: conditions}
}

func And(conditions ...Condition) Condition {
	return groupCondition{sep: " AND ", conditions: conditions}
}

func (c groupCondition) writeTo(w *sqlWriter) {
	if len(c.conditions) == 0 {
		w.raw("1=1")
		return
	}
	w.raw("(")
	writeJoined(w, c.conditions, c.sep)
	w.raw(")")
}
