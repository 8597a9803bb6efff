package querybuilder

import (
	"strconv"
	"strings"
)

// sqlWriter accumulates SQL text together with positional ($n) arguments.
type sqlWriter struct {
	buf  strings.Builder
	args []any
	next int
}

func newWriter() *sqlWriter {
	return &sqlWriter{next: 1}
}

func (w *sqlWriter) raw(s string) {
	w.buf.WriteString(s)
}

func (w *sqlWriter) bind(value any) {
	w.buf.WriteString("$")
	w.buf.WriteString(strconv.Itoa(w.next))
	w.args = append(w.args, value)
	w.next++
}

// expr writes expr replacing each '?' with the next bound argument.
// Surplus '?' are kept verbatim.
func (w *sqlWriter) expr(expr string, exprArgs []any) {
	if len(exprArgs) == 0 {
		w.buf.WriteString(expr)
		return
	}
	used := 0
	for i := 0; i < len(expr); i++ {
		if expr[i] == '?' && used < len(exprArgs) {
			w.bind(exprArgs[used])
			used++
			continue
		}
		w.buf.WriteByte(expr[i])
	}
}

func (w *sqlWriter) where(conditions []Condition) {
	if len(conditions) == 0 {
		return
	}
	w.raw(" WHERE ")
	writeJoined(w, conditions, " AND ")
}

func (w *sqlWriter) list(keyword string, parts []string) {
	if len(parts) == 0 {
		return
	}
	w.raw(" ")
	w.raw(keyword)
	w.raw(" ")
	w.raw(strings.Join(parts, ", "))
}

func (w *sqlWriter) suffix(sql string, args []any) {
	if sql == "" {
		return
	}
	w.raw(" ")
	w.expr(sql, args)
}

func (w *sqlWriter) result() (string, []any) {
	return w.buf.String(), w.args
}

func writeJoined(w *sqlWriter, conditions []Condition, sep string) {
	for i, c := range conditions {
		if i > 0 {
			w.raw(sep)
		}
		c.writeTo(w)
	}
}

func quoteLiteral(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}
