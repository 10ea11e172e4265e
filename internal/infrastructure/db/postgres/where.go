package postgres

import (
	"strconv"
	"strings"
)

// where accumulates AND-ed conditions with positional arguments. A "?" in a
// condition is replaced by the placeholder of the argument added with it, so
// one argument may be referenced more than once.
type where struct {
	conds []string
	args  []any
}

func newWhere(fixed ...string) *where {
	return &where{conds: append([]string(nil), fixed...)}
}

func (w *where) add(cond string, arg any) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(w.args))))
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(w.conds, " AND ")
}

// next returns the placeholder for the argument after the current ones.
func (w *where) next(offset int) string {
	return "$" + strconv.Itoa(len(w.args)+offset)
}
