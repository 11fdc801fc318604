package store

import "strings"

// Where is an immutable conjunction of SQL predicates. The zero value matches
// every row; each method returns a new Where narrowed by one more predicate
// and leaves the receiver untouched.
type Where struct {
	clauses []clause
}

type clause struct {
	sql  string
	args []any
}

// And narrows w by a raw predicate using ? placeholders.
func (w Where) And(predicate string, args ...any) Where {
	clauses := make([]clause, len(w.clauses), len(w.clauses)+1)
	copy(clauses, w.clauses)
	return Where{clauses: append(clauses, clause{sql: predicate, args: args})}
}

// Eq narrows w to rows where column equals value.
func (w Where) Eq(column string, value any) Where {
	return w.And(column+" = ?", value)
}

// In narrows w to rows whose column is one of ids. An empty list matches nothing.
func (w Where) In(column string, ids []int64) Where {
	if len(ids) == 0 {
		return w.And("1 = 0")
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	marks := strings.Repeat("?, ", len(ids))
	return w.And(column+" IN ("+marks[:len(marks)-2]+")", args...)
}

// Len reports the number of predicates.
func (w Where) Len() int {
	return len(w.clauses)
}

// SQL renders the predicate with ? placeholders and its bind arguments.
func (w Where) SQL() (string, []any) {
	if len(w.clauses) == 0 {
		return "1 = 1", nil
	}
	parts := make([]string, len(w.clauses))
	var args []any
	for i, c := range w.clauses {
		parts[i] = "(" + c.sql + ")"
		args = append(args, c.args...)
	}
	return strings.Join(parts, " AND "), args
}
