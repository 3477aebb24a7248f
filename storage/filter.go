package storage

import "strings"

// filter builds OData filter expressions restricted to equality clauses.
// Request-derived values only ever appear as quoted literals, so client input
// cannot smuggle extra operators into a table query.
type filter struct {
	clauses []string
}

func (f *filter) eqString(property, value string) *filter {
	f.clauses = append(f.clauses, property+" eq '"+strings.ReplaceAll(value, "'", "''")+"'")
	return f
}

func (f *filter) eqBool(property string, value bool) *filter {
	lit := "false"
	if value {
		lit = "true"
	}
	f.clauses = append(f.clauses, property+" eq "+lit)
	return f
}

func (f *filter) String() string {
	return strings.Join(f.clauses, " and ")
}
