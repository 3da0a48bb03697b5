package keyword

import (
	"sort"
	"strings"
)

// ClusterQuery is the set of keywords a user grouped into one cluster.
// Only membership matters; the zero value is an empty query.
type ClusterQuery struct {
	members map[string]struct{}
}

// ParseCluster splits comma-separated input, trims every token and dedupes.
// Empty tokens are kept: "a,,b" yields {"a", "", "b"} and blank input yields {""}.
// An empty member only matches rows whose keyword cell is empty.
func ParseCluster(input string) ClusterQuery {
	return NewClusterQuery(strings.Split(input, ",")...)
}

// NewClusterQuery builds a query from already separated keywords, trimming each one.
func NewClusterQuery(keywords ...string) ClusterQuery {
	q := ClusterQuery{members: make(map[string]struct{}, len(keywords))}
	for _, kw := range keywords {
		q.members[strings.TrimSpace(kw)] = struct{}{}
	}
	return q
}

// Len returns the number of distinct keywords.
func (q ClusterQuery) Len() int { return len(q.members) }

// Contains reports exact, case-sensitive membership.
func (q ClusterQuery) Contains(keyword string) bool {
	_, ok := q.members[keyword]
	return ok
}

// Keywords returns the members in sorted order.
func (q ClusterQuery) Keywords() []string {
	out := make([]string, 0, len(q.members))
	for kw := range q.members {
		out = append(out, kw)
	}
	sort.Strings(out)
	return out
}

// Resolve returns the rows whose keyword is a member of q, preserving row order and columns.
func Resolve(t *Table, q ClusterQuery) *Table {
	return t.Select(func(r Record) bool { return q.Contains(r.Keyword) })
}

// Unmatched returns the members of q that do not occur in t, sorted.
func Unmatched(t *Table, q ClusterQuery) []string {
	present := make(map[string]bool, len(t.Records))
	for _, r := range t.Records {
		present[r.Keyword] = true
	}
	var out []string
	for _, kw := range q.Keywords() {
		if !present[kw] {
			out = append(out, kw)
		}
	}
	return out
}
