package db

// TagFilter matches documents whose tag field holds any of Values.
type TagFilter struct {
	Field  string
	Values []string
	// Negate excludes matching documents instead.
	Negate bool
}

// ListQuery is the input for a paginated, sorted search. Tag filters are
// ANDed together; Text, when set, must match one of TextFields.
type ListQuery struct {
	Index      string
	Tags       []TagFilter
	Text       string
	TextFields []string
	Offset     int
	Limit      int
	SortBy     string
	SortDesc   bool
	Fields     []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Fields map[string]string
}
