// Package store defines the datastore contracts the search and indexing
// core depends on, and their Elasticsearch implementation. Every
// bookmark-reading operation is scoped to an owner and excludes archived
// bookmarks.
package store

// KeywordQuery describes a keyword-fallback search. When Domain is
// non-empty the query looked like a URL or bare domain and matching
// should prefer domain containment over token matching.
type KeywordQuery struct {
	Raw    string
	Tokens []string
	Domain string
}
