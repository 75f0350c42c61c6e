package index

// CatalogIndex is the read side consumed by the HTTP API and the MCP server.
type CatalogIndex interface {
	ListPosts(tag string, limit, offset int) ([]PostRow, int, error)
	GetPost(id string) (*PostRow, error)
	Search(query string, limit int) ([]SearchResult, error)
	Tags() ([]TagRow, error)
}

var _ CatalogIndex = (*DB)(nil)
