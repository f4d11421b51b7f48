package storage

// Document is one rendered page addressed by its site route.
type Document struct {
	route string
	body  []byte
}

func NewDocument(route string, body []byte) Document {
	return Document{route: route, body: body}
}

func (d Document) Route() string {
	return d.route
}

func (d Document) Body() []byte {
	return d.body
}

// Persistence

type WriteResult struct {
	route       string
	path        string
	contentHash string
}

func NewWriteResult(
	route string,
	path string,
	contentHash string,
) WriteResult {
	return WriteResult{
		route:       route,
		path:        path,
		contentHash: contentHash,
	}
}

func (w WriteResult) Route() string {
	return w.route
}

func (w WriteResult) Path() string {
	return w.path
}

func (w WriteResult) ContentHash() string {
	return w.contentHash
}
