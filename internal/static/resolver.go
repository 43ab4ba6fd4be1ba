// Package static maps request targets to files under a document root and
// turns them into responses.
package static

// Resolver maps a request target to a filesystem path. It is a plain value
// so every connection handler can hold its own copy.
type Resolver struct {
	DocumentRoot string
	IndexName    string
}

func NewResolver(documentRoot, indexName string) Resolver {
	return Resolver{
		DocumentRoot: documentRoot,
		IndexName:    indexName,
	}
}

// Resolve returns DocumentRoot + "/" + IndexName for "/" and DocumentRoot +
// target otherwise. The target is used as sent: no decoding, no cleaning of
// ".." segments and no query stripping. With the default root "." a target
// of "/foo.txt" resolves to "./foo.txt".
func (r Resolver) Resolve(target string) string {
	if target == "/" {
		return r.DocumentRoot + "/" + r.IndexName
	}
	return r.DocumentRoot + target
}
