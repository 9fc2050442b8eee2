package docstore

// Window applies skip, limit and projection to an ordered result set.
// Backends that cannot page natively use it after filtering.
func Window(docs []Document, opts FindOptions) []Document {
	if opts.Skip > 0 {
		if opts.Skip >= len(docs) {
			return []Document{}
		}
		docs = docs[opts.Skip:]
	}
	if opts.Limit > 0 && opts.Limit < len(docs) {
		docs = docs[:opts.Limit]
	}
	out := make([]Document, len(docs))
	for i, d := range docs {
		out[i] = d.Project(opts.Fields)
	}
	return out
}
