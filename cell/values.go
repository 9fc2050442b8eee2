package cell

import "github.com/jacentio/cellgraph/docstore"

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func intField(m map[string]any, key string) (int64, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	return docstore.AsInt64(v)
}

func mapField(m map[string]any, key string) map[string]any {
	switch v := m[key].(type) {
	case map[string]any:
		return v
	case docstore.Document:
		return map[string]any(v)
	}
	return nil
}
