package entity

// Document is a schemaless record as returned by the remote data source.
// After Normalize, its identity lives under the single canonical "id" key.
type Document map[string]any

// identityKeys, in priority order. The remote store emits Mongo-style "_id";
// some call sites build documents with "id". Normalize collapses both.
var identityKeys = [2]string{"id", "_id"}

// ID returns the document identity as a string, or "" if absent.
func (d Document) ID() string {
	for _, key := range identityKeys {
		if v, ok := d[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

// Normalize maps the identity field to the canonical "id" key so downstream
// code never branches on which key the source used. It mutates in place and
// returns d for chaining.
func Normalize(d Document) Document {
	if d == nil {
		return d
	}
	if raw, ok := d["_id"]; ok {
		if _, hasID := d["id"]; !hasID {
			d["id"] = raw
		}
		delete(d, "_id")
	}
	return d
}

// NormalizeAll normalizes every document in the slice in place.
func NormalizeAll(docs []Document) []Document {
	for _, d := range docs {
		Normalize(d)
	}
	return docs
}

// Clone deep-copies a document so cached state is never shared with callers.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = cloneValue(v)
	}
	return out
}

// CloneAll deep-copies a slice of documents.
func CloneAll(docs []Document) []Document {
	if docs == nil {
		return nil
	}
	out := make([]Document, len(docs))
	for i, d := range docs {
		out[i] = d.Clone()
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return map[string]any(Document(t).Clone())
	case Document:
		return t.Clone()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
