package storage

import (
	"bytes"
	"encoding/json"

	"github.com/starford/finsage/internal/models"
)

// decodeDocuments unmarshals a snapshot payload. Metadata numbers that are
// whole come back as int64 and the rest as float64, so counts and sizes keep
// an integer type across a save and load.
func decodeDocuments(data []byte) ([]models.Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var docs []models.Document
	if err := dec.Decode(&docs); err != nil {
		return nil, err
	}
	for i := range docs {
		for k, v := range docs[i].Metadata {
			docs[i].Metadata[k] = normalizeNumber(v)
		}
	}
	if docs == nil {
		docs = []models.Document{}
	}
	return docs, nil
}

func normalizeNumber(v any) any {
	switch x := v.(type) {
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case map[string]any:
		for k, vv := range x {
			x[k] = normalizeNumber(vv)
		}
	case []any:
		for i, vv := range x {
			x[i] = normalizeNumber(vv)
		}
	}
	return v
}
