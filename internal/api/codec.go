package api

import "encoding/json"

// Codec carries the plain message structs of this package over connect's
// "json" content type. It replaces connect's protojson codec.
type Codec struct{}

func (Codec) Name() string { return "json" }

func (Codec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (Codec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
