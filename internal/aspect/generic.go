package aspect

import "encoding/json"

// Generic is an untyped aspect value carrying arbitrary JSON fields.
// Used by the CLI and by callers that work with aspect names they have
// no compiled struct for. Stored form is the Fields object alone.
type Generic struct {
	Name   string
	Fields map[string]any
}

// AspectName implements Value.
func (g *Generic) AspectName() string { return g.Name }

// MarshalJSON stores only the fields; the name lives in the aspect column.
func (g *Generic) MarshalJSON() ([]byte, error) {
	if g.Fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(g.Fields)
}

// UnmarshalJSON fills Fields from the stored object.
func (g *Generic) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &g.Fields)
}

// RegisterGeneric registers a Generic factory for name, so stored rows of
// that aspect deserialize into Generic values.
func RegisterGeneric(r *Registry, name string) {
	r.Register(func() Value { return &Generic{Name: name} })
}
