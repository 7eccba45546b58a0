// Package plugin implements the admin editor for plugin configuration
// entities: local validation, JSON Schema parameter checks answered over the
// bus, the add-mode name uniqueness probe, and JSON export/import.
package plugin

import "encoding/json"

// Entity is a plugin configuration instance as stored by the server.
type Entity struct {
	Name        string         `json:"name"`
	DisplayName string         `json:"display_name,omitempty"`
	Module      string         `json:"module"`
	Readonly    bool           `json:"readonly,omitempty"`
	Enabled     bool           `json:"enabled"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// Clone returns a deep copy of e.
func (e Entity) Clone() Entity {
	c := e
	c.Parameters = cloneMap(e.Parameters)
	return c
}

// ModType is a plugin module type with the JSON Schema of its parameters.
type ModType struct {
	Name             string          `json:"name"`
	DisplayName      string          `json:"display_name,omitempty"`
	Description      string          `json:"description,omitempty"`
	ParametersSchema json.RawMessage `json:"parameters-schema,omitempty"`
}

// Label returns the display name, or the name when none is set.
func (m ModType) Label() string {
	if m.DisplayName != "" {
		return m.DisplayName
	}
	return m.Name
}

// Mode selects between creating and editing an entity.
type Mode int

const (
	ModeAdd Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeAdd {
		return "add"
	}
	return "edit"
}

// Role is the kind of configuration entity being edited.
type Role string

const (
	RolePlugin Role = "plugin"
	RoleScheme Role = "scheme"
	RoleUser   Role = "user"
)

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	c := make(map[string]any, len(m))
	for k, v := range m {
		c[k] = cloneValue(v)
	}
	return c
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		return cloneMap(v)
	case []any:
		c := make([]any, len(v))
		for i, e := range v {
			c[i] = cloneValue(e)
		}
		return c
	default:
		return v
	}
}
