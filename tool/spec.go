// Package tool defines the tool specification model and the process-wide
// registry the dispatcher resolves invocations against. Specs are declared
// once at startup (most of them expanded from the generated catalog in
// fintools) and are immutable after the registry is frozen.
package tool

import (
	"context"
	"time"
)

// Param type literals used by tool parameter schemas.
const (
	TypeString  = "string"
	TypeInteger = "integer"
	TypeFloat   = "float"
	TypeBoolean = "boolean"
)

var validParamTypes = map[string]struct{}{
	TypeString:  {},
	TypeInteger: {},
	TypeFloat:   {},
	TypeBoolean: {},
}

// Param describes one named parameter of a tool.
type Param struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Required    bool   `json:"required,omitempty"`
	Default     any    `json:"default,omitempty"`
	Description string `json:"description,omitempty"`
}

// Handler executes one tool invocation against validated arguments.
// Implementations must be side-effect-free beyond their single upstream call.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// Spec is the registered record for one tool: its name, parameter schema,
// and handler. Params are ordered; the order is preserved in /tools/list.
type Spec struct {
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Params      []Param       `json:"params,omitempty"`
	Timeout     time.Duration `json:"-"`
	Handler     Handler       `json:"-"`
}

// ParamByName returns the declared parameter with the given name.
func (s Spec) ParamByName(name string) (Param, bool) {
	for _, p := range s.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// InputSchema renders the parameter list as a JSON-Schema-shaped object, the
// form MCP clients expect in tools/list.
func (s Spec) InputSchema() map[string]any {
	properties := make(map[string]any, len(s.Params))
	required := make([]string, 0, len(s.Params))
	for _, p := range s.Params {
		prop := map[string]any{"type": jsonSchemaType(p.Type)}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		if p.Default != nil {
			prop["default"] = p.Default
		}
		properties[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func jsonSchemaType(paramType string) string {
	switch paramType {
	case TypeInteger:
		return "integer"
	case TypeFloat:
		return "number"
	case TypeBoolean:
		return "boolean"
	default:
		return "string"
	}
}

func isValidParamType(typeName string) bool {
	_, ok := validParamTypes[typeName]
	return ok
}
