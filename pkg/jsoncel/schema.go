package jsoncel

// Type is a JSON schema primitive type.
type Type string

const (
	Null    Type = "null"
	Boolean Type = "boolean"
	Object  Type = "object"
	Array   Type = "array"
	Number  Type = "number"
	String  Type = "string"
	Integer Type = "integer"
)

// Schema is the subset of a JSON schema document used to type
// the variables of condition expressions.
//
// Schemas are usually written in YAML, e.g.
//
//	type: object
//	properties:
//	  call:
//	    type: object
//	    properties:
//	      wait_seconds: { type: integer }
//	  contact:
//	    type: object
//	    additionalProperties: true
type Schema struct {
	Type       Type               `json:"type,omitempty" yaml:"type,omitempty"`
	Properties map[string]*Schema `json:"properties,omitempty" yaml:"properties,omitempty"`
	// AdditionalProperties allows keys which aren't listed in Properties.
	// Fields of such objects can't be type-checked.
	AdditionalProperties bool `json:"additionalProperties,omitempty" yaml:"additionalProperties,omitempty"`
	// Items is the schema of array elements.
	Items       *Schema `json:"items,omitempty" yaml:"items,omitempty"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
}
