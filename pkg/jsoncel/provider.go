package jsoncel

import (
	"sort"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/checker/decls"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	exprpb "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// Provider extends the CEL ref.TypeProvider interface and
// provides a JSON Schema-based type-system.
type Provider struct {
	// fallback proto-based type provider
	protos ref.TypeProvider

	// roots are the top-level variables, e.g. 'call' and 'contact'.
	roots map[string]*Schema

	// typeMap is a map of CEL type references to
	// the corresponding JSON schema node.
	// nested fields in the JSON schema are mapped using
	// a dot notation, e.g. 'call.queue.name'.
	//
	// for example, if the 'call' variable has the schema:
	// 	{
	//	  "type": "object",
	//	  "properties": {
	//	    "queue": {
	//	      "type": "object",
	//	      "properties": {
	//	        "name": {"type": "string"}
	//	      }
	//	    }
	//	  }
	//	}
	//
	// typeMap will be:
	// 	call -> the whole schema
	// 	call.queue -> {"type": "object", "properties": {"name": {"type": "string"}}}
	// 	call.queue.name -> {"type": "string"}
	typeMap map[string]*Schema
}

// NewProvider builds a provider for a set of top-level variables.
// Each key of roots becomes a variable name.
func NewProvider(roots map[string]*Schema) *Provider {
	p := &Provider{
		protos:  types.NewEmptyRegistry(),
		roots:   map[string]*Schema{},
		typeMap: map[string]*Schema{},
	}

	for name, s := range roots {
		if s == nil {
			s = &Schema{Type: Object, AdditionalProperties: true}
		}
		p.roots[name] = s
		p.mapSchema(name, s)
	}

	return p
}

// FromDocument builds a provider from a schema document whose
// top-level properties are the variables.
func FromDocument(s *Schema) *Provider {
	if s == nil {
		return NewProvider(nil)
	}
	return NewProvider(s.Properties)
}

// mapSchema builds up the typeMap for the JSON schema.
// Each entry in the type map is a particular node in the schema.
//
// The 'key' argument is the key to register the schema as (e.g. 'call.queue')
func (p *Provider) mapSchema(key string, s *Schema) {
	p.typeMap[key] = s

	for childKey, child := range s.Properties {
		p.mapSchema(key+"."+childKey, child)
	}
}

// EnvOptions returns the options which declare the provider
// and its variables in a CEL environment.
func (p *Provider) EnvOptions() []cel.EnvOption {
	names := make([]string, 0, len(p.roots))
	for name := range p.roots {
		names = append(names, name)
	}
	sort.Strings(names)

	opts := []cel.EnvOption{cel.CustomTypeProvider(p)}
	for _, name := range names {
		opts = append(opts, cel.Declarations(decls.NewVar(name, p.exprType(name, p.roots[name]))))
	}
	return opts
}

var _ ref.TypeProvider = &Provider{}

// EnumValue returns the numeric value of the given enum value name.
func (p *Provider) EnumValue(enumName string) ref.Val {
	return p.protos.EnumValue(enumName)
}

// FindIdent takes a qualified identifier name and returns a Value if one
// exists.
func (p *Provider) FindIdent(identName string) (ref.Val, bool) {
	return p.protos.FindIdent(identName)
}

// FindType looks up the Type given a qualified typeName. Returns false
// if not found.
//
// Used during type-checking only.
func (p *Provider) FindType(typeName string) (*exprpb.Type, bool) {
	if s, ok := p.typeMap[typeName]; ok {
		t := p.exprType(typeName, s)
		if t.GetMessageType() != "" {
			return decls.NewTypeType(t), true
		}
		return t, true
	}

	return p.protos.FindType(typeName)
}

// FindFieldType returns the field type for a checked type value. Returns
// false if the field could not be found.
//
// Used during type-checking only.
func (p *Provider) FindFieldType(messageType string, fieldName string) (*ref.FieldType, bool) {
	key := messageType + "." + fieldName
	if s, ok := p.typeMap[key]; ok {
		return &ref.FieldType{Type: p.exprType(key, s)}, true
	}

	// fall back to the default
	return p.protos.FindFieldType(messageType, fieldName)
}

// NewValue creates a new type value from a qualified name and map of field
// name to value.
func (p *Provider) NewValue(typeName string, fields map[string]ref.Val) ref.Val {
	return p.protos.NewValue(typeName, fields)
}

// exprType converts the schema node registered at key into a CEL type.
func (p *Provider) exprType(key string, s *Schema) *exprpb.Type {
	switch s.Type {
	case Null:
		return decls.Null
	case Boolean:
		return decls.Bool
	case Object:
		// if additional properties are allowed we can't enforce
		// compile time type checking for child keys in this type.
		//
		// e.g. {"tags": {"prod": true}}
		// we don't know whether tags.prod will exist or not at compile time.
		if s.AdditionalProperties {
			return decls.NewMapType(decls.String, decls.Dyn)
		}
		return decls.NewObjectType(key)
	case Array:
		if s.Items == nil {
			return decls.NewListType(decls.Dyn)
		}
		return decls.NewListType(p.exprType(key+"[]", s.Items))
	case Number:
		return decls.Double
	case String:
		return decls.String
	case Integer:
		return decls.Int
	}
	return decls.Dyn
}
