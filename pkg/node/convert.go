package node

import (
	"reflect"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

// ToMap converts a payload into a plain map keyed by the
// field names used in documents, e.g. 'queueName'.
//
// The returned map never shares maps or slices with d.
func ToMap(d Data) map[string]any {
	if d == nil {
		return map[string]any{}
	}
	if c, ok := d.(Custom); ok {
		return cloneMap(c.Fields)
	}

	out := map[string]any{}
	// decoding a struct into a map can't fail for the flat payload structs.
	_ = mapstructure.Decode(d, &out)
	return cloneMap(out)
}

// FromMap builds the payload for t from a plain map.
// Fields missing from m keep their registry defaults.
func FromMap(t Type, m map[string]any) (Data, error) {
	return Merge(Defaults(t), m)
}

// Merge returns a copy of d with the fields in partial written over it.
// Fields that aren't in partial are preserved. Values are weakly typed,
// so "30" decodes into an int field.
func Merge(d Data, partial map[string]any) (Data, error) {
	if c, ok := d.(Custom); ok {
		fields := cloneMap(c.Fields)
		for k, v := range partial {
			fields[k] = cloneValue(v)
		}
		return Custom{Kind: c.Kind, Fields: fields}, nil
	}
	if partial == nil {
		// with ZeroFields a nil input would zero the whole struct.
		partial = map[string]any{}
	}

	ptr := reflect.New(reflect.TypeOf(d))
	ptr.Elem().Set(reflect.ValueOf(d))

	// ZeroFields replaces map and slice fields rather than merging into them,
	// which keeps the result from sharing storage with d.
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           ptr.Interface(),
		WeaklyTypedInput: true,
		ZeroFields:       true,
	})
	if err != nil {
		return nil, err
	}

	if err := dec.Decode(partial); err != nil {
		return nil, errors.Wrapf(err, "decoding %s data", d.NodeType())
	}

	return ptr.Elem().Interface().(Data), nil
}

// Clone returns a deep copy of d.
func Clone(d Data) Data {
	if d == nil {
		return nil
	}
	if c, ok := d.(Custom); ok {
		return Custom{Kind: c.Kind, Fields: cloneMap(c.Fields)}
	}
	out, err := Merge(d, ToMap(d))
	if err != nil {
		// a payload always decodes from its own map.
		return d
	}
	return out
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

// cloneValue deep copies maps and slices. Other values are returned as-is.
func cloneValue(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	return copyReflect(rv).Interface()
}

func copyReflect(rv reflect.Value) reflect.Value {
	switch rv.Kind() {
	case reflect.Map:
		if rv.IsNil() {
			return rv
		}
		out := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), copyElem(iter.Value(), rv.Type().Elem()))
		}
		return out
	case reflect.Slice:
		if rv.IsNil() {
			return rv
		}
		out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out.Index(i).Set(copyElem(rv.Index(i), rv.Type().Elem()))
		}
		return out
	}
	return rv
}

// copyElem copies an element of a map or slice, unwrapping interface
// values so that nested map[string]any values are copied too.
func copyElem(v reflect.Value, elemType reflect.Type) reflect.Value {
	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Zero(elemType)
		}
		inner := copyReflect(v.Elem())
		out := reflect.New(elemType).Elem()
		out.Set(inner)
		return out
	}
	return copyReflect(v)
}
