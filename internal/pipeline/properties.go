package pipeline

import "github.com/smartxaudio/rtpipeline/internal/errors"

// ValueKind identifies which variant is stored in a Value.
type ValueKind int

const (
	KindInt32 ValueKind = iota
	KindFloat32
	KindString
	KindInt32Vector
	KindFloat32Vector
	KindStringVector
)

// Value is a tagged-union property value: int32, float32, string, or a
// homogeneous vector of one of those. It is the only cross-module control
// vocabulary (spec §4.5).
type Value struct {
	kind        ValueKind
	i32         int32
	f32         float32
	str         string
	i32vec      []int32
	f32vec      []float32
	strvec      []string
}

func Int32Value(v int32) Value     { return Value{kind: KindInt32, i32: v} }
func Float32Value(v float32) Value { return Value{kind: KindFloat32, f32: v} }
func StringValue(v string) Value   { return Value{kind: KindString, str: v} }

func Int32VectorValue(v []int32) Value {
	return Value{kind: KindInt32Vector, i32vec: v}
}

func Float32VectorValue(v []float32) Value {
	return Value{kind: KindFloat32Vector, f32vec: v}
}

func StringVectorValue(v []string) Value {
	return Value{kind: KindStringVector, strvec: v}
}

func (v Value) Kind() ValueKind { return v.kind }

// Properties is a typed property map keyed by string. get/set are exposed
// as free functions below (GetInt32, SetInt32, ...) since Go has no
// template methods; each fails with NotFound or TypeMismatch exactly like
// the spec's get<T>/set<T>.
type Properties struct {
	values map[string]Value
}

// NewProperties returns an empty property map.
func NewProperties() *Properties {
	return &Properties{values: make(map[string]Value)}
}

// Set overwrites the value stored under key, regardless of prior type.
func (p *Properties) Set(key string, v Value) {
	p.values[key] = v
}

// Has reports whether key is present.
func (p *Properties) Has(key string) bool {
	_, ok := p.values[key]
	return ok
}

// Delete removes key, if present.
func (p *Properties) Delete(key string) {
	delete(p.values, key)
}

// Keys returns the set of keys currently stored, for diagnostics.
func (p *Properties) Keys() []string {
	keys := make([]string, 0, len(p.values))
	for k := range p.values {
		keys = append(keys, k)
	}
	return keys
}

func (p *Properties) get(key string, kind ValueKind) (Value, error) {
	v, ok := p.values[key]
	if !ok {
		return Value{}, errors.New(errors.NewStd("property not found")).
			Component(ComponentPipeline).
			Category(errors.CategoryNotFound).
			Context("key", key).
			Build()
	}
	if v.kind != kind {
		return Value{}, errors.New(errors.NewStd("property type mismatch")).
			Component(ComponentPipeline).
			Category(errors.CategoryTypeMismatch).
			Context("key", key).
			Context("wantKind", kind).
			Context("haveKind", v.kind).
			Build()
	}
	return v, nil
}

func GetInt32(p *Properties, key string) (int32, error) {
	v, err := p.get(key, KindInt32)
	if err != nil {
		return 0, err
	}
	return v.i32, nil
}

func GetFloat32(p *Properties, key string) (float32, error) {
	v, err := p.get(key, KindFloat32)
	if err != nil {
		return 0, err
	}
	return v.f32, nil
}

func GetString(p *Properties, key string) (string, error) {
	v, err := p.get(key, KindString)
	if err != nil {
		return "", err
	}
	return v.str, nil
}

func GetInt32Vector(p *Properties, key string) ([]int32, error) {
	v, err := p.get(key, KindInt32Vector)
	if err != nil {
		return nil, err
	}
	return v.i32vec, nil
}

func GetFloat32Vector(p *Properties, key string) ([]float32, error) {
	v, err := p.get(key, KindFloat32Vector)
	if err != nil {
		return nil, err
	}
	return v.f32vec, nil
}

func GetStringVector(p *Properties, key string) ([]string, error) {
	v, err := p.get(key, KindStringVector)
	if err != nil {
		return nil, err
	}
	return v.strvec, nil
}

// SetInt32 is sugar for Set(key, Int32Value(v)).
func (p *Properties) SetInt32(key string, v int32) { p.Set(key, Int32Value(v)) }

// SetFloat32 is sugar for Set(key, Float32Value(v)).
func (p *Properties) SetFloat32(key string, v float32) { p.Set(key, Float32Value(v)) }

// SetString is sugar for Set(key, StringValue(v)).
func (p *Properties) SetString(key string, v string) { p.Set(key, StringValue(v)) }
