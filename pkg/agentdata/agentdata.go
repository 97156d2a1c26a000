// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package agentdata implements the dynamically-typed key/value container
// ("AgentData") that flows through every function input/output, workflow
// step parameter/result, and task payload in the runtime. It is the Go
// rendering of spec.md §9's "dynamic JSON AgentData" redesign note: a tagged
// sum type carried in an ordinary map, never a specific backing
// representation that callers could assume and depend on.
package agentdata

import (
	"encoding/json"
	"fmt"
)

// Kind tags the dynamic type carried by a Value.
type Kind string

const (
	KindString Kind = "string"
	KindInt    Kind = "int"
	KindFloat  Kind = "float"
	KindBool   Kind = "bool"
	KindData   Kind = "data"
	KindList   Kind = "list"
	KindNull   Kind = "null"
)

// Value is a tagged union over the value types spec.md §3 allows inside an
// AgentData: string, integer, floating-point, boolean, nested AgentData, or
// an ordered sequence of any of these.
type Value struct {
	kind Kind
	str  string
	i    int64
	f    float64
	b    bool
	data *AgentData
	list []Value
}

// AgentData is an ordered-irrelevant mapping from string keys to Values.
type AgentData struct {
	values map[string]Value
}

// New returns an empty AgentData.
func New() *AgentData {
	return &AgentData{values: make(map[string]Value)}
}

// FromMap builds an AgentData from untyped values (e.g. decoded JSON),
// inferring the Kind of each entry.
func FromMap(m map[string]any) *AgentData {
	d := New()
	for k, v := range m {
		d.values[k] = fromAny(v)
	}
	return d
}

func fromAny(v any) Value {
	switch t := v.(type) {
	case nil:
		return Null()
	case string:
		return String(t)
	case bool:
		return Bool(t)
	case int:
		return Int(int64(t))
	case int64:
		return Int(t)
	case float64:
		// json.Unmarshal into any always produces float64; keep integral
		// float64s as Int so round-tripping from decoded JSON is lossless
		// for the common case of whole numbers.
		if t == float64(int64(t)) {
			return Int(int64(t))
		}
		return Float(t)
	case map[string]any:
		return DataValue(FromMap(t))
	case []any:
		list := make([]Value, 0, len(t))
		for _, item := range t {
			list = append(list, fromAny(item))
		}
		return List(list...)
	default:
		return String(fmt.Sprintf("%v", t))
	}
}

// Constructors for Value.

func String(s string) Value            { return Value{kind: KindString, str: s} }
func Int(i int64) Value                 { return Value{kind: KindInt, i: i} }
func Float(f float64) Value             { return Value{kind: KindFloat, f: f} }
func Bool(b bool) Value                 { return Value{kind: KindBool, b: b} }
func Null() Value                       { return Value{kind: KindNull} }
func DataValue(d *AgentData) Value      { return Value{kind: KindData, data: d} }
func List(items ...Value) Value         { return Value{kind: KindList, list: items} }
func ListOf(items []Value) Value        { return Value{kind: KindList, list: items} }

// Kind returns the tag of this value.
func (v Value) Kind() Kind { return v.kind }

// AsString returns the string payload and whether the Kind matched.
func (v Value) AsString() (string, bool) { return v.str, v.kind == KindString }

// AsInt returns the integer payload and whether the Kind matched.
func (v Value) AsInt() (int64, bool) { return v.i, v.kind == KindInt }

// AsFloat returns the float payload; it also accepts KindInt for callers
// that want numeric values regardless of whether they were tagged int.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	default:
		return 0, false
	}
}

// AsBool returns the boolean payload and whether the Kind matched.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsData returns the nested AgentData and whether the Kind matched.
func (v Value) AsData() (*AgentData, bool) { return v.data, v.kind == KindData }

// AsList returns the sequence payload and whether the Kind matched.
func (v Value) AsList() ([]Value, bool) { return v.list, v.kind == KindList }

// Native converts a Value back into a plain Go value (string, int64,
// float64, bool, map[string]any, []any, or nil), suitable for handing to
// encoding/json or to an agent closure that expects ordinary Go types.
func (v Value) Native() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindBool:
		return v.b
	case KindData:
		if v.data == nil {
			return map[string]any{}
		}
		return v.data.ToMap()
	case KindList:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.Native()
		}
		return out
	default:
		return nil
	}
}

// Set stores a value under key, deep-copying it first so later mutation of
// the caller's Value (if it wraps a *AgentData) cannot alias this one.
func (d *AgentData) Set(key string, v Value) {
	d.values[key] = v.clone()
}

// SetString, SetInt, SetFloat, SetBool are convenience wrappers over Set.
func (d *AgentData) SetString(key, s string)     { d.Set(key, String(s)) }
func (d *AgentData) SetInt(key string, i int64)   { d.Set(key, Int(i)) }
func (d *AgentData) SetFloat(key string, f float64) { d.Set(key, Float(f)) }
func (d *AgentData) SetBool(key string, b bool)   { d.Set(key, Bool(b)) }
func (d *AgentData) SetData(key string, nested *AgentData) { d.Set(key, DataValue(nested)) }

// Get returns the value stored under key, or the zero Value and false if
// absent.
func (d *AgentData) Get(key string) (Value, bool) {
	v, ok := d.values[key]
	return v, ok
}

// GetString, GetInt, GetFloat, GetBool are typed convenience getters; the
// second return is false both when the key is absent and when its Kind does
// not match.
func (d *AgentData) GetString(key string) (string, bool) {
	v, ok := d.Get(key)
	if !ok {
		return "", false
	}
	return v.AsString()
}

func (d *AgentData) GetInt(key string) (int64, bool) {
	v, ok := d.Get(key)
	if !ok {
		return 0, false
	}
	return v.AsInt()
}

func (d *AgentData) GetFloat(key string) (float64, bool) {
	v, ok := d.Get(key)
	if !ok {
		return 0, false
	}
	return v.AsFloat()
}

func (d *AgentData) GetBool(key string) (bool, bool) {
	v, ok := d.Get(key)
	if !ok {
		return false, false
	}
	return v.AsBool()
}

// Has reports whether key is present, regardless of value.
func (d *AgentData) Has(key string) bool {
	_, ok := d.values[key]
	return ok
}

// Delete removes key if present; a no-op otherwise.
func (d *AgentData) Delete(key string) {
	delete(d.values, key)
}

// Keys returns the stored keys in no particular order (spec.md §3: "key
// order is not significant").
func (d *AgentData) Keys() []string {
	keys := make([]string, 0, len(d.values))
	for k := range d.values {
		keys = append(keys, k)
	}
	return keys
}

// Len returns the number of stored keys.
func (d *AgentData) Len() int { return len(d.values) }

// Clone returns a deep copy; mutating the result never affects the
// receiver, and vice versa.
func (d *AgentData) Clone() *AgentData {
	out := New()
	for k, v := range d.values {
		out.values[k] = v.clone()
	}
	return out
}

func (v Value) clone() Value {
	switch v.kind {
	case KindData:
		if v.data == nil {
			return v
		}
		return DataValue(v.data.Clone())
	case KindList:
		cloned := make([]Value, len(v.list))
		for i, item := range v.list {
			cloned[i] = item.clone()
		}
		return ListOf(cloned)
	default:
		return v
	}
}

// Merge overlays other onto d: on key collision, other's value wins. Returns
// the receiver for chaining.
func (d *AgentData) Merge(other *AgentData) *AgentData {
	if other == nil {
		return d
	}
	for k, v := range other.values {
		d.values[k] = v.clone()
	}
	return d
}

// Equal reports whether d and other hold structurally identical data
// (spec.md §4.1: "comparing two AgentData values is structural").
func (d *AgentData) Equal(other *AgentData) bool {
	if other == nil {
		return d == nil
	}
	if len(d.values) != len(other.values) {
		return false
	}
	for k, v := range d.values {
		ov, ok := other.values[k]
		if !ok || !v.equal(ov) {
			return false
		}
	}
	return true
}

func (v Value) equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == o.str
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindBool:
		return v.b == o.b
	case KindNull:
		return true
	case KindData:
		return v.data.Equal(o.data)
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].equal(o.list[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// ToMap renders the AgentData as a plain map[string]any with the Kind tags
// erased, for handing to plain Go code (agent closures, JSON encoding of
// outer HTTP bodies that do not need the tag).
func (d *AgentData) ToMap() map[string]any {
	out := make(map[string]any, len(d.values))
	for k, v := range d.values {
		out[k] = v.Native()
	}
	return out
}

// taggedValue is the on-the-wire shape of a single Value: {"t": kind, "v": payload}.
// Tagging every value (rather than relying on JSON's own type inference) is
// what lets ToJSON/FromJSON round-trip KindInt vs KindFloat and KindData vs
// a bare JSON object, per spec.md §3 "preserves the type tag".
type taggedValue struct {
	T Kind            `json:"t"`
	V json.RawMessage `json:"v,omitempty"`
}

// ToJSON serializes the AgentData preserving type tags.
func (d *AgentData) ToJSON() ([]byte, error) {
	raw := make(map[string]taggedValue, len(d.values))
	for k, v := range d.values {
		tv, err := v.toTagged()
		if err != nil {
			return nil, fmt.Errorf("agentdata: encode key %q: %w", k, err)
		}
		raw[k] = tv
	}
	return json.Marshal(raw)
}

func (v Value) toTagged() (taggedValue, error) {
	switch v.kind {
	case KindString:
		b, err := json.Marshal(v.str)
		return taggedValue{T: v.kind, V: b}, err
	case KindInt:
		b, err := json.Marshal(v.i)
		return taggedValue{T: v.kind, V: b}, err
	case KindFloat:
		b, err := json.Marshal(v.f)
		return taggedValue{T: v.kind, V: b}, err
	case KindBool:
		b, err := json.Marshal(v.b)
		return taggedValue{T: v.kind, V: b}, err
	case KindNull:
		return taggedValue{T: v.kind}, nil
	case KindData:
		b, err := v.data.ToJSON()
		return taggedValue{T: v.kind, V: b}, err
	case KindList:
		items := make([]taggedValue, len(v.list))
		for i, item := range v.list {
			tv, err := item.toTagged()
			if err != nil {
				return taggedValue{}, err
			}
			items[i] = tv
		}
		b, err := json.Marshal(items)
		return taggedValue{T: v.kind, V: b}, err
	default:
		return taggedValue{}, fmt.Errorf("agentdata: unknown kind %q", v.kind)
	}
}

// FromJSON parses bytes produced by ToJSON back into an AgentData.
func FromJSON(b []byte) (*AgentData, error) {
	var raw map[string]taggedValue
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("agentdata: decode: %w", err)
	}
	d := New()
	for k, tv := range raw {
		v, err := fromTagged(tv)
		if err != nil {
			return nil, fmt.Errorf("agentdata: decode key %q: %w", k, err)
		}
		d.values[k] = v
	}
	return d, nil
}

// MarshalJSON implements json.Marshaler so an *AgentData embedded as a
// struct field (a WorkflowStep's Parameters, a FunctionResult's Result, ...)
// round-trips through encoding/json using the same tagged wire format as
// ToJSON, rather than encoding/json falling through to the struct's
// unexported fields.
func (d *AgentData) MarshalJSON() ([]byte, error) {
	if d == nil {
		return []byte("null"), nil
	}
	return d.ToJSON()
}

// UnmarshalJSON implements json.Unmarshaler, the inverse of MarshalJSON.
func (d *AgentData) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		d.values = make(map[string]Value)
		return nil
	}
	decoded, err := FromJSON(b)
	if err != nil {
		return err
	}
	d.values = decoded.values
	return nil
}

func fromTagged(tv taggedValue) (Value, error) {
	switch tv.T {
	case KindString:
		var s string
		if err := json.Unmarshal(tv.V, &s); err != nil {
			return Value{}, err
		}
		return String(s), nil
	case KindInt:
		var i int64
		if err := json.Unmarshal(tv.V, &i); err != nil {
			return Value{}, err
		}
		return Int(i), nil
	case KindFloat:
		var f float64
		if err := json.Unmarshal(tv.V, &f); err != nil {
			return Value{}, err
		}
		return Float(f), nil
	case KindBool:
		var b bool
		if err := json.Unmarshal(tv.V, &b); err != nil {
			return Value{}, err
		}
		return Bool(b), nil
	case KindNull, "":
		return Null(), nil
	case KindData:
		nested, err := FromJSON(tv.V)
		if err != nil {
			return Value{}, err
		}
		return DataValue(nested), nil
	case KindList:
		var items []taggedValue
		if err := json.Unmarshal(tv.V, &items); err != nil {
			return Value{}, err
		}
		list := make([]Value, len(items))
		for i, item := range items {
			v, err := fromTagged(item)
			if err != nil {
				return Value{}, err
			}
			list[i] = v
		}
		return ListOf(list), nil
	default:
		return Value{}, fmt.Errorf("agentdata: unknown kind %q", tv.T)
	}
}
