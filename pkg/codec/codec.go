// Package codec converts between domain field values and the primitives a
// graph backend can store. Capabilities differ per backend: Neo4j rejects
// nested map properties (they are stringified as JSON) and requires list
// properties to be homogeneous, Memgraph stores both natively.
package codec

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"time"

	jsonrepair "github.com/kaptinlin/jsonrepair"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"github.com/groc-prog/neo4j-ogm-sub000/pkg/registry"
)

// Provider identifies the target backend.
type Provider string

const (
	ProviderNeo4j    Provider = "neo4j"
	ProviderMemgraph Provider = "memgraph"
)

// Capabilities describes what value shapes a backend can store natively.
type Capabilities struct {
	// NestedProperties is true when the backend stores map properties as-is.
	NestedProperties bool
	// StringifiedNesting is true when forbidden nested values may be written
	// as JSON strings and parsed back on read.
	StringifiedNesting bool
	// HeterogeneousLists is true when list properties may mix element types.
	HeterogeneousLists bool
}

// CapabilitiesFor returns the capability set for a backend.
func CapabilitiesFor(p Provider) Capabilities {
	switch p {
	case ProviderMemgraph:
		return Capabilities{NestedProperties: true, StringifiedNesting: false, HeterogeneousLists: true}
	default:
		return Capabilities{NestedProperties: false, StringifiedNesting: true, HeterogeneousLists: false}
	}
}

// StorabilityError reports a value the backend cannot store.
type StorabilityError struct {
	Field  string
	Value  any
	Reason string
}

func (e *StorabilityError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("field %q is not storable: %s (value type %T)", e.Field, e.Reason, e.Value)
	}
	return fmt.Sprintf("value not storable: %s (value type %T)", e.Reason, e.Value)
}

// InflationError reports a stored value that cannot be turned back into a
// domain value.
type InflationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *InflationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot inflate field %q: %s: %v", e.Field, e.Reason, e.Err)
	}
	return fmt.Sprintf("cannot inflate field %q: %s", e.Field, e.Reason)
}

func (e *InflationError) Unwrap() error { return e.Err }

// Option configures a Codec.
type Option func(*Codec)

// WithJSONRepair enables a single repair pass over unparsable stringified
// nested values before giving up. Off by default: a parse failure is a hard
// error unless the caller opts in.
func WithJSONRepair() Option {
	return func(c *Codec) { c.repair = true }
}

// Codec deflates and inflates property maps for one backend.
type Codec struct {
	provider Provider
	caps     Capabilities
	repair   bool
}

// New creates a codec for the given backend.
func New(p Provider, opts ...Option) *Codec {
	c := &Codec{provider: p, caps: CapabilitiesFor(p)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Provider returns the backend this codec targets.
func (c *Codec) Provider() Provider { return c.provider }

// Capabilities returns the backend capability set.
func (c *Codec) Capabilities() Capabilities { return c.caps }

// Deflate converts domain field values into backend-storable primitives,
// validating storability and list homogeneity. It performs no I/O; a failure
// here aborts the operation before any query reaches the network.
func (c *Codec) Deflate(fields map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(fields))
	for name, v := range fields {
		dv, err := c.deflateValue(name, v)
		if err != nil {
			return nil, err
		}
		out[name] = dv
	}
	return out, nil
}

func (c *Codec) deflateValue(field string, v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch tv := v.(type) {
	case bool, string, []byte:
		return tv, nil
	case int:
		return int64(tv), nil
	case int8:
		return int64(tv), nil
	case int16:
		return int64(tv), nil
	case int32:
		return int64(tv), nil
	case int64:
		return tv, nil
	case uint:
		return int64(tv), nil
	case uint8:
		return int64(tv), nil
	case uint16:
		return int64(tv), nil
	case uint32:
		return int64(tv), nil
	case uint64:
		if tv > math.MaxInt64 {
			return nil, &StorabilityError{Field: field, Value: v, Reason: "unsigned integer exceeds the backend integer range"}
		}
		return int64(tv), nil
	case float32:
		return float64(tv), nil
	case float64:
		return tv, nil
	case time.Time, dbtype.Date, dbtype.LocalTime, dbtype.Time, dbtype.LocalDateTime, dbtype.Duration:
		return tv, nil
	case dbtype.Point2D, dbtype.Point3D:
		return tv, nil
	case map[string]any:
		return c.deflateNested(field, tv)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return c.deflateList(field, rv)
	case reflect.Map:
		// Sets are represented as maps with empty struct values; they lose
		// their order and become lists.
		if rv.Type().Elem() == reflect.TypeOf(struct{}{}) {
			return c.deflateSet(field, rv)
		}
	}

	return nil, &StorabilityError{Field: field, Value: v, Reason: "unsupported type"}
}

func (c *Codec) deflateNested(field string, m map[string]any) (any, error) {
	if c.caps.NestedProperties {
		inner := make(map[string]any, len(m))
		for k, v := range m {
			dv, err := c.deflateValue(field+"."+k, v)
			if err != nil {
				return nil, err
			}
			inner[k] = dv
		}
		return inner, nil
	}
	if !c.caps.StringifiedNesting {
		return nil, &StorabilityError{Field: field, Value: m, Reason: "backend does not store nested properties"}
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, &StorabilityError{Field: field, Value: m, Reason: fmt.Sprintf("cannot stringify nested value: %v", err)}
	}
	return string(raw), nil
}

func (c *Codec) deflateList(field string, rv reflect.Value) (any, error) {
	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		dv, err := c.deflateValue(fmt.Sprintf("%s[%d]", field, i), rv.Index(i).Interface())
		if err != nil {
			return nil, err
		}
		out[i] = dv
	}
	if err := c.checkHomogeneity(field, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Codec) deflateSet(field string, rv reflect.Value) (any, error) {
	out := make([]any, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		dv, err := c.deflateValue(field, iter.Key().Interface())
		if err != nil {
			return nil, err
		}
		out = append(out, dv)
	}
	if err := c.checkHomogeneity(field, out); err != nil {
		return nil, err
	}
	return out, nil
}

// checkHomogeneity verifies every normalized element of a list shares one
// concrete storable type. A nested value that was stringified participates
// as a string. Nil elements are ignored.
func (c *Codec) checkHomogeneity(field string, elems []any) error {
	if c.caps.HeterogeneousLists {
		return nil
	}
	var elemType reflect.Type
	for _, el := range elems {
		if el == nil {
			continue
		}
		t := reflect.TypeOf(el)
		if elemType == nil {
			elemType = t
			continue
		}
		if t != elemType {
			return &StorabilityError{
				Field:  field,
				Value:  el,
				Reason: fmt.Sprintf("heterogeneous list: %s and %s", elemType, t),
			}
		}
	}
	return nil
}

// Inflate converts stored raw properties back into domain field values.
// Fields whose shape is nested and whose stored value is a string are parsed
// from their stringified form; everything else passes through unchanged.
func (c *Codec) Inflate(raw map[string]any, shapes []registry.FieldShape) (map[string]any, error) {
	nested := make(map[string]bool, len(shapes))
	for _, s := range shapes {
		if s.IsNested {
			nested[s.Name] = true
		}
	}

	out := make(map[string]any, len(raw))
	for name, v := range raw {
		if !nested[name] {
			out[name] = v
			continue
		}
		s, isString := v.(string)
		if !isString {
			out[name] = v
			continue
		}
		if !c.caps.StringifiedNesting {
			return nil, &InflationError{Field: name, Reason: "backend does not allow stringified nested values"}
		}
		parsed, err := c.parseNested(name, s)
		if err != nil {
			return nil, err
		}
		out[name] = parsed
	}
	return out, nil
}

func (c *Codec) parseNested(field, s string) (any, error) {
	var parsed any
	if err := json.Unmarshal([]byte(s), &parsed); err == nil {
		return parsed, nil
	} else if !c.repair {
		return nil, &InflationError{Field: field, Reason: "stored value is not valid JSON", Err: err}
	}

	repaired, err := jsonrepair.JSONRepair(s)
	if err != nil {
		return nil, &InflationError{Field: field, Reason: "stored value is not valid JSON and could not be repaired", Err: err}
	}
	var parsed2 any
	if err := json.Unmarshal([]byte(repaired), &parsed2); err != nil {
		return nil, &InflationError{Field: field, Reason: "repaired value is still not valid JSON", Err: err}
	}
	return parsed2, nil
}
