package handlers

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	jsoniter "github.com/json-iterator/go"
)

// KeySeparator defines the delimiter used between cache key segments.
const KeySeparator = "::"

// maxKeyLength bounds serialized keys. Longer keys collapse to a digest so
// store implementations never see unbounded key sizes.
const maxKeyLength = 512

// KeySerializer builds deterministic cache keys from a member name and its
// arguments.
type KeySerializer interface {
	SerializeKey(member string, args ...any) string
}

// defaultKeySerializer implements KeySerializer using reflection-based
// serialization. It handles pointers, collections and structs recursively,
// sorts map keys for determinism, and falls back to JSON for everything
// else so the same arguments always produce the same key.
type defaultKeySerializer struct{}

// NewDefaultKeySerializer creates a new instance of the default key serializer.
func NewDefaultKeySerializer() KeySerializer {
	return &defaultKeySerializer{}
}

// SerializeKey builds a cache key from the member name and args.
func (s *defaultKeySerializer) SerializeKey(member string, args ...any) string {
	if len(args) == 0 {
		return member
	}

	parts := make([]string, 0, len(args)+1)
	parts = append(parts, member)
	for _, arg := range args {
		parts = append(parts, s.serializeValue(arg))
	}

	key := strings.Join(parts, KeySeparator)
	if len(key) > maxKeyLength {
		return fmt.Sprintf("%s%s#%016x", member, KeySeparator, xxhash.Sum64String(key))
	}
	return key
}

// serializeValue handles individual argument serialization based on type.
func (s *defaultKeySerializer) serializeValue(v any) string {
	if v == nil {
		return "nil"
	}

	rv := reflect.ValueOf(v)
	rt := rv.Type()

	switch rt.Kind() {
	case reflect.Func:
		// Function identity, not content
		return fmt.Sprintf("func:%p", v)

	case reflect.Ptr:
		if rv.IsNil() {
			return "nil"
		}
		return s.serializeValue(rv.Elem().Interface())

	case reflect.Slice:
		if rv.IsNil() {
			return "slice:nil"
		}
		return s.serializeList("slice", rv)

	case reflect.Array:
		return s.serializeList("array", rv)

	case reflect.Map:
		if rv.IsNil() {
			return "map:nil"
		}
		return s.serializeMap(rv)

	case reflect.Struct:
		return s.serializeStruct(rv, rt)

	case reflect.Chan:
		return fmt.Sprintf("chan:%p", v)
	}

	if isBasicKind(rt.Kind()) {
		return fmt.Sprintf("%v", v)
	}

	return s.jsonFallback(v)
}

// serializeList handles slice and array serialization recursively.
func (s *defaultKeySerializer) serializeList(label string, rv reflect.Value) string {
	length := rv.Len()
	parts := make([]string, length)

	for i := 0; i < length; i++ {
		parts[i] = s.serializeValue(rv.Index(i).Interface())
	}

	return fmt.Sprintf("%s[%d]:{%s}", label, length, strings.Join(parts, ","))
}

// serializeMap handles map serialization with sorted pairs for determinism.
func (s *defaultKeySerializer) serializeMap(rv reflect.Value) string {
	pairs := make([]string, 0, rv.Len())

	iter := rv.MapRange()
	for iter.Next() {
		key := s.serializeValue(iter.Key().Interface())
		value := s.serializeValue(iter.Value().Interface())
		pairs = append(pairs, key+"="+value)
	}
	sort.Strings(pairs)

	return fmt.Sprintf("map[%d]:{%s}", len(pairs), strings.Join(pairs, ","))
}

// serializeStruct handles struct serialization with field names.
func (s *defaultKeySerializer) serializeStruct(rv reflect.Value, rt reflect.Type) string {
	numFields := rv.NumField()
	parts := make([]string, 0, numFields)

	for i := 0; i < numFields; i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}

		fieldValue := rv.Field(i)
		if !fieldValue.CanInterface() {
			continue
		}

		parts = append(parts, field.Name+":"+s.serializeValue(fieldValue.Interface()))
	}

	return fmt.Sprintf("struct:{%s}", strings.Join(parts, ","))
}

// isBasicKind checks if a kind represents a basic Go type.
func isBasicKind(kind reflect.Kind) bool {
	switch kind {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128,
		reflect.String:
		return true
	default:
		return false
	}
}

// jsonFallback provides JSON serialization as a last resort.
func (s *defaultKeySerializer) jsonFallback(v any) string {
	data, err := jsoniter.ConfigFastest.Marshal(v)
	if err != nil {
		return fmt.Sprintf("opaque:%T", v)
	}
	return "json:" + string(data)
}
