package cache

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unsafe"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// KeySeparator defines the delimiter between the namespace and the entity key.
const KeySeparator = ":"

var namespacePattern = regexp.MustCompile(`^[A-Za-z0-9_.\-/]+$`)

// ValidateNamespace checks that a namespace is usable as a cache key prefix.
// Namespaces never contain KeySeparator, which keeps key derivation injective.
func ValidateNamespace(namespace string) error {
	return validation.Validate(namespace,
		validation.Required,
		validation.Length(1, 128),
		validation.Match(namespacePattern).Error("must contain only letters, digits, '_', '.', '-' or '/'"),
	)
}

// defaultKeySerializer implements KeySerializer as namespace + ":" + FormatKey(key).
type defaultKeySerializer struct{}

// NewDefaultKeySerializer creates a new instance of the default key serializer.
func NewDefaultKeySerializer() KeySerializer {
	return &defaultKeySerializer{}
}

// SerializeKey builds the cache key for an entity key within a namespace.
func (s *defaultKeySerializer) SerializeKey(namespace string, key any) string {
	return namespace + KeySeparator + FormatKey(key)
}

// SplitKey recovers the namespace and key segment from a key built by the default serializer.
func SplitKey(cacheKey string) (namespace, key string, ok bool) {
	return strings.Cut(cacheKey, KeySeparator)
}

// NamespacePrefix returns the prefix shared by every key of a namespace.
func NamespacePrefix(namespace string) string {
	return namespace + KeySeparator
}

// FormatKey renders an entity key as a string.
//
// Strings are used verbatim, numbers and booleans use their canonical strconv
// form and fmt.Stringer values use String. Pointers are dereferenced.
//
// Structs, arrays, slices and maps are encoded positionally from every field or
// element, exported or not, each one length prefixed so distinct values never
// share an encoding. Map entries are sorted by their encoding. Struct tags are
// ignored.
//
// Two keys that compare equal with == format the same, with two exceptions
// that follow the time and float semantics: time.Time values are identified by
// their instant (formatted in UTC, as time.Time.Equal compares them), and NaN
// formats as "NaN" although it never equals itself. Negative zero formats as
// "0", like positive zero.
func FormatKey(key any) string {
	if key == nil {
		return "nil"
	}

	switch v := key.(type) {
	case string:
		return v
	case time.Time:
		// String() carries the monotonic clock reading
		return v.UTC().Format(time.RFC3339Nano)
	}

	rv := reflect.ValueOf(key)

	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return "nil"
		}
		return FormatKey(rv.Elem().Interface())
	}

	if stringer, ok := key.(fmt.Stringer); ok {
		return stringer.String()
	}

	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32:
		return strconv.FormatFloat(noNegativeZero(rv.Float()), 'g', -1, 32)
	case reflect.Float64:
		return strconv.FormatFloat(noNegativeZero(rv.Float()), 'g', -1, 64)
	case reflect.Complex64, reflect.Complex128:
		c := rv.Complex()
		return strconv.FormatComplex(complex(noNegativeZero(real(c)), noNegativeZero(imag(c))), 'g', -1, rv.Type().Bits())
	case reflect.Struct:
		return formatStruct(rv)
	case reflect.Array, reflect.Slice:
		return formatList(rv)
	case reflect.Map:
		return formatMap(rv)
	}

	// chan, func and unsafe.Pointer keys are identified by address
	return fmt.Sprintf("fallback:%s:%v", rv.Type().String(), key)
}

func noNegativeZero(f float64) float64 {
	if f == 0 {
		return 0
	}
	return f
}

// formatStruct encodes every field in declaration order as {len:value,...}.
func formatStruct(rv reflect.Value) string {
	// unexported fields are only readable through an addressable copy
	cp := reflect.New(rv.Type()).Elem()
	cp.Set(rv)

	var b strings.Builder
	b.WriteByte('{')
	for i := 0; i < cp.NumField(); i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		field := cp.Field(i)
		if !field.CanInterface() {
			field = reflect.NewAt(field.Type(), unsafe.Pointer(field.UnsafeAddr())).Elem()
		}
		writeSegment(&b, FormatKey(field.Interface()))
	}
	b.WriteByte('}')
	return b.String()
}

// formatList encodes arrays and slices as [len:value,...].
func formatList(rv reflect.Value) string {
	var b strings.Builder
	b.WriteByte('[')
	for i := 0; i < rv.Len(); i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		writeSegment(&b, FormatKey(rv.Index(i).Interface()))
	}
	b.WriteByte(']')
	return b.String()
}

// formatMap encodes maps as map[len:key=len:value,...] with entries sorted.
func formatMap(rv reflect.Value) string {
	entries := make([]string, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		var b strings.Builder
		writeSegment(&b, FormatKey(iter.Key().Interface()))
		b.WriteByte('=')
		writeSegment(&b, FormatKey(iter.Value().Interface()))
		entries = append(entries, b.String())
	}
	sort.Strings(entries)
	return "map[" + strings.Join(entries, ",") + "]"
}

func writeSegment(b *strings.Builder, s string) {
	b.WriteString(strconv.Itoa(len(s)))
	b.WriteByte(':')
	b.WriteString(s)
}
