package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces deterministic JSON for records, keys and plain
// Go values. It is the serialization used for content hashes and golden
// output.
//
// Differences from json.Marshal:
//  1. Object keys sorted by UTF-16 code units (RFC 8785), not UTF-8 bytes
//  2. No HTML escaping (< > & are NOT escaped)
//  3. Strings are NFC normalized
//  4. Integral numbers are written without a fraction; other floats use the
//     shortest round-trip representation
//  5. NaN and Inf are rejected
func MarshalCanonical(v any) ([]byte, error) {
	return canonicalEncoder{nfc: true}.marshal(v)
}

// MarshalExact is MarshalCanonical without NFC normalization. Valid UTF-8
// strings are written unchanged, so decoding the output restores the exact
// value. It is the form used for stored paths and records.
func MarshalExact(v any) ([]byte, error) {
	return canonicalEncoder{}.marshal(v)
}

// canonicalEncoder writes canonical JSON. nfc selects NFC normalization of
// strings and object keys.
type canonicalEncoder struct {
	nfc bool
}

func (e canonicalEncoder) marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.write(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e canonicalEncoder) str(s string) ([]byte, error) {
	if e.nfc {
		s = norm.NFC.String(s)
	}
	return marshalJSONString(s)
}

func (e canonicalEncoder) write(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		buf.WriteString(strconv.FormatBool(val))
	case string:
		b, err := e.str(val)
		if err != nil {
			return err
		}
		buf.Write(b)
	case KeyString:
		return e.write(buf, string(val))
	case Key:
		b, err := MarshalKey(val)
		if err != nil {
			return err
		}
		buf.Write(b)
	case json.Number:
		if n, err := val.Int64(); err == nil {
			buf.WriteString(strconv.FormatInt(n, 10))
			return nil
		}
		if isIntegerLiteral(val) {
			i, ok := new(big.Int).SetString(string(val), 10)
			if !ok {
				return fmt.Errorf("invalid number %q", val)
			}
			buf.WriteString(i.String())
			return nil
		}
		f, err := val.Float64()
		if err != nil {
			return fmt.Errorf("invalid number %q: %w", val, err)
		}
		return writeCanonicalFloat(buf, f)
	case int:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
	case int32:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case uint64:
		buf.WriteString(strconv.FormatUint(val, 10))
	case float64:
		return writeCanonicalFloat(buf, val)
	case float32:
		return writeCanonicalFloat(buf, float64(val))
	case map[string]any:
		return e.writeObject(buf, val)
	case []any:
		return e.writeArray(buf, len(val), func(i int) any { return val[i] })
	case []Record:
		return e.writeArray(buf, len(val), func(i int) any { return val[i] })
	case []string:
		return e.writeArray(buf, len(val), func(i int) any { return val[i] })
	default:
		return e.writeReflect(buf, v)
	}
	return nil
}

// writeReflect handles the remaining integer kinds and typed
// slices/maps (e.g. []map[string]any) that decoders occasionally produce.
func (e canonicalEncoder) writeReflect(buf *bytes.Buffer, v any) error {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		buf.WriteString(strconv.FormatInt(rv.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		buf.WriteString(strconv.FormatUint(rv.Uint(), 10))
	case reflect.String:
		return e.write(buf, rv.String())
	case reflect.Slice, reflect.Array:
		return e.writeArray(buf, rv.Len(), func(i int) any { return rv.Index(i).Interface() })
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return fmt.Errorf("unsupported map key type for canonical JSON: %s", rv.Type().Key())
		}
		obj := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			obj[iter.Key().String()] = iter.Value().Interface()
		}
		return e.writeObject(buf, obj)
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
	return nil
}

func writeCanonicalFloat(buf *bytes.Buffer, f float64) error {
	b, err := marshalCanonicalFloat(f)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

// marshalCanonicalFloat writes integral values in integer form and all
// other values in the shortest representation that round-trips.
func marshalCanonicalFloat(f float64) ([]byte, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("non-finite number is not representable in JSON: %v", f)
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e21 {
		return []byte(strconv.FormatFloat(f, 'f', -1, 64)), nil
	}
	return []byte(strconv.FormatFloat(f, 'g', -1, 64)), nil
}

// marshalJSONString quotes s as a JSON string. Only control characters,
// backslash, and quote are escaped; in particular <, >, & and U+2028/U+2029
// are written literally.
func marshalJSONString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}

	result := bytes.TrimSuffix(buf.Bytes(), []byte{'\n'})
	return unescapeLineSeparators(result), nil
}

// unescapeLineSeparators turns the \u2028 and \u2029 escapes that
// encoding/json emits back into literal characters. An escape preceded by
// an odd number of backslashes is literal text (\\u2028) and is kept.
func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}

	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] == '\\' && i+5 < len(data) && string(data[i+1:i+5]) == "u202" &&
			(data[i+5] == '8' || data[i+5] == '9') && precedingBackslashes(out)%2 == 0 {
			if data[i+5] == '8' {
				out = append(out, "\u2028"...)
			} else {
				out = append(out, "\u2029"...)
			}
			i += 5
			continue
		}
		out = append(out, data[i])
	}
	return out
}

func precedingBackslashes(b []byte) int {
	n := 0
	for j := len(b) - 1; j >= 0 && b[j] == '\\'; j-- {
		n++
	}
	return n
}

func (e canonicalEncoder) writeArray(buf *bytes.Buffer, n int, at func(int) any) error {
	buf.WriteByte('[')
	for i := 0; i < n; i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := e.write(buf, at(i)); err != nil {
			return fmt.Errorf("array[%d]: %w", i, err)
		}
	}
	buf.WriteByte(']')
	return nil
}

func (e canonicalEncoder) writeObject(buf *bytes.Buffer, obj map[string]any) error {
	buf.WriteByte('{')
	for i, k := range SortedKeys(obj) {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := e.str(k)
		if err != nil {
			return fmt.Errorf("key %q: %w", k, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')
		if err := e.write(buf, obj[k]); err != nil {
			return fmt.Errorf("value for key %q: %w", k, err)
		}
	}
	buf.WriteByte('}')
	return nil
}
