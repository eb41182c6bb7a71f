package ir

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Key is a sealed interface for the scalar values a record can be indexed by.
// Only KeyString, KeyInt, KeyFloat, and KeyBool implement it.
//
// Every implementation is a comparable value type, so a Key can be used
// directly as a Go map key. Equality is kind-sensitive: KeyString("1") and
// KeyInt(1) are different keys, as are KeyBool(true) and KeyInt(1).
type Key interface {
	key() // Sealed - only these types implement it

	// Kind reports which variant of the union this key is.
	Kind() KeyKind

	// Hash returns a stable 64-bit hash of the key, including its kind.
	Hash() uint64

	// String renders the key for humans (unquoted strings).
	String() string
}

// KeyKind identifies a Key variant. The numeric order is the sort order
// used by CompareKeys.
type KeyKind uint8

const (
	KindBool KeyKind = iota + 1
	KindInt
	KindFloat
	KindString
)

func (k KeyKind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	default:
		return fmt.Sprintf("KeyKind(%d)", uint8(k))
	}
}

// KeyString is a string key.
type KeyString string

func (KeyString) key() {}
func (KeyString) Kind() KeyKind { return KindString }
func (k KeyString) String() string { return string(k) }
func (k KeyString) Hash() uint64 {
	d := xxhash.New()
	_, _ = d.Write([]byte{byte(KindString)})
	_, _ = d.WriteString(string(k))
	return d.Sum64()
}

// KeyInt is an integer key. Integral floats are normalized to KeyInt by KeyOf.
type KeyInt int64

func (KeyInt) key() {}
func (KeyInt) Kind() KeyKind { return KindInt }
func (k KeyInt) String() string { return strconv.FormatInt(int64(k), 10) }
func (k KeyInt) Hash() uint64 {
	return hashFixed(KindInt, uint64(k))
}

// KeyFloat is a non-integral, non-NaN floating point key.
type KeyFloat float64

func (KeyFloat) key() {}
func (KeyFloat) Kind() KeyKind { return KindFloat }
func (k KeyFloat) String() string { return strconv.FormatFloat(float64(k), 'g', -1, 64) }
func (k KeyFloat) Hash() uint64 {
	return hashFixed(KindFloat, math.Float64bits(float64(k)))
}

// KeyBool is a boolean key.
type KeyBool bool

func (KeyBool) key() {}
func (KeyBool) Kind() KeyKind { return KindBool }
func (k KeyBool) String() string { return strconv.FormatBool(bool(k)) }
func (k KeyBool) Hash() uint64 {
	if k {
		return hashFixed(KindBool, 1)
	}
	return hashFixed(KindBool, 0)
}

func hashFixed(kind KeyKind, bits uint64) uint64 {
	var buf [9]byte
	buf[0] = byte(kind)
	binary.BigEndian.PutUint64(buf[1:], bits)
	return xxhash.Sum64(buf[:])
}

// KeyOf converts a decoded record value into a Key.
//
// Accepted inputs are strings, booleans, all Go integer kinds, float32/float64
// and json.Number. Floats with an integral value that fits in int64 become
// KeyInt, so 1 and 1.0 address the same entry. NaN, integers outside the
// int64 range, JSON numbers outside the float64 range, nil, mappings and
// sequences are not keys and return ok == false.
func KeyOf(v any) (Key, bool) {
	switch val := v.(type) {
	case string:
		return KeyString(val), true
	case bool:
		return KeyBool(val), true
	case int:
		return KeyInt(val), true
	case int8:
		return KeyInt(val), true
	case int16:
		return KeyInt(val), true
	case int32:
		return KeyInt(val), true
	case int64:
		return KeyInt(val), true
	case uint:
		return keyFromUint(uint64(val))
	case uint8:
		return KeyInt(val), true
	case uint16:
		return KeyInt(val), true
	case uint32:
		return KeyInt(val), true
	case uint64:
		return keyFromUint(val)
	case float32:
		return keyFromFloat(float64(val))
	case float64:
		return keyFromFloat(val)
	case json.Number:
		return keyFromNumber(val)
	case Key:
		return val, true
	default:
		return nil, false
	}
}

func keyFromUint(u uint64) (Key, bool) {
	if u <= math.MaxInt64 {
		return KeyInt(int64(u)), true
	}
	return nil, false
}

// keyFromNumber converts a JSON number literal. An integer literal that does
// not fit in int64 is not rounded to a float, and a literal that overflows
// float64 is not a number at all; neither is a key.
func keyFromNumber(n json.Number) (Key, bool) {
	if i, err := n.Int64(); err == nil {
		return KeyInt(i), true
	}
	if isIntegerLiteral(n) {
		return nil, false
	}
	f, err := n.Float64()
	if err != nil {
		return nil, false
	}
	return keyFromFloat(f)
}

func keyFromFloat(f float64) (Key, bool) {
	if math.IsNaN(f) {
		return nil, false
	}
	if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
		return KeyInt(int64(f)), true
	}
	return KeyFloat(f), true
}

// CompareKeys orders keys by kind (bool < int < float < string), then by value.
// Ints and floats are compared numerically with each other so that a mixed
// numeric key set sorts naturally.
func CompareKeys(a, b Key) int {
	an, aNum := numeric(a)
	bn, bNum := numeric(b)
	if aNum && bNum {
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		}
		return int(a.Kind()) - int(b.Kind())
	}

	if a.Kind() != b.Kind() {
		if a.Kind() < b.Kind() {
			return -1
		}
		return 1
	}

	switch av := a.(type) {
	case KeyBool:
		bv := b.(KeyBool)
		switch {
		case av == bv:
			return 0
		case !bool(av):
			return -1
		default:
			return 1
		}
	case KeyString:
		return compareKeysRFC8785(string(av), string(b.(KeyString)))
	}
	return 0
}

func numeric(k Key) (float64, bool) {
	switch v := k.(type) {
	case KeyInt:
		return float64(v), true
	case KeyFloat:
		return float64(v), true
	}
	return 0, false
}

// MarshalKey renders a key as a JSON scalar literal. ParseKey restores the
// same key from the literal.
func MarshalKey(k Key) ([]byte, error) {
	switch v := k.(type) {
	case KeyString:
		return marshalJSONString(string(v))
	case KeyInt:
		return []byte(strconv.FormatInt(int64(v), 10)), nil
	case KeyFloat:
		return marshalCanonicalFloat(float64(v))
	case KeyBool:
		return []byte(strconv.FormatBool(bool(v))), nil
	case nil:
		return nil, fmt.Errorf("nil key")
	default:
		return nil, fmt.Errorf("unknown Key type: %T", k)
	}
}

// ParseKey parses a JSON scalar literal produced by MarshalKey.
func ParseKey(data []byte) (Key, error) {
	v, err := UnmarshalValue(data)
	if err != nil {
		return nil, fmt.Errorf("parse key: %w", err)
	}
	k, ok := KeyOf(v)
	if !ok {
		return nil, fmt.Errorf("parse key: %s is not a scalar key", string(data))
	}
	return k, nil
}
