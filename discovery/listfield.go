package discovery

import (
	"bytes"
	"database/sql/driver"

	"github.com/goccy/go-json"
)

// ParsedList is a list stored as serialized JSON text (interests,
// preferences, photos). Decoding never fails: NULL, empty or malformed
// input yields an empty list.
type ParsedList[T any] []T

// StringList is the ParsedList used by every profile column.
type StringList = ParsedList[string]

// ParseList decodes raw leniently. A JSON string wrapping an array is
// unwrapped once.
func ParseList[T any](raw []byte) ParsedList[T] {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ParsedList[T]{}
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ParsedList[T]{}
		}
		raw = bytes.TrimSpace([]byte(s))
		if len(raw) == 0 || raw[0] == '"' {
			return ParsedList[T]{}
		}
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil || out == nil {
		return ParsedList[T]{}
	}
	return out
}

// Scan implements sql.Scanner.
func (l *ParsedList[T]) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		*l = ParseList[T](v)
	case string:
		*l = ParseList[T]([]byte(v))
	default:
		*l = ParsedList[T]{}
	}
	return nil
}

// Value implements driver.Valuer. A nil list is stored as "[]".
func (l ParsedList[T]) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]T(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l ParsedList[T]) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]T(l))
}

// UnmarshalJSON accepts either a JSON array or a string holding one, so
// request bodies can carry the same shapes the database does.
func (l *ParsedList[T]) UnmarshalJSON(data []byte) error {
	*l = ParseList[T](data)
	return nil
}

// Contains reports whether v is in the list.
func Contains[T comparable](l ParsedList[T], v T) bool {
	for _, x := range l {
		if x == v {
			return true
		}
	}
	return false
}

// Distinct returns the list without duplicates, keeping first occurrences.
func Distinct[T comparable](l ParsedList[T]) ParsedList[T] {
	seen := make(map[T]struct{}, len(l))
	out := make(ParsedList[T], 0, len(l))
	for _, x := range l {
		if _, ok := seen[x]; ok {
			continue
		}
		seen[x] = struct{}{}
		out = append(out, x)
	}
	return out
}
