package dbtypes

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONList stores a slice as a JSON document in a text column. Nil and empty
// slices both persist as "[]" and scan back as empty, non-nil slices.
type JSONList[T any] []T

func (l *JSONList[T]) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = JSONList[T]{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("JSONList: unsupported Scan type %T", src)
	}

	if len(raw) == 0 {
		*l = JSONList[T]{}
		return nil
	}

	out := []T{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("JSONList: decode: %w", err)
	}
	*l = JSONList[T](out)
	return nil
}

func (l JSONList[T]) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	raw, err := json.Marshal([]T(l))
	if err != nil {
		return nil, fmt.Errorf("JSONList: encode: %w", err)
	}
	return string(raw), nil
}

// GormDataType keeps the column portable between SQLite and Postgres.
func (JSONList[T]) GormDataType() string {
	return "text"
}

// Clone returns an independent copy of the list's backing array.
func (l JSONList[T]) Clone() JSONList[T] {
	out := make(JSONList[T], len(l))
	copy(out, l)
	return out
}
