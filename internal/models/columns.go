package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidJSON is returned when a JSON column cannot be decoded
var ErrInvalidJSON = errors.New("invalid JSON value")

// JSONMap represents a map that can be stored as JSON in a database column
type JSONMap map[string]interface{}

// Scan implements the sql.Scanner interface for database deserialization
func (m *JSONMap) Scan(value interface{}) error {
	raw, err := columnBytes(value, "JSONMap")
	if err != nil {
		return err
	}
	if len(raw) == 0 || string(raw) == "null" {
		*m = make(JSONMap)
		return nil
	}
	return json.Unmarshal(raw, m)
}

// Value implements the driver.Valuer interface for database serialization
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "null", nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("error marshaling JSONMap: %w", err)
	}
	return string(raw), nil
}

// StringArray represents a slice that can be stored as JSON in a database column
type StringArray []string

// Scan implements the sql.Scanner interface for database deserialization
func (a *StringArray) Scan(value interface{}) error {
	raw, err := columnBytes(value, "StringArray")
	if err != nil {
		return err
	}
	if len(raw) == 0 || string(raw) == "null" {
		*a = make(StringArray, 0)
		return nil
	}
	return json.Unmarshal(raw, a)
}

// Value implements the driver.Valuer interface for database serialization
func (a StringArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	raw, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("error marshaling StringArray: %w", err)
	}
	return string(raw), nil
}

func columnBytes(value interface{}, target string) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return nil, fmt.Errorf("%w: cannot scan type %T into %s", ErrInvalidJSON, value, target)
	}
}
