package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONStringSlice stores a []string in a jsonb column.
type JSONStringSlice []string

// Value implements driver.Valuer.
func (s JSONStringSlice) Value() (driver.Value, error) {
	if len(s) == 0 {
		return nil, nil
	}
	return json.Marshal([]string(s))
}

// Scan implements sql.Scanner.
func (s *JSONStringSlice) Scan(src interface{}) error {
	return scanJSON(src, s)
}

// JSONMap stores a map[string]interface{} in a jsonb column.
type JSONMap map[string]interface{}

// Value implements driver.Valuer.
func (m JSONMap) Value() (driver.Value, error) {
	if len(m) == 0 {
		return nil, nil
	}
	return json.Marshal(map[string]interface{}(m))
}

// Scan implements sql.Scanner.
func (m *JSONMap) Scan(src interface{}) error {
	return scanJSON(src, m)
}

// JSONIssueSlice stores validation issues in a jsonb column.
type JSONIssueSlice []ValidationIssue

// Value implements driver.Valuer.
func (s JSONIssueSlice) Value() (driver.Value, error) {
	if len(s) == 0 {
		return nil, nil
	}
	return json.Marshal([]ValidationIssue(s))
}

// Scan implements sql.Scanner.
func (s *JSONIssueSlice) Scan(src interface{}) error {
	return scanJSON(src, s)
}

func scanJSON(src, dst interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported jsonb source type %T", src)
	}
}
