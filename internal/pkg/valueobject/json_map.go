package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// ErrScanJSONMap indicates the database value cannot be decoded into a JSONMap.
var ErrScanJSONMap = errors.New("valueobject: cannot scan value into JSONMap")

// JSONMap stores arbitrary JSON object data, mapped to a JSONB column.
type JSONMap map[string]any

// Value implements driver.Valuer.
func (j JSONMap) Value() (driver.Value, error) {
	return json.Marshal(j)
}

// Scan implements sql.Scanner.
func (j *JSONMap) Scan(value any) error {
	if value == nil {
		*j = JSONMap{}
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	case json.RawMessage:
		raw = []byte(v)
	case map[string]any:
		*j = JSONMap(v)
		return nil
	default:
		return ErrScanJSONMap
	}

	var out JSONMap
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}

	*j = out
	return nil
}

// Has reports whether key exists.
func (j JSONMap) Has(key string) bool {
	_, ok := j[key]
	return ok
}

// GetString returns the string value for key, or "" when missing or not a string.
func (j JSONMap) GetString(key string) string {
	if v, ok := j[key].(string); ok {
		return v
	}
	return ""
}

// GetInt64 returns the integer value for key. JSON numbers decode as
// float64, so both representations are handled.
func (j JSONMap) GetInt64(key string) int64 {
	switch v := j[key].(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	default:
		return 0
	}
}
