package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Ports is an optional list of port strings stored as a JSON text column.
// A nil Ports means "no ports given"; it is stored as SQL NULL, never as
// an empty JSON array.
type Ports []string

// Value implements driver.Valuer
func (p Ports) Value() (driver.Value, error) {
	if p == nil {
		return nil, nil
	}
	b, err := json.Marshal([]string(p))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (p *Ports) Scan(value interface{}) error {
	if value == nil {
		*p = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into Ports", value)
	}
	var out []string
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*p = out
	return nil
}
