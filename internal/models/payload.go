package models

import (
	"fmt"
	"strconv"
)

// IDField is the payload key holding a record's primary key.
const IDField = "id"

// Payload is an opaque record as seen by the engine.
type Payload map[string]any

// PrimaryKey returns the string form of p["id"], or "" when absent.
// Numeric ids are formatted without exponent so 42 and 42.0 agree.
func PrimaryKey(p Payload) string {
	if p == nil {
		return ""
	}
	switch v := p[IDField].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// Clone returns a shallow copy of p.
func (p Payload) Clone() Payload {
	if p == nil {
		return nil
	}
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
