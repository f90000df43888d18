package entity

import (
	"fmt"
	"time"
)

// Kind identifies the primitive shape of a property value.
type Kind string

const (
	KindString    Kind = "string"
	KindNumber    Kind = "number"
	KindBool      Kind = "boolean"
	KindTimestamp Kind = "timestamp"
)

// ParseKind converts a type name from a descriptor document into a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindString, KindNumber, KindBool, KindTimestamp:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unsupported kind: %s", s)
	}
}

// Validate checks that a value conforms to the kind. A nil value is always
// accepted: it stands for "unset".
func (k Kind) Validate(value any) error {
	if value == nil {
		return nil
	}
	switch k {
	case KindString:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
		return nil
	case KindNumber:
		if _, ok := toFloat(value); !ok {
			return fmt.Errorf("expected number, got %T", value)
		}
		return nil
	case KindBool:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("expected boolean, got %T", value)
		}
		return nil
	case KindTimestamp:
		switch v := value.(type) {
		case time.Time:
			return nil
		case string:
			// RFC3339 strings survive JSON round-trips.
			if _, err := time.Parse(time.RFC3339, v); err != nil {
				return fmt.Errorf("expected RFC3339 timestamp: %w", err)
			}
			return nil
		default:
			return fmt.Errorf("expected timestamp, got %T", value)
		}
	default:
		return fmt.Errorf("unsupported kind: %s", k)
	}
}

// toFloat normalizes numeric values across int widths and JSON's float64.
func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}
