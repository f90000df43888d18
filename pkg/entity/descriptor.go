package entity

import (
	"fmt"
	"time"
)

// Operator compares a property's current value against a guard's comparison
// value.
type Operator string

const (
	OpEq      Operator = "eq"
	OpNeq     Operator = "neq"
	OpGt      Operator = "gt"
	OpGte     Operator = "gte"
	OpLt      Operator = "lt"
	OpLte     Operator = "lte"
	OpDefined Operator = "defined" // current value is set (non-nil, non-empty string)
	OpEmpty   Operator = "empty"   // current value is unset
)

// ParseOperator converts an operator name from a descriptor document.
func ParseOperator(s string) (Operator, error) {
	switch Operator(s) {
	case OpEq, OpNeq, OpGt, OpGte, OpLt, OpLte, OpDefined, OpEmpty:
		return Operator(s), nil
	default:
		return "", fmt.Errorf("unsupported operator: %s", s)
	}
}

// Condition is the predicate half of a guard rule.
type Condition struct {
	Operator Operator `json:"operator" yaml:"operator" mapstructure:"operator"`
	Value    any      `json:"value,omitempty" yaml:"value,omitempty" mapstructure:"value"`
}

// Holds evaluates the condition against a property's current value. The
// current value is the value before the pending write; the pending value
// never participates.
func (c Condition) Holds(current any) (bool, error) {
	switch c.Operator {
	case OpEq:
		return valuesEqual(current, c.Value), nil
	case OpNeq:
		return !valuesEqual(current, c.Value), nil
	case OpGt, OpGte, OpLt, OpLte:
		return compareOrdered(c.Operator, current, c.Value)
	case OpDefined:
		return isDefined(current), nil
	case OpEmpty:
		return !isDefined(current), nil
	default:
		return false, fmt.Errorf("unsupported operator: %s", c.Operator)
	}
}

// Guard attaches a condition to a property: a mutation of that property is
// accepted only while the condition holds.
type Guard struct {
	Property  string    `json:"property" yaml:"property" mapstructure:"property"`
	Condition Condition `json:"condition" yaml:"condition" mapstructure:"condition"`
	Message   string    `json:"message" yaml:"message" mapstructure:"message"`
}

// Property declares one field of an entity family.
type Property struct {
	Kind    Kind `json:"kind" yaml:"kind" mapstructure:"kind"`
	Default any  `json:"default,omitempty" yaml:"default,omitempty" mapstructure:"default"`
}

// Method is business logic bound to an instance at creation time. The
// receiver entity is passed explicitly so methods can read and write sibling
// properties through the guarded path.
type Method func(e *Entity, args ...any) (any, error)

// Descriptor declares a family of runtime entities. It is immutable once
// passed to Define.
type Descriptor struct {
	Name       string              `json:"name" yaml:"name" mapstructure:"name"`
	Properties map[string]Property `json:"properties" yaml:"properties" mapstructure:"properties"`
	Guards     []Guard             `json:"guards,omitempty" yaml:"guards,omitempty" mapstructure:"guards"`
	Methods    map[string]Method   `json:"-" yaml:"-" mapstructure:"-"`
}

func valuesEqual(a, b any) bool {
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			return af == bf
		}
		return false
	}
	if at, ok := toTime(a); ok {
		if bt, ok := toTime(b); ok {
			return at.Equal(bt)
		}
		return false
	}
	return a == b
}

func compareOrdered(op Operator, current, comparison any) (bool, error) {
	if af, ok := toFloat(current); ok {
		bf, ok := toFloat(comparison)
		if !ok {
			return false, fmt.Errorf("cannot compare number with %T", comparison)
		}
		return orderedResult(op, af, bf), nil
	}
	if at, ok := toTime(current); ok {
		bt, ok := toTime(comparison)
		if !ok {
			return false, fmt.Errorf("cannot compare timestamp with %T", comparison)
		}
		return orderedResult(op, float64(at.UnixNano()), float64(bt.UnixNano())), nil
	}
	if as, ok := current.(string); ok {
		bs, ok := comparison.(string)
		if !ok {
			return false, fmt.Errorf("cannot compare string with %T", comparison)
		}
		return orderedStrings(op, as, bs), nil
	}
	// An unset value never satisfies an ordered comparison.
	if current == nil {
		return false, nil
	}
	return false, fmt.Errorf("unordered value type %T", current)
}

func orderedResult(op Operator, a, b float64) bool {
	switch op {
	case OpGt:
		return a > b
	case OpGte:
		return a >= b
	case OpLt:
		return a < b
	default:
		return a <= b
	}
}

func orderedStrings(op Operator, a, b string) bool {
	switch op {
	case OpGt:
		return a > b
	case OpGte:
		return a >= b
	case OpLt:
		return a < b
	default:
		return a <= b
	}
}

func isDefined(value any) bool {
	if value == nil {
		return false
	}
	if s, ok := value.(string); ok {
		return s != ""
	}
	return true
}

func toTime(value any) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, true
	case string:
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	default:
		return time.Time{}, false
	}
}
