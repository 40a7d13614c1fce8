// Package index models the strongly consistent secondary index: typed
// index values, filter criteria, and the compiler that turns a filter
// into a multi-join SQL query with keyset pagination over urns.
package index

import "fmt"

// Condition is a comparison operator usable in a filter criterion.
type Condition string

const (
	ConditionEqual              Condition = "EQUAL"
	ConditionGreaterThan        Condition = "GREATER_THAN"
	ConditionGreaterThanOrEqual Condition = "GREATER_THAN_OR_EQUAL_TO"
	ConditionLessThan           Condition = "LESS_THAN"
	ConditionLessThanOrEqual    Condition = "LESS_THAN_OR_EQUAL_TO"
	ConditionStartsWith         Condition = "START_WITH"
)

// conditionOperators maps supported conditions to their SQL operators.
var conditionOperators = map[Condition]string{
	ConditionEqual:              "=",
	ConditionGreaterThan:        ">",
	ConditionGreaterThanOrEqual: ">=",
	ConditionLessThan:           "<",
	ConditionLessThanOrEqual:    "<=",
	ConditionStartsWith:         "LIKE",
}

// Value is the sealed sum of index value types. Each variant selects the
// typed column it is stored in and compared against.
type Value interface {
	sealedValue()
}

// String values (and booleans, stored as their string form) use the
// string column.
type String string

// Long values carry any integral type; they use the long column so
// comparisons get native numeric ordering.
type Long int64

// Double values carry any floating type; they use the double column.
type Double float64

func (String) sealedValue() {}
func (Long) sealedValue()   {}
func (Double) sealedValue() {}

// ValueOf converts a runtime scalar into its index Value variant.
func ValueOf(v any) (Value, error) {
	switch x := v.(type) {
	case string:
		return String(x), nil
	case bool:
		if x {
			return String("true"), nil
		}
		return String("false"), nil
	case int:
		return Long(x), nil
	case int32:
		return Long(x), nil
	case int64:
		return Long(x), nil
	case float32:
		return Double(x), nil
	case float64:
		return Double(x), nil
	default:
		return nil, fmt.Errorf("value %v (%T) cannot be indexed", v, v)
	}
}

// Column returns the metadata_index column a value is stored in.
func Column(v Value) string {
	switch v.(type) {
	case String:
		return "stringval"
	case Long:
		return "longval"
	case Double:
		return "doubleval"
	default:
		// Value is sealed; no other variant exists.
		panic(fmt.Sprintf("unknown index value type %T", v))
	}
}

// Param returns the driver-level parameter for a value under a condition.
// START_WITH compiles to a LIKE prefix match, so the bound string gets a
// wildcard suffix.
func Param(v Value, cond Condition) any {
	switch x := v.(type) {
	case String:
		if cond == ConditionStartsWith {
			return string(x) + "%"
		}
		return string(x)
	case Long:
		return int64(x)
	case Double:
		return float64(x)
	default:
		panic(fmt.Sprintf("unknown index value type %T", v))
	}
}

// Criterion is one conjunct of a filter. Aspect is always required; a
// criterion without a path only requires that the urn has any index row
// for that aspect.
type Criterion struct {
	Aspect    string
	Path      string
	Condition Condition
	Value     Value
}

// HasPath reports whether the criterion constrains a concrete field.
func (c Criterion) HasPath() bool { return c.Path != "" }

// Filter is an ordered conjunction of criteria.
type Filter struct {
	Criteria []Criterion
}

// UnsupportedConditionError reports a condition the index cannot compile.
type UnsupportedConditionError struct {
	Condition Condition
}

func (e *UnsupportedConditionError) Error() string {
	return fmt.Sprintf("%s condition is not supported by the secondary index", e.Condition)
}
