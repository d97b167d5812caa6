package adapter

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/billfold/billfold/internal/pocketbase"
)

// Where is one {field, operator, value} filter predicate. Supported
// operators are "eq", "ne" and "in"; anything else (including "") is
// treated as equality.
type Where struct {
	Field    string
	Operator string
	Value    any
}

// Eq builds an equality condition.
func Eq(field string, value any) Where {
	return Where{Field: field, Operator: "eq", Value: value}
}

// ByID builds the single-condition primary-key lookup FindOne, Update and
// Delete expect.
func ByID(id string) []Where {
	return []Where{Eq("id", id)}
}

// Matches reports whether a record satisfies every condition. Conditions
// are AND'ed: one failing condition excludes the record regardless of the
// others.
func Matches(record pocketbase.Record, where []Where) bool {
	for _, cond := range where {
		value := record[cond.Field]
		switch cond.Operator {
		case "ne":
			if looseEqual(value, cond.Value) {
				return false
			}
		case "in":
			if !containsValue(cond.Value, value) {
				return false
			}
		default:
			// eq and unknown operators
			if !looseEqual(value, cond.Value) {
				return false
			}
		}
	}
	return true
}

// buildFilter renders conditions into the store's filter expression
// language so FindMany can push them down instead of scanning client-side.
func buildFilter(where []Where) string {
	if len(where) == 0 {
		return ""
	}

	clauses := make([]string, 0, len(where))
	for _, cond := range where {
		field := mapStoreField(cond.Field)
		switch cond.Operator {
		case "ne":
			clauses = append(clauses, fmt.Sprintf("%s != %s", field, filterLiteral(cond.Value)))
		case "in":
			values := valueSlice(cond.Value)
			if len(values) == 0 {
				// Empty membership can never match.
				clauses = append(clauses, fmt.Sprintf("%s = %s", field, filterLiteral(nil)))
				continue
			}
			alternatives := make([]string, 0, len(values))
			for _, v := range values {
				alternatives = append(alternatives, fmt.Sprintf("%s = %s", field, filterLiteral(v)))
			}
			clauses = append(clauses, "("+strings.Join(alternatives, " || ")+")")
		default:
			clauses = append(clauses, fmt.Sprintf("%s = %s", field, filterLiteral(cond.Value)))
		}
	}
	return strings.Join(clauses, " && ")
}

func filterLiteral(v any) string {
	switch value := v.(type) {
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(value)
	case string:
		escaped := strings.ReplaceAll(value, `\`, `\\`)
		escaped = strings.ReplaceAll(escaped, `"`, `\"`)
		return `"` + escaped + `"`
	case int:
		return strconv.Itoa(value)
	case int64:
		return strconv.FormatInt(value, 10)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	default:
		return fmt.Sprintf("%q", fmt.Sprint(value))
	}
}

func containsValue(list any, value any) bool {
	for _, candidate := range valueSlice(list) {
		if looseEqual(value, candidate) {
			return true
		}
	}
	return false
}

func valueSlice(v any) []any {
	switch list := v.(type) {
	case []any:
		return list
	case []string:
		out := make([]any, len(list))
		for i, s := range list {
			out[i] = s
		}
		return out
	case nil:
		return nil
	default:
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Slice {
			return []any{v}
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out
	}
}

// looseEqual compares values across the numeric types JSON decoding and Go
// callers mix (int conditions against float64 record fields).
func looseEqual(a, b any) bool {
	if af, ok := asFloat(a); ok {
		if bf, ok := asFloat(b); ok {
			return af == bf
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
