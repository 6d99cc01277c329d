package query

import (
	"fmt"
	"math"
	"strings"
)

// compare compares two values using the given operator
func compare(left interface{}, operator TokenType, right interface{}) (bool, error) {
	// Handle nil values
	if left == nil || right == nil {
		if operator == TokenEqual {
			return left == right, nil
		}
		if operator == TokenNotEqual {
			return left != right, nil
		}
		return false, nil
	}

	// Try numeric comparison
	leftNum, leftIsNum := toFloat64(left)
	rightNum, rightIsNum := toFloat64(right)

	if leftIsNum && rightIsNum {
		return compareNumbers(leftNum, operator, rightNum), nil
	}

	// Try string comparison
	leftStr, leftIsStr := toString(left)
	rightStr, rightIsStr := toString(right)

	if leftIsStr && rightIsStr {
		return compareStrings(leftStr, operator, rightStr), nil
	}

	// Try boolean comparison
	leftBool, leftIsBool := toBool(left)
	rightBool, rightIsBool := toBool(right)

	if leftIsBool && rightIsBool {
		return compareBools(leftBool, operator, rightBool), nil
	}

	// Type mismatch
	return false, fmt.Errorf("cannot compare %T with %T", left, right)
}

// toFloat64 converts a value to float64 if possible
func toFloat64(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int8:
		return float64(val), true
	case int16:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint:
		return float64(val), true
	case uint8:
		return float64(val), true
	case uint16:
		return float64(val), true
	case uint32:
		return float64(val), true
	case uint64:
		return float64(val), true
	default:
		return 0, false
	}
}

// toString converts a value to string if possible
func toString(v interface{}) (string, bool) {
	if str, ok := v.(string); ok {
		return str, true
	}
	return "", false
}

// toBool converts a value to bool if possible
func toBool(v interface{}) (bool, bool) {
	if b, ok := v.(bool); ok {
		return b, true
	}
	return false, false
}

// compareNumbers compares two numbers
func compareNumbers(left float64, operator TokenType, right float64) bool {
	const epsilon = 1e-9 // Use small epsilon for floating point comparison
	switch operator {
	case TokenEqual:
		diff := math.Abs(left - right)
		threshold := epsilon * math.Max(1.0, math.Max(math.Abs(left), math.Abs(right)))
		return diff < threshold
	case TokenNotEqual:
		diff := math.Abs(left - right)
		threshold := epsilon * math.Max(1.0, math.Max(math.Abs(left), math.Abs(right)))
		return diff >= threshold
	case TokenLess:
		return left < right
	case TokenGreater:
		return left > right
	case TokenLessEqual:
		return left <= right
	case TokenGreaterEqual:
		return left >= right
	default:
		return false
	}
}

// compareStrings compares two strings (case-sensitive)
func compareStrings(left string, operator TokenType, right string) bool {
	switch operator {
	case TokenEqual:
		return left == right
	case TokenNotEqual:
		return left != right
	case TokenLess:
		return left < right
	case TokenGreater:
		return left > right
	case TokenLessEqual:
		return left <= right
	case TokenGreaterEqual:
		return left >= right
	default:
		return false
	}
}

// compareBools compares two booleans (only = and != are meaningful)
func compareBools(left bool, operator TokenType, right bool) bool {
	switch operator {
	case TokenEqual:
		return left == right
	case TokenNotEqual:
		return left != right
	default:
		return false
	}
}

// matchLikePattern matches a string against a SQL LIKE pattern
// % matches any sequence of characters
// _ matches any single character
func matchLikePattern(str, pattern string) bool {
	segments := strings.Split(pattern, "%")

	pos := 0
	for i, segment := range segments {
		if segment == "" {
			// % at start/end or consecutive %%
			continue
		}

		matchPos := findSegmentMatch(str[pos:], segment)
		if matchPos == -1 {
			return false
		}

		// The first segment must anchor at the start unless the pattern
		// opens with %.
		if i == 0 && !strings.HasPrefix(pattern, "%") && matchPos != 0 {
			return false
		}

		pos += matchPos + len(segment)
	}

	// The last segment must anchor at the end unless the pattern closes
	// with %.
	if !strings.HasSuffix(pattern, "%") && pos != len(str) {
		return false
	}

	return true
}

// findSegmentMatch finds the first position where a segment (which may
// contain _ wildcards) matches in the string, or -1.
func findSegmentMatch(str, segment string) int {
	if len(segment) == 0 {
		return 0
	}
	for start := 0; start+len(segment) <= len(str); start++ {
		matched := true
		for i := 0; i < len(segment); i++ {
			if segment[i] == '_' {
				continue
			}
			if str[start+i] != segment[i] {
				matched = false
				break
			}
		}
		if matched {
			return start
		}
	}
	return -1
}
