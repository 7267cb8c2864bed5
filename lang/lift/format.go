package lift

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var safeIdentifier = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// FormatDouble renders a float64 as a numeric literal that parses back to
// the same value modulo IEEE 754 canonicalization (original round-trip
// property R2).
func FormatDouble(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// FormatString renders a Go string as a double-quoted source literal.
func FormatString(s string) string {
	return strconv.Quote(s)
}

// FormatBool renders a boolean literal.
func FormatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// PropertyAccess renders obj.key if key is a safe identifier, else
// obj["key"] (original §4.7).
func PropertyAccess(obj, key string) string {
	if safeIdentifier.MatchString(key) {
		return obj + "." + key
	}
	return obj + "[" + FormatString(key) + "]"
}

// ElementAccess renders obj[key] for a computed key expression.
func ElementAccess(obj, key string) string {
	return obj + "[" + key + "]"
}

// CallExpr renders callee(args...).
func CallExpr(callee string, args []string) string {
	return callee + "(" + strings.Join(args, ", ") + ")"
}

// BinaryExpr renders a parenthesized binary expression.
func BinaryExpr(left, op, right string) string {
	return fmt.Sprintf("(%s %s %s)", left, op, right)
}
