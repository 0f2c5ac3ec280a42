package action

import (
	"regexp"
	"strings"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/parser"
	"github.com/dop251/goja/token"
)

var (
	partPrefix = regexp.MustCompile(`(?i)^PART\s+\d+\s*--\s*(?:Actions?\s*)?`)

	// Anything from one of these markers to the end of the line is not part
	// of the call.
	sentinels = []string{"~~WORLD~~", "<<WORLD>>", "<FEEDBACK", "</FEEDBACK"}
)

// Extract returns the drawable actions found in text, in line order.
// Duplicates are preserved.
func Extract(text string) []Action {
	actions := make([]Action, 0)
	for _, line := range strings.Split(text, "\n") {
		cleaned := CleanLine(line)
		if cleaned == "" {
			continue
		}
		call, ok := parseCall(cleaned)
		if !ok {
			continue
		}
		name, ok := calleeName(call.Callee)
		if !ok || !IsDrawable(name) {
			continue
		}
		actions = append(actions, Action{Name: name, Args: intArgs(call.ArgumentList)})
	}
	return actions
}

// CleanLine strips the section prefix and any sentinel marker with its tail.
func CleanLine(line string) string {
	cleaned := strings.TrimSpace(line)
	cleaned = strings.TrimSpace(partPrefix.ReplaceAllString(cleaned, ""))
	for _, s := range sentinels {
		if idx := strings.Index(cleaned, s); idx >= 0 {
			cleaned = strings.TrimSpace(cleaned[:idx])
		}
	}
	return cleaned
}

// parseCall accepts exactly one expression statement that is a call.
func parseCall(src string) (*ast.CallExpression, bool) {
	call, ok := parseSingleCall(src)
	if ok {
		return call, true
	}
	// Trailing "# note" comments are common in replies.
	if idx := strings.Index(src, "#"); idx > 0 {
		return parseSingleCall(strings.TrimSpace(src[:idx]))
	}
	return nil, false
}

// parseSingleCall also rejects forms the JS grammar tolerates but a plain
// call expression does not: statement terminators, JS comments and legacy
// octal literals.
func parseSingleCall(src string) (*ast.CallExpression, bool) {
	if src == "" || strings.HasSuffix(src, ";") || strings.Contains(src, "//") || strings.Contains(src, "/*") {
		return nil, false
	}
	program, err := parser.ParseFile(nil, "", src, 0)
	if err != nil || len(program.Body) != 1 {
		return nil, false
	}
	stmt, ok := program.Body[0].(*ast.ExpressionStatement)
	if !ok {
		return nil, false
	}
	call, ok := stmt.Expression.(*ast.CallExpression)
	if !ok {
		return nil, false
	}
	for _, arg := range call.ArgumentList {
		if hasLegacyOctal(arg) {
			return nil, false
		}
	}
	return call, true
}

// hasLegacyOctal reports a literal such as 0500. Runs of zeros are decimal.
func hasLegacyOctal(arg ast.Expression) bool {
	if u, ok := arg.(*ast.UnaryExpression); ok {
		arg = u.Operand
	}
	lit, ok := arg.(*ast.NumberLiteral)
	if !ok {
		return false
	}
	text := lit.Literal
	if len(text) < 2 || text[0] != '0' || text[1] < '0' || text[1] > '9' {
		return false
	}
	return strings.Trim(text, "0") != ""
}

func calleeName(callee ast.Expression) (string, bool) {
	switch fn := callee.(type) {
	case *ast.Identifier:
		return string(fn.Name), true
	case *ast.DotExpression:
		return string(fn.Identifier.Name), true
	default:
		return "", false
	}
}

func intArgs(args []ast.Expression) []int {
	out := make([]int, 0, len(args))
	for _, arg := range args {
		switch a := arg.(type) {
		case *ast.NumberLiteral:
			if v, ok := intLiteral(a); ok {
				out = append(out, v)
			}
		case *ast.UnaryExpression:
			if a.Operator != token.MINUS {
				continue
			}
			if lit, ok := a.Operand.(*ast.NumberLiteral); ok {
				if v, ok := intLiteral(lit); ok {
					out = append(out, -v)
				}
			}
		}
	}
	return out
}

// intLiteral accepts integer-valued literals only. "1.0" and "1e3" are
// floats and are skipped.
func intLiteral(lit *ast.NumberLiteral) (int, bool) {
	v, ok := lit.Value.(int64)
	return int(v), ok
}
