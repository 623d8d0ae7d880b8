package smoke

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// refPattern matches the three reference forms a plan may use:
// {{name}} for a value exported by any earlier step,
// $.stages[n].name for a value exported by step n (negative n counts back
// from the current step), and $.env.NAME for an environment variable.
var refPattern = regexp.MustCompile(
	`\{\{\s*([A-Za-z0-9_.-]+)\s*\}\}|\$\.stages\[(-?\d+)\]\.([A-Za-z0-9_]+)|\$\.env\.([A-Za-z_][A-Za-z0-9_]*)`)

// quotedRefPattern matches a JSON string that is exactly one export reference.
var quotedRefPattern = regexp.MustCompile(
	`"(\{\{\s*[A-Za-z0-9_.-]+\s*\}\}|\$\.stages\[-?\d+\]\.[A-Za-z0-9_]+)"`)

// vars holds the values exported while a plan runs.
type vars struct {
	exports map[string]any
	stages  []map[string]any
	lookup  func(string) (string, bool)
}

func newVars() *vars {
	return &vars{exports: map[string]any{}, lookup: os.LookupEnv}
}

// record stores the exports of the step at index.
func (v *vars) record(index int, values map[string]any) {
	for len(v.stages) <= index {
		v.stages = append(v.stages, nil)
	}
	v.stages[index] = values
	for k, val := range values {
		v.exports[k] = val
	}
}

// resolve returns the value a single reference match points to.
func (v *vars) resolve(match []string, index int) (any, error) {
	switch {
	case match[1] != "":
		val, ok := v.exports[match[1]]
		if !ok {
			return nil, fmt.Errorf("%w: {{%s}}", ErrUnknownVariable, match[1])
		}
		return val, nil
	case match[3] != "":
		n, err := strconv.Atoi(match[2])
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrUnknownVariable, match[0])
		}
		if n < 0 {
			n += index
		}
		if n < 0 || n >= len(v.stages) || v.stages[n] == nil {
			return nil, fmt.Errorf("%w: %s has no exports", ErrUnknownVariable, match[0])
		}
		val, ok := v.stages[n][match[3]]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownVariable, match[0])
		}
		return val, nil
	default:
		val, ok := v.lookup(match[4])
		if !ok {
			return nil, fmt.Errorf("%w: environment variable %s is not set", ErrUnknownVariable, match[4])
		}
		return val, nil
	}
}

// expand replaces every reference in s, rendering values with render.
func (v *vars) expand(s string, index int, render func(any) string) (string, error) {
	var firstErr error
	out := refPattern.ReplaceAllStringFunc(s, func(m string) string {
		val, err := v.resolve(refPattern.FindStringSubmatch(m), index)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return m
		}
		return render(val)
	})
	return out, firstErr
}

// expandText is used for URLs and headers: strings go in as-is.
func (v *vars) expandText(s string, index int) (string, error) {
	return v.expand(s, index, renderText)
}

// expandExpr is used for assertion expressions: values go in as JSON
// literals, so a string export compares as a quoted string.
func (v *vars) expandExpr(s string, index int) (string, error) {
	return v.expand(s, index, renderJSON)
}

// expandBody marshals body and substitutes references. A JSON string that
// is exactly one export reference takes the exported value with its type;
// references inside longer strings are spliced in as text.
func (v *vars) expandBody(body any, index int) ([]byte, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: body: %v", ErrInvalidPlan, err)
	}
	var firstErr error
	s := quotedRefPattern.ReplaceAllStringFunc(string(data), func(m string) string {
		val, err := v.resolve(refPattern.FindStringSubmatch(m[1:len(m)-1]), index)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return m
		}
		return renderJSON(val)
	})
	if firstErr != nil {
		return nil, firstErr
	}
	s, err = v.expand(s, index, func(val any) string {
		quoted, _ := json.Marshal(renderText(val))
		return string(quoted[1 : len(quoted)-1])
	})
	if err != nil {
		return nil, err
	}
	if !json.Valid([]byte(s)) {
		return nil, fmt.Errorf("%w: body is not valid JSON after substitution", ErrInvalidPlan)
	}
	return []byte(s), nil
}

func renderText(val any) string {
	if s, ok := val.(string); ok {
		return s
	}
	return renderJSON(val)
}

func renderJSON(val any) string {
	data, err := json.Marshal(val)
	if err != nil {
		return fmt.Sprint(val)
	}
	return strings.TrimSpace(string(data))
}
