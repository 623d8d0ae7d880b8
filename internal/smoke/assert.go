package smoke

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/PaesslerAG/gval"
	"github.com/PaesslerAG/jsonpath"
)

// exprLanguage evaluates `ok` expressions: gval's full operator set with
// JSONPath selectors and a len function.
var exprLanguage = gval.Full(
	jsonpath.Language(),
	gval.Function("len", func(args ...any) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("len takes one argument, got %d", len(args))
		}
		switch x := args[0].(type) {
		case []any:
			return float64(len(x)), nil
		case map[string]any:
			return float64(len(x)), nil
		case string:
			return float64(len(x)), nil
		case nil:
			return float64(0), nil
		}
		return nil, fmt.Errorf("len of %T", args[0])
	}),
)

// stepContext builds the document assertions and exports select from:
//
//	{"req": {"method", "url", "headers", "json"},
//	 "resp": {"status", "headers", "json", "raw"}}
//
// Header names are lower-cased. A body that is not JSON leaves resp.json
// an empty object; resp.raw always holds the body text.
func stepContext(req *http.Request, reqBody []byte, resp *Response) map[string]any {
	return map[string]any{
		"req": map[string]any{
			"method":  req.Method,
			"url":     req.URL.String(),
			"headers": headerMap(req.Header),
			"json":    decodeJSON(reqBody, nil),
		},
		"resp": map[string]any{
			"status":  float64(resp.Status),
			"headers": headerMap(resp.Header),
			"json":    decodeJSON(resp.Body, map[string]any{}),
			"raw":     string(resp.Body),
		},
	}
}

func headerMap(h http.Header) map[string]any {
	out := make(map[string]any, len(h))
	for k, vals := range h {
		list := make([]any, len(vals))
		for i, v := range vals {
			list[i] = v
		}
		out[strings.ToLower(k)] = list
	}
	return out
}

func decodeJSON(data []byte, fallback any) any {
	if len(data) == 0 {
		return fallback
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fallback
	}
	return v
}

// evaluate runs one assertion against the step context.
func evaluate(a Assertion, data map[string]any) error {
	if a.Kind == AssertOK {
		res, err := gval.Evaluate(a.Expr, data, exprLanguage)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrAssertion, a.Expr, err)
		}
		ok, isBool := res.(bool)
		if !isBool {
			return fmt.Errorf("%w: %s evaluated to %T, not a boolean", ErrAssertion, a.Expr, res)
		}
		if !ok {
			return fmt.Errorf("%w: %s is false", ErrAssertion, a.Expr)
		}
		return nil
	}

	path, layout := a.Expr, ""
	if a.Kind == AssertDate {
		path, layout, _ = strings.Cut(a.Expr, " ")
		layout = strings.TrimSpace(layout)
		if layout == "" {
			layout = time.RFC3339
		}
	}
	val, err := jsonpath.Get(path, data)
	if err != nil {
		return fmt.Errorf("%w: %s could not be located: %v", ErrAssertion, path, err)
	}

	var ok bool
	switch a.Kind {
	case AssertExists:
		ok = true
	case AssertArray:
		_, ok = val.([]any)
	case AssertEmpty, AssertNotEmpty:
		n, sized := sizeOf(val)
		if !sized {
			return fmt.Errorf("%w: %s is %s, which has no size", ErrAssertion, path, typeName(val))
		}
		ok = (n == 0) == (a.Kind == AssertEmpty)
	case AssertString:
		_, ok = val.(string)
	case AssertNumber:
		_, ok = val.(float64)
	case AssertBoolean:
		_, ok = val.(bool)
	case AssertNull:
		ok = val == nil
	case AssertDate:
		s, isString := val.(string)
		if !isString {
			return fmt.Errorf("%w: %s is %s, not a date string", ErrAssertion, path, typeName(val))
		}
		if _, err := time.Parse(layout, s); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrAssertion, path, err)
		}
		ok = true
	}
	if !ok {
		return fmt.Errorf("%w: %s is %s, not %s", ErrAssertion, path, typeName(val), a.Kind)
	}
	return nil
}

func sizeOf(v any) (int, bool) {
	switch x := v.(type) {
	case []any:
		return len(x), true
	case map[string]any:
		return len(x), true
	case string:
		return len(x), true
	}
	return 0, false
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "an array"
	case map[string]any:
		return "an object"
	case string:
		return "a string"
	case float64:
		return "a number"
	case bool:
		return "a boolean"
	}
	return reflect.TypeOf(v).String()
}

// extract resolves one export path. $.res.header.NAME reads a response
// header and $.res.status reads the status code; anything else is a
// JSONPath over the step context.
func extract(path string, resp *Response, data map[string]any) (any, error) {
	switch {
	case strings.HasPrefix(path, "$.res.header."):
		name := strings.TrimPrefix(path, "$.res.header.")
		vals := resp.Header.Values(name)
		if len(vals) == 0 {
			return nil, fmt.Errorf("%w: header %s not in response", ErrUnknownVariable, name)
		}
		return strings.Join(vals, ","), nil
	case strings.TrimSuffix(path, ".") == "$.res.status":
		return float64(resp.Status), nil
	}
	val, err := jsonpath.Get(path, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnknownVariable, path, err)
	}
	return val, nil
}
