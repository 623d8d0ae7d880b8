package smoke

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/okian/quicktodo/internal/domain/model"
)

//go:embed plans/*.tk.yaml
var builtinPlans embed.FS

// Assertion kinds accepted in a step's asserts list.
const (
	AssertOK       = "ok"
	AssertArray    = "array"
	AssertEmpty    = "empty"
	AssertNotEmpty = "notEmpty"
	AssertString   = "string"
	AssertNumber   = "number"
	AssertBoolean  = "boolean"
	AssertNull     = "null"
	AssertExists   = "exists"
	AssertDate     = "date"
)

var assertKinds = map[string]bool{
	AssertOK: true, AssertArray: true, AssertEmpty: true, AssertNotEmpty: true,
	AssertString: true, AssertNumber: true, AssertBoolean: true, AssertNull: true,
	AssertExists: true, AssertDate: true,
}

var planMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE"}

// Plan is an ordered list of request steps read from one YAML document.
type Plan struct {
	Name  string
	Steps []Step
}

// Step is one request of a plan together with its checks and exports.
//
// In YAML the method is the key that holds the URL:
//
//	- title: create
//	  POST: /todos
//	  json: {task: buy milk}
//	  asserts:
//	    - ok: $.resp.status == 201
//	  exports:
//	    todoId: $.resp.json.id
type Step struct {
	Title   string
	Dump    bool
	Method  string
	URL     string
	Headers map[string]string
	JSON    any
	Raw     *string
	Asserts []Assertion
	Exports map[string]string
}

type stepDoc struct {
	Title   string            `yaml:"title"`
	Dump    bool              `yaml:"dump"`
	Headers map[string]string `yaml:"headers"`
	JSON    any               `yaml:"json"`
	Raw     *string           `yaml:"raw"`
	Asserts []Assertion       `yaml:"asserts"`
	Exports map[string]string `yaml:"exports"`
}

// UnmarshalYAML reads a step and picks its method from the one method key present.
func (s *Step) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: line %d: step must be a mapping", ErrInvalidPlan, node.Line)
	}
	var doc stepDoc
	if err := node.Decode(&doc); err != nil {
		return err
	}

	var method, url string
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		for _, m := range planMethods {
			if key != m {
				continue
			}
			if method != "" {
				return fmt.Errorf("%w: line %d: step has both %s and %s", ErrInvalidPlan, node.Line, method, key)
			}
			method, url = key, node.Content[i+1].Value
		}
	}
	if method == "" {
		return fmt.Errorf("%w: line %d: step needs one of %s", ErrInvalidPlan, node.Line, strings.Join(planMethods, ", "))
	}
	if doc.JSON != nil && doc.Raw != nil {
		return fmt.Errorf("%w: line %d: step has both json and raw bodies", ErrInvalidPlan, node.Line)
	}

	*s = Step{
		Title:   doc.Title,
		Dump:    doc.Dump,
		Method:  method,
		URL:     url,
		Headers: doc.Headers,
		JSON:    doc.JSON,
		Raw:     doc.Raw,
		Asserts: doc.Asserts,
		Exports: doc.Exports,
	}
	return nil
}

// Assertion is a single check written as a one-key mapping, kind: expression.
type Assertion struct {
	Kind string
	Expr string
}

// UnmarshalYAML reads a one-key mapping such as `ok: $.resp.status == 200`.
func (a *Assertion) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode || len(node.Content) != 2 {
		return fmt.Errorf("%w: line %d: assertion must be a single kind: expression pair", ErrInvalidPlan, node.Line)
	}
	kind, expr := node.Content[0].Value, node.Content[1]
	if !assertKinds[kind] {
		return fmt.Errorf("%w: line %d: unknown assertion kind %q", ErrInvalidPlan, node.Line, kind)
	}
	if expr.Kind != yaml.ScalarNode || strings.TrimSpace(expr.Value) == "" {
		return fmt.Errorf("%w: line %d: %s needs an expression", ErrInvalidPlan, node.Line, kind)
	}
	*a = Assertion{Kind: kind, Expr: strings.TrimSpace(expr.Value)}
	return nil
}

// ParsePlan reads a YAML list of steps.
func ParsePlan(name string, data []byte) (*Plan, error) {
	var steps []Step
	if err := yaml.Unmarshal(data, &steps); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("%w: %s has no steps", ErrInvalidPlan, name)
	}
	return &Plan{Name: name, Steps: steps}, nil
}

// LoadPlan reads and parses the plan file at path.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan: %w", err)
	}
	return ParsePlan(path, data)
}

// FindPlans returns every *.tk.yaml file under dir in lexical order.
func FindPlans(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(d.Name(), PlanSuffix) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", dir, err)
	}
	sort.Strings(paths)
	return paths, nil
}

// BuiltinPlan returns the plan shipped for flavor.
func BuiltinPlan(flavor string) (*Plan, error) {
	switch flavor {
	case model.FlavorTasks, model.FlavorRecords:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFlavor, flavor)
	}
	name := "plans/" + flavor + PlanSuffix
	data, err := builtinPlans.ReadFile(name)
	if err != nil {
		return nil, err
	}
	return ParsePlan(name, data)
}
