// Package smoke drives a running todo server through YAML test plans and
// reports which steps passed.
package smoke

import "time"

// Config holds configuration for a smoke run.
type Config struct {
	BaseURL  string        // Prefix for plan URLs that start with "/"
	Flavor   string        // tasks or records; empty asks /stats
	File     string        // Single plan file to run
	Dir      string        // Directory searched for *.tk.yaml plans
	Timeout  time.Duration // HTTP request timeout
	FailFast bool          // Stop a plan at its first failed step
	Verbose  bool          // Log every request
}

// AssertResult is the outcome of one assertion.
type AssertResult struct {
	Kind   string
	Expr   string
	Passed bool
	Err    error
}

// StepResult is the outcome of one plan step.
type StepResult struct {
	Index    int
	Title    string
	Method   string
	URL      string
	Status   int
	Asserts  []AssertResult
	Exports  map[string]any
	Err      error
	Duration time.Duration
}

// Passed reports whether the request went through and every assertion held.
func (s *StepResult) Passed() bool {
	if s.Err != nil {
		return false
	}
	for _, a := range s.Asserts {
		if !a.Passed {
			return false
		}
	}
	return true
}

// Name returns the step title, or its method and URL when untitled.
func (s *StepResult) Name() string {
	if s.Title != "" {
		return s.Title
	}
	return s.Method + " " + s.URL
}

// PlanReport holds the step results of one plan.
type PlanReport struct {
	Name    string
	Steps   []StepResult
	Passed  int
	Failed  int
	Skipped int
}

func (p *PlanReport) add(res StepResult) {
	p.Steps = append(p.Steps, res)
	if res.Passed() {
		p.Passed++
	} else {
		p.Failed++
	}
}

// Report holds the results of a run.
type Report struct {
	Flavor    string
	Plans     []*PlanReport
	Passed    int
	Failed    int
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// OK reports whether every step passed.
func (r *Report) OK() bool { return r.Failed == 0 }

func (r *Report) add(p *PlanReport) {
	r.Plans = append(r.Plans, p)
	r.Passed += p.Passed
	r.Failed += p.Failed
}
