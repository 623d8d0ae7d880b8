package smoke

import (
	"fmt"
	"io"
)

// ShowHelp prints usage information for the smoke tool.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `quicktodo smoke
===============

Runs YAML test plans against a running todo server and exits non-zero
when any step fails.

Usage:
  go run ./cmd/smoke [options]

Plans are picked in this order: -file, then every *.tk.yaml under -dir,
then the built-in plan for the server's flavor.

Options:
  -url string
        Base URL for plan paths starting with "/" (default "http://localhost:3000")
  -file string
        Run this plan file
  -dir string
        Run every *.tk.yaml plan under this directory
  -flavor string
        tasks or records for the built-in plan (default: read from /stats)
  -timeout duration
        HTTP request timeout (default 10s)
  -fail-fast
        Stop a plan at its first failed step (default true)
  -verbose
        Log every request
  -help
        Show this help message

Plan format:
  - title: create
    POST: /todos
    headers: {X-Trace: smoke}
    json: {task: buy milk}
    asserts:
      - ok: $.resp.status == 201
      - number: $.resp.json.id
    exports:
      todoId: $.resp.json.id
  - GET: /todos/{{todoId}}

  Assertion kinds: ok, array, empty, notEmpty, string, number, boolean,
  null, exists, date ("path layout", Go time layout, RFC 3339 by default).
  References: {{name}}, $.stages[n].name (n < 0 counts back), $.env.NAME.

Plans create and delete todos. Run them against a fresh server: on the
tasks flavor ids are len+1, so after a delete a new task can share an
older task's id and deleting it would remove both.
`)
}

// PrintReport writes a one-line-per-step summary of report to w.
func PrintReport(w io.Writer, report *Report) {
	for _, p := range report.Plans {
		_, _ = fmt.Fprintf(w, "%s\n", p.Name)
		for i := range p.Steps {
			s := &p.Steps[i]
			status := "PASS"
			if !s.Passed() {
				status = "FAIL"
			}
			_, _ = fmt.Fprintf(w, "  %s  %-40s %3d %s\n", status, s.Name(), s.Status, s.Duration)
			if s.Err != nil {
				_, _ = fmt.Fprintf(w, "        %v\n", s.Err)
			}
			for _, a := range s.Asserts {
				if !a.Passed {
					_, _ = fmt.Fprintf(w, "        %s: %v\n", a.Kind, a.Err)
				}
			}
		}
		if p.Skipped > 0 {
			_, _ = fmt.Fprintf(w, "  SKIP  %d remaining steps\n", p.Skipped)
		}
	}
	flavor := report.Flavor
	if flavor == "" {
		flavor = "plans"
	}
	_, _ = fmt.Fprintf(w, "%s: %d passed, %d failed in %s\n", flavor, report.Passed, report.Failed, report.Duration)
}
