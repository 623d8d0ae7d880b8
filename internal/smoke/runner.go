package smoke

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/okian/quicktodo/pkg/logger"
)

// Run loads the configured plans, runs them in order and returns the report.
// Plans come from cfg.File, else from *.tk.yaml files under cfg.Dir, else
// the built-in plan for the server's flavor. The error is ErrChecksFailed
// when any step failed.
func Run(ctx context.Context, config *Config) (*Report, error) {
	cfg := withDefaults(config)
	log := logger.Named("smoke")
	client := NewHTTPClient(cfg.BaseURL, cfg.Timeout, cfg.Verbose)

	report := &Report{StartTime: time.Now(), Flavor: cfg.Flavor}

	plans, err := loadPlans(ctx, client, &cfg, report)
	if err != nil {
		return nil, err
	}

	log.Info(ctx, "starting smoke run",
		logger.String("baseURL", cfg.BaseURL),
		logger.String("flavor", report.Flavor),
		logger.Int("plans", len(plans)))

	for _, plan := range plans {
		if ctx.Err() != nil {
			break
		}
		report.add(RunPlan(ctx, client, plan, cfg.FailFast))
	}

	report.EndTime = time.Now()
	report.Duration = report.EndTime.Sub(report.StartTime)

	log.Info(ctx, "smoke run finished",
		logger.Int("passed", report.Passed),
		logger.Int("failed", report.Failed),
		logger.String("duration", report.Duration.String()))

	if err := ctx.Err(); err != nil {
		return report, err
	}
	if !report.OK() {
		return report, ErrChecksFailed
	}
	return report, nil
}

func loadPlans(ctx context.Context, client *HTTPClient, cfg *Config, report *Report) ([]*Plan, error) {
	if cfg.File != "" {
		plan, err := LoadPlan(cfg.File)
		if err != nil {
			return nil, err
		}
		return []*Plan{plan}, nil
	}

	if cfg.Dir != "" {
		paths, err := FindPlans(cfg.Dir)
		if err != nil {
			return nil, err
		}
		if len(paths) == 0 {
			return nil, fmt.Errorf("%w: no *%s under %s", ErrNoPlans, PlanSuffix, cfg.Dir)
		}
		plans := make([]*Plan, 0, len(paths))
		for _, path := range paths {
			plan, err := LoadPlan(path)
			if err != nil {
				return nil, err
			}
			plans = append(plans, plan)
		}
		return plans, nil
	}

	if report.Flavor == "" {
		detected, err := detectFlavor(ctx, client)
		if err != nil {
			return nil, fmt.Errorf("flavor detection failed: %w", err)
		}
		report.Flavor = detected
	}
	plan, err := BuiltinPlan(report.Flavor)
	if err != nil {
		return nil, err
	}
	return []*Plan{plan}, nil
}

// RunPlan runs the steps of plan in order. Exports of earlier steps are
// visible to later ones. With failFast the remaining steps are skipped
// after the first failure; otherwise every step runs.
func RunPlan(ctx context.Context, client *HTTPClient, plan *Plan, failFast bool) *PlanReport {
	log := logger.Named("smoke").With(logger.String("plan", plan.Name))
	report := &PlanReport{Name: plan.Name}
	v := newVars()

	for i, step := range plan.Steps {
		if ctx.Err() != nil {
			report.Skipped = len(plan.Steps) - i
			break
		}
		res := runStep(ctx, client, v, i, step, log)
		report.add(res)

		if !res.Passed() {
			fields := []logger.Field{logger.Int("step", i), logger.String("name", res.Name())}
			if res.Err != nil {
				fields = append(fields, logger.Error(res.Err))
			}
			for _, a := range res.Asserts {
				if !a.Passed {
					fields = append(fields, logger.Error(a.Err))
					break
				}
			}
			log.Error(ctx, "step failed", fields...)
			if failFast {
				report.Skipped = len(plan.Steps) - i - 1
				break
			}
			continue
		}
		log.Info(ctx, "step passed",
			logger.Int("step", i),
			logger.String("name", res.Name()),
			logger.Int("status", res.Status),
			logger.String("duration", res.Duration.String()))
	}
	return report
}

func runStep(ctx context.Context, client *HTTPClient, v *vars, index int, step Step, log logger.Logger) (res StepResult) {
	start := time.Now()
	res = StepResult{Index: index, Title: step.Title, Method: step.Method, URL: step.URL}
	defer func() { res.Duration = time.Since(start) }()

	req, body, err := buildRequest(ctx, client, v, index, step)
	if err != nil {
		res.Err = err
		return res
	}
	res.URL = req.URL.String()

	resp, err := client.Do(req)
	if err != nil {
		res.Err = err
		return res
	}
	res.Status = resp.Status

	data := stepContext(req, body, resp)
	if step.Dump {
		log.Info(ctx, "step context", logger.Int("step", index), logger.Any("context", data))
	}

	for _, a := range step.Asserts {
		ar := AssertResult{Kind: a.Kind, Expr: a.Expr}
		expr, err := v.expandExpr(a.Expr, index)
		if err == nil {
			err = evaluate(Assertion{Kind: a.Kind, Expr: expr}, data)
		}
		ar.Passed, ar.Err = err == nil, err
		res.Asserts = append(res.Asserts, ar)
	}

	if len(step.Exports) > 0 {
		res.Exports = make(map[string]any, len(step.Exports))
		for name, path := range step.Exports {
			val, err := extract(path, resp, data)
			if err != nil {
				res.Err = fmt.Errorf("export %s: %w", name, err)
				continue
			}
			res.Exports[name] = val
		}
		v.record(index, res.Exports)
	}
	return res
}

func buildRequest(ctx context.Context, client *HTTPClient, v *vars, index int, step Step) (*http.Request, []byte, error) {
	url, err := v.expandText(step.URL, index)
	if err != nil {
		return nil, nil, err
	}
	headers := make(map[string]string, len(step.Headers))
	for k, val := range step.Headers {
		if headers[k], err = v.expandText(val, index); err != nil {
			return nil, nil, err
		}
	}

	var body []byte
	switch {
	case step.Raw != nil:
		raw, err := v.expandText(*step.Raw, index)
		if err != nil {
			return nil, nil, err
		}
		body = []byte(raw)
	case step.JSON != nil:
		if body, err = v.expandBody(step.JSON, index); err != nil {
			return nil, nil, err
		}
	}

	req, err := client.NewRequest(ctx, step.Method, url, headers, body)
	if err != nil {
		return nil, nil, err
	}
	return req, body, nil
}

// detectFlavor asks /stats which flavor the server runs.
func detectFlavor(ctx context.Context, c *HTTPClient) (string, error) {
	resp, err := c.Get(ctx, "/stats")
	if err != nil {
		return "", err
	}
	if err := resp.expect(http.StatusOK); err != nil {
		return "", err
	}
	var stats struct {
		Flavor string `json:"flavor"`
	}
	if err := resp.JSON(&stats); err != nil {
		return "", err
	}
	return stats.Flavor, nil
}

func withDefaults(config *Config) Config {
	var cfg Config
	if config != nil {
		cfg = *config
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return cfg
}
