// Command smoke runs YAML test plans against a running todo server.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/quicktodo/internal/smoke"
	"github.com/okian/quicktodo/pkg/logger"
)

const defaultRunTimeout = 2 * time.Minute

func main() {
	var (
		baseURL  = flag.String("url", smoke.DefaultBaseURL, "Base URL for plan paths starting with /")
		file     = flag.String("file", "", "Run this plan file")
		dir      = flag.String("dir", "", "Run every *.tk.yaml plan under this directory")
		flavor   = flag.String("flavor", "", "tasks or records for the built-in plan (default: read from /stats)")
		timeout  = flag.Duration("timeout", smoke.DefaultTimeout, "HTTP request timeout")
		failFast = flag.Bool("fail-fast", true, "Stop a plan at its first failed step")
		verbose  = flag.Bool("verbose", false, "Log every request")
		help     = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		smoke.ShowHelp(os.Stdout)
		return
	}

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultRunTimeout)
	defer cancel()

	report, err := smoke.Run(ctx, &smoke.Config{
		BaseURL:  *baseURL,
		Flavor:   *flavor,
		File:     *file,
		Dir:      *dir,
		Timeout:  *timeout,
		FailFast: *failFast,
		Verbose:  *verbose,
	})
	if report != nil {
		smoke.PrintReport(os.Stdout, report)
	}
	if err != nil {
		os.Stderr.WriteString("Smoke run failed: " + err.Error() + "\n")
		cancel()
		stop()
		os.Exit(1)
	}
}
