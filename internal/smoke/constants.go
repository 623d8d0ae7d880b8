package smoke

import "time"

// Defaults applied to zero Config fields.
const (
	DefaultBaseURL = "http://localhost:3000"
	DefaultTimeout = 10 * time.Second
)

// PlanSuffix marks plan files picked up by directory discovery.
const PlanSuffix = ".tk.yaml"

// runHeader is sent with every plan request so servers can tell test
// traffic apart.
const runHeader = "X-Testkit-Run"
