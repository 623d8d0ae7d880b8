package model

// Server flavors. A process serves exactly one.
const (
	// FlavorTasks is the seeded, string-keyed todo list.
	FlavorTasks = "tasks"
	// FlavorRecords is the schemaless, integer-keyed todo list.
	FlavorRecords = "records"
)
