package model

// DemoListing is the fixed payload the integer-keyed list answers
// GET /todos with. It has nothing to do with the stored records.
type DemoListing struct {
	Tasks    []any  `json:"tasks"`
	EmptyStr string `json:"empty_str"`
	EmptyArr []any  `json:"empty_arr"`
	RespNull any    `json:"resp_null"`
}

// NewDemoListing builds the demo payload. EmptyArr is non-nil so it encodes as [].
func NewDemoListing() DemoListing {
	return DemoListing{
		Tasks:    []any{"task one", 4, "task two", "task three"},
		EmptyStr: "",
		EmptyArr: []any{},
		RespNull: nil,
	}
}
