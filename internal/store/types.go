package store

// Run statuses.
const (
	StatusResolved   = "resolved"
	StatusAmbiguous  = "ambiguous"
	StatusIncomplete = "incomplete"
)

// Run is one stored resolution attempt.
type Run struct {
	ID              string `json:"id"`
	Seq             int64  `json:"seq"`
	RuleSetHash     string `json:"ruleset_hash"`
	RecordsHash     string `json:"records_hash"`
	AssignmentHash  string `json:"assignment_hash,omitempty"`
	Status          string `json:"status"`
	ErrorCode       string `json:"error_code,omitempty"`
	Passes          int    `json:"passes"`
	ValidRecords    int    `json:"valid_records"`
	RejectedRecords int    `json:"rejected_records"`
	ResolverVersion string `json:"resolver_version"`
	IRVersion       string `json:"ir_version"`
}

// Pair is one committed (column, rule) pair of a run.
type Pair struct {
	Column int    `json:"column"`
	Rule   string `json:"rule"`
	Pass   int    `json:"pass"`
	Via    string `json:"via"`
}
