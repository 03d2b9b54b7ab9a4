package models

// ReportStatus is the review state of an AI report.
type ReportStatus string

const (
	ReportStatusPending  ReportStatus = "pending"
	ReportStatusApproved ReportStatus = "approved"
	ReportStatusRejected ReportStatus = "rejected"
)

// RiskLevel is the AI-assessed risk of a report.
type RiskLevel string

const (
	RiskHigh   RiskLevel = "high"
	RiskMedium RiskLevel = "medium"
	RiskLow    RiskLevel = "low"
)

// ReportSummary is one entry of GET /reports.
type ReportSummary struct {
	ID        string       `json:"id"`
	Date      string       `json:"date"`
	Status    ReportStatus `json:"status"`
	RiskLevel RiskLevel    `json:"riskLevel"`
}

// ProposedChange is a single rebalancing proposal. Change is a percentage.
type ProposedChange struct {
	Coin           string  `json:"coin"`
	CurrentAmount  float64 `json:"currentAmount"`
	ProposedAmount float64 `json:"proposedAmount"`
	Change         float64 `json:"change"`
	Reason         string  `json:"reason"`
}

// ReportDetail is GET /reports/{id}.
type ReportDetail struct {
	ID              string           `json:"id"`
	Date            string           `json:"date"`
	Status          ReportStatus     `json:"status"`
	RiskLevel       RiskLevel        `json:"riskLevel"`
	AIJudgment      string           `json:"aiJudgment"`
	RelatedNews     []NewsItem       `json:"relatedNews"`
	ProposedChanges []ProposedChange `json:"proposedChanges"`
	CurrentHoldings []Holding        `json:"currentHoldings"`
}

// ReportActionResult is returned by approve, reject and undo.
type ReportActionResult struct {
	Status string `json:"status"`
}
