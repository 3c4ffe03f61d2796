package reporting

import "time"

type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// UsageSummaryRequest requests aggregated call metrics for one account.
type UsageSummaryRequest struct {
	AccountID string    `json:"account_id"`
	Range     TimeRange `json:"range"`
}

type UsageSummary struct {
	AccountID string `json:"account_id"`

	TotalCalls      int `json:"total_calls"`
	CompletedCalls  int `json:"completed_calls"`
	FailedCalls     int `json:"failed_calls"`
	ProcessingCalls int `json:"processing_calls"`

	TotalDurationSeconds   int `json:"total_duration_seconds"`
	AverageDurationSeconds int `json:"average_duration_seconds"`

	// CreditsSpent is the sum of billed whole minutes over the range.
	CreditsSpent int64 `json:"credits_spent"`
}

// PurchaseSummaryRequest requests aggregated payment metrics for one account.
type PurchaseSummaryRequest struct {
	AccountID string    `json:"account_id"`
	Range     TimeRange `json:"range"`
}

type PurchaseSummary struct {
	AccountID string `json:"account_id"`

	Payments         int    `json:"payments"`
	TotalAmountCents int64  `json:"total_amount_cents"`
	CreditsPurchased int64  `json:"credits_purchased"`
	Currency         string `json:"currency"`
}
