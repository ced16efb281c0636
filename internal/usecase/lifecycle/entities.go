package lifecycle

import (
	"time"

	"realestate-lifecycle/internal/domain/contract"
	"realestate-lifecycle/internal/domain/interest"
)

type SubmitInterestInput struct {
	InvestorID  string
	AssetID     string
	Purpose     string
	AmountRange string
	Timeline    string
}

type ReviewInput struct {
	InterestID      string
	Decision        interest.Decision
	Notes           string
	RejectionReason string
	ExpectedVersion int // 0 skips the caller-side check; the storage check always applies
}

// TermsInput carries contract terms as submitted. Zero values mean "not provided".
type TermsInput struct {
	ContractCode string
	AssetID      string
	InvestorID   string
	TotalAmount  int64
	Duration     int
	StartDate    *time.Time
}

type ConvertInput struct {
	InterestID      string
	Terms           TermsInput
	ExpectedVersion int
}

type ConvertResult struct {
	Interest *interest.Interest `json:"interest"`
	Contract *contract.Contract `json:"contract"`
}

// UpdateTermsInput is a partial update; nil fields keep their current value.
type UpdateTermsInput struct {
	ContractID      string
	AssetID         *string
	InvestorID      *string
	TotalAmount     *int64
	Duration        *int
	StartDate       *time.Time
	ExpectedVersion int
}

type AmendInput struct {
	ContractID      string
	TotalAmount     int64
	Duration        int
	StartDate       *time.Time // nil keeps the current start date
	ExpectedVersion int
}

type PaymentInput struct {
	ContractID      string
	Seq             int
	PaidAt          time.Time // zero means now
	ExpectedVersion int
}

type ContractRef struct {
	ContractID      string
	ExpectedVersion int
}

type AdminStatusInput struct {
	ContractID      string
	Status          contract.Status
	ExpectedVersion int
}

type RecomputeSummary struct {
	Scanned   int `json:"scanned"`
	Updated   int `json:"updated"`
	Conflicts int `json:"conflicts"`
}
