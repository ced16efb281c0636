package interest

import (
	"strings"
	"time"

	"realestate-lifecycle/internal/domain/shared"
)

type Status string

const (
	StatusNew         Status = "new"
	StatusUnderReview Status = "under_review"
	StatusApproved    Status = "approved"
	StatusRejected    Status = "rejected"
	StatusConverted   Status = "converted"
)

var AllStatuses = []Status{StatusNew, StatusUnderReview, StatusApproved, StatusRejected, StatusConverted}

func (s Status) Terminal() bool { return s == StatusRejected || s == StatusConverted }

type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// Table: interests
type Interest struct {
	ID          uint64 `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	InterestID  string `gorm:"column:interest_id;size:32;not null;uniqueIndex:ux_interests_interest_id" json:"interest_id"`
	ReferenceNo string `gorm:"column:reference_no;size:32;not null;uniqueIndex:ux_interests_reference_no" json:"reference_no"`
	InvestorID  string `gorm:"column:investor_id;size:64;not null;index:idx_interests_investor" json:"investor_id"`
	AssetID     string `gorm:"column:asset_id;size:64;not null" json:"asset_id"`
	Purpose     string `gorm:"column:purpose;size:64" json:"purpose,omitempty"`
	AmountRange string `gorm:"column:amount_range;size:64" json:"amount_range,omitempty"`
	Timeline    string `gorm:"column:timeline;size:64" json:"timeline,omitempty"`
	Status      Status `gorm:"column:status;size:16;not null;index:idx_interests_status" json:"status"`

	SubmittedAt     time.Time  `gorm:"column:submitted_at;not null" json:"submitted_at"`
	ReviewerID      string     `gorm:"column:reviewer_id;size:64" json:"reviewer_id,omitempty"`
	ReviewNotes     string     `gorm:"column:review_notes;type:text" json:"review_notes,omitempty"`
	RejectionReason string     `gorm:"column:rejection_reason;type:text" json:"rejection_reason,omitempty"`
	ReviewedAt      *time.Time `gorm:"column:reviewed_at" json:"reviewed_at,omitempty"`
	// Public id of the contract produced by conversion; set iff Status is converted.
	ContractID  *string    `gorm:"column:contract_id;size:32" json:"contract_id,omitempty"`
	ConvertedAt *time.Time `gorm:"column:converted_at" json:"converted_at,omitempty"`

	Version   int       `gorm:"column:version;not null;default:1" json:"version"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"-"`
}

func (Interest) TableName() string { return "interests" }

// StartReview moves a new interest to under_review.
func (i *Interest) StartReview(reviewer shared.Actor) error {
	if i.Status != StatusNew {
		return shared.InvalidTransitionf("interest %s is %s; review can only start from %s", i.ReferenceNo, i.Status, StatusNew)
	}
	i.Status = StatusUnderReview
	i.ReviewerID = reviewer.ID
	return nil
}

// Review records a reviewer decision. A new interest passes through under_review implicitly.
func (i *Interest) Review(reviewer shared.Actor, d Decision, notes, reason string, at time.Time) error {
	switch i.Status {
	case StatusNew, StatusUnderReview:
	default:
		return shared.InvalidTransitionf("interest %s is %s and can no longer be reviewed", i.ReferenceNo, i.Status)
	}
	reason = strings.TrimSpace(reason)
	switch d {
	case DecisionApprove:
		i.Status = StatusApproved
		i.RejectionReason = ""
	case DecisionReject:
		if reason == "" {
			return shared.Newf(shared.KindMissingReason, "rejection_reason is required to reject")
		}
		i.Status = StatusRejected
		i.RejectionReason = reason
	default:
		return shared.Validationf("unknown review action %q", d)
	}
	t := at.UTC()
	i.ReviewerID = reviewer.ID
	i.ReviewNotes = notes
	i.ReviewedAt = &t
	return nil
}

// CheckConvertible guards conversion. A linked contract wins over the status check so a
// retried convert reports AlreadyConverted.
func (i *Interest) CheckConvertible() error {
	if i.ContractID != nil {
		return shared.Newf(shared.KindAlreadyConverted, "interest %s already converted to contract %s", i.ReferenceNo, *i.ContractID)
	}
	if i.Status != StatusApproved {
		return shared.InvalidTransitionf("interest %s is %s; only approved interests convert", i.ReferenceNo, i.Status)
	}
	return nil
}

func (i *Interest) MarkConverted(contractID string, at time.Time) error {
	if err := i.CheckConvertible(); err != nil {
		return err
	}
	t := at.UTC()
	i.Status = StatusConverted
	i.ContractID = &contractID
	i.ConvertedAt = &t
	return nil
}
