package contract

import (
	"time"

	"realestate-lifecycle/pkg/id"

	"gorm.io/gorm"
)

type Status string

const (
	StatusDraft      Status = "draft"
	StatusIncomplete Status = "incomplete"
	StatusActive     Status = "active"
	StatusExpiring   Status = "expiring"
	StatusExpired    Status = "expired"
	StatusArchived   Status = "archived"
	StatusCancelled  Status = "cancelled"
)

// AllStatuses is the display order used by aggregations.
var AllStatuses = []Status{
	StatusDraft, StatusIncomplete, StatusActive, StatusExpiring, StatusExpired, StatusArchived, StatusCancelled,
}

func (s Status) Administrative() bool { return s == StatusArchived || s == StatusCancelled }

type InstallmentStatus string

const (
	InstallmentPending InstallmentStatus = "pending"
	InstallmentPaid    InstallmentStatus = "paid"
	InstallmentOverdue InstallmentStatus = "overdue"
)

// MaxCodeLength matches the contract_code column.
const MaxCodeLength = 32

// Table: contracts
type Contract struct {
	ID           uint64 `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	ContractID   string `gorm:"column:contract_id;size:32;not null;uniqueIndex:ux_contracts_contract_id" json:"contract_id"`
	ContractCode string `gorm:"column:contract_code;size:32;not null;uniqueIndex:ux_contracts_contract_code" json:"contract_code"`
	AssetID      string `gorm:"column:asset_id;size:64" json:"asset_id"`
	InvestorID   string `gorm:"column:investor_id;size:64;index:idx_contracts_investor" json:"investor_id"`
	// Public id of the interest this contract was converted from; nil for staff-authored contracts.
	OriginInterestID *string    `gorm:"column:origin_interest_id;size:32;uniqueIndex:ux_contracts_origin_interest" json:"origin_interest_id,omitempty"`
	TotalAmount      int64      `gorm:"column:total_amount;not null;default:0" json:"total_amount"`
	Duration         int        `gorm:"column:duration;not null;default:0" json:"duration"`
	StartDate        *time.Time `gorm:"column:start_date" json:"start_date,omitempty"`
	EndDate          *time.Time `gorm:"column:end_date" json:"end_date,omitempty"`
	ActivatedAt      *time.Time `gorm:"column:activated_at" json:"activated_at,omitempty"`
	// Sticky archived/cancelled marker set by administrative commands only.
	AdminStatus     *Status   `gorm:"column:admin_status;size:16" json:"admin_status,omitempty"`
	Status          Status    `gorm:"column:status;size:16;not null;index:idx_contracts_status" json:"status"`
	StatusUpdatedAt time.Time `gorm:"column:status_updated_at" json:"status_updated_at"`
	Version         int       `gorm:"column:version;not null;default:1" json:"version"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime" json:"-"`

	Installments []Installment `gorm:"-" json:"installments,omitempty"`
}

func (Contract) TableName() string { return "contracts" }

// Table: installments
type Installment struct {
	ID            uint64            `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	InstallmentID string            `gorm:"column:installment_id;size:32;not null;uniqueIndex:ux_installments_installment_id" json:"installment_id,omitempty"`
	ContractID    uint64            `gorm:"column:contract_id;not null;uniqueIndex:ux_installments_contract_seq" json:"-"`
	Seq           int               `gorm:"column:seq;not null;uniqueIndex:ux_installments_contract_seq" json:"seq"`
	DueDate       time.Time         `gorm:"column:due_date;not null" json:"due_date"`
	Amount        int64             `gorm:"column:amount;not null" json:"amount"`
	Status        InstallmentStatus `gorm:"column:status;size:16;not null;index" json:"status"`
	PaidAt        *time.Time        `gorm:"column:paid_at" json:"paid_at,omitempty"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime" json:"-"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"-"`
}

func (Installment) TableName() string { return "installments" }

func (in *Installment) BeforeCreate(*gorm.DB) error {
	if in.InstallmentID == "" {
		in.InstallmentID = id.NewID32()
	}
	return nil
}

// Terms are the contract fields the schedule is derived from.
type Terms struct {
	AssetID     string     `json:"asset_id"`
	InvestorID  string     `json:"investor_id"`
	TotalAmount int64      `json:"total_amount"`
	Duration    int        `json:"duration"`
	StartDate   *time.Time `json:"start_date,omitempty"`
}

// Complete reports whether every field needed to generate a schedule is present.
func (t Terms) Complete() bool {
	return t.AssetID != "" && t.InvestorID != "" && t.TotalAmount > 0 && t.Duration > 0 &&
		t.StartDate != nil && !t.StartDate.IsZero()
}

// Check rejects values that can never be valid, independent of completeness.
func (t Terms) Check() error {
	if t.TotalAmount < 0 {
		return errNegativeAmount
	}
	if t.Duration < 0 {
		return errNegativeDuration
	}
	return nil
}

func (c *Contract) Terms() Terms {
	return Terms{
		AssetID:     c.AssetID,
		InvestorID:  c.InvestorID,
		TotalAmount: c.TotalAmount,
		Duration:    c.Duration,
		StartDate:   c.StartDate,
	}
}

// ApplyTerms copies t onto the contract and recomputes the end date.
func (c *Contract) ApplyTerms(t Terms) {
	c.AssetID = t.AssetID
	c.InvestorID = t.InvestorID
	c.TotalAmount = t.TotalAmount
	c.Duration = t.Duration
	if t.StartDate != nil {
		s := StartOfDay(*t.StartDate)
		c.StartDate = &s
	} else {
		c.StartDate = nil
	}
	c.EndDate = nil
	if c.StartDate != nil && c.Duration > 0 {
		e := AddPeriods(*c.StartDate, c.Duration)
		c.EndDate = &e
	}
}

func (c *Contract) Activated() bool { return c.ActivatedAt != nil }

// Terminal reports whether an administrative status has been set.
func (c *Contract) Terminal() bool { return c.AdminStatus != nil }

// StartOfDay truncates t to midnight UTC. Contract and due dates are calendar dates.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddPeriods advances t by n calendar months, clamping to the last day of the target month.
func AddPeriods(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
