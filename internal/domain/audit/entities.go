package audit

import (
	"context"
	"time"
)

type Action string

const (
	ActionInterestSubmitted  Action = "interest.submitted"
	ActionReviewStarted      Action = "interest.review_started"
	ActionInterestApproved   Action = "interest.approved"
	ActionInterestRejected   Action = "interest.rejected"
	ActionInterestConverted  Action = "interest.converted"
	ActionContractCreated    Action = "contract.created"
	ActionTermsUpdated       Action = "contract.terms_updated"
	ActionScheduleGenerated  Action = "contract.schedule_generated"
	ActionContractActivated  Action = "contract.activated"
	ActionContractAmended    Action = "contract.amended"
	ActionPaymentRecorded    Action = "contract.payment_recorded"
	ActionContractArchived   Action = "contract.archived"
	ActionContractCancelled  Action = "contract.cancelled"
	ActionContractRecomputed Action = "contract.recomputed"
)

const (
	EntityInterest = "interest"
	EntityContract = "contract"
)

// Table: audit_entries. Rows are only ever inserted.
type Entry struct {
	ID          uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	EntryID     string    `gorm:"column:entry_id;size:36;not null;uniqueIndex:ux_audit_entries_entry_id" json:"entry_id"`
	ActorID     string    `gorm:"column:actor_id;size:64;not null;index" json:"actor_id"`
	ActorRole   string    `gorm:"column:actor_role;size:32" json:"actor_role,omitempty"`
	Action      Action    `gorm:"column:action;size:48;not null" json:"action"`
	EntityType  string    `gorm:"column:entity_type;size:24;not null;index:idx_audit_entity" json:"entity_type"`
	EntityID    string    `gorm:"column:entity_id;size:32;not null;index:idx_audit_entity" json:"entity_id"`
	RelatedType string    `gorm:"column:related_type;size:24" json:"related_type,omitempty"`
	RelatedID   string    `gorm:"column:related_id;size:32" json:"related_id,omitempty"`
	Before      string    `gorm:"column:before_json;type:text" json:"before,omitempty"`
	After       string    `gorm:"column:after_json;type:text" json:"after,omitempty"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Entry) TableName() string { return "audit_entries" }

// Recorder persists an immutable audit entry and returns its opaque id.
// Implementations bound to a transaction must write inside that transaction.
type Recorder interface {
	Record(ctx context.Context, e *Entry) (string, error)
}
