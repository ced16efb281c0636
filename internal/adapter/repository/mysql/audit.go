package mysql

import (
	"context"
	"time"

	auditDomain "realestate-lifecycle/internal/domain/audit"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditRecorder appends audit entries through whatever *gorm.DB it is bound to,
// so inside a unit of work it commits or rolls back with the mutation.
type AuditRecorder struct{ db *gorm.DB }

func NewAuditRecorder(db *gorm.DB) *AuditRecorder { return &AuditRecorder{db: db} }

func (r *AuditRecorder) Record(ctx context.Context, e *auditDomain.Entry) (string, error) {
	if e.EntryID == "" {
		e.EntryID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if err := r.db.WithContext(ctx).Create(e).Error; err != nil {
		return "", err
	}
	return e.EntryID, nil
}

// ListByEntity is used by tests and operators; the audit viewer lives elsewhere.
func (r *AuditRecorder) ListByEntity(ctx context.Context, entityType, entityID string) ([]auditDomain.Entry, error) {
	var out []auditDomain.Entry
	err := r.db.WithContext(ctx).
		Where("(entity_type = ? AND entity_id = ?) OR (related_type = ? AND related_id = ?)", entityType, entityID, entityType, entityID).
		Order("id ASC").
		Find(&out).Error
	return out, err
}
