package postgres

import (
	"context"
	"fmt"

	"github.com/ichinomiya1038/sample-app/internal/models"
)

type auditLogsRepo struct{ db DB }

func (r *auditLogsRepo) Create(ctx context.Context, l models.AuditLog) error {
	details := l.Details
	if details == nil {
		details = map[string]any{}
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO audit_logs (entity_type, entity_id, action, details) VALUES ($1, $2, $3, $4)`,
		l.EntityType, l.EntityID, l.Action, details)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}
