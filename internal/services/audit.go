package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/ichinomiya1038/sample-app/internal/models"
	repo "github.com/ichinomiya1038/sample-app/internal/repository"
	"github.com/ichinomiya1038/sample-app/internal/worker"
)

// Auditor writes audit log entries off the request path. A nil *Auditor
// records nothing.
type Auditor struct {
	logs repo.AuditLogs
	wp   *worker.Pool
}

func NewAuditor(logs repo.AuditLogs, wp *worker.Pool) *Auditor {
	return &Auditor{logs: logs, wp: wp}
}

func (a *Auditor) Record(entityType, entityID, action string, details map[string]any) {
	if a == nil {
		return
	}
	entry := models.AuditLog{
		EntityType: entityType,
		EntityID:   &entityID,
		Action:     action,
		Details:    details,
	}
	write := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.logs.Create(ctx, entry); err != nil {
			slog.Warn("audit log write failed", "err", err, "entity_type", entityType, "action", action)
		}
	}
	// after shutdown the pool refuses work; write inline instead of dropping it
	if a.wp == nil || !a.wp.Submit(write) {
		write()
	}
}
