package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/noah-isme/univ-portal-api/internal/models"
)

type auditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// recordAudit writes an audit entry. Failures are logged and never fail the caller.
func recordAudit(ctx context.Context, w auditWriter, logger *zap.Logger, userID, action, resource, resourceID string, payload interface{}, meta models.RequestMeta) {
	if w == nil {
		return
	}
	entry := &models.AuditLog{
		UserID:     &userID,
		Action:     action,
		Resource:   resource,
		ResourceID: &resourceID,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}
	if payload != nil {
		if raw, err := json.Marshal(payload); err == nil {
			entry.NewValues = raw
		}
	}
	if err := w.CreateAuditLog(ctx, entry); err != nil {
		logger.Warn("failed to record audit log", zap.String("action", action), zap.String("resource_id", resourceID), zap.Error(err))
	}
}
