package api

import (
	"net/http"

	"github.com/inletworks/inlet-core/internal/audit"
	"github.com/inletworks/inlet-core/internal/owner"
)

// recordAudit writes one audit trail entry for a completed mutation.
// Failures are logged but never fail the request: the mutation has
// already been committed by the time the trail is written.
func (s *Server) recordAudit(r *http.Request, action, entityType, entityID string, details map[string]any) {
	if s.audit == nil {
		return
	}

	ownerID, _ := owner.FromContext(r.Context())
	entry := &audit.AuditLog{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		OwnerID:    ownerID,
		Source:     "api",
		Details:    details,
	}

	if err := s.audit.Create(r.Context(), entry); err != nil {
		s.logger.Warn("failed to record audit entry",
			"action", action,
			"entity_type", entityType,
			"entity_id", entityID,
			"error", err,
		)
	}
}

// handleListAuditLogs returns the topology change history, most recent
// first. Supports filtering by action, entity type and entity id.
//
// Query parameters:
//   - action: create, update, delete, attach, detach, move
//   - entity_type: device, endpoint, pipeline
//   - entity_id: specific entity
//   - limit: max results (default 50, max 200)
//   - offset: pagination offset
func (s *Server) handleListAuditLogs(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		writeError(w, http.StatusNotImplemented, ErrCodeBadRequest, "audit trail is not enabled")
		return
	}

	filter := audit.Filter{
		Action:     r.URL.Query().Get("action"),
		EntityType: r.URL.Query().Get("entity_type"),
		EntityID:   r.URL.Query().Get("entity_id"),
		Limit:      queryInt(r, "limit"),
		Offset:     queryInt(r, "offset"),
	}

	result, err := s.audit.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("failed to list audit logs", "error", err)
		writeInternalError(w, "failed to list audit logs")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
