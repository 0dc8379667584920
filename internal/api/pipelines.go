package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/inletworks/inlet-core/internal/audit"
	"github.com/inletworks/inlet-core/internal/observability/metrics"
	"github.com/inletworks/inlet-core/internal/owner"
	"github.com/inletworks/inlet-core/internal/pipeline"
)

// handleListPipelines returns all pipelines belonging to the requesting owner.
func (s *Server) handleListPipelines(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := owner.FromContext(r.Context())

	pipelines := s.pipelines.ListByOwner(r.Context(), ownerID)
	writeJSON(w, http.StatusOK, map[string]any{"pipelines": pipelines, "count": len(pipelines)})
}

// handleGetPipeline returns a single pipeline by ID, memberships included.
func (s *Server) handleGetPipeline(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, err := s.pipelines.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, p)
}

// createPipelineRequest carries the operator-supplied pipeline fields.
// The id is server-assigned, the owner comes from the request identity,
// and memberships start empty.
type createPipelineRequest struct {
	Name          string                 `json:"name"`
	Description   string                 `json:"description"`
	Status        pipeline.Status        `json:"status"`
	ExecutionMode pipeline.ExecutionMode `json:"execution_mode"`
}

// handleCreatePipeline creates a new pipeline under the requesting owner.
func (s *Server) handleCreatePipeline(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := owner.FromContext(r.Context())

	var req createPipelineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	p := pipeline.Pipeline{
		OwnerID:       ownerID,
		Name:          req.Name,
		Description:   req.Description,
		Status:        req.Status,
		ExecutionMode: req.ExecutionMode,
	}

	if err := s.pipelines.Create(r.Context(), &p); err != nil {
		writeDomainError(w, err)
		return
	}

	s.recordAudit(r, audit.ActionCreate, "pipeline", p.ID, nil)
	writeJSON(w, http.StatusCreated, p)
}

// handleUpdatePipeline partially updates a pipeline's mutable fields.
// Memberships are not updatable here; they change through the attach
// and detach routes.
func (s *Server) handleUpdatePipeline(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var upd pipeline.Update
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	p, err := s.pipelines.Update(r.Context(), id, upd)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.recordAudit(r, audit.ActionUpdate, "pipeline", id, nil)
	writeJSON(w, http.StatusOK, p)
}

// handleDeletePipeline removes a pipeline. The delete is refused with a
// 409 while devices are attached; endpoint memberships are dropped
// silently since endpoints are shared.
func (s *Server) handleDeletePipeline(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.coord.DeletePipeline(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}

	s.recordAudit(r, audit.ActionDelete, "pipeline", id, nil)
	w.WriteHeader(http.StatusNoContent)
}

// handleListPipelineDevices returns one page of a pipeline's attached
// devices in attach order.
//
// Query parameters:
//   - page: 1-based page number (default 1, clamped into range)
//   - page_size: items per page (default 20, max 100)
func (s *Server) handleListPipelineDevices(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	page := queryInt(r, "page")
	pageSize := queryInt(r, "page_size")

	result, err := s.coord.ListPipelineDevices(r.Context(), id, page, pageSize)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleAttachDevice attaches a device to a pipeline. A device held by
// another pipeline is rejected with 409 naming the holder.
func (s *Server) handleAttachDevice(w http.ResponseWriter, r *http.Request) {
	pipelineID := chi.URLParam(r, "id")
	deviceID := chi.URLParam(r, "deviceID")

	start := time.Now()
	if err := s.coord.AttachDevice(r.Context(), pipelineID, deviceID); err != nil {
		metrics.ObserveAssignmentOp("attach_device", metrics.ResultError, time.Since(start))
		writeDomainError(w, err)
		return
	}
	metrics.ObserveAssignmentOp("attach_device", metrics.ResultSuccess, time.Since(start))

	s.recordAudit(r, audit.ActionAttach, "device", deviceID, map[string]any{"pipeline_id": pipelineID})
	writeJSON(w, http.StatusOK, map[string]any{
		"pipeline_id": pipelineID,
		"device_id":   deviceID,
		"attached":    true,
	})
}

// handleDetachDevice detaches a device from a pipeline. Idempotent:
// detaching a device the pipeline does not hold is a 204 no-op.
func (s *Server) handleDetachDevice(w http.ResponseWriter, r *http.Request) {
	pipelineID := chi.URLParam(r, "id")
	deviceID := chi.URLParam(r, "deviceID")

	start := time.Now()
	if err := s.coord.DetachDevice(r.Context(), pipelineID, deviceID); err != nil {
		metrics.ObserveAssignmentOp("detach_device", metrics.ResultError, time.Since(start))
		writeDomainError(w, err)
		return
	}
	metrics.ObserveAssignmentOp("detach_device", metrics.ResultSuccess, time.Since(start))

	s.recordAudit(r, audit.ActionDetach, "device", deviceID, map[string]any{"pipeline_id": pipelineID})
	w.WriteHeader(http.StatusNoContent)
}

// handleAttachEndpoint attaches an endpoint to a pipeline, subject to
// the per-pipeline endpoint cap. Re-attaching a member is a no-op.
func (s *Server) handleAttachEndpoint(w http.ResponseWriter, r *http.Request) {
	pipelineID := chi.URLParam(r, "id")
	endpointID := chi.URLParam(r, "endpointID")

	start := time.Now()
	if err := s.coord.AttachEndpoint(r.Context(), pipelineID, endpointID); err != nil {
		metrics.ObserveAssignmentOp("attach_endpoint", metrics.ResultError, time.Since(start))
		writeDomainError(w, err)
		return
	}
	metrics.ObserveAssignmentOp("attach_endpoint", metrics.ResultSuccess, time.Since(start))

	s.recordAudit(r, audit.ActionAttach, "endpoint", endpointID, map[string]any{"pipeline_id": pipelineID})
	writeJSON(w, http.StatusOK, map[string]any{
		"pipeline_id": pipelineID,
		"endpoint_id": endpointID,
		"attached":    true,
	})
}

// handleDetachEndpoint detaches an endpoint from a pipeline. Detaching
// a non-member is a no-op.
func (s *Server) handleDetachEndpoint(w http.ResponseWriter, r *http.Request) {
	pipelineID := chi.URLParam(r, "id")
	endpointID := chi.URLParam(r, "endpointID")

	start := time.Now()
	if err := s.coord.DetachEndpoint(r.Context(), pipelineID, endpointID); err != nil {
		metrics.ObserveAssignmentOp("detach_endpoint", metrics.ResultError, time.Since(start))
		writeDomainError(w, err)
		return
	}
	metrics.ObserveAssignmentOp("detach_endpoint", metrics.ResultSuccess, time.Since(start))

	s.recordAudit(r, audit.ActionDetach, "endpoint", endpointID, map[string]any{"pipeline_id": pipelineID})
	w.WriteHeader(http.StatusNoContent)
}

// queryInt parses an integer query parameter, returning 0 when absent
// or malformed so the paging defaults apply.
func queryInt(r *http.Request, name string) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
