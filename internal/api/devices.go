package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/inletworks/inlet-core/internal/audit"
	"github.com/inletworks/inlet-core/internal/device"
	"github.com/inletworks/inlet-core/internal/observability/metrics"
	"github.com/inletworks/inlet-core/internal/owner"
)

// handleListDevices returns all devices belonging to the requesting owner.
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := owner.FromContext(r.Context())

	devices := s.devices.ListByOwner(r.Context(), ownerID)
	writeJSON(w, http.StatusOK, map[string]any{"devices": devices, "count": len(devices)})
}

// handleGetDevice returns a single device by ID.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	dev, err := s.devices.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dev)
}

// createDeviceRequest carries the operator-supplied fields for registration.
// The owner comes from the request identity and the device key is issued
// server-side, so neither is accepted from the body.
type createDeviceRequest struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
}

// handleCreateDevice registers a new device under the requesting owner.
// The operator chooses the id; it must be globally unique across all owners.
func (s *Server) handleCreateDevice(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := owner.FromContext(r.Context())

	var req createDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	dev := device.Device{
		ID:        req.ID,
		OwnerID:   ownerID,
		Name:      req.Name,
		Location:  req.Location,
		DeviceKey: uuid.NewString(),
	}

	if err := s.devices.Create(r.Context(), &dev); err != nil {
		writeDomainError(w, err)
		return
	}

	s.recordAudit(r, audit.ActionCreate, "device", dev.ID, nil)
	writeJSON(w, http.StatusCreated, dev)
}

// handleUpdateDevice partially updates a device's mutable fields.
func (s *Server) handleUpdateDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var upd device.Update
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	dev, err := s.devices.Update(r.Context(), id, upd)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.recordAudit(r, audit.ActionUpdate, "device", id, nil)
	writeJSON(w, http.StatusOK, dev)
}

// handleDeleteDevice removes a device, scrubbing any pipeline membership first.
func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.coord.DeleteDevice(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}

	s.recordAudit(r, audit.ActionDelete, "device", id, nil)
	w.WriteHeader(http.StatusNoContent)
}

// handleGetDevicePipeline reports which pipeline currently holds a device.
func (s *Server) handleGetDevicePipeline(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, err := s.devices.Get(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}

	holder := s.pipelines.PipelineWithDevice(r.Context(), id)
	if holder == nil {
		writeJSON(w, http.StatusOK, map[string]any{"device_id": id, "attached": false})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"device_id":   id,
		"attached":    true,
		"pipeline_id": holder.ID,
	})
}

// moveDeviceRequest names the source and destination of an atomic move.
type moveDeviceRequest struct {
	FromPipelineID string `json:"from_pipeline_id"`
	ToPipelineID   string `json:"to_pipeline_id"`
}

// handleMoveDevice atomically reassigns a device between two pipelines.
func (s *Server) handleMoveDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req moveDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.FromPipelineID == "" || req.ToPipelineID == "" {
		writeBadRequest(w, "from_pipeline_id and to_pipeline_id are required")
		return
	}

	start := time.Now()
	err := s.coord.MoveDevice(r.Context(), id, req.FromPipelineID, req.ToPipelineID)
	if err != nil {
		metrics.ObserveAssignmentOp("move_device", metrics.ResultError, time.Since(start))
		writeDomainError(w, err)
		return
	}
	metrics.ObserveAssignmentOp("move_device", metrics.ResultSuccess, time.Since(start))

	s.recordAudit(r, audit.ActionMove, "device", id, map[string]any{
		"from_pipeline_id": req.FromPipelineID,
		"to_pipeline_id":   req.ToPipelineID,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"device_id": id,
		"from":      req.FromPipelineID,
		"to":        req.ToPipelineID,
	})
}
