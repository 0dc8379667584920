package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/inletworks/inlet-core/internal/audit"
	"github.com/inletworks/inlet-core/internal/endpoint"
	"github.com/inletworks/inlet-core/internal/owner"
)

// handleListEndpoints returns all endpoints belonging to the requesting owner.
func (s *Server) handleListEndpoints(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := owner.FromContext(r.Context())

	endpoints := s.endpoints.ListByOwner(r.Context(), ownerID)
	writeJSON(w, http.StatusOK, map[string]any{"endpoints": endpoints, "count": len(endpoints)})
}

// handleGetEndpoint returns a single endpoint by ID.
func (s *Server) handleGetEndpoint(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ep, err := s.endpoints.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ep)
}

// createEndpointRequest carries the operator-supplied endpoint fields.
// The id is server-assigned and the owner comes from the request identity.
type createEndpointRequest struct {
	Name             string `json:"name"`
	DataPushEndpoint string `json:"data_push_endpoint"`
	AuthEndpoint     string `json:"auth_endpoint"`
	Username         string `json:"username"`
	Password         string `json:"password"`
}

// handleCreateEndpoint creates a new endpoint under the requesting owner.
func (s *Server) handleCreateEndpoint(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := owner.FromContext(r.Context())

	var req createEndpointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	ep := endpoint.Endpoint{
		OwnerID:          ownerID,
		Name:             req.Name,
		DataPushEndpoint: req.DataPushEndpoint,
		AuthEndpoint:     req.AuthEndpoint,
		Username:         req.Username,
		Password:         req.Password,
	}

	if err := s.endpoints.Create(r.Context(), &ep); err != nil {
		writeDomainError(w, err)
		return
	}

	s.recordAudit(r, audit.ActionCreate, "endpoint", ep.ID, nil)
	writeJSON(w, http.StatusCreated, ep)
}

// handleUpdateEndpoint partially updates an endpoint's mutable fields.
func (s *Server) handleUpdateEndpoint(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var upd endpoint.Update
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	ep, err := s.endpoints.Update(r.Context(), id, upd)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	s.recordAudit(r, audit.ActionUpdate, "endpoint", id, nil)
	writeJSON(w, http.StatusOK, ep)
}

// handleDeleteEndpoint removes an endpoint, detaching it from every
// pipeline that references it first.
func (s *Server) handleDeleteEndpoint(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.coord.DeleteEndpoint(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}

	s.recordAudit(r, audit.ActionDelete, "endpoint", id, nil)
	w.WriteHeader(http.StatusNoContent)
}
