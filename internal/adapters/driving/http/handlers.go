package http

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/custodia-labs/poliscan-core/internal/core/domain"
	"github.com/custodia-labs/poliscan-core/internal/core/ports/driving"
)

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error string `json:"error" example:"invalid request body"`
}

// StatusResponse represents a simple status response
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// VersionResponse represents the API version response
// @Description API version response
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
}

// uploadPolicyRequest is the body of POST /policies
type uploadPolicyRequest struct {
	FileB64  string  `json:"file_b64"`
	Filename *string `json:"filename,omitempty"`
	TenantID *string `json:"tenant_id,omitempty"`
	Retain   bool    `json:"retain"`
}

// policyResponse pairs an analysis with a file reference. FileURL is
// non-nil iff the original document was retained at creation time.
type policyResponse struct {
	Analysis domain.PolicyAnalysis `json:"analysis"`
	FileURL  *string               `json:"file_url"`
}

// updatePolicyRequest is the body of PUT /policies/{id}. UpdatedFields is a
// pointer so a missing list can be rejected while an empty list is accepted.
type updatePolicyRequest struct {
	UpdatedFields *[]domain.PolicyField `json:"updated_fields"`
}

// updatePolicyResponse confirms a field update
type updatePolicyResponse struct {
	ID        string    `json:"id"`
	UpdatedAt time.Time `json:"updated_at"`
	Message   string    `json:"message"`
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns the health status of the API
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Returns the readiness status of the API (checks configured store backends)
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Failure      503  {object}  ErrorResponse  "A store backend is unreachable"
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "database unreachable")
			return
		}
	}
	if s.redisClient != nil {
		if err := s.redisClient.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "redis unreachable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// handleVersion godoc
// @Summary      Get API version
// @Description  Returns the current API version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

// Policy endpoints

// handleCreatePolicy godoc
// @Summary      Upload and analyze a policy document
// @Description  Decodes the document, runs field extraction and stores the resulting analysis. The document itself is kept only when retain is true.
// @Tags         Policies
// @Accept       json
// @Produce      json
// @Param        request  body      uploadPolicyRequest  true  "Base64-encoded document with optional filename and tenant"
// @Success      201      {object}  policyResponse
// @Failure      400      {object}  ErrorResponse  "Invalid request body or file_b64"
// @Failure      500      {object}  ErrorResponse  "Internal server error"
// @Router       /policies [post]
func (s *Server) handleCreatePolicy(w http.ResponseWriter, r *http.Request) {
	var req uploadPolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.FileB64 == "" {
		writeError(w, http.StatusBadRequest, "file_b64 is required")
		return
	}

	content, err := base64.StdEncoding.DecodeString(req.FileB64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "file_b64 is not valid base64")
		return
	}

	policy, err := s.policyService.Create(r.Context(), driving.CreatePolicyRequest{
		Content:  content,
		Filename: req.Filename,
		TenantID: req.TenantID,
		Retain:   req.Retain,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store policy analysis")
		return
	}

	writeJSON(w, http.StatusCreated, newPolicyResponse(policy))
}

// handleGetPolicy godoc
// @Summary      Get a policy analysis
// @Description  Retrieves a policy analysis by ID, with a file URL when the original document was retained
// @Tags         Policies
// @Produce      json
// @Param        id   path      string  true  "Policy analysis ID"
// @Success      200  {object}  policyResponse
// @Failure      404  {object}  ErrorResponse  "Unknown ID"
// @Failure      500  {object}  ErrorResponse  "Internal server error"
// @Router       /policies/{id} [get]
func (s *Server) handleGetPolicy(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	policy, err := s.policyService.Get(r.Context(), id)
	if err != nil {
		switch err {
		case domain.ErrNotFound:
			writeError(w, http.StatusNotFound, notFoundMessage(id))
		default:
			writeError(w, http.StatusInternalServerError, "failed to get policy analysis")
		}
		return
	}

	writeJSON(w, http.StatusOK, newPolicyResponse(policy))
}

// handleUpdatePolicy godoc
// @Summary      Update a policy analysis
// @Description  Replaces the extracted fields of an existing analysis wholesale. An empty list clears the fields.
// @Tags         Policies
// @Accept       json
// @Produce      json
// @Param        id       path      string               true  "Policy analysis ID"
// @Param        request  body      updatePolicyRequest  true  "Replacement field list"
// @Success      200      {object}  updatePolicyResponse
// @Failure      400      {object}  ErrorResponse  "Invalid request body"
// @Failure      404      {object}  ErrorResponse  "Unknown ID"
// @Failure      500      {object}  ErrorResponse  "Internal server error"
// @Router       /policies/{id} [put]
func (s *Server) handleUpdatePolicy(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req updatePolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UpdatedFields == nil {
		writeError(w, http.StatusBadRequest, "updated_fields is required")
		return
	}

	updatedAt, err := s.policyService.Update(r.Context(), id, *req.UpdatedFields)
	if err != nil {
		switch err {
		case domain.ErrNotFound:
			writeError(w, http.StatusNotFound, notFoundMessage(id))
		default:
			writeError(w, http.StatusInternalServerError, "failed to update policy analysis")
		}
		return
	}

	writeJSON(w, http.StatusOK, updatePolicyResponse{
		ID:        id,
		UpdatedAt: updatedAt,
		Message:   "Policy analysis updated successfully",
	})
}

// handleListPolicies godoc
// @Summary      List policy analyses
// @Description  Lists all policy analyses in store order, optionally filtered by tenant
// @Tags         Policies
// @Produce      json
// @Param        tenant_id  query     string  false  "Exact tenant filter"
// @Success      200        {array}   policyResponse
// @Failure      500        {object}  ErrorResponse  "Internal server error"
// @Router       /policies [get]
func (s *Server) handleListPolicies(w http.ResponseWriter, r *http.Request) {
	tenantID := r.URL.Query().Get("tenant_id")

	policies, err := s.policyService.List(r.Context(), tenantID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list policy analyses")
		return
	}

	result := make([]policyResponse, 0, len(policies))
	for _, policy := range policies {
		result = append(result, newPolicyResponse(policy))
	}
	writeJSON(w, http.StatusOK, result)
}

// handleDeletePolicy godoc
// @Summary      Delete a policy analysis
// @Description  Removes a policy analysis permanently. Deleting an already-deleted ID yields 404.
// @Tags         Policies
// @Param        id  path  string  true  "Policy analysis ID"
// @Success      204  "No content"
// @Failure      404  {object}  ErrorResponse  "Unknown ID"
// @Failure      500  {object}  ErrorResponse  "Internal server error"
// @Router       /policies/{id} [delete]
func (s *Server) handleDeletePolicy(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := s.policyService.Delete(r.Context(), id); err != nil {
		switch err {
		case domain.ErrNotFound:
			writeError(w, http.StatusNotFound, notFoundMessage(id))
		default:
			writeError(w, http.StatusInternalServerError, "failed to delete policy analysis")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleGetPolicyFile godoc
// @Summary      Download the retained document
// @Description  Serves the original document for analyses created with retain=true
// @Tags         Policies
// @Produce      octet-stream
// @Param        id  path  string  true  "Policy analysis ID"
// @Success      200  {file}    binary
// @Failure      404  {object}  ErrorResponse  "Unknown ID or no retained document"
// @Failure      500  {object}  ErrorResponse  "Internal server error"
// @Router       /policies/{id}/file [get]
func (s *Server) handleGetPolicyFile(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	content, filename, err := s.policyService.GetFile(r.Context(), id)
	if err != nil {
		switch err {
		case domain.ErrNotFound:
			writeError(w, http.StatusNotFound, notFoundMessage(id))
		default:
			writeError(w, http.StatusInternalServerError, "failed to get policy document")
		}
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	if filename != nil {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", *filename))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}

// Helper functions

// newPolicyResponse derives the file reference: present iff the document
// was retained at creation.
func newPolicyResponse(policy *domain.StoredPolicy) policyResponse {
	resp := policyResponse{Analysis: policy.Analysis}
	if policy.HasFile() {
		url := policyFileURL(policy.Analysis.ID)
		resp.FileURL = &url
	}
	return resp
}

func policyFileURL(id string) string {
	return "/api/v1/policies/" + id + "/file"
}

func notFoundMessage(id string) string {
	return fmt.Sprintf("policy analysis with id '%s' not found", id)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
