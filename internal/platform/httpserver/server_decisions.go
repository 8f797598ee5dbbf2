package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	decisionerrors "propdesk/contexts/community-governance/decision-service/domain/errors"
	"propdesk/contexts/community-governance/decision-service/domain/valueobjects"
	decisionhttp "propdesk/contexts/community-governance/decision-service/transport/http"
	"propdesk/internal/platform/identity"

	"github.com/go-chi/chi/v5"
)

const maxDecisionBodyBytes = 1 << 20

func writeDecisionError(w http.ResponseWriter, status int, code string, message string, fields map[string]string) {
	writeJSON(w, status, decisionhttp.ErrorResponse{
		Code:    code,
		Message: message,
		Fields:  fields,
	})
}

func writeDecisionDomainError(w http.ResponseWriter, err error) {
	var validation *decisionerrors.ValidationError
	switch {
	case errors.Is(err, decisionerrors.ErrDecisionTerminal):
		writeDecisionError(w, http.StatusConflict, "decision_terminal", err.Error(), nil)
	case errors.Is(err, decisionerrors.ErrVotingClosed):
		writeDecisionError(w, http.StatusConflict, "voting_closed", err.Error(), nil)
	case errors.As(err, &validation):
		writeDecisionError(w, http.StatusBadRequest, "validation_failed", err.Error(), validation.Fields)
	case errors.Is(err, decisionerrors.ErrValidation):
		writeDecisionError(w, http.StatusBadRequest, "validation_failed", err.Error(), nil)
	case errors.Is(err, decisionerrors.ErrDecisionNotFound):
		writeDecisionError(w, http.StatusNotFound, "decision_not_found", err.Error(), nil)
	case errors.Is(err, decisionerrors.ErrBuildingNotFound):
		writeDecisionError(w, http.StatusNotFound, "building_not_found", err.Error(), nil)
	case errors.Is(err, decisionerrors.ErrNotFound):
		writeDecisionError(w, http.StatusNotFound, "not_found", err.Error(), nil)
	case errors.Is(err, decisionerrors.ErrIdempotencyConflict):
		writeDecisionError(w, http.StatusConflict, "idempotency_conflict", err.Error(), nil)
	case errors.Is(err, decisionerrors.ErrConflict):
		writeDecisionError(w, http.StatusConflict, "conflict", err.Error(), nil)
	default:
		writeDecisionError(w, http.StatusInternalServerError, "internal_error", "internal server error", nil)
	}
}

func decodeDecisionBody(w http.ResponseWriter, r *http.Request, target any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxDecisionBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		writeDecisionError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON", nil)
		return false
	}
	return true
}

func tenantFromRequest(r *http.Request) valueobjects.TenantContext {
	principal, _ := identity.FromContext(r.Context())
	return valueobjects.TenantContext{
		CompanyID: principal.CompanyID,
		UserID:    principal.UserID,
	}
}

func chiURLParam(r *http.Request, name string) string {
	return strings.TrimSpace(chi.URLParam(r, name))
}

// handleCreateDecision opens a new decision.
//
//	@Summary	Create a decision
//	@Tags		decisions
//	@Accept		json
//	@Produce	json
//	@Param		Idempotency-Key	header		string								false	"Replay key"
//	@Param		request			body		decisionhttp.CreateDecisionRequest	true	"Decision"
//	@Success	201				{object}	decisionhttp.DecisionResponse
//	@Failure	400				{object}	decisionhttp.ErrorResponse
//	@Failure	404				{object}	decisionhttp.ErrorResponse
//	@Failure	409				{object}	decisionhttp.ErrorResponse
//	@Security	BearerAuth
//	@Router		/api/v1/decisions [post]
func (s *Server) handleCreateDecision(w http.ResponseWriter, r *http.Request) {
	var req decisionhttp.CreateDecisionRequest
	if !decodeDecisionBody(w, r, &req) {
		return
	}
	resp, err := s.decisions.Handler.CreateDecisionHandler(
		r.Context(),
		tenantFromRequest(r),
		strings.TrimSpace(r.Header.Get("Idempotency-Key")),
		req,
	)
	if err != nil {
		writeDecisionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// handleListDecisions lists decisions of the caller's company, newest first.
//
//	@Summary	List decisions
//	@Tags		decisions
//	@Produce	json
//	@Param		buildingId	query		string	false	"Building filter"
//	@Param		status		query		string	false	"open, closed or cancelled"
//	@Param		limit		query		int		false	"Page size, max 200"
//	@Success	200			{object}	decisionhttp.ListDecisionsResponse
//	@Failure	400			{object}	decisionhttp.ErrorResponse
//	@Security	BearerAuth
//	@Router		/api/v1/decisions [get]
func (s *Server) handleListDecisions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit := 0
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeDecisionError(w, http.StatusBadRequest, "validation_failed", "limit must be a non-negative integer",
				map[string]string{"limit": "must be a non-negative integer"})
			return
		}
		limit = parsed
	}

	resp, err := s.decisions.Handler.ListDecisionsHandler(
		r.Context(),
		tenantFromRequest(r),
		strings.TrimSpace(query.Get("buildingId")),
		query.Get("status"),
		limit,
	)
	if err != nil {
		writeDecisionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleGetDecision returns one decision with its live tally.
//
//	@Summary	Get a decision
//	@Tags		decisions
//	@Produce	json
//	@Param		decision_id	path		string	true	"Decision id"
//	@Success	200			{object}	decisionhttp.DecisionResponse
//	@Failure	404			{object}	decisionhttp.ErrorResponse
//	@Security	BearerAuth
//	@Router		/api/v1/decisions/{decision_id} [get]
func (s *Server) handleGetDecision(w http.ResponseWriter, r *http.Request) {
	resp, err := s.decisions.Handler.GetDecisionHandler(r.Context(), tenantFromRequest(r), chiURLParam(r, "decision_id"))
	if err != nil {
		writeDecisionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleUpdateDecision applies a partial update or a status transition.
//
//	@Summary	Update a decision
//	@Tags		decisions
//	@Accept		json
//	@Produce	json
//	@Param		decision_id	path		string								true	"Decision id"
//	@Param		request		body		decisionhttp.UpdateDecisionRequest	true	"Patch"
//	@Success	200			{object}	decisionhttp.DecisionResponse
//	@Failure	400			{object}	decisionhttp.ErrorResponse
//	@Failure	404			{object}	decisionhttp.ErrorResponse
//	@Failure	409			{object}	decisionhttp.ErrorResponse
//	@Security	BearerAuth
//	@Router		/api/v1/decisions/{decision_id} [patch]
func (s *Server) handleUpdateDecision(w http.ResponseWriter, r *http.Request) {
	var req decisionhttp.UpdateDecisionRequest
	if !decodeDecisionBody(w, r, &req) {
		return
	}
	resp, err := s.decisions.Handler.UpdateDecisionHandler(r.Context(), tenantFromRequest(r), chiURLParam(r, "decision_id"), req)
	if err != nil {
		writeDecisionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleCancelDecision soft-deletes a decision.
//
//	@Summary	Cancel a decision
//	@Tags		decisions
//	@Produce	json
//	@Param		decision_id	path		string	true	"Decision id"
//	@Success	200			{object}	decisionhttp.MessageResponse
//	@Failure	404			{object}	decisionhttp.ErrorResponse
//	@Failure	409			{object}	decisionhttp.ErrorResponse
//	@Security	BearerAuth
//	@Router		/api/v1/decisions/{decision_id} [delete]
func (s *Server) handleCancelDecision(w http.ResponseWriter, r *http.Request) {
	resp, err := s.decisions.Handler.CancelDecisionHandler(r.Context(), tenantFromRequest(r), chiURLParam(r, "decision_id"))
	if err != nil {
		writeDecisionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleCastBallot records or replaces the caller's ballot.
//
//	@Summary	Cast a ballot
//	@Tags		ballots
//	@Accept		json
//	@Produce	json
//	@Param		decision_id	path		string							true	"Decision id"
//	@Param		request		body		decisionhttp.CastBallotRequest	true	"Ballot"
//	@Success	201			{object}	decisionhttp.BallotReceiptResponse
//	@Failure	400			{object}	decisionhttp.ErrorResponse
//	@Failure	404			{object}	decisionhttp.ErrorResponse
//	@Failure	409			{object}	decisionhttp.ErrorResponse
//	@Security	BearerAuth
//	@Router		/api/v1/decisions/{decision_id}/ballots [post]
func (s *Server) handleCastBallot(w http.ResponseWriter, r *http.Request) {
	var req decisionhttp.CastBallotRequest
	if !decodeDecisionBody(w, r, &req) {
		return
	}
	resp, err := s.decisions.Handler.CastBallotHandler(r.Context(), tenantFromRequest(r), chiURLParam(r, "decision_id"), req)
	if err != nil {
		writeDecisionDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}
