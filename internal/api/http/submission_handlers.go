package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	appIntake "github.com/closet-hub/closet-hub/internal/application/intake"
	domainApproval "github.com/closet-hub/closet-hub/internal/domain/approval"
	"github.com/closet-hub/closet-hub/internal/infrastructure/stepflow"
)

type submissionCreateRequest struct {
	ID         string          `json:"id,omitempty"`
	OwnerRef   string          `json:"ownerRef"`
	PayloadRef string          `json:"payloadRef"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
}

type decisionRequest struct {
	Decision string `json:"decision"`
	Reason   string `json:"reason,omitempty"`
}

func (s *Server) createSubmission(w http.ResponseWriter, r *http.Request) {
	var req submissionCreateRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	res, err := s.intakeSvc.Submit(r.Context(), appIntake.SubmitInput{
		ID:         req.ID,
		OwnerRef:   req.OwnerRef,
		PayloadRef: req.PayloadRef,
		Metadata:   req.Metadata,
	})
	if err != nil {
		switch {
		case errors.Is(err, domainApproval.ErrAlreadyExists):
			respondError(w, http.StatusConflict, "ALREADY_EXISTS", "submission already exists")
		case errors.Is(err, stepflow.ErrPrescreenRejected):
			respondError(w, http.StatusUnprocessableEntity, "PRESCREEN_REJECTED", err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		}
		return
	}
	respondJSON(w, http.StatusCreated, res)
}

func (s *Server) listSubmissions(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseLimitOffset(r, 100, 200)
	filter := domainApproval.Filter{}
	if v := r.URL.Query().Get("status"); v != "" {
		st := domainApproval.Status(strings.ToUpper(v))
		filter.Status = &st
	}
	if v := r.URL.Query().Get("owner_ref"); v != "" {
		filter.OwnerRef = &v
	}
	items, err := s.decisionSvc.List(r.Context(), filter, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"submissions": items})
}

func (s *Server) getSubmission(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "recordId")
	item, err := s.decisionSvc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domainApproval.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "submission not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, item)
}

func (s *Server) getSubmissionAudit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "recordId")
	entries, err := s.auditSvc.History(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}

func (s *Server) decideSubmission(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "recordId")
	var req decisionRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	dec, err := domainApproval.ParseDecision(req.Decision)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "decision must be APPROVE or REJECT")
		return
	}
	auth := authUserFromContext(r.Context())
	if auth == nil {
		respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing auth")
		return
	}

	res, err := s.decisionSvc.Resolve(r.Context(), id, dec, req.Reason, auth.ActorString())
	if err != nil {
		resolveError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func resolveError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domainApproval.ErrNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", "submission not found")
	case errors.Is(err, domainApproval.ErrMissingContinuation):
		respondError(w, http.StatusConflict, "NO_CONTINUATION", "submission has no registered review")
	case errors.Is(err, domainApproval.ErrInvalidDecision):
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
	}
}
