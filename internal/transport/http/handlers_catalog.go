package httptransport

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	catalogservice "subgate/internal/catalog/service"
	dErrors "subgate/pkg/domain-errors"
	"subgate/pkg/httputil"
)

type serviceRequest struct {
	Name        string `json:"name"`
	Endpoint    string `json:"endpoint,omitempty"`
	Description string `json:"description,omitempty"`
}

type serviceResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Endpoint    string `json:"endpoint,omitempty"`
	Description string `json:"description,omitempty"`
}

func (h *Handler) handleAddService(w http.ResponseWriter, r *http.Request) {
	var req serviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	svc, err := h.catalog.CreateService(r.Context(), catalogservice.ServiceInput{
		Name:        req.Name,
		Endpoint:    req.Endpoint,
		Description: req.Description,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, serviceResponse{
		ID:          svc.ID.String(),
		Name:        svc.Name,
		Endpoint:    svc.Endpoint,
		Description: svc.Description,
	})
}

func (h *Handler) handleUpdateService(w http.ResponseWriter, r *http.Request) {
	oldName := chi.URLParam(r, "old_name")

	var req serviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	svc, err := h.catalog.UpdateService(r.Context(), oldName, catalogservice.ServiceInput{
		Name:        req.Name,
		Endpoint:    req.Endpoint,
		Description: req.Description,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, serviceResponse{
		ID:          svc.ID.String(),
		Name:        svc.Name,
		Endpoint:    svc.Endpoint,
		Description: svc.Description,
	})
}

func (h *Handler) handleDeleteService(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.catalog.DeleteService(r.Context(), name); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"deleted": name})
}

type planRequest struct {
	Name        string   `json:"name"`
	Limit       int      `json:"limit"`
	Description string   `json:"description,omitempty"`
	Services    []string `json:"services,omitempty"`
}

type planResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Limit       int    `json:"limit"`
	Description string `json:"description,omitempty"`
}

func (h *Handler) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	plan, err := h.catalog.CreatePlan(r.Context(), catalogservice.PlanInput{
		Name:        req.Name,
		Limit:       req.Limit,
		Description: req.Description,
		Services:    req.Services,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, planResponse{
		ID:          plan.ID.String(),
		Name:        plan.Name,
		Limit:       plan.CallLimit,
		Description: plan.Description,
	})
}

func (h *Handler) handleUpdatePlan(w http.ResponseWriter, r *http.Request) {
	oldName := chi.URLParam(r, "old_name")

	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	plan, err := h.catalog.UpdatePlan(r.Context(), oldName, catalogservice.PlanInput{
		Name:        req.Name,
		Limit:       req.Limit,
		Description: req.Description,
		Services:    req.Services,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, planResponse{
		ID:          plan.ID.String(),
		Name:        plan.Name,
		Limit:       plan.CallLimit,
		Description: plan.Description,
	})
}

func (h *Handler) handleDeletePlan(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.catalog.DeletePlan(r.Context(), name); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"deleted": name})
}

type associateServiceRequest struct {
	Plans []string `json:"plans"`
}

func (h *Handler) handleAssociateService(w http.ResponseWriter, r *http.Request) {
	serviceName := chi.URLParam(r, "name")

	var req associateServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if len(req.Plans) == 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "at least one plan is required"))
		return
	}

	if err := h.catalog.AssociateService(r.Context(), serviceName, req.Plans); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"service": serviceName,
		"plans":   req.Plans,
	})
}
