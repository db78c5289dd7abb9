package httptransport

import (
	"encoding/json"
	"net/http"

	"subgate/internal/platform/middleware"
	dErrors "subgate/pkg/domain-errors"
	"subgate/pkg/httputil"
)

type subscribeRequest struct {
	Plan string `json:"plan"`
}

type planChangeResponse struct {
	Username string `json:"username"`
	Plan     string `json:"plan"`
}

func (h *Handler) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	updated, err := h.subscription.Subscribe(r.Context(), user.ID, req.Plan)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, planChangeResponse{
		Username: updated.Username,
		Plan:     updated.PlanName,
	})
}

type adminChangePlanRequest struct {
	Username string `json:"username"`
	Plan     string `json:"plan"`
}

func (h *Handler) handleAdminChangePlan(w http.ResponseWriter, r *http.Request) {
	var req adminChangePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.Username == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "username is required"))
		return
	}

	updated, err := h.subscription.AdminChangePlan(r.Context(), req.Username, req.Plan)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, planChangeResponse{
		Username: updated.Username,
		Plan:     updated.PlanName,
	})
}

type planServiceView struct {
	Name        string `json:"name"`
	Endpoint    string `json:"endpoint,omitempty"`
	Description string `json:"description,omitempty"`
}

type seePlanResponse struct {
	Plan      string            `json:"plan"`
	CallLimit int               `json:"call_limit"`
	Services  []planServiceView `json:"services"`
}

func (h *Handler) handleSeePlan(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	plan, services, err := h.catalog.PlanWithServices(r.Context(), user.PlanName)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	views := make([]planServiceView, 0, len(services))
	for _, svc := range services {
		views = append(views, planServiceView{
			Name:        svc.Name,
			Endpoint:    svc.Endpoint,
			Description: svc.Description,
		})
	}

	httputil.WriteJSON(w, http.StatusOK, seePlanResponse{
		Plan:      plan.Name,
		CallLimit: plan.CallLimit,
		Services:  views,
	})
}

type usageStatisticsResponse struct {
	Plan       string         `json:"plan"`
	CallLimit  int            `json:"call_limit"`
	Usage      map[string]int `json:"usage"`
	TotalCalls int            `json:"total_calls"`
}

// handleUsageStatistics reports per-service consumption for every service in
// the caller's plan, zero for services never called.
func (h *Handler) handleUsageStatistics(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	plan, services, err := h.catalog.PlanWithServices(r.Context(), user.PlanName)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	counts, err := h.usage.CountsForUser(r.Context(), user.ID)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "could not load usage counters"))
		return
	}

	usage := make(map[string]int, len(services))
	total := 0
	for _, svc := range services {
		calls := counts[svc.ID]
		usage[svc.Name] = calls
		total += calls
	}

	httputil.WriteJSON(w, http.StatusOK, usageStatisticsResponse{
		Plan:       plan.Name,
		CallLimit:  plan.CallLimit,
		Usage:      usage,
		TotalCalls: total,
	})
}
