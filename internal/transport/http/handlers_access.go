package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"subgate/internal/platform/middleware"
	"subgate/pkg/httputil"
)

type accessResponse struct {
	Service   string `json:"service"`
	Endpoint  string `json:"endpoint,omitempty"`
	CallsMade int    `json:"calls_made"`
	CallLimit int    `json:"call_limit"`
}

// handleServiceAccess is the quota-enforced gateway endpoint: one successful
// response consumes exactly one call from the caller's allowance.
func (h *Handler) handleServiceAccess(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	serviceName := chi.URLParam(r, "service_name")

	res, err := h.access.Access(r.Context(), user.ID, user.PlanName, serviceName)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, accessResponse{
		Service:   res.Service.Name,
		Endpoint:  res.Service.Endpoint,
		CallsMade: res.CallsMade,
		CallLimit: res.CallLimit,
	})
}
