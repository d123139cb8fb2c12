package http

import (
	"net/http"

	"github.com/MKhiriev/go-habit-tracker/internal/utils"
)

type healthResponse struct {
	Status string `json:"status"`
}

// health answers connectivity probes of clients. It never touches storage.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	utils.WriteJSON(w, healthResponse{Status: "ok"}, http.StatusOK)
}
