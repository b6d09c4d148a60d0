package handlers

import "net/http"

// HealthCheck возвращает {"message": "OK"}
// GET /health-check/
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, MessageResponse{Message: "OK"})
}
