package handler

import (
	"encoding/json"
	"net/http"
)

// HealthCheck reports liveness. It deliberately does not touch the database
// or Redis; dependency outages have their own failure signals.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "API is healthy and running"})
}
