package middleware

import (
	"encoding/json"
	"net/http"
)

// writeJSONError writes the API's failure envelope.
func writeJSONError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": msg, "code": code})
}
