// mock-api serves a small JSON API in two versions. Version 2 drifts from
// version 1 on purpose (renamed field, int turned string, extra field) so a
// capture of each makes a useful comparison fixture.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type OrderRequest struct {
	UserID uint64   `json:"user_id"`
	Items  []uint64 `json:"items"`
}

func main() {
	port := flag.Int("port", 8080, "Port to run the mock API on")
	version := flag.Int("version", 1, "API version to serve (1 or 2)")
	flag.Parse()

	if *version != 1 && *version != 2 {
		log.Fatalf("unsupported version %d", *version)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/users/", userHandler(*version))
	mux.HandleFunc("/orders", orderHandler(*version))
	mux.HandleFunc("/health", healthHandler(*version))

	addr := fmt.Sprintf("127.0.0.1:%d", *port)
	fmt.Printf("Mock API v%d running on http://%s/\n", *version, addr)

	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatal(err)
	}
}

func userHandler(version int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		raw := strings.TrimPrefix(r.URL.Path, "/users/")
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			http.Error(w, "Invalid user ID", http.StatusBadRequest)
			return
		}

		body := map[string]any{
			"id":         id,
			"name":       "Sample User",
			"email":      fmt.Sprintf("user%d@example.com", id),
			"request_id": uuid.New().String(),
		}

		if version == 1 {
			body["last_login"] = time.Now().UTC().Format(time.RFC3339)
		} else {
			// v2 renamed last_login and grew a plan field.
			body["last_seen_at"] = time.Now().UTC().Format(time.RFC3339)
			body["plan"] = "free"
		}

		writeJSON(w, body)
	}
}

func orderHandler(version int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req OrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		total := float64(len(req.Items)) * 9.99

		body := map[string]any{
			"order_id":   uuid.New().String(),
			"success":    true,
			"created_at": time.Now().UTC().Format(time.RFC3339),
			"request_id": uuid.New().String(),
		}

		if version == 1 {
			body["total"] = total
		} else {
			// v2 serializes the total as a string, a classic type drift.
			body["total"] = fmt.Sprintf("%.2f", total)
		}

		writeJSON(w, body)
	}
}

func healthHandler(version int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"status":     "ok",
			"version":    version,
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
			"request_id": uuid.New().String(),
		})
	}
}

func writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}
