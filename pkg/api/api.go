// Package api exposes a read-only status API over the invocation
// ledger, so a long evaluation run can be watched from another
// terminal. It is off by default and enabled with --serve.
package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/Tommyxjs/snowcap-CDCL/pkg/report"
	"github.com/Tommyxjs/snowcap-CDCL/pkg/results"
)

type Handler struct {
	Ledger *results.Ledger
}

func NewHandler(ledger *results.Ledger) *Handler {
	return &Handler{Ledger: ledger}
}

// GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// GET /report
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	runID, speedup, err := h.Ledger.LatestRun()
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	invocations, err := h.Ledger.Invocations(runID, 0)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	failures, err := h.Ledger.Failures(runID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	postErrors, err := h.Ledger.PostErrors(runID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"run_id":               runID,
		"speedup":              speedup,
		"invocations":          len(invocations),
		"failures":             failures,
		"postprocess_failures": postErrors,
	})
}

// GET /experiments/{id}/results
func (h *Handler) ExperimentResults(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid experiment id", http.StatusBadRequest)
		return
	}
	runID, _, err := h.Ledger.LatestRun()
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	invocations, err := h.Ledger.Invocations(runID, id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if invocations == nil {
		invocations = []report.Invocation{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(invocations)
}

// Router wires the read-only endpoints.
func Router(h *Handler) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", h.Health).Methods("GET")
	r.HandleFunc("/report", h.Report).Methods("GET")
	r.HandleFunc("/experiments/{id}/results", h.ExperimentResults).Methods("GET")
	return r
}

// Serve runs the status server until ctx is cancelled, then shuts it
// down gracefully.
func Serve(ctx context.Context, addr string, ledger *results.Ledger) {
	server := &http.Server{
		Addr:    addr,
		Handler: Router(NewHandler(ledger)),
	}

	go func() {
		log.Printf("status API listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("status API error: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()
}
