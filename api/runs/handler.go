// Package runs exposes the recorded planning runs over HTTP.
package runs

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ejosa-pasquale/HoreCa/core/metrics"
)

// HistoryStore is the read side of the run history.
type HistoryStore interface {
	Runs() ([]metrics.OptimizationEvent, error)
	Simulations(runID string) ([]metrics.SimulationEvent, error)
}

// NewHandler returns an HTTP handler serving
//
//	GET /api/runs                     every recorded search, oldest first
//	GET /api/runs/{id}                one search
//	GET /api/runs/{id}/simulations    its candidates, optionally ?outcome=ok
//
// Requests must include an Authorization header with "Bearer <token>" when
// token is non-empty. The since query parameter (RFC3339) filters /api/runs.
func NewHandler(store HistoryStore, token string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/runs", func(w http.ResponseWriter, r *http.Request) {
		runs, err := store.Runs()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if s := r.URL.Query().Get("since"); s != "" {
			since, err := time.Parse(time.RFC3339, s)
			if err != nil {
				http.Error(w, "invalid since", http.StatusBadRequest)
				return
			}
			kept := runs[:0]
			for _, ev := range runs {
				if !ev.Time.Before(since) {
					kept = append(kept, ev)
				}
			}
			runs = kept
		}
		writeJSON(w, nonNil(runs))
	})
	mux.HandleFunc("GET /api/runs/{id}", func(w http.ResponseWriter, r *http.Request) {
		runs, err := store.Runs()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		id := r.PathValue("id")
		for _, ev := range runs {
			if ev.RunID == id {
				writeJSON(w, ev)
				return
			}
		}
		http.Error(w, "run not found", http.StatusNotFound)
	})
	mux.HandleFunc("GET /api/runs/{id}/simulations", func(w http.ResponseWriter, r *http.Request) {
		sims, err := store.Simulations(r.PathValue("id"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if outcome := r.URL.Query().Get("outcome"); outcome != "" {
			kept := sims[:0]
			for _, ev := range sims {
				if ev.Outcome == outcome {
					kept = append(kept, ev)
				}
			}
			sims = kept
		}
		writeJSON(w, nonNil(sims))
	})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		mux.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// nonNil keeps empty lists encoded as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
