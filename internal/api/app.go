package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"siteledger/internal/dashboard"
	"siteledger/internal/ledger"
	"siteledger/internal/metrics"
	"siteledger/internal/remote"
)

const maxRequestBodySize = 1 << 20 // 1MB
const maxImportBodySize = 10 << 20 // 10MB

type Deps struct {
	Store *ledger.Store
	Sync  *remote.SyncSimulator // optional; if nil, the sync endpoint is disabled
}

// NewHandler returns the http.Handler for the local management API. All
// state lives in deps.Store; handlers only translate HTTP to store calls.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(metrics.Middleware)

	r.Get("/health", handleHealth)
	r.Get("/dashboard", handleDashboard(deps))
	r.Get("/activity", handleActivity(deps))
	r.Get("/role", handleGetRole(deps))
	r.Put("/role", handlePutRole(deps))
	r.Get("/export", handleExport(deps))
	r.Post("/import", handleImport(deps))
	r.Post("/sync", handleSync(deps))
	r.Handle("/metrics", promhttp.Handler())

	st := deps.Store
	mountResource(r, "/projects", resource[ledger.Project]{
		noun:   ledger.KindProject.Noun(),
		list:   st.Projects,
		create: st.CreateProject,
		update: st.UpdateProject,
		remove: st.DeleteProject,
	})
	mountResource(r, "/architects", resource[ledger.Architect]{
		noun:   ledger.KindArchitect.Noun(),
		list:   st.Architects,
		create: st.CreateArchitect,
		update: st.UpdateArchitect,
		remove: st.DeleteArchitect,
	})
	mountResource(r, "/supervisors", resource[ledger.Supervisor]{
		noun:   ledger.KindSupervisor.Noun(),
		list:   st.Supervisors,
		create: st.CreateSupervisor,
		update: st.UpdateSupervisor,
		remove: st.DeleteSupervisor,
	})
	mountResource(r, "/contractors", resource[ledger.Contractor]{
		noun:   ledger.KindContractor.Noun(),
		list:   st.Contractors,
		create: st.CreateContractor,
		update: st.UpdateContractor,
		remove: st.DeleteContractor,
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func handleDashboard(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats := dashboard.Compute(deps.Store.Snapshot(), time.Now())
		writeJSON(w, stats)
	}
}

func handleActivity(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 20, 100)
		writeJSON(w, deps.Store.RecentActivity(limit))
	}
}

func handleGetRole(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]ledger.Role{"role": deps.Store.Role()})
	}
}

func handlePutRole(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		var req struct {
			Role ledger.Role `json:"role"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if err := deps.Store.SetRole(req.Role); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		writeJSON(w, map[string]ledger.Role{"role": req.Role})
	}
}

func handleExport(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := deps.Store.Export()
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to export snapshot: %v", err)
			return
		}
		deps.Store.RecordActivity(ledger.ActorUser, "Exported data")

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf("attachment; filename=%q", ledger.ExportFilename(time.Now())))
		w.Write(data)
	}
}

func handleImport(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxImportBodySize)
		defer r.Body.Close()

		data, err := io.ReadAll(r.Body)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "reading request body: %v", err)
			return
		}
		if err := deps.Store.Import(data); err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, map[string]string{"status": "imported"})
	}
}

func handleSync(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Sync == nil {
			httpError(w, http.StatusServiceUnavailable, "api_error", "sync is not configured")
			return
		}
		deps.Store.RecordActivity(ledger.ActorUser, "Started GitHub sync")
		deps.Sync.Trigger()

		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]string{"status": "sync_scheduled"})
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// writeStoreError maps store sentinel errors onto HTTP statuses.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrReadOnly):
		httpError(w, http.StatusForbidden, "permission_denied", "read-only access: mutations are disabled")
	case errors.Is(err, ledger.ErrNotFound):
		httpError(w, http.StatusNotFound, "not_found", "%v", err)
	case errors.Is(err, ledger.ErrInvalidSnapshot):
		httpError(w, http.StatusBadRequest, "parse_error", "%v", err)
	default:
		httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
	}
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}
