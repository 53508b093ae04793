package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/san-kum/ctrlsim/internal/control"
	"github.com/san-kum/ctrlsim/internal/scenario"
	"github.com/san-kum/ctrlsim/internal/sessionlog"
)

const defaultSessionLimit = 20

type simulateRequest struct {
	Kp        *float64 `json:"kp"`
	Ki        *float64 `json:"ki"`
	Kd        *float64 `json:"kd"`
	ProjectID *int64   `json:"project_id,omitempty"`
}

func (r simulateRequest) gains() (control.Gains, error) {
	fields := []struct {
		name string
		v    *float64
	}{{"kp", r.Kp}, {"ki", r.Ki}, {"kd", r.Kd}}
	for _, f := range fields {
		if f.v == nil {
			return control.Gains{}, fmt.Errorf("missing field %q", f.name)
		}
	}
	return control.Gains{Kp: *r.Kp, Ki: *r.Ki, Kd: *r.Kd}, nil
}

type systemInfo struct {
	SystemType  string  `json:"system_type"`
	Description string  `json:"description"`
	Reference   float64 `json:"reference"`
	Dt          float64 `json:"dt"`
	Duration    float64 `json:"duration"`
	Samples     int     `json:"samples"`
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	systemType := mux.Vars(r)["system_type"]

	var req simulateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	gains, err := req.gains()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	out, err := scenario.Simulate(r.Context(), systemType, gains)
	switch {
	case errors.Is(err, scenario.ErrInvalidSystemType):
		writeError(w, http.StatusBadRequest, "System type not supported")
		return
	case err != nil:
		s.log.Error("simulate %s: %v", systemType, err)
		writeError(w, http.StatusInternalServerError, "simulation failed")
		return
	}

	s.log.Debug("simulated %s with %s", systemType, gains)
	s.logSession(sessionlog.Entry{
		ProjectID: req.ProjectID,
		System:    out.System,
		Input:     gains,
		Output:    out,
	})
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSystems(w http.ResponseWriter, r *http.Request) {
	systems := make([]systemInfo, 0, len(scenario.All()))
	for _, st := range scenario.All() {
		sc, err := scenario.Lookup(st)
		if err != nil {
			continue
		}
		systems = append(systems, systemInfo{
			SystemType:  st.String(),
			Description: sc.Description,
			Reference:   sc.Reference,
			Dt:          sc.Dt,
			Duration:    sc.Duration,
			Samples:     sc.Samples(),
		})
	}
	writeJSON(w, http.StatusOK, systems)
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	limit := defaultSessionLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	if s.history == nil {
		writeJSON(w, http.StatusOK, []sessionlog.Entry{})
		return
	}
	entries, err := s.history.Recent(limit)
	if err != nil {
		s.log.Error("list sessions: %v", err)
		writeError(w, http.StatusInternalServerError, "session history unavailable")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if s.history == nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	e, err := s.history.Get(id)
	if errors.Is(err, sessionlog.ErrNotFound) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		s.log.Error("get session %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "session history unavailable")
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
