package control

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/swarmguard/judge-engine/internal/model"
)

// NewMux builds the engine's HTTP surface: a health probe and a REST-style
// one-shot submission endpoint alongside the persistent WebSocket stream,
// mirroring the teacher's federation service's net/http mux-plus-JSON
// front end.
func (s *Server) NewMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/judge", s.ServeJudgeSocket)
	mux.HandleFunc("/submissions", s.handleSubmit)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSubmit accepts one submission over plain HTTP and returns
// immediately with 202 and {"status":"accepted"} (no internal id is
// returned); reports for the challenge are
// only available over the WebSocket stream, since a REST response can't
// carry an unbounded number of incremental task reports.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var obj map[string]any
	if err := json.NewDecoder(r.Body).Decode(&obj); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid submission body"})
		return
	}

	noop := func(int64, string, *model.TestDataResult, *model.Result) {}
	if err := s.Submit(obj, noop, nil); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}
