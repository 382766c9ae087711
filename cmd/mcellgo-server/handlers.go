package main

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nrazek/mcellgo/internal/kernel"
	"github.com/nrazek/mcellgo/internal/notify"
)

// extractPartitionID pulls the partition id out of a path shaped like
// "/partitions/{id}/..." and returns it along with whatever path remains,
// the same scheme achemdb's handlers.go uses for "/env/{envID}/...".
func extractPartitionID(path string) (string, string) {
	const prefix = "/partitions/"
	if !strings.HasPrefix(path, prefix) {
		return "", ""
	}
	rest := path[len(prefix):]
	idx := strings.Index(rest, "/")
	if idx == -1 {
		return rest, ""
	}
	return rest[:idx], rest[idx:]
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// POST /partitions
// Body: kernel.SimulationConfig JSON. Returns { "id": "<uuid>" }.
func (s *Server) handleCreatePartition(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var cfg kernel.SimulationConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		http.Error(w, "invalid config json: "+err.Error(), http.StatusBadRequest)
		return
	}

	id, err := s.manager.Create(cfg, s.buildLogger())
	if err != nil {
		http.Error(w, "cannot create partition: "+err.Error(), http.StatusBadRequest)
		return
	}

	s.logger.Infof("partition created: id=%s", id)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"id": id})
}

// GET /partitions
func (s *Server) handleListPartitions(w http.ResponseWriter, r *http.Request) {
	ids := s.manager.List()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string][]string{"partitions": ids})
}

// DELETE /partitions/{id}
func (s *Server) handleDeletePartition(w http.ResponseWriter, r *http.Request) {
	id, _ := extractPartitionID(r.URL.Path)
	if id == "" {
		http.Error(w, "partition id is required in path: /partitions/{id}", http.StatusBadRequest)
		return
	}
	if err := s.manager.Delete(id); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	s.logger.Infof("partition deleted: id=%s", id)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("partition deleted"))
}

// POST /partitions/{id}/step
// Runs exactly one iteration synchronously.
func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	id, _ := extractPartitionID(r.URL.Path)
	run, ok := s.manager.Get(id)
	if !ok {
		http.Error(w, "partition not found", http.StatusNotFound)
		return
	}
	if err := run.Step(); err != nil {
		http.Error(w, "step failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	s.notifyStep(id)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("stepped"))
}

// POST /partitions/{id}/start?interval_ms=1000
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	id, _ := extractPartitionID(r.URL.Path)
	run, ok := s.manager.Get(id)
	if !ok {
		http.Error(w, "partition not found", http.StatusNotFound)
		return
	}

	interval := 1000 * time.Millisecond
	if v := r.URL.Query().Get("interval_ms"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms <= 0 {
			http.Error(w, "invalid interval_ms: must be a positive integer", http.StatusBadRequest)
			return
		}
		interval = time.Duration(ms) * time.Millisecond
	}

	run.OnError(s.onRunError)
	run.OnStep(s.notifyStep)
	run.Run(interval)
	s.logger.Infof("partition started: id=%s interval=%v", id, interval)

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("partition started"))
}

// POST /partitions/{id}/stop
func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	id, _ := extractPartitionID(r.URL.Path)
	run, ok := s.manager.Get(id)
	if !ok {
		http.Error(w, "partition not found", http.StatusNotFound)
		return
	}
	run.Stop()
	s.logger.Infof("partition stopped: id=%s", id)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("partition stopped"))
}

// GET /partitions/{id}/snapshot
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	id, _ := extractPartitionID(r.URL.Path)
	run, ok := s.manager.Get(id)
	if !ok {
		http.Error(w, "partition not found", http.StatusNotFound)
		return
	}
	snap := run.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		http.Error(w, "cannot encode snapshot: "+err.Error(), http.StatusInternalServerError)
		return
	}
}

// GET /partitions/{id}/ws
// Upgrades to a WebSocket and registers the connection on the shared "live"
// notifier; every partition's events share one broadcast fan-out, matching
// the one-process-wide viewer model spec.md §6 describes.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := s.wsNotifier.GetUpgrader()
	upgrader.CheckOrigin = func(r *http.Request) bool { return true }
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnf("websocket upgrade failed: %v", err)
		return
	}
	s.wsNotifier.RegisterClient(conn)

	go func() {
		defer s.wsNotifier.UnregisterClient(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// handlePartitionRoutes dispatches every /partitions/{id}/... request.
func (s *Server) handlePartitionRoutes(w http.ResponseWriter, r *http.Request) {
	id, remaining := extractPartitionID(r.URL.Path)
	if id == "" {
		http.Error(w, "partition id is required in path: /partitions/{id}/...", http.StatusBadRequest)
		return
	}

	switch {
	case remaining == "/step" && r.Method == http.MethodPost:
		s.handleStep(w, r)
	case remaining == "/start" && r.Method == http.MethodPost:
		s.handleStart(w, r)
	case remaining == "/stop" && r.Method == http.MethodPost:
		s.handleStop(w, r)
	case remaining == "/snapshot" && r.Method == http.MethodGet:
		s.handleSnapshot(w, r)
	case remaining == "/ws" && r.Method == http.MethodGet:
		s.handleWebSocket(w, r)
	case remaining == "" && r.Method == http.MethodDelete:
		s.handleDeletePartition(w, r)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

// GET /notifiers
func (s *Server) handleListNotifiers(w http.ResponseWriter, r *http.Request) {
	ids := s.notifierMgr.ListNotifiers()
	notifiers := make([]map[string]string, 0, len(ids))
	for _, id := range ids {
		if n, ok := s.notifierMgr.GetNotifier(id); ok {
			notifiers = append(notifiers, map[string]string{"id": id, "type": n.Type()})
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"notifiers": notifiers})
}

// POST /notifiers
// Body: { "type": "webhook"|"log", "id": "...", "config": { "url": "..." } }
type registerNotifierRequest struct {
	Type   string         `json:"type"`
	ID     string         `json:"id"`
	Config map[string]any `json:"config"`
}

func (s *Server) handleRegisterNotifier(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req registerNotifierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.ID == "" {
		http.Error(w, "notifier id is required", http.StatusBadRequest)
		return
	}

	var n notify.Notifier
	switch req.Type {
	case "webhook":
		url, _ := req.Config["url"].(string)
		if url == "" {
			http.Error(w, "webhook url is required", http.StatusBadRequest)
			return
		}
		wh := notify.NewWebhookNotifier(req.ID, url)
		if headers, ok := req.Config["headers"].(map[string]any); ok {
			for k, v := range headers {
				if vs, ok := v.(string); ok {
					wh.SetHeader(k, vs)
				}
			}
		}
		n = wh
	case "log":
		n = notify.NewLogNotifier(req.ID, s.logger)
	default:
		http.Error(w, "unknown notifier type: "+req.Type, http.StatusBadRequest)
		return
	}

	if err := s.notifierMgr.RegisterNotifier(n); err != nil {
		http.Error(w, "cannot register notifier: "+err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("notifier registered"))
}

// DELETE /notifiers/{id}
func (s *Server) handleUnregisterNotifier(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/notifiers/")
	if id == "" {
		http.Error(w, "notifier id is required", http.StatusBadRequest)
		return
	}
	if err := s.notifierMgr.UnregisterNotifier(id); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("notifier unregistered"))
}

func (s *Server) handleNotifierRoutes(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/notifiers" && r.Method == http.MethodGet:
		s.handleListNotifiers(w, r)
	case r.URL.Path == "/notifiers" && r.Method == http.MethodPost:
		s.handleRegisterNotifier(w, r)
	case strings.HasPrefix(r.URL.Path, "/notifiers/") && r.Method == http.MethodDelete:
		s.handleUnregisterNotifier(w, r)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}
