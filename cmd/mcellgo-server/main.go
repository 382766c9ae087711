// Command mcellgo-server hosts the HTTP+WebSocket control plane (component
// L, SPEC_FULL.md §6): create, step, auto-run, snapshot, and observe any
// number of named partitions over REST plus a live event stream, a
// generalization of achemdb's cmd/achemdb-server/main.go from one schema-
// swappable environment to a multi-partition manager.
package main

import (
	"net/http"
)

func main() {
	cfg := loadServerConfig()
	logger := NewLogger(cfg.LogLevel)

	srv := NewServer(logger)
	srv.SetSnapshotEveryTicks(cfg.SnapshotEveryTicks)

	http.HandleFunc("/healthz", srv.handleHealth)
	http.HandleFunc("/partitions", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			srv.handleCreatePartition(w, r)
		case http.MethodGet:
			srv.handleListPartitions(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
	http.HandleFunc("/partitions/", srv.handlePartitionRoutes)
	http.HandleFunc("/notifiers", srv.handleNotifierRoutes)
	http.HandleFunc("/notifiers/", srv.handleNotifierRoutes)

	logger.Infof("mcellgo-server listening on %s", cfg.Addr)
	logger.Fatalf("server exited: %v", http.ListenAndServe(cfg.Addr, nil))
}
