package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/CyberSys/openmw/pkg/store"
)

// ScriptSummary is the list-view projection of a catalog entry. Full
// entries carry compiled bytecode and source text, which is too heavy
// for listings.
type ScriptSummary struct {
	ID         string `json:"id"`
	Plugin     string `json:"plugin"`
	Variables  int    `json:"variables"`
	DataSize   int    `json:"data_size"`
	Deleted    bool   `json:"deleted,omitempty"`
	Conflicted bool   `json:"conflicted,omitempty"`
}

func summarize(e *store.ScriptEntry) ScriptSummary {
	return ScriptSummary{
		ID:         e.ID,
		Plugin:     e.Plugin,
		Variables:  len(e.VarNames),
		DataSize:   len(e.ScriptData),
		Deleted:    e.Deleted,
		Conflicted: e.Conflicted(),
	}
}

// Server holds the API server state
type Server struct {
	catalog ScriptCatalog
	config  ServerConfig
	metrics *Metrics
}

// NewServer creates a new API server
func NewServer(catalog ScriptCatalog, config ServerConfig, metrics *Metrics) *Server {
	return &Server{
		catalog: catalog,
		config:  config,
		metrics: metrics,
	}
}

// handleHealth godoc
//
//	@Summary		Health check
//	@Description	Get the health status of the API
//	@Tags			health
//	@Accept			json
//	@Produce		json
//	@Success		200	{object}	map[string]string
//	@Router			/health [get]
//	@Security		ApiKeyAuth
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.metrics.RecordHealthCheck(true)
	sendSuccess(w, map[string]string{"status": "healthy"})
}

// handleListScripts godoc
//
//	@Summary		List scripts
//	@Description	List indexed scripts, optionally filtered by ID prefix
//	@Tags			scripts
//	@Accept			json
//	@Produce		json
//	@Param			prefix	query		string	false	"Script ID prefix"
//	@Success		200		{object}	map[string]interface{}
//	@Failure		500		{object}	map[string]string
//	@Router			/scripts [get]
//	@Security		ApiKeyAuth
func (s *Server) handleListScripts(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	prefix := r.URL.Query().Get("prefix")

	entries, err := s.catalog.ListScripts(prefix)
	if err != nil {
		s.metrics.RecordCatalogOperation("list", false, time.Since(start))
		sendError(w, fmt.Sprintf("Failed to list scripts: %v", err), http.StatusInternalServerError)
		return
	}

	summaries := make([]ScriptSummary, 0, len(entries))
	for i := range entries {
		summaries = append(summaries, summarize(&entries[i]))
	}

	s.metrics.RecordCatalogOperation("list", true, time.Since(start))
	sendSuccess(w, map[string]interface{}{"count": len(summaries), "scripts": summaries})
}

// handleGetScript godoc
//
//	@Summary		Get a script by ID
//	@Description	Retrieve the full catalog entry for a script, including variables, bytecode and provenance
//	@Tags			scripts
//	@Accept			json
//	@Produce		json
//	@Param			id	path		string	true	"Script ID (case-insensitive)"
//	@Success		200	{object}	store.ScriptEntry
//	@Failure		400	{object}	map[string]string
//	@Failure		404	{object}	map[string]string
//	@Failure		500	{object}	map[string]string
//	@Router			/scripts/{id} [get]
//	@Security		ApiKeyAuth
func (s *Server) handleGetScript(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id, err := url.PathUnescape(chi.URLParam(r, "id"))
	if err != nil || id == "" {
		s.metrics.RecordCatalogOperation("get", false, time.Since(start))
		sendError(w, "Script ID is required", http.StatusBadRequest)
		return
	}

	entry, err := s.catalog.Script(id)
	if err != nil {
		s.metrics.RecordCatalogOperation("get", false, time.Since(start))
		if errors.Is(err, store.ErrScriptNotFound) {
			sendError(w, "Script not found", http.StatusNotFound)
		} else {
			sendError(w, fmt.Sprintf("Failed to get script: %v", err), http.StatusInternalServerError)
		}
		return
	}

	s.metrics.RecordCatalogOperation("get", true, time.Since(start))
	sendSuccess(w, entry)
}

// handleGetScriptText godoc
//
//	@Summary		Get script source text
//	@Description	Retrieve the raw source text of a script as plain text
//	@Tags			scripts
//	@Produce		plain
//	@Param			id	path		string	true	"Script ID (case-insensitive)"
//	@Success		200	{string}	string
//	@Failure		400	{object}	map[string]string
//	@Failure		404	{object}	map[string]string
//	@Failure		500	{object}	map[string]string
//	@Router			/scripts/{id}/text [get]
//	@Security		ApiKeyAuth
func (s *Server) handleGetScriptText(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id, err := url.PathUnescape(chi.URLParam(r, "id"))
	if err != nil || id == "" {
		s.metrics.RecordCatalogOperation("get", false, time.Since(start))
		sendError(w, "Script ID is required", http.StatusBadRequest)
		return
	}

	entry, err := s.catalog.Script(id)
	if err != nil {
		s.metrics.RecordCatalogOperation("get", false, time.Since(start))
		if errors.Is(err, store.ErrScriptNotFound) {
			sendError(w, "Script not found", http.StatusNotFound)
		} else {
			sendError(w, fmt.Sprintf("Failed to get script: %v", err), http.StatusInternalServerError)
		}
		return
	}

	s.metrics.RecordCatalogOperation("get", true, time.Since(start))
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := w.Write([]byte(entry.ScriptText)); err != nil {
		sendError(w, "Failed to write response", http.StatusInternalServerError)
		return
	}
}

// handleConflicts godoc
//
//	@Summary		List conflicting scripts
//	@Description	List scripts defined by more than one indexed plugin, with full provenance history
//	@Tags			scripts
//	@Accept			json
//	@Produce		json
//	@Success		200	{object}	map[string]interface{}
//	@Failure		500	{object}	map[string]string
//	@Router			/conflicts [get]
//	@Security		ApiKeyAuth
func (s *Server) handleConflicts(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	entries, err := s.catalog.Conflicts()
	if err != nil {
		s.metrics.RecordCatalogOperation("conflicts", false, time.Since(start))
		sendError(w, fmt.Sprintf("Failed to list conflicts: %v", err), http.StatusInternalServerError)
		return
	}

	s.metrics.RecordCatalogOperation("conflicts", true, time.Since(start))
	sendSuccess(w, map[string]interface{}{"count": len(entries), "conflicts": entries})
}

// handlePlugins godoc
//
//	@Summary		List indexed plugins
//	@Description	List the plugins the catalog has been built from
//	@Tags			plugins
//	@Accept			json
//	@Produce		json
//	@Success		200	{object}	map[string]interface{}
//	@Failure		500	{object}	map[string]string
//	@Router			/plugins [get]
//	@Security		ApiKeyAuth
func (s *Server) handlePlugins(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	plugins, err := s.catalog.Plugins()
	if err != nil {
		s.metrics.RecordCatalogOperation("plugins", false, time.Since(start))
		sendError(w, fmt.Sprintf("Failed to list plugins: %v", err), http.StatusInternalServerError)
		return
	}

	s.metrics.RecordCatalogOperation("plugins", true, time.Since(start))
	sendSuccess(w, map[string]interface{}{"count": len(plugins), "plugins": plugins})
}

// handleDeletePlugin godoc
//
//	@Summary		Remove a plugin from the catalog
//	@Description	Drop a plugin's scripts and prune it from conflict histories
//	@Tags			plugins
//	@Accept			json
//	@Produce		json
//	@Param			name	path		string	true	"Plugin file name"
//	@Success		200		{object}	map[string]interface{}
//	@Failure		400		{object}	map[string]string
//	@Failure		404		{object}	map[string]string
//	@Failure		500		{object}	map[string]string
//	@Router			/plugins/{name} [delete]
//	@Security		ApiKeyAuth
func (s *Server) handleDeletePlugin(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil || name == "" {
		s.metrics.RecordCatalogOperation("delete_plugin", false, time.Since(start))
		sendError(w, "Plugin name is required", http.StatusBadRequest)
		return
	}

	dropped, err := s.catalog.DeletePlugin(name)
	if err != nil {
		s.metrics.RecordCatalogOperation("delete_plugin", false, time.Since(start))
		if errors.Is(err, store.ErrPluginNotFound) {
			sendError(w, "Plugin not found", http.StatusNotFound)
		} else {
			sendError(w, fmt.Sprintf("Failed to delete plugin: %v", err), http.StatusInternalServerError)
		}
		return
	}

	s.metrics.RecordCatalogOperation("delete_plugin", true, time.Since(start))
	sendSuccess(w, map[string]interface{}{
		"message":         "Plugin removed from catalog",
		"scripts_dropped": dropped,
	})
}

// handleStats godoc
//
//	@Summary		Get catalog statistics
//	@Description	Get counts of scripts, plugins, conflicts and deletion markers
//	@Tags			diagnostics
//	@Accept			json
//	@Produce		json
//	@Success		200	{object}	store.CatalogStats
//	@Failure		500	{object}	map[string]string
//	@Router			/stats [get]
//	@Security		ApiKeyAuth
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.catalog.Stats()
	if err != nil {
		sendError(w, fmt.Sprintf("Failed to get stats: %v", err), http.StatusInternalServerError)
		return
	}

	// Update metrics with current stats
	s.metrics.UpdateCatalogStats(stats)
	sendSuccess(w, stats)
}

// startMetricsUpdater periodically refreshes the catalog gauges
func (s *Server) startMetricsUpdater() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		stats, err := s.catalog.Stats()
		if err != nil {
			continue
		}
		s.metrics.UpdateCatalogStats(stats)
	}
}
