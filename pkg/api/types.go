package api

import (
	"github.com/CyberSys/openmw/pkg/store"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Port   int
	APIKey string // empty disables authentication
}

// ScriptCatalog defines the catalog operations the API exposes
type ScriptCatalog interface {
	Script(id string) (*store.ScriptEntry, error)
	ListScripts(prefix string) ([]store.ScriptEntry, error)
	Conflicts() ([]store.ScriptEntry, error)
	Plugins() ([]store.PluginInfo, error)
	DeletePlugin(name string) (int, error)
	Stats() (*store.CatalogStats, error)
}
