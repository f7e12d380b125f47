package store

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/segmentio/ksuid"
	"github.com/tliron/commonlog"

	"github.com/CyberSys/openmw/pkg/esm"
	"github.com/CyberSys/openmw/pkg/script"
)

var log = commonlog.GetLogger("store")

const catalogSchemaVersion = 1

// Errors
var (
	ErrScriptNotFound = &CatalogError{"script not found"}
	ErrPluginNotFound = &CatalogError{"plugin not found"}
)

// CatalogError represents a catalog error
type CatalogError struct {
	Message string
}

func (e *CatalogError) Error() string {
	return e.Message
}

// Config holds configuration for the script catalog
type Config struct {
	DataDir  string        // Directory for the catalog database
	Encoding *esm.Encoding // Character encoding of indexed plugin files
}

// Catalog is a persistent index of scripts across plugin files. Plugins are
// scanned in load order; when several plugins provide the same script id the
// last one indexed wins, and the losers stay visible as provenance history.
type Catalog struct {
	config Config
	db     *pebble.DB
	mutex  sync.Mutex
}

// Open opens (or creates) a catalog under config.DataDir.
func Open(config Config) (*Catalog, error) {
	if err := os.MkdirAll(config.DataDir, 0755); err != nil {
		return nil, err
	}

	db, err := pebble.Open(filepath.Join(config.DataDir, "catalog"), &pebble.Options{})
	if err != nil {
		return nil, err
	}

	c := &Catalog{config: config, db: db}
	if err := c.checkSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

func (c *Catalog) checkSchema() error {
	data, closer, err := c.db.Get([]byte(schemaKey))
	if err == pebble.ErrNotFound {
		return c.db.Set([]byte(schemaKey), []byte{catalogSchemaVersion}, pebble.NoSync)
	}
	if err != nil {
		return err
	}
	defer closer.Close()

	if len(data) != 1 || data[0] != catalogSchemaVersion {
		return fmt.Errorf("store: catalog schema %v is not supported", data)
	}
	return nil
}

// Close shuts down the catalog
func (c *Catalog) Close() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.db.Close()
}

// IndexReport summarizes one plugin scan.
type IndexReport struct {
	Plugin      string `json:"plugin"`
	RunID       string `json:"run_id"`
	Scripts     int    `json:"scripts"`
	Skipped     int    `json:"skipped"`     // records of other kinds, not indexed
	Diagnostics int    `json:"diagnostics"` // tolerated irregularities across all scripts
}

// IndexPlugin scans a plugin file and stores every script record it holds.
// Tolerated irregularities are logged and counted; a structurally broken
// record aborts the scan with its file context. Indexing the same file again
// refreshes its entries in place.
func (c *Catalog) IndexPlugin(ctx context.Context, path string) (*IndexReport, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	r, err := esm.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	r.SetEncoding(c.config.Encoding)

	tag, err := r.NextRecord()
	if err == io.EOF {
		return nil, r.Fail("file has no records")
	}
	if err != nil {
		return nil, err
	}
	if tag != esm.RecTES3 {
		return nil, r.Fail("first record is not a TES3 file header")
	}
	header, err := esm.ReadFileHeader(r)
	if err != nil {
		return nil, err
	}

	plugin := filepath.Base(path)
	runID := ksuid.New().String()
	report := &IndexReport{Plugin: plugin, RunID: runID}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		tag, err := r.NextRecord()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if tag != esm.RecSCPT {
			report.Skipped++
			continue
		}

		offset := r.RecordOffset()
		var s script.Script
		diags, err := s.Load(r)
		if err != nil {
			return nil, err
		}
		for _, d := range diags {
			if d.Severity == esm.SeverityWarning {
				log.Warningf("%s", d)
			} else {
				log.Debugf("%s", d)
			}
		}

		prov := Provenance{
			Plugin:      plugin,
			Offset:      offset,
			RunID:       runID,
			Deleted:     s.Deleted,
			Diagnostics: len(diags),
		}
		if err := c.putScript(&s, prov); err != nil {
			return nil, err
		}
		report.Scripts++
		report.Diagnostics += len(diags)
	}

	info := PluginInfo{
		Name:        plugin,
		Author:      header.Author,
		Description: header.Description,
		Version:     header.Version,
		FileType:    header.FileType,
		Records:     header.NumRecords,
		Scripts:     report.Scripts,
		RunID:       runID,
	}
	for _, m := range header.Masters {
		info.Masters = append(info.Masters, m.Name)
	}
	data, err := MarshalPluginInfo(&info)
	if err != nil {
		return nil, err
	}
	if err := c.db.Set(pluginKey(plugin), data, pebble.NoSync); err != nil {
		return nil, err
	}

	log.Infof("indexed %s: %d scripts, %d other records, %d diagnostics",
		plugin, report.Scripts, report.Skipped, report.Diagnostics)
	return report, nil
}

// putScript merges one loaded script into the catalog. The new body wins;
// any earlier contribution by the same plugin is dropped from the history
// so re-indexing stays idempotent.
func (c *Catalog) putScript(s *script.Script, prov Provenance) error {
	key := scriptKey(s.ID)
	entry := entryBody(s)
	entry.Plugin = prov.Plugin

	prev, err := c.getEntry(key)
	if err != nil {
		return err
	}
	if prev != nil {
		entry.History = pruneSource(prev.History, prov.Plugin)
	}
	entry.History = append(entry.History, prov)

	data, err := MarshalScriptEntry(&entry)
	if err != nil {
		return err
	}
	return c.db.Set(key, data, pebble.NoSync)
}

// pruneSource returns history without the entries contributed by plugin.
func pruneSource(history []Provenance, plugin string) []Provenance {
	kept := make([]Provenance, 0, len(history))
	for _, p := range history {
		if !strings.EqualFold(p.Plugin, plugin) {
			kept = append(kept, p)
		}
	}
	return kept
}

// getEntry reads and decodes one script entry; a missing key yields nil.
func (c *Catalog) getEntry(key []byte) (*ScriptEntry, error) {
	data, closer, err := c.db.Get(key)
	if err != nil {
		if err == pebble.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	defer closer.Close()

	return UnmarshalScriptEntry(data)
}

// Script retrieves one script by id, case-insensitively.
func (c *Catalog) Script(id string) (*ScriptEntry, error) {
	entry, err := c.getEntry(scriptKey(id))
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, ErrScriptNotFound
	}
	return entry, nil
}

// ListScripts returns all entries whose id starts with prefix, in key order.
// An empty prefix lists the whole catalog.
func (c *Catalog) ListScripts(prefix string) ([]ScriptEntry, error) {
	lower := []byte(scriptKeyPrefix + strings.ToLower(prefix))
	iter, err := c.db.NewIter(&pebble.IterOptions{
		LowerBound: lower,
		UpperBound: prefixUpperBound(lower),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var entries []ScriptEntry
	for iter.First(); iter.Valid(); iter.Next() {
		entry, err := UnmarshalScriptEntry(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("store: corrupt entry at %q: %w", iter.Key(), err)
		}
		entries = append(entries, *entry)
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	return entries, nil
}

// Conflicts returns the entries provided by more than one plugin.
func (c *Catalog) Conflicts() ([]ScriptEntry, error) {
	entries, err := c.ListScripts("")
	if err != nil {
		return nil, err
	}

	var conflicted []ScriptEntry
	for _, entry := range entries {
		if entry.Conflicted() {
			conflicted = append(conflicted, entry)
		}
	}
	return conflicted, nil
}

// Plugins returns the indexed plugins in key order.
func (c *Catalog) Plugins() ([]PluginInfo, error) {
	lower := []byte(pluginKeyPrefix)
	iter, err := c.db.NewIter(&pebble.IterOptions{
		LowerBound: lower,
		UpperBound: prefixUpperBound(lower),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var infos []PluginInfo
	for iter.First(); iter.Valid(); iter.Next() {
		info, err := UnmarshalPluginInfo(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("store: corrupt plugin info at %q: %w", iter.Key(), err)
		}
		infos = append(infos, *info)
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	return infos, nil
}

// DeletePlugin removes a plugin and its contributions. Scripts whose winning
// body came from the plugin are dropped entirely (the catalog keeps no older
// bodies); scripts that merely listed it as history are rewritten without
// it. Returns the number of script entries dropped.
func (c *Catalog) DeletePlugin(name string) (int, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	_, closer, err := c.db.Get(pluginKey(name))
	if err == pebble.ErrNotFound {
		return 0, ErrPluginNotFound
	}
	if err != nil {
		return 0, err
	}
	closer.Close()

	if err := c.db.Delete(pluginKey(name), pebble.NoSync); err != nil {
		return 0, err
	}

	entries, err := c.ListScripts("")
	if err != nil {
		return 0, err
	}

	dropped := 0
	for i := range entries {
		entry := &entries[i]
		if strings.EqualFold(entry.Plugin, name) {
			if err := c.db.Delete(scriptKey(entry.ID), pebble.NoSync); err != nil {
				return dropped, err
			}
			dropped++
			continue
		}

		pruned := pruneSource(entry.History, name)
		if len(pruned) == len(entry.History) {
			continue
		}
		entry.History = pruned
		data, err := MarshalScriptEntry(entry)
		if err != nil {
			return dropped, err
		}
		if err := c.db.Set(scriptKey(entry.ID), data, pebble.NoSync); err != nil {
			return dropped, err
		}
	}

	log.Infof("removed %s: %d script entries dropped", name, dropped)
	return dropped, nil
}

// CatalogStats holds statistics about the catalog
type CatalogStats struct {
	Scripts   int `json:"scripts"`
	Plugins   int `json:"plugins"`
	Conflicts int `json:"conflicts"`
	Deleted   int `json:"deleted"`
}

// Stats returns catalog statistics
func (c *Catalog) Stats() (*CatalogStats, error) {
	stats := &CatalogStats{}

	entries, err := c.ListScripts("")
	if err != nil {
		return nil, err
	}
	stats.Scripts = len(entries)
	for _, entry := range entries {
		if entry.Conflicted() {
			stats.Conflicts++
		}
		if entry.Deleted {
			stats.Deleted++
		}
	}

	plugins, err := c.Plugins()
	if err != nil {
		return nil, err
	}
	stats.Plugins = len(plugins)

	return stats, nil
}
