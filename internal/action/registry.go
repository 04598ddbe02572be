package action

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// ErrPluginNotFound is returned when a requested plugin cannot be found.
var ErrPluginNotFound = errors.New("plugin not found")

// manifestFile is the name of the manifest inside each plugin directory.
const manifestFile = "plugin.json"

// Registry discovers plugins below a directory and looks them up by name.
type Registry struct {
	dir     string
	plugins map[string]*Plugin
	mu      sync.RWMutex
}

// NewRegistry creates a Registry rooted at dir. Call Discover to load it.
func NewRegistry(dir string) *Registry {
	return &Registry{
		dir:     dir,
		plugins: make(map[string]*Plugin),
	}
}

// Discover replaces the registry contents with every subdirectory of the
// plugin directory that carries a readable manifest. A missing directory
// yields an empty registry.
func (r *Registry) Discover() error {
	found := make(map[string]*Plugin)

	info, err := os.Stat(r.dir)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return err
	case info.IsDir():
		entries, err := os.ReadDir(r.dir)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			p, err := loadPlugin(filepath.Join(r.dir, entry.Name()))
			if err != nil {
				if !os.IsNotExist(err) {
					log.Printf("Skipping plugin %s: %v", entry.Name(), err)
				}
				continue
			}
			found[p.Manifest.Name] = p
		}
	}

	r.mu.Lock()
	r.plugins = found
	r.mu.Unlock()
	return nil
}

func loadPlugin(path string) (*Plugin, error) {
	data, err := os.ReadFile(filepath.Join(path, manifestFile))
	if err != nil {
		return nil, err
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, err
	}
	if manifest.Name == "" || manifest.Executable == "" {
		return nil, errors.New("manifest needs a name and an executable")
	}

	return &Plugin{
		Manifest:   manifest,
		Path:       path,
		Executable: filepath.Join(path, manifest.Executable),
	}, nil
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) (*Plugin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.plugins[name]
	if !ok {
		return nil, ErrPluginNotFound
	}
	return p, nil
}

// List returns the discovered plugins ordered by name.
func (r *Registry) List() []*Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	plugins := make([]*Plugin, 0, len(r.plugins))
	for _, p := range r.plugins {
		plugins = append(plugins, p)
	}
	sort.Slice(plugins, func(i, j int) bool {
		return plugins[i].Manifest.Name < plugins[j].Manifest.Name
	})
	return plugins
}

// Dir returns the plugin directory path.
func (r *Registry) Dir() string {
	return r.dir
}
