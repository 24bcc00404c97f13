package persona

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"promptsmith/internal/logging"
)

// personaFile is the YAML document shape for one persona definition.
type personaFile struct {
	PersonaID string    `yaml:"persona_id"`
	Elements  []Element `yaml:"elements"`
}

// FileProvider serves persona elements from YAML files in a directory.
// One file per persona; the file's persona_id is the lookup key. An
// optional fsnotify watcher reloads definitions when files change.
type FileProvider struct {
	dir string

	mu       sync.RWMutex
	personas map[string][]Element

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewFileProvider loads all persona YAML files from dir.
func NewFileProvider(dir string) (*FileProvider, error) {
	p := &FileProvider{
		dir:      dir,
		personas: make(map[string][]Element),
	}
	if err := p.reload(); err != nil {
		return nil, err
	}
	return p, nil
}

// reload re-reads every YAML file in the directory.
func (p *FileProvider) reload() error {
	timer := logging.StartTimer(logging.CategoryPersona, "FileProvider.reload")
	defer timer.Stop()

	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return fmt.Errorf("failed to read persona directory %s: %w", p.dir, err)
	}

	personas := make(map[string][]Element)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		path := filepath.Join(p.dir, entry.Name())
		pf, err := parsePersonaFile(path)
		if err != nil {
			logging.Get(logging.CategoryPersona).Warn("Skipping %s: %v", path, err)
			continue
		}
		personas[pf.PersonaID] = append(personas[pf.PersonaID], pf.Elements...)
	}

	p.mu.Lock()
	p.personas = personas
	p.mu.Unlock()

	logging.Get(logging.CategoryPersona).Info(
		"Loaded %d personas from %s", len(personas), p.dir,
	)
	return nil
}

func parsePersonaFile(path string) (*personaFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read persona file: %w", err)
	}

	var pf personaFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("failed to parse persona YAML: %w", err)
	}

	if pf.PersonaID == "" {
		return nil, fmt.Errorf("persona file %s missing persona_id", filepath.Base(path))
	}

	for i, el := range pf.Elements {
		if el.ID == "" {
			return nil, fmt.Errorf("element %d in %s missing id", i, filepath.Base(path))
		}
		if el.Type == "" {
			pf.Elements[i].Type = ElementSystemAddon
		}
	}

	return &pf, nil
}

// Watch starts reloading on file changes. Call Close to stop.
func (p *FileProvider) Watch() error {
	if p.watcher != nil {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(p.dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", p.dir, err)
	}

	p.watcher = watcher
	p.done = make(chan struct{})

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				if err := p.reload(); err != nil {
					logging.Get(logging.CategoryPersona).Warn("Reload after %s failed: %v", event.Name, err)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logging.Get(logging.CategoryPersona).Warn("Watcher error: %v", err)
			case <-p.done:
				return
			}
		}
	}()

	return nil
}

// Close stops the watcher, if one is running.
func (p *FileProvider) Close() error {
	if p.watcher == nil {
		return nil
	}
	close(p.done)
	err := p.watcher.Close()
	p.watcher = nil
	return err
}

// Elements returns the element catalogue for a persona ID.
func (p *FileProvider) Elements(personaID string) ([]Element, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	elements, ok := p.personas[personaID]
	if !ok {
		return nil, fmt.Errorf("unknown persona %q", personaID)
	}

	// Return a copy so callers cannot mutate the catalogue.
	out := make([]Element, len(elements))
	copy(out, elements)
	return out, nil
}

// PersonaIDs lists the loaded persona identifiers.
func (p *FileProvider) PersonaIDs() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	ids := make([]string, 0, len(p.personas))
	for id := range p.personas {
		ids = append(ids, id)
	}
	return ids
}

// StaticProvider serves a fixed in-memory element catalogue. Useful in
// tests and for callers that manage persona storage themselves.
type StaticProvider struct {
	personas map[string][]Element
}

// NewStaticProvider creates a provider from a persona→elements map.
func NewStaticProvider(personas map[string][]Element) *StaticProvider {
	return &StaticProvider{personas: personas}
}

// Elements returns the element catalogue for a persona ID.
func (p *StaticProvider) Elements(personaID string) ([]Element, error) {
	elements, ok := p.personas[personaID]
	if !ok {
		return nil, fmt.Errorf("unknown persona %q", personaID)
	}
	out := make([]Element, len(elements))
	copy(out, elements)
	return out, nil
}
