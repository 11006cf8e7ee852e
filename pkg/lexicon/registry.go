package lexicon

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/fsnotify.v1"
	"gopkg.in/yaml.v3"

	"github.com/coolbeans/pasal/pkg/logging"
)

// Registry holds compiled lexicons by name. The built-ins are always present;
// YAML files loaded from a directory may add to or shadow them.
type Registry struct {
	mu       sync.RWMutex
	patterns map[string]*Patterns
	files    map[string]string // path -> lexicon name
	dir      string
	logger   logging.Logger
	watcher  *fsnotify.Watcher
	stopChan chan struct{}
	onChange func(event string, name string)
}

// NewRegistry returns a registry seeded with the built-in lexicons.
func NewRegistry(logger logging.Logger) *Registry {
	r := &Registry{
		patterns: builtinPatterns(),
		files:    make(map[string]string),
		logger:   logging.OrNop(logger).Named("lexicon"),
	}
	return r
}

func builtinPatterns() map[string]*Patterns {
	out := make(map[string]*Patterns)
	for _, l := range Builtins() {
		out[l.Name] = MustCompile(l)
	}
	return out
}

// Register compiles l and stores it, replacing any lexicon of the same name.
func (r *Registry) Register(l *Lexicon) error {
	p, err := Compile(l)
	if err != nil {
		return fmt.Errorf("invalid lexicon: %w", err)
	}
	r.mu.Lock()
	r.patterns[l.Name] = p
	r.mu.Unlock()
	return nil
}

// Get returns the compiled lexicon called name.
func (r *Registry) Get(name string) (*Patterns, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.patterns[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return p, nil
}

// List returns the registered lexicon names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.patterns))
	for n := range r.patterns {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// LoadDirectory loads every .yaml/.yml file in dir. A missing directory is
// not an error. Files that fail to load are reported together; the others
// are still registered.
func (r *Registry) LoadDirectory(dir string) error {
	r.mu.Lock()
	r.dir = dir
	r.mu.Unlock()

	loaded, err := readDirectory(dir)
	r.mu.Lock()
	for path, p := range loaded {
		r.patterns[p.Name()] = p
		r.files[path] = p.Name()
	}
	r.mu.Unlock()
	for path, p := range loaded {
		r.logger.Debug("lexicon loaded", logging.String("name", p.Name()), logging.String("path", path))
	}
	return err
}

// readDirectory compiles the lexicon files in dir, keyed by path, without
// touching any registry.
func readDirectory(dir string) (map[string]*Patterns, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("checking directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}

	loaded := make(map[string]*Patterns)
	var loadErrors []string
	for _, entry := range entries {
		if entry.IsDir() || !isYAML(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		p, err := readFile(path)
		if err != nil {
			loadErrors = append(loadErrors, fmt.Sprintf("%s: %v", entry.Name(), err))
			continue
		}
		loaded[path] = p
	}
	if len(loadErrors) > 0 {
		return loaded, fmt.Errorf("errors loading lexicons: %s", strings.Join(loadErrors, "; "))
	}
	return loaded, nil
}

func readFile(path string) (*Patterns, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	var l Lexicon
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	p, err := Compile(&l)
	if err != nil {
		return nil, fmt.Errorf("invalid lexicon: %w", err)
	}
	return p, nil
}

// LoadFile loads a single YAML lexicon.
func (r *Registry) LoadFile(path string) error {
	p, err := readFile(path)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.patterns[p.Name()] = p
	r.files[path] = p.Name()
	r.mu.Unlock()
	r.logger.Debug("lexicon loaded", logging.String("name", p.Name()), logging.String("path", path))
	return nil
}

// Reload drops file-loaded lexicons and reads the directory again. The new
// set replaces the old one in a single step, so readers never see a partial
// registry. On error the previous set stays in place.
func (r *Registry) Reload() error {
	dir := r.directory()
	if dir == "" {
		return fmt.Errorf("no directory configured for reload")
	}
	loaded, err := readDirectory(dir)
	if err != nil {
		return err
	}

	patterns := builtinPatterns()
	files := make(map[string]string, len(loaded))
	for path, p := range loaded {
		patterns[p.Name()] = p
		files[path] = p.Name()
	}
	r.mu.Lock()
	r.patterns = patterns
	r.files = files
	r.mu.Unlock()
	return nil
}

func (r *Registry) directory() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dir
}

// SetOnChange installs a callback fired after the watcher applies a change.
// event is "create", "modify" or "remove".
func (r *Registry) SetOnChange(fn func(event string, name string)) {
	r.mu.Lock()
	r.onChange = fn
	r.mu.Unlock()
}

// Watch reloads lexicon files as they change in the loaded directory.
func (r *Registry) Watch() error {
	dir := r.directory()
	if dir == "" {
		return fmt.Errorf("no directory configured for watching")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watching directory %s: %w", dir, err)
	}
	r.watcher = watcher
	r.stopChan = make(chan struct{})
	go r.watchLoop(watcher, r.stopChan)
	return nil
}

func (r *Registry) watchLoop(w *fsnotify.Watcher, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if !isYAML(event.Name) {
				continue
			}
			switch {
			case event.Op&fsnotify.Create == fsnotify.Create:
				r.handleFileChange(event.Name, "create")
			case event.Op&fsnotify.Write == fsnotify.Write:
				r.handleFileChange(event.Name, "modify")
			case event.Op&fsnotify.Remove == fsnotify.Remove,
				event.Op&fsnotify.Rename == fsnotify.Rename:
				r.handleFileRemove(event.Name)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			r.logger.Warn("lexicon watcher error", logging.Err(err))
		}
	}
}

func (r *Registry) handleFileChange(path, event string) {
	if err := r.LoadFile(path); err != nil {
		r.logger.Warn("lexicon reload failed", logging.String("path", path), logging.Err(err))
		return
	}
	r.mu.RLock()
	name, fn := r.files[path], r.onChange
	r.mu.RUnlock()
	if fn != nil {
		fn(event, name)
	}
}

func (r *Registry) handleFileRemove(path string) {
	r.mu.Lock()
	name, known := r.files[path]
	delete(r.files, path)
	if known {
		delete(r.patterns, name)
		for _, l := range Builtins() {
			if l.Name == name {
				r.patterns[name] = MustCompile(l)
			}
		}
	}
	fn := r.onChange
	r.mu.Unlock()

	if known {
		r.logger.Info("lexicon removed", logging.String("name", name))
		if fn != nil {
			fn("remove", name)
		}
	}
}

// StopWatch stops the directory watcher if one is running.
func (r *Registry) StopWatch() {
	if r.stopChan != nil {
		close(r.stopChan)
		r.stopChan = nil
	}
	if r.watcher != nil {
		r.watcher.Close()
		r.watcher = nil
	}
}

func isYAML(name string) bool {
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}
