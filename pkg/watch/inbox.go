// Package watch monitors an inbox directory for statute documents and hands
// each new or changed file to registered callbacks.
package watch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/coolbeans/pasal/pkg/logging"
)

// DefaultDebounce is how long a file must stay quiet before it is picked up.
const DefaultDebounce = 500 * time.Millisecond

// DefaultExtensions are the file types picked up when no filter is set.
var DefaultExtensions = []string{".txt", ".pdf", ".docx"}

// FilterConfig narrows which files are reported.
type FilterConfig struct {
	// Extensions lists accepted file extensions, lowercase with the dot.
	Extensions []string `yaml:"extensions" json:"extensions"`

	// NamePattern is a regular expression the base name must match.
	NamePattern string `yaml:"name_pattern" json:"name_pattern"`
}

// InboxConfig configures an InboxMonitor.
type InboxConfig struct {
	Dir      string        `yaml:"dir" json:"dir"`
	Debounce time.Duration `yaml:"debounce" json:"debounce"`
	Filters  *FilterConfig `yaml:"filters" json:"filters"`
}

// DocumentRef is a file found in the inbox.
type DocumentRef struct {
	Path       string    `json:"path"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
	// Hash is the hex SHA-256 of the content; identical content is reported
	// once.
	Hash string `json:"hash"`
	Data []byte `json:"-"`
}

// StatusInfo summarises the monitor.
type StatusInfo struct {
	Dir            string    `json:"dir"`
	Running        bool      `json:"running"`
	LastEvent      time.Time `json:"last_event"`
	DocumentsFound int       `json:"documents_found"`
	Errors         []string  `json:"errors,omitempty"`
}

// maxErrors bounds the error history kept in StatusInfo.
const maxErrors = 10

// InboxMonitor watches one directory.
type InboxMonitor struct {
	config      InboxConfig
	namePattern *regexp.Regexp
	extensions  map[string]bool
	logger      logging.Logger

	seen   map[string]string // path -> content hash
	seenMu sync.Mutex

	status   StatusInfo
	statusMu sync.RWMutex

	callbacks  []func(DocumentRef) error
	callbackMu sync.RWMutex

	watcher   *fsnotify.Watcher
	pending   map[string]*time.Timer
	pendingMu sync.Mutex
	stopChan  chan struct{}
	done      chan struct{}
	running   bool
	runningMu sync.Mutex
}

// NewInboxMonitor validates config and returns a monitor that is not yet
// running.
func NewInboxMonitor(config InboxConfig, logger logging.Logger) (*InboxMonitor, error) {
	if config.Dir == "" {
		return nil, fmt.Errorf("inbox directory is required")
	}
	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounce
	}
	m := &InboxMonitor{
		config:     config,
		extensions: make(map[string]bool),
		logger:     logging.OrNop(logger).Named("watch"),
		seen:       make(map[string]string),
		pending:    make(map[string]*time.Timer),
		status:     StatusInfo{Dir: config.Dir},
	}

	exts := DefaultExtensions
	if config.Filters != nil {
		if len(config.Filters.Extensions) > 0 {
			exts = config.Filters.Extensions
		}
		if config.Filters.NamePattern != "" {
			re, err := regexp.Compile(config.Filters.NamePattern)
			if err != nil {
				return nil, fmt.Errorf("invalid name pattern: %w", err)
			}
			m.namePattern = re
		}
	}
	for _, e := range exts {
		m.extensions[strings.ToLower(e)] = true
	}
	return m, nil
}

// OnNewDocument registers a callback for new or changed files. Callback
// errors are recorded in the status and do not stop the monitor.
func (m *InboxMonitor) OnNewDocument(callback func(DocumentRef) error) {
	m.callbackMu.Lock()
	defer m.callbackMu.Unlock()
	m.callbacks = append(m.callbacks, callback)
}

// CheckNow scans the directory once and reports files not seen before, in
// name order.
func (m *InboxMonitor) CheckNow() ([]DocumentRef, error) {
	entries, err := os.ReadDir(m.config.Dir)
	if err != nil {
		return nil, fmt.Errorf("reading inbox: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var docs []DocumentRef
	for _, name := range names {
		doc, ok, err := m.inspect(filepath.Join(m.config.Dir, name))
		if err != nil {
			m.recordError(err.Error())
			continue
		}
		if ok {
			docs = append(docs, doc)
			m.notifyCallbacks(doc)
		}
	}
	return docs, nil
}

// Start reports the files already present, then watches for changes until
// ctx is done or Stop is called.
func (m *InboxMonitor) Start(ctx context.Context) error {
	m.runningMu.Lock()
	defer m.runningMu.Unlock()
	if m.running {
		return fmt.Errorf("monitor is already running")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	if err := watcher.Add(m.config.Dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watching %s: %w", m.config.Dir, err)
	}

	m.watcher = watcher
	m.stopChan = make(chan struct{})
	m.done = make(chan struct{})
	m.running = true
	m.setRunning(true)

	if _, err := m.CheckNow(); err != nil {
		m.recordError(err.Error())
	}

	go m.watchLoop(ctx)
	m.logger.Info("watching inbox", logging.String("dir", m.config.Dir))
	return nil
}

// Stop halts the watch loop and waits for it to exit.
func (m *InboxMonitor) Stop() error {
	m.runningMu.Lock()
	defer m.runningMu.Unlock()
	if !m.running {
		return fmt.Errorf("monitor is not running")
	}
	close(m.stopChan)
	<-m.done
	m.running = false
	return nil
}

// Wait blocks until the watch loop exits.
func (m *InboxMonitor) Wait() {
	m.runningMu.Lock()
	done := m.done
	m.runningMu.Unlock()
	if done != nil {
		<-done
	}
}

// Status returns a snapshot of the monitor state.
func (m *InboxMonitor) Status() StatusInfo {
	m.statusMu.RLock()
	defer m.statusMu.RUnlock()
	s := m.status
	s.Errors = append([]string(nil), m.status.Errors...)
	return s
}

func (m *InboxMonitor) watchLoop(ctx context.Context) {
	defer close(m.done)
	defer m.watcher.Close()
	defer m.setRunning(false)
	defer m.cancelPending()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopChan:
			return
		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
				m.schedule(event.Name)
			}
			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				m.forget(event.Name)
			}
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			m.recordError(err.Error())
		}
	}
}

// schedule debounces bursts of writes to one file.
func (m *InboxMonitor) schedule(path string) {
	m.pendingMu.Lock()
	defer m.pendingMu.Unlock()
	if t, ok := m.pending[path]; ok {
		t.Reset(m.config.Debounce)
		return
	}
	m.pending[path] = time.AfterFunc(m.config.Debounce, func() {
		m.pendingMu.Lock()
		delete(m.pending, path)
		m.pendingMu.Unlock()

		doc, ok, err := m.inspect(path)
		if err != nil {
			m.recordError(err.Error())
			return
		}
		if ok {
			m.notifyCallbacks(doc)
		}
	})
}

func (m *InboxMonitor) cancelPending() {
	m.pendingMu.Lock()
	defer m.pendingMu.Unlock()
	for path, t := range m.pending {
		t.Stop()
		delete(m.pending, path)
	}
}

// inspect reads path and reports whether it is an accepted file with content
// not reported before.
func (m *InboxMonitor) inspect(path string) (DocumentRef, bool, error) {
	name := filepath.Base(path)
	if !m.matchesFilters(name) {
		return DocumentRef{}, false, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DocumentRef{}, false, nil
		}
		return DocumentRef{}, false, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return DocumentRef{}, false, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return DocumentRef{}, false, fmt.Errorf("reading %s: %w", path, err)
	}

	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])

	m.seenMu.Lock()
	if m.seen[path] == hash {
		m.seenMu.Unlock()
		return DocumentRef{}, false, nil
	}
	m.seen[path] = hash
	m.seenMu.Unlock()

	return DocumentRef{
		Path:       path,
		Name:       name,
		Size:       info.Size(),
		ModifiedAt: info.ModTime(),
		Hash:       hash,
		Data:       data,
	}, true, nil
}

func (m *InboxMonitor) forget(path string) {
	m.seenMu.Lock()
	delete(m.seen, path)
	m.seenMu.Unlock()
}

func (m *InboxMonitor) matchesFilters(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	if !m.extensions[strings.ToLower(filepath.Ext(name))] {
		return false
	}
	return m.namePattern == nil || m.namePattern.MatchString(name)
}

func (m *InboxMonitor) notifyCallbacks(doc DocumentRef) {
	m.statusMu.Lock()
	m.status.LastEvent = time.Now()
	m.status.DocumentsFound++
	m.statusMu.Unlock()

	m.callbackMu.RLock()
	callbacks := append([]func(DocumentRef) error(nil), m.callbacks...)
	m.callbackMu.RUnlock()

	for _, cb := range callbacks {
		if err := cb(doc); err != nil {
			m.logger.Warn("inbox callback failed", logging.String("path", doc.Path), logging.Err(err))
			m.recordError(fmt.Sprintf("%s: %v", doc.Name, err))
		}
	}
}

func (m *InboxMonitor) setRunning(running bool) {
	m.statusMu.Lock()
	m.status.Running = running
	m.statusMu.Unlock()
}

func (m *InboxMonitor) recordError(msg string) {
	m.statusMu.Lock()
	defer m.statusMu.Unlock()
	m.status.Errors = append(m.status.Errors, msg)
	if len(m.status.Errors) > maxErrors {
		m.status.Errors = m.status.Errors[len(m.status.Errors)-maxErrors:]
	}
}
