package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collector struct {
	mu   sync.Mutex
	docs []DocumentRef
	ch   chan DocumentRef
}

func newCollector() *collector {
	return &collector{ch: make(chan DocumentRef, 16)}
}

func (c *collector) add(doc DocumentRef) error {
	c.mu.Lock()
	c.docs = append(c.docs, doc)
	c.mu.Unlock()
	c.ch <- doc
	return nil
}

func (c *collector) next(t *testing.T) DocumentRef {
	t.Helper()
	select {
	case doc := <-c.ch:
		return doc
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for inbox document")
		return DocumentRef{}
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewInboxMonitor_Validation(t *testing.T) {
	_, err := NewInboxMonitor(InboxConfig{}, nil)
	assert.Error(t, err)

	_, err = NewInboxMonitor(InboxConfig{Dir: t.TempDir(), Filters: &FilterConfig{NamePattern: "("}}, nil)
	assert.ErrorContains(t, err, "invalid name pattern")
}

func TestCheckNow_FiltersAndDedups(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b_law.txt", "Article 1")
	writeFile(t, dir, "a_law.docx", "PK")
	writeFile(t, dir, "notes.md", "ignored")
	writeFile(t, dir, ".hidden.txt", "ignored")

	m, err := NewInboxMonitor(InboxConfig{Dir: dir}, nil)
	require.NoError(t, err)

	docs, err := m.CheckNow()
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a_law.docx", docs[0].Name)
	assert.Equal(t, "b_law.txt", docs[1].Name)
	assert.Equal(t, []byte("Article 1"), docs[1].Data)
	assert.Len(t, docs[1].Hash, 64)

	docs, err = m.CheckNow()
	require.NoError(t, err)
	assert.Empty(t, docs)

	writeFile(t, dir, "b_law.txt", "Article 1\nchanged")
	docs, err = m.CheckNow()
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "b_law.txt", docs[0].Name)
	assert.Equal(t, 3, m.Status().DocumentsFound)
}

func TestCheckNow_NamePattern(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "uu_14_2008.txt", "Pasal 1")
	writeFile(t, dir, "draft.txt", "Pasal 1")

	m, err := NewInboxMonitor(InboxConfig{Dir: dir, Filters: &FilterConfig{NamePattern: `^uu_`}}, nil)
	require.NoError(t, err)
	docs, err := m.CheckNow()
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "uu_14_2008.txt", docs[0].Name)
}

func TestCheckNow_MissingDir(t *testing.T) {
	m, err := NewInboxMonitor(InboxConfig{Dir: filepath.Join(t.TempDir(), "missing")}, nil)
	require.NoError(t, err)
	_, err = m.CheckNow()
	assert.Error(t, err)
}

func TestStart_ReportsExistingAndNewFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "existing.txt", "Article 1")

	m, err := NewInboxMonitor(InboxConfig{Dir: dir, Debounce: 20 * time.Millisecond}, nil)
	require.NoError(t, err)
	c := newCollector()
	m.OnNewDocument(c.add)

	require.NoError(t, m.Start(context.Background()))
	defer m.Stop()
	assert.Error(t, m.Start(context.Background()))

	assert.Equal(t, "existing.txt", c.next(t).Name)
	assert.True(t, m.Status().Running)

	writeFile(t, dir, "new.txt", "Article 2")
	assert.Equal(t, "new.txt", c.next(t).Name)
}

func TestCallbackErrorsRecorded(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "law.txt", "Article 1")

	m, err := NewInboxMonitor(InboxConfig{Dir: dir}, nil)
	require.NoError(t, err)
	m.OnNewDocument(func(DocumentRef) error { return assert.AnError })

	_, err = m.CheckNow()
	require.NoError(t, err)
	require.Len(t, m.Status().Errors, 1)
	assert.Contains(t, m.Status().Errors[0], "law.txt")
}

func TestStop_NotRunning(t *testing.T) {
	m, err := NewInboxMonitor(InboxConfig{Dir: t.TempDir()}, nil)
	require.NoError(t, err)
	assert.Error(t, m.Stop())
}
