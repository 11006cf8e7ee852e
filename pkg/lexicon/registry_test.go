package lexicon

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dutchYAML = `name: nl
language: Nederlands
article: Artikel
clause: Lid
point: Onderdeel
chapters: [Hoofdstuk]
annotation_markers: [Memorie van toelichting]
explanation_prefix: Toelichting
sentinels: [Spreekt voor zich]
callout:
  icon: "💡"
  label: Toelichting
`

func TestNewRegistry_Builtins(t *testing.T) {
	r := NewRegistry(nil)
	assert.Equal(t, []string{"en", "id"}, r.List())

	p, err := r.Get("id")
	require.NoError(t, err)
	assert.Equal(t, "Pasal", p.UnitWord(UnitArticle))

	_, err = r.Get("fr")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRegistry_LoadDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nl.yaml"), []byte(dutchYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.txt"), []byte("ignored"), 0o644))

	r := NewRegistry(nil)
	require.NoError(t, r.LoadDirectory(dir))
	assert.Equal(t, []string{"en", "id", "nl"}, r.List())

	p, err := r.Get("nl")
	require.NoError(t, err)
	assert.True(t, p.Article.MatchString("Artikel 3"))
	assert.True(t, p.IsSentinel("Spreekt voor zich."))
}

func TestRegistry_LoadDirectoryMissing(t *testing.T) {
	r := NewRegistry(nil)
	assert.NoError(t, r.LoadDirectory(filepath.Join(t.TempDir(), "absent")))
}

func TestRegistry_LoadFileInvalid(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("name: bad\narticle: Art\n"), 0o644))

	r := NewRegistry(nil)
	err := r.LoadDirectory(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.yaml")

	require.NoError(t, os.WriteFile(bad, []byte("name: [unterminated"), 0o644))
	assert.Error(t, r.LoadFile(bad))
}

func TestRegistry_Reload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nl.yaml")
	require.NoError(t, os.WriteFile(path, []byte(dutchYAML), 0o644))

	r := NewRegistry(nil)
	require.NoError(t, r.LoadDirectory(dir))
	require.NoError(t, os.Remove(path))
	require.NoError(t, r.Reload())
	assert.Equal(t, []string{"en", "id"}, r.List())
}

func TestRegistry_ReloadNeverExposesEmptyRegistry(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nl.yaml"), []byte(dutchYAML), 0o644))
	r := NewRegistry(nil)
	require.NoError(t, r.LoadDirectory(dir))

	stop := make(chan struct{})
	misses := make(chan string, 1)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			for _, name := range []string{"en", "nl"} {
				if _, err := r.Get(name); err != nil {
					select {
					case misses <- name:
					default:
					}
				}
			}
		}
	}()
	for i := 0; i < 50; i++ {
		require.NoError(t, r.Reload())
	}
	close(stop)
	wg.Wait()

	select {
	case name := <-misses:
		t.Fatalf("lexicon %q missing during reload", name)
	default:
	}
}

func TestRegistry_ReloadErrorKeepsPreviousSet(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nl.yaml"), []byte(dutchYAML), 0o644))
	r := NewRegistry(nil)
	require.NoError(t, r.LoadDirectory(dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("name: [unterminated"), 0o644))
	require.Error(t, r.Reload())
	assert.Equal(t, []string{"en", "id", "nl"}, r.List())
}

func TestRegistry_Watch(t *testing.T) {
	dir := t.TempDir()
	r := NewRegistry(nil)
	require.NoError(t, r.LoadDirectory(dir))

	events := make(chan string, 8)
	r.SetOnChange(func(event, name string) { events <- event + ":" + name })

	require.NoError(t, r.Watch())
	defer r.StopWatch()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "nl.yaml"), []byte(dutchYAML), 0o644))

	select {
	case ev := <-events:
		assert.Contains(t, ev, ":nl")
	case <-time.After(3 * time.Second):
		t.Fatal("no change event from watcher")
	}
	_, err := r.Get("nl")
	assert.NoError(t, err)
}

func TestRegistry_WatchWithoutDirectory(t *testing.T) {
	assert.Error(t, NewRegistry(nil).Watch())
}
