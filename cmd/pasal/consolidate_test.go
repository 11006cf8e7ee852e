package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coolbeans/pasal/pkg/config"
	"github.com/coolbeans/pasal/pkg/consolidate"
	"github.com/coolbeans/pasal/pkg/pipeline"
)

func writeVersion(t *testing.T, dir, name, text string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func TestLoadVersions(t *testing.T) {
	p, err := pipeline.New(config.Default(), nil)
	require.NoError(t, err)
	dir := t.TempDir()
	paths := []string{
		writeVersion(t, dir, "act_2019.txt", "Article 1\n(1) Old text.\n"),
		writeVersion(t, dir, "act_2024.txt", "Article 1\n(1) New text.\n(2) Added.\n"),
	}

	versions, err := loadVersions(context.Background(), p, paths, []string{"Act 2019"}, []string{"2019-05-01", "2024-02-01"})
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, "Act 2019 (2019-05-01)", versions[0].Title())
	assert.Equal(t, "act_2024 (2024-02-01)", versions[1].Title())

	c, err := consolidate.Consolidate(versions)
	require.NoError(t, err)
	require.Len(t, c.Articles, 1)
	assert.Len(t, c.Articles[0].Units, 2)
}

func TestLoadVersions_EmptyVersionRejected(t *testing.T) {
	p, err := pipeline.New(config.Default(), nil)
	require.NoError(t, err)
	dir := t.TempDir()
	paths := []string{
		writeVersion(t, dir, "a.txt", "Article 1\nText.\n"),
		writeVersion(t, dir, "b.txt", "no structure here\n"),
	}

	_, err = loadVersions(context.Background(), p, paths, nil, nil)
	assert.ErrorContains(t, err, "no articles to consolidate")
}
