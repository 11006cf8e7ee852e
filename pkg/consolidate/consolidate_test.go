package consolidate

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coolbeans/pasal/pkg/lexicon"
	"github.com/coolbeans/pasal/pkg/structure"
)

var (
	idPatterns = lexicon.MustCompile(lexicon.Indonesian())
	enPatterns = lexicon.MustCompile(lexicon.English())
)

func version(t *testing.T, pt *lexicon.Patterns, name, date string, lines ...string) Version {
	t.Helper()
	doc := structure.NewParser(pt).ParseString(strings.Join(lines, "\n"))
	require.False(t, doc.Empty(), "fixture %s parsed no articles", name)
	return Version{Name: name, Date: date, Document: doc}
}

func threeVersions(t *testing.T) []Version {
	return []Version{
		version(t, idPatterns, "UU 14/2008", "2008-04-30",
			"Pasal 1",
			"(1) Setiap Badan Publik wajib menyediakan informasi.",
			"(2) Informasi dikecualikan bersifat ketat.",
			"Pasal 10",
			"Ketentuan lama yang kemudian dihapus.",
		),
		version(t, idPatterns, "Perpu 1/2015", "",
			"Pasal 1",
			"(1) Setiap Badan Publik wajib menyediakan informasi.",
			"(2) Informasi dikecualikan bersifat ketat.",
			"Pasal 2",
			"(1) Pasal baru tentang keberatan.",
		),
		version(t, idPatterns, "UU 2/2020", "2020-01-02",
			"Pasal 2",
			"(1) Pasal baru tentang keberatan.",
			"Pasal 1",
			"(1) Setiap Badan Publik wajib menyediakan informasi publik secara berkala dan cepat.",
			"(2) Informasi dikecualikan bersifat ketat.",
			"(3) Ayat tambahan.",
		),
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": ModeAnnotated, "Final": ModeFinal, " history ": ModeHistory, "annotated": ModeAnnotated} {
		got, err := ParseMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseMode("diff")
	assert.Error(t, err)
}

func TestConsolidate_NoVersions(t *testing.T) {
	_, err := Consolidate(nil)
	assert.ErrorIs(t, err, ErrNoVersions)

	_, err = Consolidate([]Version{{Name: "draft"}})
	assert.Error(t, err)
}

func TestConsolidate_ArticlesSortedNumerically(t *testing.T) {
	c, err := Consolidate(threeVersions(t))
	require.NoError(t, err)

	var ids []string
	for _, a := range c.Articles {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []string{"1", "2", "10"}, ids)
}

func TestConsolidate_UnitsInFirstAppearanceOrder(t *testing.T) {
	c, err := Consolidate(threeVersions(t))
	require.NoError(t, err)

	var labels []string
	for _, u := range c.Articles[0].Units {
		labels = append(labels, u.Label)
	}
	assert.Equal(t, []string{"1", "2", "3"}, labels)

	// Clause-less article keeps its text under the empty label.
	art10 := c.Articles[2]
	require.Len(t, art10.Units, 1)
	assert.Equal(t, "", art10.Units[0].Label)
	assert.Equal(t, []bool{true, false, false}, art10.Units[0].Present)
}

func TestConsolidate_Changes(t *testing.T) {
	c, err := Consolidate(threeVersions(t))
	require.NoError(t, err)
	art1 := c.Articles[0]

	// (1) reworded: modified against both earlier versions.
	require.Len(t, art1.Units[0].Changes, 2)
	for i, ch := range art1.Units[0].Changes {
		assert.Equal(t, ChangeModified, ch.Type)
		assert.Equal(t, i, ch.Version)
		assert.Less(t, ch.Similarity, ModifiedBelow)
	}
	// (2) unchanged.
	assert.Empty(t, art1.Units[1].Changes)
	// (3) new in the last version.
	require.Len(t, art1.Units[2].Changes, 2)
	assert.Equal(t, ChangeAdded, art1.Units[2].Changes[0].Type)

	// Article 10 only existed in the first version.
	changes := c.Articles[2].Units[0].Changes
	require.Len(t, changes, 1)
	assert.Equal(t, Change{Type: ChangeRemoved, Version: 0}, changes[0])
}

func TestConsolidate_PointsFoldIntoClause(t *testing.T) {
	v := version(t, enPatterns, "2024", "",
		"Article 1",
		"(1) A body must publish:",
		"    a. its budget;",
		"    b. its reports.",
	)
	c, err := Consolidate([]Version{v})
	require.NoError(t, err)
	assert.Equal(t, "A body must publish: a. its budget; b. its reports.", c.Articles[0].Units[0].Texts[0])
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 100, Similarity("The  Body\nmust publish.", "the body must publish."))
	assert.Equal(t, 100, Similarity("", "  "))
	assert.Equal(t, 0, Similarity("alpha beta", "gamma delta"))
	assert.Equal(t, 50, Similarity("a b c", "a b d"))
}

func TestWriter_Final(t *testing.T) {
	c, err := Consolidate(threeVersions(t))
	require.NoError(t, err)

	out := NewWriter(idPatterns, ModeFinal, "Keterbukaan Informasi Publik").Text(c)
	assert.True(t, strings.HasPrefix(out, "Badan Peraturan Terpadu: Keterbukaan Informasi Publik\n"))
	assert.Contains(t, out, "Versi digabung: UU 14/2008 (2008-04-30), Perpu 1/2015, UU 2/2020 (2020-01-02)")
	assert.Contains(t, out, "Pasal 1\n\n(1) Setiap Badan Publik wajib menyediakan informasi publik secara berkala dan cepat.")
	assert.Contains(t, out, "Pasal 10\n\n[-- Dihapus --]")
	assert.NotContains(t, out, "Catatan perubahan")
	assert.Less(t, strings.Index(out, "Pasal 2\n"), strings.Index(out, "Pasal 10\n"))
}

func TestWriter_Annotated(t *testing.T) {
	c, err := Consolidate(threeVersions(t))
	require.NoError(t, err)

	out := NewWriter(idPatterns, ModeAnnotated, "").Text(c)
	assert.Contains(t, out, "Catatan perubahan: Perubahan antara UU 14/2008 dan UU 2/2020; Perubahan antara Perpu 1/2015 dan UU 2/2020")
	assert.Contains(t, out, "(3) Ayat tambahan.\nCatatan perubahan: Ditambahkan (sebelum: kosong), sumber: UU 2/2020")
	assert.Contains(t, out, "[Dihapus pada versi terakhir]\nCatatan perubahan: Dihapus (sebelumnya ada pada UU 14/2008)")
	assert.Contains(t, out, "(2) Informasi dikecualikan bersifat ketat.\n\n")
}

func TestWriter_History(t *testing.T) {
	c, err := Consolidate(threeVersions(t))
	require.NoError(t, err)

	out := NewWriter(idPatterns, ModeHistory, "").Text(c)
	assert.Contains(t, out, "(1) \nVersi UU 14/2008 (2008-04-30): Setiap Badan Publik wajib menyediakan informasi.")
	assert.Contains(t, out, "\nVersi Perpu 1/2015: [kosong/dihapus]")
}

func TestWriter_MarkdownEnglish(t *testing.T) {
	v1 := version(t, enPatterns, "2019", "", "Article 1", "(1) Old text.")
	v2 := version(t, enPatterns, "2024", "", "Article 1", "(1) New wording entirely.")
	c, err := Consolidate([]Version{v1, v2})
	require.NoError(t, err)

	out := NewWriter(enPatterns, ModeAnnotated, "Access Act").Markdown(c)
	assert.True(t, strings.HasPrefix(out, "# Consolidated text: Access Act\n"))
	assert.Contains(t, out, "## Article 1\n\n**(1)** New wording entirely.\n_Change notes: Changed between 2019 and 2024_")
}

func TestConsolidation_ToJSON(t *testing.T) {
	c, err := Consolidate(threeVersions(t))
	require.NoError(t, err)

	data, err := c.ToJSON()
	require.NoError(t, err)

	var decoded struct {
		Versions []struct {
			Name string `json:"name"`
		} `json:"versions"`
		Articles []struct {
			ID    string `json:"id"`
			Units []struct {
				Changes []struct {
					Type string `json:"type"`
				} `json:"changes"`
			} `json:"units"`
		} `json:"articles"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded.Versions, 3)
	require.Len(t, decoded.Articles, 3)
	assert.Equal(t, "removed", decoded.Articles[2].Units[0].Changes[0].Type)
}
