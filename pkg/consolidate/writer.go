package consolidate

import (
	"fmt"
	"strings"

	"github.com/coolbeans/pasal/pkg/lexicon"
)

// Labels is the fixed wording of a consolidated document. Added takes the
// last version's name, Removed the earlier one's, Modified both.
type Labels struct {
	Heading     string
	Merged      string
	Version     string
	Deleted     string
	DeletedLast string
	Absent      string
	Notes       string
	Added       string
	Removed     string
	Modified    string
}

// EnglishLabels is the default wording.
func EnglishLabels() Labels {
	return Labels{
		Heading:     "Consolidated text",
		Merged:      "Versions merged",
		Version:     "Version",
		Deleted:     "[-- Deleted --]",
		DeletedLast: "[Deleted in the last version]",
		Absent:      "[empty/deleted]",
		Notes:       "Change notes",
		Added:       "Added (previously empty), source: %s",
		Removed:     "Deleted (previously present in %s)",
		Modified:    "Changed between %s and %s",
	}
}

// IndonesianLabels is the wording for Indonesian statutes.
func IndonesianLabels() Labels {
	return Labels{
		Heading:     "Badan Peraturan Terpadu",
		Merged:      "Versi digabung",
		Version:     "Versi",
		Deleted:     "[-- Dihapus --]",
		DeletedLast: "[Dihapus pada versi terakhir]",
		Absent:      "[kosong/dihapus]",
		Notes:       "Catatan perubahan",
		Added:       "Ditambahkan (sebelum: kosong), sumber: %s",
		Removed:     "Dihapus (sebelumnya ada pada %s)",
		Modified:    "Perubahan antara %s dan %s",
	}
}

// LabelsFor picks the wording for a lexicon's language.
func LabelsFor(lex *lexicon.Lexicon) Labels {
	if lex.Name == "id" || strings.Contains(strings.ToLower(lex.Language), "indonesia") {
		return IndonesianLabels()
	}
	return EnglishLabels()
}

// Writer formats a Consolidation as plain text or Markdown.
type Writer struct {
	Mode        Mode
	Title       string
	ArticleWord string
	Labels      Labels
}

// NewWriter takes the article word and the wording from patterns.
func NewWriter(patterns *lexicon.Patterns, mode Mode, title string) *Writer {
	return &Writer{
		Mode:        mode,
		Title:       title,
		ArticleWord: patterns.UnitWord(lexicon.UnitArticle),
		Labels:      LabelsFor(patterns.Lexicon()),
	}
}

// Text renders the consolidation as plain text.
func (w *Writer) Text(c *Consolidation) string {
	return w.write(c, plainStyle)
}

// Markdown renders the consolidation as Markdown.
func (w *Writer) Markdown(c *Consolidation) string {
	return w.write(c, markdownStyle)
}

type style struct {
	h1, h2       string
	label        func(string) string
	strong, note func(string) string
}

var plainStyle = style{
	label:  func(s string) string { return "(" + s + ")" },
	strong: func(s string) string { return s },
	note:   func(s string) string { return s },
}

var markdownStyle = style{
	h1:     "# ",
	h2:     "## ",
	label:  func(s string) string { return "**(" + s + ")**" },
	strong: func(s string) string { return "**" + s + "**" },
	note:   func(s string) string { return "_" + s + "_" },
}

func (w *Writer) write(c *Consolidation, st style) string {
	var sb strings.Builder
	lb := w.Labels

	heading := lb.Heading
	if w.Title != "" {
		heading += ": " + w.Title
	}
	sb.WriteString(st.h1 + heading + "\n\n")

	titles := make([]string, len(c.Versions))
	for i, v := range c.Versions {
		titles[i] = v.Title()
	}
	sb.WriteString(fmt.Sprintf("%s: %s\n", lb.Merged, strings.Join(titles, ", ")))

	for _, art := range c.Articles {
		sb.WriteString(fmt.Sprintf("\n%s%s %s\n\n", st.h2, w.ArticleWord, art.ID))
		for _, u := range art.Units {
			prefix := ""
			if u.Label != "" {
				prefix = st.label(u.Label) + " "
			}
			sb.WriteString(prefix)
			w.writeUnit(&sb, c, u, st)
			sb.WriteString("\n\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n") + "\n"
}

func (w *Writer) writeUnit(sb *strings.Builder, c *Consolidation, u *Unit, st style) {
	lb := w.Labels
	final, present := u.Final()
	last := c.Versions[len(c.Versions)-1].Name

	switch w.Mode {
	case ModeFinal:
		if present {
			sb.WriteString(final)
		} else {
			sb.WriteString(lb.Deleted)
		}
	case ModeHistory:
		for i, v := range c.Versions {
			text := u.Texts[i]
			if !u.Present[i] || text == "" {
				text = lb.Absent
			}
			sb.WriteString(fmt.Sprintf("\n%s %s", st.strong(lb.Version+" "+v.Title()+":"), text))
		}
	default:
		if present {
			sb.WriteString(final)
		} else {
			sb.WriteString(st.note(lb.DeletedLast))
		}
		if len(u.Changes) == 0 {
			return
		}
		notes := make([]string, 0, len(u.Changes))
		for _, ch := range u.Changes {
			earlier := c.Versions[ch.Version].Name
			switch ch.Type {
			case ChangeAdded:
				notes = append(notes, fmt.Sprintf(lb.Added, last))
			case ChangeRemoved:
				notes = append(notes, fmt.Sprintf(lb.Removed, earlier))
			case ChangeModified:
				notes = append(notes, fmt.Sprintf(lb.Modified, earlier, last))
			}
		}
		sb.WriteString("\n" + st.note(lb.Notes+": "+strings.Join(notes, "; ")))
	}
}
