// Package consolidate lines up several parsed versions of one statute
// article by article and clause by clause, and writes the consolidated body
// as the final text, the final text with change notes, or the full history.
package consolidate

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/coolbeans/pasal/pkg/structure"
)

// ErrNoVersions is returned when there is nothing to consolidate.
var ErrNoVersions = errors.New("no versions to consolidate")

// Mode selects how each consolidated unit is written.
type Mode string

const (
	// ModeFinal writes the text of the last version only.
	ModeFinal Mode = "final"
	// ModeAnnotated writes the final text followed by change notes against
	// every earlier version.
	ModeAnnotated Mode = "annotated"
	// ModeHistory writes the text of every version in order.
	ModeHistory Mode = "history"
)

// ParseMode validates a mode name. The empty string means annotated.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeAnnotated, nil
	case ModeFinal, ModeAnnotated, ModeHistory:
		return m, nil
	default:
		return "", fmt.Errorf("unknown consolidation mode %q (want final, annotated or history)", s)
	}
}

// ChangeType is the kind of difference between an earlier version and the
// last one.
type ChangeType int

const (
	// ChangeAdded means the unit is absent from the earlier version.
	ChangeAdded ChangeType = iota
	// ChangeRemoved means the unit is absent from the last version.
	ChangeRemoved
	// ChangeModified means the texts differ beyond the similarity threshold.
	ChangeModified
)

func (c ChangeType) String() string {
	switch c {
	case ChangeAdded:
		return "added"
	case ChangeRemoved:
		return "removed"
	case ChangeModified:
		return "modified"
	default:
		return "unknown"
	}
}

// MarshalJSON implements json.Marshaler for ChangeType.
func (c ChangeType) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// ModifiedBelow is the similarity (0-100) under which two present texts
// count as modified.
const ModifiedBelow = 95

// Version is one parsed edition of the statute, oldest first.
type Version struct {
	Name     string              `json:"name"`
	Date     string              `json:"date,omitempty"`
	Document *structure.Document `json:"-"`
}

// Title is "name (date)", or just the name.
func (v Version) Title() string {
	if v.Date == "" {
		return v.Name
	}
	return v.Name + " (" + v.Date + ")"
}

// Change notes how one earlier version differs from the last.
type Change struct {
	Type       ChangeType `json:"type"`
	Version    int        `json:"version"`
	Similarity int        `json:"similarity,omitempty"`
}

// Unit is one clause (or the clause-less text of an article) across
// versions. Texts has one entry per version; absent units are "" and
// Present is false.
type Unit struct {
	Label   string   `json:"label,omitempty"`
	Texts   []string `json:"texts"`
	Present []bool   `json:"present"`
	Changes []Change `json:"changes,omitempty"`
}

// Final returns the last version's text and whether the unit exists there.
func (u *Unit) Final() (string, bool) {
	last := len(u.Texts) - 1
	return u.Texts[last], u.Present[last]
}

// Article groups the units of one article id.
type Article struct {
	ID    string  `json:"id"`
	Units []*Unit `json:"units"`
}

// Consolidation is the aligned view of all versions.
type Consolidation struct {
	Versions []Version  `json:"versions"`
	Articles []*Article `json:"articles"`
}

// Consolidate aligns versions, given oldest first. Articles are ordered by
// the number in their id; units inside an article by first appearance
// across versions.
func Consolidate(versions []Version) (*Consolidation, error) {
	if len(versions) == 0 {
		return nil, ErrNoVersions
	}
	for i, v := range versions {
		if v.Document == nil {
			return nil, fmt.Errorf("version %d (%s) has no parsed document", i+1, v.Name)
		}
	}

	byID := map[string]*Article{}
	units := map[string]map[string]*Unit{}
	var order []string

	for vi, v := range versions {
		for _, a := range v.Document.Articles {
			art, ok := byID[a.ID]
			if !ok {
				art = &Article{ID: a.ID}
				byID[a.ID] = art
				units[a.ID] = map[string]*Unit{}
				order = append(order, a.ID)
			}
			for _, p := range paragraphs(a) {
				u, ok := units[a.ID][p.label]
				if !ok {
					u = &Unit{
						Label:   p.label,
						Texts:   make([]string, len(versions)),
						Present: make([]bool, len(versions)),
					}
					units[a.ID][p.label] = u
					art.Units = append(art.Units, u)
				}
				// First occurrence wins when a version repeats a label.
				if !u.Present[vi] {
					u.Texts[vi] = p.text
					u.Present[vi] = true
				}
			}
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return articleNumber(order[i]) < articleNumber(order[j])
	})

	c := &Consolidation{Versions: versions}
	for _, id := range order {
		art := byID[id]
		for _, u := range art.Units {
			u.Changes = compare(u)
		}
		c.Articles = append(c.Articles, art)
	}
	return c, nil
}

type paragraph struct {
	label, text string
}

// paragraphs flattens an article into its own text and its clauses. Points
// are folded into their clause's text.
func paragraphs(a *structure.Article) []paragraph {
	var out []paragraph
	if text := a.Text(); text != "" || len(a.Clauses) == 0 {
		out = append(out, paragraph{text: text})
	}
	for _, c := range a.Clauses {
		parts := []string{c.Text()}
		for _, p := range c.Points {
			parts = append(parts, p.Label+". "+p.Content)
		}
		out = append(out, paragraph{label: c.ID, text: strings.TrimSpace(strings.Join(parts, " "))})
	}
	return out
}

// compare checks each earlier version against the last.
func compare(u *Unit) []Change {
	final, present := u.Final()
	var changes []Change
	for vi := 0; vi < len(u.Texts)-1; vi++ {
		switch {
		case !u.Present[vi] && present:
			changes = append(changes, Change{Type: ChangeAdded, Version: vi})
		case u.Present[vi] && !present:
			changes = append(changes, Change{Type: ChangeRemoved, Version: vi})
		case u.Present[vi] && present:
			if sim := Similarity(u.Texts[vi], final); sim < ModifiedBelow {
				changes = append(changes, Change{Type: ChangeModified, Version: vi, Similarity: sim})
			}
		}
	}
	return changes
}

// articleNumber is the digits of an article id as a number. Ids without
// digits sort first.
func articleNumber(id string) int {
	var digits strings.Builder
	for _, r := range id {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	n, err := strconv.Atoi(digits.String())
	if err != nil {
		return 0
	}
	return n
}

// Similarity is the word-set Jaccard similarity of two texts as a
// percentage, after lowercasing and collapsing whitespace.
func Similarity(a, b string) int {
	a, b = normalize(a), normalize(b)
	if a == b {
		return 100
	}
	set1 := map[string]bool{}
	for _, w := range strings.Fields(a) {
		set1[w] = true
	}
	set2 := map[string]bool{}
	for _, w := range strings.Fields(b) {
		set2[w] = true
	}
	intersection := 0
	for w := range set1 {
		if set2[w] {
			intersection++
		}
	}
	union := len(set1) + len(set2) - intersection
	if union == 0 {
		return 100
	}
	return intersection * 100 / union
}

func normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// ToJSON returns the consolidation as indented JSON.
func (c *Consolidation) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}
