// Package lexicon holds the marker vocabulary used to recognise statute
// structure (articles, clauses, points, chapters, the explanatory-note
// section) and compiles it into the regular expressions shared by every stage
// of the pipeline.
package lexicon

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a lexicon name is not registered.
var ErrNotFound = errors.New("lexicon not found")

// Lexicon is the vocabulary of one drafting convention. It is plain data so it
// can be shipped as YAML next to the binary.
type Lexicon struct {
	Name        string `yaml:"name" json:"name"`
	Language    string `yaml:"language" json:"language"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Unit words as they appear at the start of header lines.
	Article      string   `yaml:"article" json:"article"`
	Clause       string   `yaml:"clause" json:"clause"`
	Point        string   `yaml:"point" json:"point"`
	PointAliases []string `yaml:"point_aliases,omitempty" json:"point_aliases,omitempty"`

	// Chapters are grouping headings above article level (skipped in the tree).
	Chapters []string `yaml:"chapters" json:"chapters"`

	// Ordinals are spelled-out chapter numbers ("Part Three", "Bagian Kesatu").
	// Chapter headings otherwise need a numeral or an uppercase word.
	Ordinals []string `yaml:"ordinals,omitempty" json:"ordinals,omitempty"`

	// AnnotationMarkers are whole lines that open the explanatory-note
	// section, compared case-insensitively. AnnotationPrefixes match the start
	// of such a line case-sensitively, as written.
	AnnotationMarkers  []string `yaml:"annotation_markers" json:"annotation_markers"`
	AnnotationPrefixes []string `yaml:"annotation_prefixes,omitempty" json:"annotation_prefixes,omitempty"`

	// ExplanationPrefix optionally precedes note headers ("Explanation for Clause (1)").
	ExplanationPrefix string `yaml:"explanation_prefix" json:"explanation_prefix"`

	// Sentinels mean "sufficiently clear, no explanation needed".
	Sentinels []string `yaml:"sentinels" json:"sentinels"`

	// IntroKeywords open preamble blocks ("Considering:", "Whereas:").
	IntroKeywords []string `yaml:"intro_keywords" json:"intro_keywords"`

	// SectionMarkers become level-2 headings in the layout formatter.
	SectionMarkers []string `yaml:"section_markers" json:"section_markers"`

	Callout Callout          `yaml:"callout" json:"callout"`
	Repair  RepairVocabulary `yaml:"repair" json:"repair"`
}

// Callout describes the header token that wraps a merged explanation.
type Callout struct {
	Icon  string `yaml:"icon" json:"icon"`
	Label string `yaml:"label" json:"label"`
}

// RepairVocabulary calibrates the word-repair heuristics for a language.
type RepairVocabulary struct {
	Prefixes  []string `yaml:"prefixes" json:"prefixes"`
	Suffixes  []string `yaml:"suffixes" json:"suffixes"`
	Stopwords []string `yaml:"stopwords" json:"stopwords"`
}

// Validate checks that the lexicon carries every word the parser needs.
func (l *Lexicon) Validate() error {
	if l == nil {
		return fmt.Errorf("lexicon is nil")
	}
	var missing []string
	if strings.TrimSpace(l.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(l.Article) == "" {
		missing = append(missing, "article")
	}
	if strings.TrimSpace(l.Clause) == "" {
		missing = append(missing, "clause")
	}
	if strings.TrimSpace(l.Point) == "" {
		missing = append(missing, "point")
	}
	if len(l.AnnotationMarkers) == 0 && len(l.AnnotationPrefixes) == 0 {
		missing = append(missing, "annotation_markers")
	}
	if strings.TrimSpace(l.Callout.Label) == "" {
		missing = append(missing, "callout.label")
	}
	if len(missing) > 0 {
		return fmt.Errorf("lexicon %q: missing %s", l.Name, strings.Join(missing, ", "))
	}
	return nil
}

// Clone returns a deep copy so callers can tweak a built-in safely.
func (l *Lexicon) Clone() *Lexicon {
	if l == nil {
		return nil
	}
	c := *l
	c.PointAliases = append([]string(nil), l.PointAliases...)
	c.Chapters = append([]string(nil), l.Chapters...)
	c.Ordinals = append([]string(nil), l.Ordinals...)
	c.AnnotationMarkers = append([]string(nil), l.AnnotationMarkers...)
	c.AnnotationPrefixes = append([]string(nil), l.AnnotationPrefixes...)
	c.Sentinels = append([]string(nil), l.Sentinels...)
	c.IntroKeywords = append([]string(nil), l.IntroKeywords...)
	c.SectionMarkers = append([]string(nil), l.SectionMarkers...)
	c.Repair.Prefixes = append([]string(nil), l.Repair.Prefixes...)
	c.Repair.Suffixes = append([]string(nil), l.Repair.Suffixes...)
	c.Repair.Stopwords = append([]string(nil), l.Repair.Stopwords...)
	return &c
}

// English is the built-in vocabulary for English-language statutes.
func English() *Lexicon {
	return &Lexicon{
		Name:              "en",
		Language:          "English",
		Description:       "Article / Clause / Point statutes with an Explanatory Notes annex",
		Article:           "Article",
		Clause:            "Clause",
		Point:             "Point",
		PointAliases:      []string{"Letter", "Item"},
		Chapters:          []string{"Chapter", "Part", "Title"},
		Ordinals: []string{
			"One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine", "Ten",
			"First", "Second", "Third", "Fourth", "Fifth", "Sixth", "Seventh", "Eighth", "Ninth", "Tenth",
		},
		AnnotationMarkers: []string{"Explanatory Notes", "Explanatory Note", "Elucidation"},
		AnnotationPrefixes: []string{
			"Explanatory Notes to",
			"Elucidation of",
		},
		ExplanationPrefix: "Explanation for",
		Sentinels:         []string{"Sufficiently clear", "Self-explanatory"},
		IntroKeywords:     []string{"Considering", "Whereas", "Observing", "In view of", "Having regard to", "Decides", "Enacts"},
		SectionMarkers:    []string{"Chapter", "Article", "Clause", "Part"},
		Callout:           Callout{Icon: "💡", Label: "Explanation"},
		Repair: RepairVocabulary{
			Prefixes:  []string{"un", "re", "pre", "dis", "non", "sub", "mis", "anti", "inter", "over", "under"},
			Suffixes:  []string{"tion", "sion", "ment", "ness", "able", "ible", "ing", "ed", "ly", "ous", "ity", "ance", "ence"},
			Stopwords: []string{"a", "an", "the", "is", "are", "was", "be", "of", "to", "in", "on", "by", "or", "and", "for", "as", "at", "it", "its", "no", "not", "if", "any", "all", "may", "has"},
		},
	}
}

// Indonesian is the built-in vocabulary for Indonesian statutes
// (Pasal / Ayat / Huruf with a Penjelasan annex).
func Indonesian() *Lexicon {
	return &Lexicon{
		Name:               "id",
		Language:           "Bahasa Indonesia",
		Description:        "Pasal / Ayat / Huruf dengan bagian Penjelasan",
		Article:            "Pasal",
		Clause:             "Ayat",
		Point:              "Huruf",
		PointAliases:       []string{"Angka"},
		Chapters:           []string{"BAB", "Bagian", "Paragraf"},
		Ordinals: []string{
			"Kesatu", "Pertama", "Kedua", "Ketiga", "Keempat", "Kelima",
			"Keenam", "Ketujuh", "Kedelapan", "Kesembilan", "Kesepuluh",
		},
		AnnotationMarkers:  []string{"Penjelasan", "Penjelasan Pasal Demi Pasal"},
		AnnotationPrefixes: []string{"PENJELASAN ATAS"},
		ExplanationPrefix:  "Penjelasan",
		Sentinels:          []string{"Cukup jelas"},
		IntroKeywords:      []string{"Menimbang", "Mengingat", "Memperhatikan", "Menetapkan", "Memutuskan"},
		SectionMarkers:     []string{"BAB", "Pasal", "Ayat", "Bagian", "Paragraf"},
		Callout:            Callout{Icon: "💡", Label: "Penjelasan"},
		Repair: RepairVocabulary{
			Prefixes:  []string{"ber", "me", "mem", "men", "meng", "meny", "pe", "pem", "pen", "peng", "per", "di", "ke", "se", "ter"},
			Suffixes:  []string{"kan", "an", "nya", "lah", "kah", "wan", "isasi"},
			Stopwords: []string{"dan", "atau", "yang", "dari", "pada", "oleh", "ini", "itu", "dengan", "untuk", "tidak"},
		},
	}
}

// Builtins returns fresh copies of every built-in lexicon.
func Builtins() []*Lexicon {
	return []*Lexicon{English(), Indonesian()}
}
