package lexicon

import (
	"fmt"
	"regexp"
	"strings"
)

// Unit identifies the structural level a header or callout refers to.
type Unit int

const (
	UnitNone Unit = iota
	UnitArticle
	UnitClause
	UnitPoint
)

// String returns the lowercase unit name.
func (u Unit) String() string {
	switch u {
	case UnitArticle:
		return "article"
	case UnitClause:
		return "clause"
	case UnitPoint:
		return "point"
	default:
		return "none"
	}
}

const (
	articleID  = `(\d+[A-Za-z]?)`
	clauseID   = `(\d+[a-z]?)`
	pointLabel = `([a-z]|\d{1,2})`
	noteTail   = `\s*(?::\s*(.*))?$`
)

// Patterns is a compiled Lexicon. It is immutable and safe for concurrent use.
type Patterns struct {
	lex *Lexicon

	// Main body.
	Article *regexp.Regexp // 1: article id
	Clause  *regexp.Regexp // 1: clause id, 2: remainder
	Point   *regexp.Regexp // 1: point label, 2: remainder
	Chapter *regexp.Regexp

	// Annotation section headers.
	NoteArticle *regexp.Regexp // 1: article id, 2: inline text
	NoteClause  *regexp.Regexp // 1: clause id, 2: point label, 3: inline text
	NotePoint   *regexp.Regexp // 1: point label, 2: inline text

	// Layout.
	Intro   *regexp.Regexp // 1: keyword, 2: remainder
	Section *regexp.Regexp
	Callout *regexp.Regexp // 1: unit word, 2: target, 3: inline text

	markers   map[string]bool
	prefixes  []string
	sentinels map[string]bool
}

// Compile builds the regular expressions for l.
func Compile(l *Lexicon) (*Patterns, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}

	pointWords := alt(append([]string{l.Point}, l.PointAliases...)...)
	prefix := ""
	if strings.TrimSpace(l.ExplanationPrefix) != "" {
		prefix = `(?:(?i:` + alt(l.ExplanationPrefix) + `)\s+)?`
	}
	clauseLead := `(?i:` + alt(l.Clause) + `)\s+`
	if prefix != "" {
		clauseLead = `(?:(?i:` + alt(l.ExplanationPrefix) + `)\s+(?:(?i:` + alt(l.Clause) + `)\s+)?|(?i:` + alt(l.Clause) + `)\s+)`
	}
	calloutIcon := `\s*`
	if l.Callout.Icon != "" {
		calloutIcon = regexp.QuoteMeta(l.Callout.Icon) + `\s*`
	}
	chapters := l.Chapters
	if len(chapters) == 0 {
		chapters = []string{"Chapter"}
	}
	chapterNumber := `[IVXLCDM]+|\d+[A-Za-z]?|[A-Z]|\p{Lu}{2,}`
	if len(l.Ordinals) > 0 {
		chapterNumber += `|(?i:` + alt(l.Ordinals...) + `)`
	}
	sections := l.SectionMarkers
	if len(sections) == 0 {
		sections = []string{l.Article}
	}

	type compileTarget struct {
		dst  **regexp.Regexp
		expr string
	}
	p := &Patterns{lex: l.Clone()}
	exprs := []compileTarget{
		{&p.Article, `^\s*(?i:` + alt(l.Article) + `)\s+` + articleID + `\s*$`},
		{&p.Clause, `^\s*\(` + clauseID + `\)\s*(.*)$`},
		{&p.Point, `^(?: {4}|\t)` + pointLabel + `\.\s*(.*)$`},
		{&p.Chapter, `^\s*(?i:` + alt(chapters...) + `)\s+(?:` + chapterNumber + `)(?:\s*[-–:.]?\s+\p{Lu}[\p{Lu}\p{N}\s,'-]*)?\s*$`},
		{&p.NoteArticle, `^\s*` + prefix + `(?i:` + alt(l.Article) + `)\s+` + articleID + noteTail},
		{&p.NoteClause, `^\s*` + clauseLead + `\(` + clauseID + `\)(?:\s*(?:(?i:` + pointWords + `)\s+)?` + pointLabel + `\b)?` + noteTail},
		{&p.NotePoint, `^\s*` + prefix + `(?i:` + pointWords + `)\s+` + pointLabel + noteTail},
		{&p.Section, `^\s*(?i:` + alt(sections...) + `)\s+(?:\(?[0-9IVXLCDMivxlcdm]+[A-Za-z]?\)?|\p{Lu}\p{Ll}+)\s*$`},
		{&p.Callout, `^\s*` + calloutIcon + `\[(?i:` + alt(l.Callout.Label) + `)\s+((?i:` + alt(append([]string{l.Article, l.Clause}, append([]string{l.Point}, l.PointAliases...)...)...) + `))\s+([^\]]+)\]:?\s*(.*)$`},
	}
	if len(l.IntroKeywords) > 0 {
		exprs = append(exprs, compileTarget{&p.Intro, `^\s*((?i:` + alt(l.IntroKeywords...) + `))\s*:\s*(.*)$`})
	}

	for _, e := range exprs {
		re, err := regexp.Compile(e.expr)
		if err != nil {
			return nil, fmt.Errorf("lexicon %q: compiling %q: %w", l.Name, e.expr, err)
		}
		*e.dst = re
	}

	p.markers = make(map[string]bool, len(l.AnnotationMarkers))
	for _, m := range l.AnnotationMarkers {
		p.markers[fold(m)] = true
	}
	for _, pre := range l.AnnotationPrefixes {
		p.prefixes = append(p.prefixes, squeeze(pre))
	}
	p.sentinels = make(map[string]bool, len(l.Sentinels))
	for _, s := range l.Sentinels {
		p.sentinels[foldSentinel(s)] = true
	}
	return p, nil
}

// MustCompile is like Compile but panics on error. Intended for built-ins.
func MustCompile(l *Lexicon) *Patterns {
	p, err := Compile(l)
	if err != nil {
		panic(err)
	}
	return p
}

// Lexicon returns a copy of the source vocabulary.
func (p *Patterns) Lexicon() *Lexicon { return p.lex.Clone() }

// Name returns the lexicon name.
func (p *Patterns) Name() string { return p.lex.Name }

// IsAnnotationBoundary reports whether line opens the explanatory-note
// section: a whole-line marker in any case, or a title starting with one of
// the prefixes exactly as written. A prefixed line ending like a sentence is
// body prose.
func (p *Patterns) IsAnnotationBoundary(line string) bool {
	f := fold(line)
	if f == "" {
		return false
	}
	if p.markers[f] {
		return true
	}
	s := squeeze(line)
	if strings.ContainsAny(s[len(s)-1:], ".,;") {
		return false
	}
	for _, pre := range p.prefixes {
		if strings.HasPrefix(s, pre) {
			return true
		}
	}
	return false
}

// IsSentinel reports whether text is exactly a "sufficiently clear" phrase.
func (p *Patterns) IsSentinel(text string) bool {
	return p.sentinels[foldSentinel(text)]
}

// UnitWord returns the display word of a unit ("Article", "Pasal", ...).
func (p *Patterns) UnitWord(u Unit) string {
	switch u {
	case UnitArticle:
		return p.lex.Article
	case UnitClause:
		return p.lex.Clause
	case UnitPoint:
		return p.lex.Point
	default:
		return ""
	}
}

// UnitOf maps a header word back to its unit.
func (p *Patterns) UnitOf(word string) Unit {
	w := fold(word)
	switch {
	case w == fold(p.lex.Article):
		return UnitArticle
	case w == fold(p.lex.Clause):
		return UnitClause
	case w == fold(p.lex.Point):
		return UnitPoint
	}
	for _, a := range p.lex.PointAliases {
		if w == fold(a) {
			return UnitPoint
		}
	}
	return UnitNone
}

// CalloutLabel returns the bracketed label used in callout headers.
func (p *Patterns) CalloutLabel() string { return p.lex.Callout.Label }

// CalloutIcon returns the icon prefixed to callout headers.
func (p *Patterns) CalloutIcon() string { return p.lex.Callout.Icon }

// CalloutHeader formats the header line of a merged explanation. Clause
// targets are parenthesised: "💡 [Explanation Clause (2)]:".
func (p *Patterns) CalloutHeader(u Unit, target string) string {
	if u == UnitClause {
		target = "(" + target + ")"
	}
	head := "[" + p.lex.Callout.Label + " " + p.UnitWord(u) + " " + target + "]:"
	if p.lex.Callout.Icon == "" {
		return head
	}
	return p.lex.Callout.Icon + " " + head
}

// MatchCallout parses a callout header line. The returned target has clause
// parentheses stripped.
func (p *Patterns) MatchCallout(line string) (u Unit, target, rest string, ok bool) {
	m := p.Callout.FindStringSubmatch(line)
	if m == nil {
		return UnitNone, "", "", false
	}
	u = p.UnitOf(m[1])
	if u == UnitNone {
		return UnitNone, "", "", false
	}
	target = strings.TrimSpace(m[2])
	target = strings.TrimSuffix(strings.TrimPrefix(target, "("), ")")
	return u, target, strings.TrimSpace(m[3]), true
}

// RepairVocabulary returns the word-repair calibration lists.
func (p *Patterns) RepairVocabulary() RepairVocabulary {
	return p.lex.Clone().Repair
}

func alt(words ...string) string {
	parts := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		fields := strings.Fields(w)
		for i, f := range fields {
			fields[i] = regexp.QuoteMeta(f)
		}
		parts = append(parts, strings.Join(fields, `\s+`))
	}
	return strings.Join(parts, "|")
}

func fold(s string) string {
	return strings.ToLower(squeeze(s))
}

// squeeze trims s and collapses inner whitespace runs to one space.
func squeeze(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func foldSentinel(s string) string {
	return strings.TrimRight(fold(s), ".;: ")
}

// MatchIntro parses an intro line ("Considering: ...").
func (p *Patterns) MatchIntro(line string) (keyword, rest string, ok bool) {
	if p.Intro == nil {
		return "", "", false
	}
	m := p.Intro.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}
	return m[1], strings.TrimSpace(m[2]), true
}
