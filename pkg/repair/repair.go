// Package repair rejoins words that text extraction split with stray spaces,
// such as "ber laku", "P E N J E L A S A N" or "keten tu an".
package repair

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/coolbeans/pasal/pkg/lexicon"
)

// DefaultMinShortPair is the combined length at which two ≤3-letter fragments
// are assumed to be one word.
const DefaultMinShortPair = 5

// Options calibrates the heuristics. Zero values fall back to defaults.
type Options struct {
	Prefixes  []string
	Suffixes  []string
	Stopwords []string

	// MinShortPair is the minimum combined length for merging two fragments
	// of at most three letters each.
	MinShortPair int

	// Passes is how many times the full rule sequence runs.
	Passes int
}

// OptionsFor derives repair options from a compiled lexicon. Unit, chapter
// and section words are protected from merging along with the stopwords, so
// "BAB II" stays a heading.
func OptionsFor(p *lexicon.Patterns) Options {
	v := p.RepairVocabulary()
	lex := p.Lexicon()
	stop := append([]string(nil), v.Stopwords...)
	for _, u := range []lexicon.Unit{lexicon.UnitArticle, lexicon.UnitClause, lexicon.UnitPoint} {
		stop = append(stop, p.UnitWord(u))
	}
	stop = append(stop, lex.PointAliases...)
	stop = append(stop, lex.Chapters...)
	stop = append(stop, lex.SectionMarkers...)
	return Options{
		Prefixes:  v.Prefixes,
		Suffixes:  v.Suffixes,
		Stopwords: stop,
	}
}

// Repairer applies the merge rules. It is immutable after New and safe for
// concurrent use.
type Repairer struct {
	prefixes     map[string]bool
	suffixes     map[string]bool
	stopwords    map[string]bool
	minShortPair int
	passes       int
}

// New builds a Repairer from opts.
func New(opts Options) *Repairer {
	r := &Repairer{
		prefixes:     toSet(opts.Prefixes),
		suffixes:     toSet(opts.Suffixes),
		stopwords:    toSet(opts.Stopwords),
		minShortPair: opts.MinShortPair,
		passes:       opts.Passes,
	}
	if r.minShortPair <= 0 {
		r.minShortPair = DefaultMinShortPair
	}
	if r.passes <= 0 {
		r.passes = 2
	}
	return r
}

// Text repairs every line of text independently.
func (r *Repairer) Text(text string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = r.Line(l)
	}
	return strings.Join(lines, "\n")
}

// Lines repairs a slice of lines in place and returns it.
func (r *Repairer) Lines(lines []string) []string {
	for i, l := range lines {
		lines[i] = r.Line(l)
	}
	return lines
}

// Line repairs one line. Leading indentation and runs of more than one space
// are preserved; only single-space separators are ever removed.
func (r *Repairer) Line(line string) string {
	body := strings.TrimLeft(line, " \t")
	if body == "" {
		return line
	}
	indent := line[:len(line)-len(body)]

	tokens := strings.Split(body, " ")
	if len(tokens) < 2 {
		return line
	}
	for pass := 0; pass < r.passes; pass++ {
		tokens = r.mergePairs(tokens)
		tokens = r.mergeLetterRuns(tokens)
		tokens = r.mergeTriples(tokens)
	}
	return indent + strings.Join(tokens, " ")
}

// mergePairs joins a 2–4 letter fragment with a following 2–5 letter fragment
// when the first is a known prefix, the second a known suffix, or both are
// very short but long enough together to be a word.
func (r *Repairer) mergePairs(tokens []string) []string {
	for changed := true; changed; {
		changed = false
		for i := 0; i+1 < len(tokens); i++ {
			a, b := tokens[i], tokens[i+1]
			if !r.mergeable(a) || !r.mergeable(b) || caseBreak(a, b) {
				continue
			}
			la, lb := runeLen(a), runeLen(b)
			if la < 2 || la > 4 || lb < 2 || lb > 5 {
				continue
			}
			if r.prefixes[strings.ToLower(a)] || r.suffixes[strings.ToLower(b)] ||
				(la <= 3 && lb <= 3 && la+lb >= r.minShortPair) {
				tokens = join(tokens, i, 2)
				changed = true
			}
		}
	}
	return tokens
}

// mergeLetterRuns joins runs of single uppercase letters, as in letter-spaced
// headings. A run only merges when the result is longer than five letters,
// which also covers the three-letter minimum.
func (r *Repairer) mergeLetterRuns(tokens []string) []string {
	for i := 0; i < len(tokens); i++ {
		j := i
		for j < len(tokens) && isSingleUpper(tokens[j]) {
			j++
		}
		if n := j - i; n > 5 {
			tokens = join(tokens, i, n)
		}
	}
	return tokens
}

// mergeTriples joins three short fragments whose middle is at most two
// letters when the merged word is at least six letters long.
func (r *Repairer) mergeTriples(tokens []string) []string {
	for changed := true; changed; {
		changed = false
		for i := 0; i+2 < len(tokens); i++ {
			a, b, c := tokens[i], tokens[i+1], tokens[i+2]
			if !r.mergeable(a) || !r.mergeable(b) || !r.mergeable(c) || caseBreak(a, b) || caseBreak(b, c) {
				continue
			}
			la, lb, lc := runeLen(a), runeLen(b), runeLen(c)
			if la < 2 || la > 5 || lb > 2 || lc < 2 || lc > 5 {
				continue
			}
			if la+lb+lc >= 6 {
				tokens = join(tokens, i, 3)
				changed = true
			}
		}
	}
	return tokens
}

// mergeable reports whether tok is an all-letter fragment that is not a
// protected word.
func (r *Repairer) mergeable(tok string) bool {
	if tok == "" || r.stopwords[strings.ToLower(tok)] {
		return false
	}
	for _, c := range tok {
		if !unicode.IsLetter(c) {
			return false
		}
	}
	return true
}

// caseBreak is true for "ke Pasal": a lowercase fragment followed by a
// capitalised one is two words.
func caseBreak(a, b string) bool {
	ra, _ := utf8.DecodeLastRuneInString(a)
	rb, _ := utf8.DecodeRuneInString(b)
	return unicode.IsLower(ra) && unicode.IsUpper(rb)
}

func isSingleUpper(tok string) bool {
	r, size := utf8.DecodeRuneInString(tok)
	return size > 0 && size == len(tok) && unicode.IsUpper(r)
}

func join(tokens []string, at, n int) []string {
	merged := strings.Join(tokens[at:at+n], "")
	out := append(tokens[:at:at], merged)
	return append(out, tokens[at+n:]...)
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }

func toSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			set[w] = true
		}
	}
	return set
}
