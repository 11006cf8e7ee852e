package structure

import "fmt"

// State is the parser's position in the document.
type State int

const (
	// StateBody is the main body before the annotation marker.
	StateBody State = iota
	// StateAnnotation is inside the annotation section with no unit context.
	StateAnnotation
	StateAnnotationArticle
	StateAnnotationClause
	StateAnnotationPoint
)

var stateNames = map[State]string{
	StateBody:              "body",
	StateAnnotation:        "annotation",
	StateAnnotationArticle: "annotation-article",
	StateAnnotationClause:  "annotation-clause",
	StateAnnotationPoint:   "annotation-point",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Event is the classification of one input line.
type Event int

const (
	EventBoundary Event = iota
	EventArticleHeader
	EventClauseHeader
	EventPointHeader
	EventChapter
	EventText
	EventBlank
)

var eventNames = map[Event]string{
	EventBoundary:      "boundary",
	EventArticleHeader: "article-header",
	EventClauseHeader:  "clause-header",
	EventPointHeader:   "point-header",
	EventChapter:       "chapter",
	EventText:          "text",
	EventBlank:         "blank",
}

func (e Event) String() string {
	if n, ok := eventNames[e]; ok {
		return n
	}
	return fmt.Sprintf("event(%d)", int(e))
}

type transition struct {
	from State
	on   Event
}

// transitions is the complete table. A missing entry leaves the state
// unchanged. A clause header without an article context, or a point header
// without a clause context, cannot enter the deeper state. A chapter heading
// closes whatever unit is open.
var transitions = map[transition]State{
	{StateBody, EventBoundary}: StateAnnotation,

	{StateAnnotation, EventArticleHeader}: StateAnnotationArticle,
	{StateAnnotation, EventChapter}:       StateAnnotation,

	{StateAnnotationArticle, EventBoundary}:      StateAnnotation,
	{StateAnnotationArticle, EventArticleHeader}: StateAnnotationArticle,
	{StateAnnotationArticle, EventClauseHeader}:  StateAnnotationClause,
	{StateAnnotationArticle, EventChapter}:       StateAnnotation,

	{StateAnnotationClause, EventBoundary}:      StateAnnotation,
	{StateAnnotationClause, EventArticleHeader}: StateAnnotationArticle,
	{StateAnnotationClause, EventClauseHeader}:  StateAnnotationClause,
	{StateAnnotationClause, EventPointHeader}:   StateAnnotationPoint,
	{StateAnnotationClause, EventChapter}:       StateAnnotation,

	{StateAnnotationPoint, EventBoundary}:      StateAnnotation,
	{StateAnnotationPoint, EventArticleHeader}: StateAnnotationArticle,
	{StateAnnotationPoint, EventClauseHeader}:  StateAnnotationClause,
	{StateAnnotationPoint, EventPointHeader}:   StateAnnotationPoint,
	{StateAnnotationPoint, EventChapter}:       StateAnnotation,
}

// next returns the state after on, and whether the table has an entry.
func next(from State, on Event) (State, bool) {
	to, ok := transitions[transition{from, on}]
	if !ok {
		return from, false
	}
	return to, true
}

// stateFor returns the annotation state matching a cursor key.
func stateFor(k Key) State {
	switch k.(type) {
	case ArticleKey:
		return StateAnnotationArticle
	case ClauseKey:
		return StateAnnotationClause
	case PointKey:
		return StateAnnotationPoint
	default:
		return StateAnnotation
	}
}
