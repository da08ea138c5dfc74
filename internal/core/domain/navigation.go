package domain

// NavigationTarget is where the viewer should go.
type NavigationTarget struct {
	// DocumentID is a catalog id.
	DocumentID string

	// Page is 1-based.
	Page int
}

// NavigationOutcome classifies the result of a navigation attempt.
type NavigationOutcome string

// Navigation outcomes.
const (
	// NavigationNavigated means the viewer was shown the target.
	NavigationNavigated NavigationOutcome = "navigated"

	// NavigationNoCitation means the answer carried no citation.
	NavigationNoCitation NavigationOutcome = "no_citation"

	// NavigationUnknownDocument means the cited document is not in the catalog.
	NavigationUnknownDocument NavigationOutcome = "unknown_document"

	// NavigationFetchFailed means the document content could not be obtained.
	NavigationFetchFailed NavigationOutcome = "fetch_failed"

	// NavigationViewerFailed means the viewer rejected the content.
	NavigationViewerFailed NavigationOutcome = "viewer_failed"

	// NavigationSuperseded means a newer navigation started first and this
	// one was discarded.
	NavigationSuperseded NavigationOutcome = "superseded"
)

// String returns the string representation.
func (o NavigationOutcome) String() string {
	return string(o)
}

// Navigation is the observable result of moving the viewer to a citation.
type Navigation struct {
	// MessageID is the assistant message navigated from, if any.
	MessageID string

	// Outcome classifies the result.
	Outcome NavigationOutcome

	// Target is set for every outcome past resolution.
	Target NavigationTarget

	// Content is set when Outcome is NavigationNavigated.
	Content *ContentHandle

	// Err is the fetch or viewer error, if any.
	Err error
}

// OK returns true if the viewer was updated.
func (n Navigation) OK() bool {
	return n.Outcome == NavigationNavigated
}
