package pipeline

import "github.com/foxseedlab/jimakun/internal/recognizer"

// Classify extracts the best candidate from a recognition event: the first
// result entry, its first alternative, and that alternative's text. Events
// lacking any of these carry no usable candidate and are dropped; interim
// events legitimately arrive empty, so this is not an error.
func Classify(ev recognizer.Event) (Result, bool) {
	if len(ev.Results) == 0 {
		return Result{}, false
	}
	r := ev.Results[0]
	if len(r.Alternatives) == 0 {
		return Result{}, false
	}
	text := r.Alternatives[0].Text
	if text == "" {
		return Result{}, false
	}
	return Result{
		ID:      r.ID,
		Partial: r.Partial,
		Start:   r.Start,
		End:     r.End,
		Text:    text,
	}, true
}
