package translator

import "context"

// Translator converts text between languages. Implementations are expected to
// make exactly one remote attempt per call; callers decide what to do with a
// failure.
type Translator interface {
	Translate(ctx context.Context, text, sourceLanguage, targetLanguage string) (string, error)
}
