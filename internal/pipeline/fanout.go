package pipeline

import (
	"context"
	"log/slog"

	"github.com/foxseedlab/jimakun/internal/observe"
	"github.com/foxseedlab/jimakun/internal/translator"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Fanout expands one result into a DeliveryTarget per target language.
type Fanout struct {
	translator translator.Translator
	metrics    *observe.Metrics
}

func NewFanout(tr translator.Translator, metrics *observe.Metrics) *Fanout {
	return &Fanout{translator: tr, metrics: metrics}
}

// Fanout produces one target per language. A target equal to the source
// language is an identity translation: the original text is delivered without
// a remote call. Translation is attempted exactly once per distinct language;
// on failure the source text is delivered instead of dropping the result, so
// viewers see original-language text rather than nothing.
func (f *Fanout) Fanout(ctx context.Context, result Result, sourceLanguage string, targetLanguages []string) []DeliveryTarget {
	targets := make([]DeliveryTarget, 0, len(targetLanguages))
	for _, lang := range targetLanguages {
		text := result.Text
		if lang != sourceLanguage {
			translated, err := f.translator.Translate(ctx, result.Text, sourceLanguage, lang)
			if err != nil {
				slog.Warn("translation failed; delivering source text",
					"result_id", result.ID, "source_language", sourceLanguage, "target_language", lang, "error", err)
				f.metrics.TranslationFallbacks.Add(ctx, 1,
					metric.WithAttributes(attribute.String("language", lang)))
			} else {
				text = translated
			}
		}
		targets = append(targets, DeliveryTarget{
			LanguageCode: lang,
			Text:         text,
			Source:       result,
		})
	}
	return targets
}
