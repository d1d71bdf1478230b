package pipeline

import (
	"github.com/foxseedlab/jimakun/internal/chat"
	"github.com/foxseedlab/jimakun/internal/media"
	"github.com/foxseedlab/jimakun/internal/metadata"
	"github.com/foxseedlab/jimakun/internal/observe"
	"github.com/foxseedlab/jimakun/internal/recognizer"
	"github.com/foxseedlab/jimakun/internal/store"
	"github.com/foxseedlab/jimakun/internal/translator"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Fanout, error) {
		tr := do.MustInvoke[translator.Translator](i)
		metrics := do.MustInvoke[*observe.Metrics](i)
		return NewFanout(tr, metrics), nil
	})
	do.Provide(injector, func(i do.Injector) (*Publisher, error) {
		cp := do.MustInvoke[chat.Publisher](i)
		at := do.MustInvoke[metadata.Attacher](i)
		st := do.MustInvoke[store.Store](i)
		metrics := do.MustInvoke[*observe.Metrics](i)
		return NewPublisher(cp, at, st, metrics), nil
	})
	do.Provide(injector, func(i do.Injector) (*Driver, error) {
		dec := do.MustInvoke[media.Decoder](i)
		rec := do.MustInvoke[recognizer.Recognizer](i)
		fanout := do.MustInvoke[*Fanout](i)
		pub := do.MustInvoke[*Publisher](i)
		metrics := do.MustInvoke[*observe.Metrics](i)
		// The profanity filter is optional; runs without one deliver text
		// verbatim.
		filter, err := do.Invoke[TextFilter](i)
		if err != nil {
			filter = nil
		}
		return NewDriver(dec, rec, fanout, pub, filter, metrics), nil
	})
}
