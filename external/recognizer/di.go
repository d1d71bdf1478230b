package recognizer

import (
	"github.com/foxseedlab/jimakun/internal/config"
	"github.com/foxseedlab/jimakun/internal/recognizer"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (recognizer.Recognizer, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewCloudSpeechRecognizer(CloudSpeechConfig{
			ProjectID:       c.GoogleCloudProjectID,
			CredentialsJSON: c.GoogleCloudCredentialsJSON,
			Location:        c.GoogleCloudSpeechLocation,
			Model:           c.GoogleCloudSpeechModel,
		}), nil
	})
}
