package translator

import (
	"context"
	"fmt"

	"github.com/foxseedlab/jimakun/internal/config"
	"github.com/foxseedlab/jimakun/internal/translator"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (translator.Translator, error) {
		c := do.MustInvoke[*config.Config](i)
		// Dialing is lazy; the client outlives any single run.
		t, err := NewCloudTranslator(context.Background(), CloudTranslateConfig{
			ProjectID:       c.GoogleCloudProjectID,
			CredentialsJSON: c.GoogleCloudCredentialsJSON,
			Location:        c.GoogleCloudSpeechLocation,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create translation client: %w", err)
		}
		return t, nil
	})
}
