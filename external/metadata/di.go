package metadata

import (
	"github.com/foxseedlab/jimakun/internal/metadata"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (metadata.Attacher, error) {
		return NewHTTPAttacher(), nil
	})
}
