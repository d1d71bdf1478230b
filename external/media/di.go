package media

import (
	"github.com/foxseedlab/jimakun/internal/media"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (media.Decoder, error) {
		return NewFFmpegDecoder(), nil
	})
}
