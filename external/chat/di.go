package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/foxseedlab/jimakun/internal/chat"
	"github.com/foxseedlab/jimakun/internal/config"
	"github.com/samber/do/v2"
)

const discordConnectTimeout = 20 * time.Second

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (chat.Publisher, error) {
		c := do.MustInvoke[*config.Config](i)
		ctx, cancel := context.WithTimeout(context.Background(), discordConnectTimeout)
		defer cancel()

		client := NewClient(c.DiscordToken)
		if err := client.Connect(ctx); err != nil {
			return nil, fmt.Errorf("failed to connect discord gateway: %w", err)
		}
		return client, nil
	})
}
