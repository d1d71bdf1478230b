package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	chatpkg "github.com/foxseedlab/jimakun/internal/chat"
)

// Client publishes live caption updates to Discord text channels. Updates
// sharing a result id and language edit the same message in place, so a
// partial hypothesis is revised on screen instead of flooding the channel.
type Client struct {
	session *discordgo.Session
	token   string

	mu sync.Mutex
	// messageIDs maps channel:result:language to the Discord message being
	// revised. Entries are dropped once the result finalizes.
	messageIDs map[string]string
}

func NewClient(token string) *Client {
	return &Client{
		token:      token,
		messageIDs: make(map[string]string),
	}
}

func (c *Client) Connect(ctx context.Context) error {
	_ = ctx
	s, err := discordgo.New("Bot " + c.token)
	if err != nil {
		return err
	}
	c.session = s
	s.Identify.Intents = discordgo.MakeIntent(discordgo.IntentsGuilds)
	return s.Open()
}

func (c *Client) Close() error {
	if c.session != nil {
		return c.session.Close()
	}
	return nil
}

func (c *Client) Push(ctx context.Context, channelID string, update chatpkg.LiveUpdate) (string, error) {
	key := channelID + ":" + update.ResultID + ":" + update.LanguageCode

	c.mu.Lock()
	messageID := c.messageIDs[key]
	c.mu.Unlock()

	content := formatCaption(update)
	if messageID == "" {
		m, err := c.session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
		if err != nil {
			return "", wrapSendError(err)
		}
		messageID = m.ID
	} else {
		if _, err := c.session.ChannelMessageEdit(channelID, messageID, content, discordgo.WithContext(ctx)); err != nil {
			return "", wrapSendError(err)
		}
	}

	c.mu.Lock()
	if update.Partial {
		c.messageIDs[key] = messageID
	} else {
		delete(c.messageIDs, key)
	}
	c.mu.Unlock()
	return messageID, nil
}

func formatCaption(update chatpkg.LiveUpdate) string {
	if update.Partial {
		return update.Text + " …"
	}
	return update.Text
}

// wrapSendError maps "this channel cannot receive messages right now" REST
// failures to the inactive-destination sentinel so the publisher abandons the
// delivery without retrying.
func wrapSendError(err error) error {
	var rerr *discordgo.RESTError
	if errors.As(err, &rerr) && rerr.Message != nil {
		switch rerr.Message.Code {
		case discordgo.ErrCodeUnknownChannel, discordgo.ErrCodeMissingAccess:
			return fmt.Errorf("%w: %v", chatpkg.ErrDestinationInactive, err)
		}
	}
	return err
}
