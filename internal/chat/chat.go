package chat

import (
	"context"
	"errors"
)

// ErrDestinationInactive reports that the destination channel is not currently
// available to receive messages (deleted, inaccessible, or the broadcast it
// belongs to has ended). This is an expected transient condition, not a fault:
// callers should abandon the delivery silently instead of retrying.
var ErrDestinationInactive = errors.New("chat destination is not active")

// LiveUpdate is a single caption update pushed to the messaging channel.
// Updates sharing a ResultID and LanguageCode revise the same on-screen line.
type LiveUpdate struct {
	ResultID     string
	LanguageCode string
	Text         string
	Partial      bool
}

// Publisher delivers live caption updates to a messaging channel. Push returns
// the channel-assigned message ID so that finalized results can reference the
// message from the metadata channel.
type Publisher interface {
	Push(ctx context.Context, channelID string, update LiveUpdate) (messageID string, err error)
}
