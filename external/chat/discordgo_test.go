package chat

import (
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
	chatpkg "github.com/foxseedlab/jimakun/internal/chat"
)

func TestFormatCaption(t *testing.T) {
	partial := formatCaption(chatpkg.LiveUpdate{Text: "hel", Partial: true})
	if partial != "hel …" {
		t.Fatalf("expected partial marker, got %q", partial)
	}

	final := formatCaption(chatpkg.LiveUpdate{Text: "hello", Partial: false})
	if final != "hello" {
		t.Fatalf("expected plain final text, got %q", final)
	}
}

func TestWrapSendError_InactiveChannelCodes(t *testing.T) {
	for _, code := range []int{discordgo.ErrCodeUnknownChannel, discordgo.ErrCodeMissingAccess} {
		err := wrapSendError(&discordgo.RESTError{Message: &discordgo.APIErrorMessage{Code: code}})
		if !errors.Is(err, chatpkg.ErrDestinationInactive) {
			t.Fatalf("code %d: expected inactive-destination error, got %v", code, err)
		}
	}
}

func TestWrapSendError_OtherFailuresPassThrough(t *testing.T) {
	boom := errors.New("boom")
	if got := wrapSendError(boom); got != boom {
		t.Fatalf("expected error unchanged, got %v", got)
	}

	rate := &discordgo.RESTError{Message: &discordgo.APIErrorMessage{Code: 0}}
	if errors.Is(wrapSendError(rate), chatpkg.ErrDestinationInactive) {
		t.Fatal("unrelated REST error must not map to inactive destination")
	}
}
