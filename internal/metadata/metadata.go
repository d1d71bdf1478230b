package metadata

import "context"

// RecordTypeCaption tags transcript metadata records on the wire.
const RecordTypeCaption = "caption"

// Record is the metadata attached to a finalized caption.
type Record struct {
	Type         string `json:"type"`
	Text         string `json:"text"`
	LanguageCode string `json:"languageCode"`
	MessageID    string `json:"messageId,omitempty"`
}

// Attacher delivers metadata records for finalized results to the metadata
// channel identified by destination.
type Attacher interface {
	Attach(ctx context.Context, destination string, record Record) error
}
