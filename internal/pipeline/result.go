package pipeline

import "time"

// Result is a classified recognition hypothesis. The same ID may be seen
// repeatedly with Partial=true before exactly one emission with Partial=false;
// finality is a one-way transition. A final result arriving again under a
// known ID is treated as a new, independent result.
type Result struct {
	ID      string
	Partial bool
	Start   time.Duration
	End     time.Duration
	Text    string
}

// DeliveryTarget is one (language, text) pair produced for a result. Created
// once per (result, target language) combination and never mutated.
type DeliveryTarget struct {
	LanguageCode string
	Text         string
	Source       Result
}

// Destinations identifies where a job's results are delivered.
type Destinations struct {
	ChatChannelID    string
	MetadataEndpoint string
}

// TextFilter post-processes classified text before delivery, e.g. profanity
// masking. Implementations must be safe for concurrent use.
type TextFilter func(string) string
