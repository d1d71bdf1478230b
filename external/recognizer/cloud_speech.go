package recognizer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/auth/credentials"
	speech "cloud.google.com/go/speech/apiv2"
	speechpb "cloud.google.com/go/speech/apiv2/speechpb"
	"github.com/foxseedlab/jimakun/internal/recognizer"
	"github.com/google/uuid"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	speechAPIEndpointPort = 443
	audioSampleRateHertz  = 16000
	audioChannelCount     = 1
)

type CloudSpeechConfig struct {
	ProjectID       string
	CredentialsJSON string
	Location        string
	Model           string
}

type CloudSpeechRecognizer struct {
	projectID       string
	credentialsJSON string
	location        string
	model           string
}

func NewCloudSpeechRecognizer(cfg CloudSpeechConfig) recognizer.Recognizer {
	location := strings.TrimSpace(cfg.Location)
	if location == "" {
		location = "global"
	}

	return &CloudSpeechRecognizer{
		projectID:       cfg.ProjectID,
		credentialsJSON: cfg.CredentialsJSON,
		location:        location,
		model:           strings.TrimSpace(cfg.Model),
	}
}

// Start opens one long-lived bidirectional exchange. Chunk sending and event
// receiving run in separate goroutines: the remote protocol needs an open
// outbound stream before it produces an inbound one. Any failure here is
// fatal to the run and is reported synchronously.
func (r *CloudSpeechRecognizer) Start(ctx context.Context, language string, chunks <-chan []byte) (recognizer.Session, error) {
	slog.Info("starting cloud speech streaming", "location", r.location, "language", language, "model", r.model)

	creds, err := credentials.DetectDefault(&credentials.DetectOptions{
		CredentialsJSON: []byte(r.credentialsJSON),
		Scopes:          []string{"https://www.googleapis.com/auth/cloud-platform"},
	})
	if err != nil {
		return nil, fmt.Errorf("detect credentials: %w", err)
	}

	opts := []option.ClientOption{
		option.WithAuthCredentials(creds),
	}
	if r.location != "global" {
		opts = append(opts, option.WithEndpoint(fmt.Sprintf("%s-speech.googleapis.com:%d", r.location, speechAPIEndpointPort)))
	}

	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	stream, err := client.StreamingRecognize(ctx)
	if err != nil {
		_ = client.Close()
		return nil, err
	}

	recognizerPath := fmt.Sprintf("projects/%s/locations/%s/recognizers/_", r.projectID, r.location)
	if err := stream.Send(&speechpb.StreamingRecognizeRequest{
		Recognizer: recognizerPath,
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: &speechpb.StreamingRecognitionConfig{
				Config: &speechpb.RecognitionConfig{
					Model:         r.model,
					LanguageCodes: []string{language},
					DecodingConfig: &speechpb.RecognitionConfig_ExplicitDecodingConfig{
						ExplicitDecodingConfig: &speechpb.ExplicitDecodingConfig{
							Encoding:          speechpb.ExplicitDecodingConfig_LINEAR16,
							SampleRateHertz:   audioSampleRateHertz,
							AudioChannelCount: audioChannelCount,
						},
					},
					Features: &speechpb.RecognitionFeatures{},
				},
				StreamingFeatures: &speechpb.StreamingRecognitionFeatures{InterimResults: true},
			},
		},
	}); err != nil {
		_ = stream.CloseSend()
		_ = client.Close()
		return nil, err
	}
	slog.Info("cloud speech stream initialized", "language", language)

	s := &session{
		stream:      stream,
		client:      client,
		events:      make(chan recognizer.Event),
		utteranceID: uuid.NewString(),
	}
	go s.sendLoop(ctx, chunks)
	go s.recvLoop()
	return s, nil
}

// errSendSideClosed stops the send loop quietly once CloseSend has been
// issued from another goroutine.
var errSendSideClosed = errors.New("send side already closed")

type session struct {
	stream speechpb.Speech_StreamingRecognizeClient
	client *speech.Client
	events chan recognizer.Event

	// sendMu serializes Send and CloseSend; the stream forbids concurrent
	// writes from multiple goroutines.
	sendMu     sync.Mutex
	sendClosed bool

	mu        sync.Mutex
	streamErr error
	closed    bool
	closeOnce sync.Once

	// Result ids are synthesized: the service emits results without stable
	// identifiers, so one id covers an utterance from its first partial
	// through its final, rotating afterwards.
	utteranceID  string
	lastFinalEnd time.Duration
}

func (s *session) Events() <-chan recognizer.Event {
	return s.events
}

func (s *session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streamErr
}

func (s *session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	s.closeSend()
	return s.closeClient()
}

func (s *session) closeClient() error {
	var err error
	s.closeOnce.Do(func() {
		if s.client != nil {
			err = s.client.Close()
		}
	})
	return err
}

func (s *session) sendAudio(chunk []byte) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if s.sendClosed {
		return errSendSideClosed
	}
	return s.stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_Audio{Audio: chunk},
	})
}

func (s *session) closeSend() {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if s.sendClosed {
		return
	}
	s.sendClosed = true
	_ = s.stream.CloseSend()
}

func (s *session) sendLoop(ctx context.Context, chunks <-chan []byte) {
	for {
		select {
		case <-ctx.Done():
			s.closeSend()
			return
		case chunk, ok := <-chunks:
			if !ok {
				s.closeSend()
				return
			}
			if err := s.sendAudio(chunk); err != nil {
				if !errors.Is(err, errSendSideClosed) {
					// The receive side observes and reports the failure.
					slog.Warn("cloud speech send failed; stopping audio feed", "error", err)
				}
				return
			}
		}
	}
}

func (s *session) recvLoop() {
	defer close(s.events)
	for {
		resp, err := s.stream.Recv()
		if err != nil {
			if !isExpectedStreamEnd(err) {
				s.mu.Lock()
				s.streamErr = err
				s.mu.Unlock()
			} else {
				slog.Info("cloud speech receive loop stopped", "reason", err.Error())
			}
			_ = s.closeClient()
			return
		}
		ev := s.convert(resp)
		if len(ev.Results) > 0 {
			s.events <- ev
		}
	}
}

func (s *session) convert(resp *speechpb.StreamingRecognizeResponse) recognizer.Event {
	var results []recognizer.SpeechResult
	for _, res := range resp.GetResults() {
		alts := make([]recognizer.Alternative, 0, len(res.GetAlternatives()))
		for _, a := range res.GetAlternatives() {
			alts = append(alts, recognizer.Alternative{
				Text:       a.GetTranscript(),
				Confidence: float64(a.GetConfidence()),
			})
		}
		end := res.GetResultEndOffset().AsDuration()
		sr := recognizer.SpeechResult{
			ID:           s.utteranceID,
			Partial:      !res.GetIsFinal(),
			Start:        s.lastFinalEnd,
			End:          end,
			Alternatives: alts,
		}
		if res.GetIsFinal() {
			s.lastFinalEnd = end
			s.utteranceID = uuid.NewString()
		}
		results = append(results, sr)
	}
	return recognizer.Event{Results: results}
}

func isExpectedStreamEnd(err error) bool {
	if err == io.EOF || errors.Is(err, context.Canceled) {
		return true
	}
	if st, ok := status.FromError(err); ok && st.Code() == codes.Canceled {
		return true
	}
	return strings.Contains(err.Error(), "context canceled")
}
