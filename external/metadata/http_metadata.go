package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/foxseedlab/jimakun/internal/metadata"
)

const attachTimeout = 10 * time.Second

type HTTPAttacher struct {
	client *http.Client
}

func NewHTTPAttacher() metadata.Attacher {
	return &HTTPAttacher{
		client: &http.Client{Timeout: attachTimeout},
	}
}

func (a *HTTPAttacher) Attach(ctx context.Context, destination string, record metadata.Record) error {
	if destination == "" {
		return nil
	}

	b, err := json.Marshal(record)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, destination, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if !isHTTPSuccessStatus(resp.StatusCode) {
		return fmt.Errorf("metadata channel returned status %d", resp.StatusCode)
	}
	return nil
}

func isHTTPSuccessStatus(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}
