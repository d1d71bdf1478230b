package pipeline

import "fmt"

// ConfigurationError reports a job specification missing a required
// parameter. Fatal to the run, detected before any resource is acquired.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid job specification: %v", e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// ClientInitError reports that a remote client or the decoding process could
// not be constructed. Fatal to the run.
type ClientInitError struct {
	Err error
}

func (e *ClientInitError) Error() string {
	return fmt.Sprintf("client initialization failed: %v", e.Err)
}

func (e *ClientInitError) Unwrap() error { return e.Err }

// StreamSetupError reports that the recognition call could not be
// established. Fatal to the run, never retried.
type StreamSetupError struct {
	Err error
}

func (e *StreamSetupError) Error() string {
	return fmt.Sprintf("recognition stream setup failed: %v", e.Err)
}

func (e *StreamSetupError) Unwrap() error { return e.Err }

// StreamTransportError reports that an established recognition stream failed
// mid-run. Fatal to the run; no reconnect is attempted.
type StreamTransportError struct {
	Err error
}

func (e *StreamTransportError) Error() string {
	return fmt.Sprintf("recognition stream failed: %v", e.Err)
}

func (e *StreamTransportError) Unwrap() error { return e.Err }
