package llm

import "fmt"

// ConfigurationError indicates no usable credential is configured for a
// provider. Surfaced immediately; never retried and never preceded by a
// network call.
type ConfigurationError struct {
	Provider string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: no API key configured", e.Provider)
}

// GenerationError wraps an upstream call failure or error payload.
type GenerationError struct {
	Op  string
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// NoImageReturnedError indicates the call succeeded but no image payload
// could be located anywhere in the response. Text carries whatever text the
// model did return, for diagnostics.
type NoImageReturnedError struct {
	Text string
}

func (e *NoImageReturnedError) Error() string {
	if e.Text == "" {
		return "no image in response"
	}
	return "no image in response; model returned text: " + e.Text
}
