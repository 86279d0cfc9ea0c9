package providers

import (
	"context"
)

// Config represents one LLM inference request. Images carry raw bytes;
// each provider encodes them the way its API expects.
type Config struct {
	Model       string
	Temperature float64
	Prompt      string
	Images      [][]byte
}

// Provider defines the interface for an LLM provider
type Provider interface {
	ExtractText(ctx context.Context, config Config) (string, error)
}
