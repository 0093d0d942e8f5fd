package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// IEmbedProvider is a raw embedding backend. Providers register themselves
// by name and are constructed from opaque config args.
type IEmbedProvider interface {
	Name() string
	Embed(ctx context.Context, model string, text string, taskType string) ([]float32, error)
}

// IEmbedder is the embedding contract the rest of the pipeline consumes:
// text in, fixed-dimension vector plus tokens charged out.
type IEmbedder interface {
	Embed(ctx context.Context, text string, taskType string) ([]float32, int, error)
	ModelName() string
	Dimension() int
}

// Task types passed through to providers that distinguish query and
// document embeddings.
const (
	TaskTypeQuery    = "RETRIEVAL_QUERY"
	TaskTypeDocument = "RETRIEVAL_DOCUMENT"
)

type ProviderFactory func(args interface{}) (IEmbedProvider, error)

var registry = map[string]ProviderFactory{}

func Register(name string, factory ProviderFactory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registry[key] = factory
}

func NewProvider(name string, args interface{}) (IEmbedProvider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	factory := registry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported ai provider: %s", name)
	}
	return factory(args)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return fmt.Errorf("ai provider config is required")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode ai provider config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode ai provider config: %w", err)
	}
	return nil
}
