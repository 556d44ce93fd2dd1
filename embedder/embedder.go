package embedder

import "context"

// Embedder maps arbitrary text to a fixed-dimension vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
