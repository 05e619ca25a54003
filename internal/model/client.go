// Package model is the boundary to the external vision/text model. It owns
// nothing beyond "call in, text out": transport, prompts and response
// interpretation belong to the callers.
package model

import "context"

// Client defines the three call shapes the pipeline needs from a model
// provider. GenerateFromImage and GenerateJSON return JSON text, possibly
// wrapped in a markdown code fence; GenerateText returns plain text.
type Client interface {
	// GenerateFromImage sends an image and an instruction and returns the
	// model's text response. The image may be JPEG, PNG, GIF, HEIC or PDF;
	// it is converted to PNG before the call.
	GenerateFromImage(ctx context.Context, prompt string, image []byte, contentType string) (string, error)

	// GenerateText sends a text prompt and returns a plain text response.
	GenerateText(ctx context.Context, prompt string) (string, error)

	// GenerateJSON sends a text prompt and asks for a JSON response.
	GenerateJSON(ctx context.Context, prompt string) (string, error)

	// Close releases provider resources.
	Close() error
}
