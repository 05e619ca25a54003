package model

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	visionCallTimeout = 30 * time.Second
	textCallTimeout   = 30 * time.Second
)

// Gemini implements the Client interface using Google Gemini.
type Gemini struct {
	client    *genai.Client
	textModel *genai.GenerativeModel
	jsonModel *genai.GenerativeModel
}

// NewGemini creates a new Gemini Client instance.
func NewGemini(apiKey string, modelName string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	textModel := client.GenerativeModel(modelName)

	jsonModel := client.GenerativeModel(modelName)
	jsonModel.ResponseMIMEType = "application/json"

	return &Gemini{
		client:    client,
		textModel: textModel,
		jsonModel: jsonModel,
	}, nil
}

// GenerateFromImage sends the receipt image plus the extraction instruction
// and returns the model's JSON text response.
func (g *Gemini) GenerateFromImage(ctx context.Context, prompt string, image []byte, contentType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, visionCallTimeout)
	defer cancel()

	// Everything is PNG after prepareImage, so the format suffix is fixed.
	pngData, err := prepareImage(image, contentType)
	if err != nil {
		return "", err
	}

	resp, err := g.jsonModel.GenerateContent(ctx,
		genai.ImageData("png", pngData),
		genai.Text(prompt),
	)
	if err != nil {
		return "", fmt.Errorf("generating content: %w", err)
	}

	return responseText(resp)
}

// GenerateText sends a text prompt and returns the plain text response.
func (g *Gemini) GenerateText(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, textCallTimeout)
	defer cancel()

	resp, err := g.textModel.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("generating content: %w", err)
	}

	return responseText(resp)
}

// GenerateJSON sends a text prompt with the JSON response type set.
func (g *Gemini) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, textCallTimeout)
	defer cancel()

	resp, err := g.jsonModel.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("generating content: %w", err)
	}

	return responseText(resp)
}

// responseText collects the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response from gemini")
	}

	var out strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			out.WriteString(string(text))
		}
	}
	return out.String(), nil
}

// Close closes the Gemini client.
func (g *Gemini) Close() error {
	return g.client.Close()
}
