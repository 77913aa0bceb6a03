package transcribe

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Gemini implements Transcriber using Google Gemini
type Gemini struct {
	client  *genai.Client
	model   *genai.GenerativeModel
	timeout time.Duration
}

// NewGemini creates a new Gemini transcriber
func NewGemini(ctx context.Context, apiKey string, modelName string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	// transcription should be as literal as possible
	model.SetTemperature(0)

	return &Gemini{
		client:  client,
		model:   model,
		timeout: 60 * time.Second,
	}, nil
}

// Transcribe sends the receipt image to Gemini and returns the text it reads
func (g *Gemini) Transcribe(ctx context.Context, data []byte, contentType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	pngData, err := toPNG(data, contentType)
	if err != nil {
		return "", err
	}

	// genai.ImageData takes the format suffix, not the MIME type
	resp, err := g.model.GenerateContent(ctx, genai.ImageData("png", pngData), genai.Text(transcriptionPrompt))
	if err != nil {
		return "", fmt.Errorf("generating content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response from gemini: %w", ErrEmptyTranscript)
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}

	return cleanTranscript(text.String())
}

// Close closes the Gemini client
func (g *Gemini) Close() error {
	return g.client.Close()
}
