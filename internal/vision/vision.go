// Package vision asks a multimodal model to identify a tree from a photo
// and propose measurements for it.
package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/PakBOSS-007/Jaga-pohon/internal/metrics"
	"github.com/PakBOSS-007/Jaga-pohon/internal/models"
)

// TreeAnalysis is the structured guess returned by the vision model.
// Latitude/Longitude are nil when the model could not infer a location,
// in which case the caller falls back to a geolocation lookup.
type TreeAnalysis struct {
	Species   string
	Condition models.Condition
	DBHCm     float64
	HeightM   float64
	Latitude  *float64
	Longitude *float64
	Notes     string
}

// Analyzer is the single-photo analysis contract. Satisfied by *Client and
// by test fakes.
type Analyzer interface {
	Analyze(ctx context.Context, imageJPEG []byte, notes string) (*TreeAnalysis, error)
}

// Client calls the OpenAI chat completions API with an inline image.
type Client struct {
	client openai.Client
	model  openai.ChatModel
}

// NewClient creates a vision client. It reads the OPENAI_API_KEY environment
// variable for authentication.
func NewClient() (*Client, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY environment variable not set")
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
	)

	return &Client{
		client: client,
		model:  openai.ChatModelGPT4oMini,
	}, nil
}

const analysisPrompt = `You are a field arborist. Identify the tree in the photo and estimate its measurements.
Respond with a single JSON object, no prose, with these keys:
  "species": scientific or common species name, or "" if no tree is visible
  "condition": one of "healthy", "damaged", "dead"
  "dbh_cm": estimated diameter at breast height in centimeters (number)
  "height_m": estimated total height in meters (number)
  "latitude", "longitude": decimal degrees if determinable from the photo, otherwise null
  "notes": one short sentence of observations`

// rawAnalysis mirrors the JSON the model is asked to produce.
type rawAnalysis struct {
	Species   string   `json:"species"`
	Condition string   `json:"condition"`
	DBHCm     *float64 `json:"dbh_cm"`
	HeightM   *float64 `json:"height_m"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Notes     string   `json:"notes"`
}

// analysisMessage builds the user message carrying the prompt and the
// photo as an inline data URL.
func analysisMessage(prompt, dataURL string) openai.ChatCompletionMessageParamUnion {
	return openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
		openai.TextContentPart(prompt),
		openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: dataURL}),
	})
}

// Analyze sends the photo and surveyor notes to the model and parses its
// structured reply. The image must already be compressed; it is embedded
// as a base64 data URL.
func (c *Client) Analyze(ctx context.Context, imageJPEG []byte, notes string) (*TreeAnalysis, error) {
	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(imageJPEG)

	prompt := analysisPrompt
	if strings.TrimSpace(notes) != "" {
		prompt += "\nSurveyor notes: " + notes
	}

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			analysisMessage(prompt, dataURL),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	})
	metrics.VisionAPILatency.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.VisionAPICallsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("vision analysis: %w", err)
	}
	metrics.VisionAPICallsTotal.WithLabelValues("ok").Inc()

	if len(resp.Choices) == 0 {
		return nil, errors.New("vision analysis: no choices returned")
	}

	return ParseAnalysis(resp.Choices[0].Message.Content)
}

// ParseAnalysis decodes and validates the model's JSON reply.
func ParseAnalysis(content string) (*TreeAnalysis, error) {
	content = strings.TrimSpace(content)
	// Some models wrap JSON in a fenced block despite instructions.
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var raw rawAnalysis
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("parse analysis: %w", err)
	}

	if strings.TrimSpace(raw.Species) == "" {
		return nil, errors.New("no tree recognized in photo")
	}
	if raw.DBHCm == nil || raw.HeightM == nil {
		return nil, errors.New("analysis missing dimension estimates")
	}
	if *raw.DBHCm <= 0 || *raw.HeightM <= 0 {
		return nil, fmt.Errorf("analysis returned non-positive dimensions: dbh=%v height=%v", *raw.DBHCm, *raw.HeightM)
	}

	ta := &TreeAnalysis{
		Species:   strings.TrimSpace(raw.Species),
		Condition: models.ParseCondition(strings.ToLower(strings.TrimSpace(raw.Condition))),
		DBHCm:     *raw.DBHCm,
		HeightM:   *raw.HeightM,
		Notes:     strings.TrimSpace(raw.Notes),
	}
	if raw.Latitude != nil && raw.Longitude != nil {
		ta.Latitude = raw.Latitude
		ta.Longitude = raw.Longitude
	}
	return ta, nil
}
