package classifier

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/itish2003/assistant/models"
)

// Gemini asks a Gemini model to pick exactly one label, constrained by an enum response schema.
type Gemini struct {
	client *genai.Client
	model  string
}

func NewGemini(client *genai.Client, model string) *Gemini {
	return &Gemini{client: client, model: model}
}

// labelSchema restricts the response to one of the candidate labels.
func labelSchema(labels []string) *genai.Schema {
	return &genai.Schema{
		Type:        genai.TypeString,
		Description: "The single candidate label that best describes the user's message.",
		Enum:        labels,
	}
}

func classifierInstruction() *genai.Content {
	prompt := `You are an intent classifier for a conversational assistant.
Read the user's message and answer with exactly one of the candidate labels, copied verbatim.
Do not answer the message itself.`
	return genai.NewContentFromText(prompt, genai.RoleUser)
}

// Classify puts the chosen label first with score 1; the rest follow in input order with score 0.
func (g *Gemini) Classify(ctx context.Context, text string, labels []string) ([]models.LabelScore, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(text), &genai.GenerateContentConfig{
		Temperature:       genai.Ptr[float32](0),
		ResponseMIMEType:  "text/x.enum",
		ResponseSchema:    labelSchema(labels),
		SystemInstruction: classifierInstruction(),
	})
	if err != nil {
		return nil, fmt.Errorf("gemini api call failed: %w", err)
	}

	chosen := strings.TrimSpace(resp.Text())
	ranked := make([]models.LabelScore, 0, len(labels))
	found := false
	for _, l := range labels {
		if l == chosen {
			found = true
			ranked = append([]models.LabelScore{{Label: l, Score: 1}}, ranked...)
			continue
		}
		ranked = append(ranked, models.LabelScore{Label: l, Score: 0})
	}
	if !found {
		return nil, fmt.Errorf("gemini chose unknown label %q", chosen)
	}
	return ranked, nil
}
