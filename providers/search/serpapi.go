package search

import (
	"context"
	"strings"

	"github.com/tmc/langchaingo/tools"
	"github.com/tmc/langchaingo/tools/serpapi"
)

// serpAPINoResult is what the langchaingo tool returns instead of an error when Google has nothing.
const serpAPINoResult = "No good Google Search Results was found"

// SerpAPI searches Google through the langchaingo SerpAPI tool.
type SerpAPI struct {
	tool tools.Tool
}

func NewSerpAPI(apiKey string) (*SerpAPI, error) {
	var opts []serpapi.Option
	if apiKey != "" {
		opts = append(opts, serpapi.WithAPIKey(apiKey))
	}
	tool, err := serpapi.New(opts...)
	if err != nil {
		return nil, err
	}
	return &SerpAPI{tool: tool}, nil
}

// Search reports "no good result" as an empty string so callers can retry.
func (s *SerpAPI) Search(ctx context.Context, query string) (string, error) {
	out, err := s.tool.Call(ctx, query)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(out) == serpAPINoResult {
		return "", nil
	}
	return out, nil
}

func (s *SerpAPI) Name() string { return "SerpApi (Google)" }
