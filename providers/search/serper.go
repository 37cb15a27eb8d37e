package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const serperURL = "https://google.serper.dev/search"

// Serper searches Google through serper.dev.
type Serper struct {
	apiKey string
	url    string
	k      int
	client *http.Client
}

func NewSerper(opts Options) *Serper {
	url := opts.BaseURL
	if url == "" {
		url = serperURL
	}
	return &Serper{apiKey: opts.APIKey, url: url, k: opts.Results, client: opts.HTTPClient}
}

func (s *Serper) Search(ctx context.Context, q string) (string, error) {
	// https://serper.dev/ docs
	body, err := json.Marshal(map[string]any{"q": q, "num": s.k})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, strings.NewReader(string(body)))
	if err != nil {
		return "", err
	}
	req.Header.Set("X-API-KEY", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("serper returned status %d", resp.StatusCode)
	}

	var raw map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return "", err
	}

	var lead string
	if box, ok := raw["answerBox"].(map[string]any); ok {
		lead = str(box["answer"])
		if lead == "" {
			lead = str(box["snippet"])
		}
	}

	var out []Result
	if items, ok := raw["organic"].([]any); ok {
		for i, it := range items {
			if i >= s.k {
				break
			}
			m, ok := it.(map[string]any)
			if !ok {
				continue
			}
			out = append(out, Result{Title: str(m["title"]), URL: str(m["link"]), Snippet: str(m["snippet"])})
		}
	}
	return joinResults(lead, out), nil
}

func (s *Serper) Name() string { return "Serper (Google)" }
