package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

const braveURL = "https://api.search.brave.com/res/v1/web/search"

// Brave searches the web through the Brave Search API.
type Brave struct {
	apiKey string
	url    string
	k      int
	client *http.Client
}

func NewBrave(opts Options) *Brave {
	u := opts.BaseURL
	if u == "" {
		u = braveURL
	}
	return &Brave{apiKey: opts.APIKey, url: u, k: opts.Results, client: opts.HTTPClient}
}

func (b *Brave) Search(ctx context.Context, q string) (string, error) {
	// https://api.search.brave.com/app/documentation/web-search
	params := url.Values{}
	params.Set("q", q)
	params.Set("count", fmt.Sprint(b.k))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.url+"?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("brave returned status %d", resp.StatusCode)
	}

	var raw struct {
		Web struct {
			Results []struct {
				Title   string `json:"title"`
				URL     string `json:"url"`
				Snippet string `json:"description"`
			} `json:"results"`
		} `json:"web"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return "", err
	}
	var out []Result
	for i, r := range raw.Web.Results {
		if i >= b.k {
			break
		}
		out = append(out, Result{Title: r.Title, URL: r.URL, Snippet: r.Snippet})
	}
	return joinResults("", out), nil
}

func (b *Brave) Name() string { return "Brave Search" }
