// Package search adapts web search providers to a single "query in, text blob out" call.
package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type Provider string

const (
	SerpAPIProvider Provider = "serpapi"
	SerperProvider  Provider = "serper"
	BraveProvider   Provider = "brave"
)

var ErrUnsupportedProvider = errors.New("unsupported search provider")

// Searcher returns provider results flattened into one text blob. Name is the provenance label.
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
	Name() string
}

// Result is one organic hit.
type Result struct {
	Title   string
	URL     string
	Snippet string
}

// Options configures provider construction. BaseURL overrides the provider endpoint.
type Options struct {
	APIKey     string
	BaseURL    string
	Results    int
	HTTPClient *http.Client
}

// New builds the searcher for provider.
func New(provider Provider, opts Options) (Searcher, error) {
	if opts.Results <= 0 {
		opts.Results = 5
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	switch provider {
	case SerpAPIProvider:
		return NewSerpAPI(opts.APIKey)
	case SerperProvider:
		return NewSerper(opts), nil
	case BraveProvider:
		return NewBrave(opts), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, provider)
	}
}

// joinResults renders hits as numbered lines; an empty slice yields "".
func joinResults(lead string, results []Result) string {
	var sb strings.Builder
	if lead != "" {
		sb.WriteString(lead)
		sb.WriteString("\n")
	}
	for i, r := range results {
		fmt.Fprintf(&sb, "%d. %s", i+1, r.Title)
		if r.Snippet != "" {
			sb.WriteString(": ")
			sb.WriteString(r.Snippet)
		}
		if r.URL != "" {
			fmt.Fprintf(&sb, " (%s)", r.URL)
		}
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String())
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
