// Package classifier provides zero-shot text classifiers that rank candidate label descriptions.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/itish2003/assistant/models"
)

// HuggingFace calls the Hugging Face inference API zero-shot-classification task.
type HuggingFace struct {
	httpClient *http.Client
	endpoint   string
	token      string
}

// NewHuggingFace targets <baseURL>/<model>.
func NewHuggingFace(httpClient *http.Client, baseURL, model, token string) *HuggingFace {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &HuggingFace{
		httpClient: httpClient,
		endpoint:   strings.TrimRight(baseURL, "/") + "/" + model,
		token:      token,
	}
}

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
}

type hfParameters struct {
	CandidateLabels []string `json:"candidate_labels"`
	MultiLabel      bool     `json:"multi_label"`
}

// hfPipelineResponse is the classic pipeline shape.
type hfPipelineResponse struct {
	Sequence string    `json:"sequence"`
	Labels   []string  `json:"labels"`
	Scores   []float64 `json:"scores"`
}

// Classify returns the labels ranked best first.
func (h *HuggingFace) Classify(ctx context.Context, text string, labels []string) ([]models.LabelScore, error) {
	body, err := json.Marshal(hfRequest{Inputs: text, Parameters: hfParameters{CandidateLabels: labels}})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal huggingface request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create huggingface request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call huggingface inference api: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read huggingface response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("huggingface api returned non-200 status: %d, body: %s", resp.StatusCode, truncate(raw, 200))
	}

	ranked, err := decodeHFResponse(raw)
	if err != nil {
		return nil, err
	}
	if len(ranked) == 0 {
		return nil, errors.New("huggingface returned no labels")
	}
	return ranked, nil
}

// decodeHFResponse accepts {labels,scores} objects as well as [{label,score}] lists.
func decodeHFResponse(raw []byte) ([]models.LabelScore, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, errors.New("empty huggingface response")
	}

	var ranked []models.LabelScore
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &ranked); err != nil {
			return nil, fmt.Errorf("failed to decode huggingface response: %w", err)
		}
	} else {
		var pr hfPipelineResponse
		if err := json.Unmarshal(trimmed, &pr); err != nil {
			return nil, fmt.Errorf("failed to decode huggingface response: %w", err)
		}
		if len(pr.Labels) != len(pr.Scores) {
			return nil, fmt.Errorf("huggingface response has %d labels but %d scores", len(pr.Labels), len(pr.Scores))
		}
		ranked = make([]models.LabelScore, len(pr.Labels))
		for i := range pr.Labels {
			ranked[i] = models.LabelScore{Label: pr.Labels[i], Score: pr.Scores[i]}
		}
	}

	sortRanked(ranked)
	return ranked, nil
}

// sortRanked orders by descending score, keeping input order for ties.
func sortRanked(ranked []models.LabelScore) {
	slices.SortStableFunc(ranked, func(a, b models.LabelScore) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
