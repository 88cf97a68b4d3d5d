// Package gemini implements the workflow's text-generation and web-search
// capabilities on the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"google.golang.org/genai"

	"github.com/outreachkit/outreach-agent-pipeline/pkg/agent"
	"github.com/outreachkit/outreach-agent-pipeline/pkg/batch"
)

// Config configures the Gemini-backed capabilities.
type Config struct {
	APIKey string
	Model  string

	// SearchModel overrides Model for grounded web-search calls. Empty
	// means use Model.
	SearchModel string

	// BaseURL overrides the Gemini API base URL. Useful for proxies/testing.
	BaseURL string
}

// Client implements agent.TextGenerator and agent.WebSearcher on one shared
// genai client, so all stages go through a single injected capability.
type Client struct {
	client      *genai.Client
	model       string
	searchModel string
}

// New builds a client.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("GEMINI_MODEL is required")
	}

	cc := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(cfg.APIKey),
		Backend: genai.BackendGeminiAPI,
	}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		cc.HTTPOptions.BaseURL = strings.TrimSpace(cfg.BaseURL)
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, err
	}
	searchModel := strings.TrimSpace(cfg.SearchModel)
	if searchModel == "" {
		searchModel = strings.TrimSpace(cfg.Model)
	}
	return &Client{
		client:      client,
		model:       strings.TrimSpace(cfg.Model),
		searchModel: searchModel,
	}, nil
}

// Generate implements agent.TextGenerator.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Models.GenerateContent(
		ctx,
		c.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{CandidateCount: 1},
	)
	if err != nil {
		return "", classifyErr(err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.New("gemini: empty response")
	}
	return text, nil
}

// Search implements agent.WebSearcher using Gemini's grounded search tool.
// The ranked result list comes from the grounding metadata; the response
// text serves as the raw context.
func (c *Client) Search(ctx context.Context, query string) (agent.SearchResponse, error) {
	resp, err := c.client.Models.GenerateContent(
		ctx,
		c.searchModel,
		genai.Text(searchPrompt(query)),
		&genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{GoogleSearch: &genai.GoogleSearch{}},
			},
			CandidateCount: 1,
		},
	)
	if err != nil {
		return agent.SearchResponse{}, classifyErr(err)
	}

	return agent.SearchResponse{
		Results: extractResults(resp),
		Context: strings.TrimSpace(resp.Text()),
		Queries: extractWebSearchQueries(resp),
	}, nil
}

func searchPrompt(query string) string {
	return strings.TrimSpace(`
Search the web for the following and report what you find, citing sources.
Stick to facts present in the results; say so if nothing relevant is found.

Query: ` + query + `
`)
}

// classifyErr wraps rate-limit and server-side failures as transient so the
// batch runner can retry them when retries are enabled.
func classifyErr(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == 429 || apiErr.Code/100 == 5 {
			return &batch.TransientError{Err: err}
		}
		return err
	}
	var ne net.Error
	if errors.As(err, &ne) && (ne.Timeout() || ne.Temporary()) {
		return &batch.TransientError{Err: err}
	}
	return err
}

func extractResults(resp *genai.GenerateContentResponse) []agent.SearchResult {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return nil
	}
	c := resp.Candidates[0]
	if c.GroundingMetadata == nil {
		return nil
	}

	var out []agent.SearchResult
	seen := make(map[string]struct{})
	for _, chunk := range c.GroundingMetadata.GroundingChunks {
		if chunk == nil || chunk.Web == nil {
			continue
		}
		uri := strings.TrimSpace(chunk.Web.URI)
		if uri == "" {
			continue
		}
		if _, ok := seen[uri]; ok {
			continue
		}
		seen[uri] = struct{}{}
		out = append(out, agent.SearchResult{
			Title: strings.TrimSpace(chunk.Web.Title),
			URL:   uri,
		})
	}
	return out
}

func extractWebSearchQueries(resp *genai.GenerateContentResponse) []string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return nil
	}
	c := resp.Candidates[0]
	if c.GroundingMetadata == nil {
		return nil
	}
	return dedupePreserveOrder(c.GroundingMetadata.WebSearchQueries)
}

func dedupePreserveOrder(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
