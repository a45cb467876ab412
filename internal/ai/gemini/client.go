package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/yegors/daily-sky/internal/ai"
	"github.com/yegors/daily-sky/pkg/logger"
	"google.golang.org/genai"
)

// Config holds the settings needed to talk to the Gemini API
type Config struct {
	APIKey  string
	BaseURL string // Optional endpoint override (proxies, tests)
	Timeout time.Duration
}

// Client is a ContentGenerator backed by the Gemini API
type Client struct {
	config     Config
	logger     *logger.Logger
	httpClient *http.Client

	mu     sync.Mutex
	client *genai.Client
}

// NewClient creates a new Gemini client. The underlying SDK client is created on
// first use, so a process started without a key still comes up.
func NewClient(config Config, log *logger.Logger) *Client {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		config: config,
		logger: log.Named("gemini"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) sdk(ctx context.Context) (*genai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		return c.client, nil
	}

	cc := &genai.ClientConfig{
		APIKey:     c.config.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: c.httpClient,
	}
	if c.config.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: c.config.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	c.client = client
	return client, nil
}

// GenerateContent implements ai.ContentGenerator
func (c *Client) GenerateContent(ctx context.Context, req ai.GenerateRequest) (*ai.GenerateResponse, error) {
	client, err := c.sdk(ctx)
	if err != nil {
		return nil, err
	}

	var cfg *genai.GenerateContentConfig
	if req.SearchGround {
		cfg = &genai.GenerateContentConfig{
			Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
		}
	}

	start := time.Now()
	resp, err := client.Models.GenerateContent(ctx, req.Model, genai.Text(req.Prompt), cfg)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			c.logger.Error("Gemini request rejected",
				logger.String("model", req.Model),
				logger.Int("status_code", apiErr.Code),
				logger.String("status", apiErr.Status))
		} else {
			c.logger.Error("Gemini request failed",
				logger.String("model", req.Model),
				logger.Error(err))
		}
		return nil, fmt.Errorf("gemini generate content: %w", err)
	}

	out := &ai.GenerateResponse{
		Text:      resp.Text(),
		Citations: citations(resp),
	}

	c.logger.Debug("Gemini response received",
		logger.String("model", req.Model),
		logger.Bool("grounded", req.SearchGround),
		logger.Int("text_length", len(out.Text)),
		logger.Int("citations", len(out.Citations)),
		logger.Duration("duration", time.Since(start)))

	return out, nil
}

// citations collects web URIs from the first candidate's grounding metadata
func citations(resp *genai.GenerateContentResponse) []string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return nil
	}
	meta := resp.Candidates[0].GroundingMetadata
	if meta == nil {
		return nil
	}

	var urls []string
	for _, chunk := range meta.GroundingChunks {
		if chunk == nil || chunk.Web == nil || chunk.Web.URI == "" {
			continue
		}
		urls = append(urls, chunk.Web.URI)
	}
	return urls
}

var _ ai.ContentGenerator = (*Client)(nil)
