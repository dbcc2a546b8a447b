package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/matzehuels/blockout/pkg/cache"
	"github.com/matzehuels/blockout/pkg/errors"
	"github.com/matzehuels/blockout/pkg/observability"
)

// DefaultEndpoint is the OpenAI chat completions URL.
const DefaultEndpoint = "https://api.openai.com/v1/chat/completions"

const httpTimeout = 2 * time.Minute

// OpenAI extracts scenes with the OpenAI chat completions API, forcing a
// call to the parse_scene_graph function.
type OpenAI struct {
	apiKey   string
	endpoint string
	client   *http.Client
	backoff  cache.Backoff
}

// Option configures an OpenAI client.
type Option func(*OpenAI)

// WithEndpoint sends requests to url instead of DefaultEndpoint. Any
// server speaking the chat completions protocol works.
func WithEndpoint(url string) Option { return func(c *OpenAI) { c.endpoint = url } }

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option { return func(c *OpenAI) { c.client = hc } }

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *OpenAI) { c.client = &http.Client{Timeout: d} }
}

// WithBackoff replaces the retry schedule for transient failures.
func WithBackoff(b cache.Backoff) Option { return func(c *OpenAI) { c.backoff = b } }

// NewOpenAI returns an extractor authenticated with apiKey.
func NewOpenAI(apiKey string, opts ...Option) *OpenAI {
	c := &OpenAI{
		apiKey:   apiKey,
		endpoint: DefaultEndpoint,
		client:   &http.Client{Timeout: httpTimeout},
		backoff:  cache.DefaultBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type chatRequest struct {
	Model        string            `json:"model"`
	Messages     []chatMessage     `json:"messages"`
	Functions    []json.RawMessage `json:"functions"`
	FunctionCall functionChoice    `json:"function_call"`
}

type chatMessage struct {
	Role         string        `json:"role"`
	Content      string        `json:"content,omitempty"`
	FunctionCall *functionCall `json:"function_call,omitempty"`
}

type functionChoice struct {
	Name string `json:"name"`
}

type functionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Extract sends prompt to model and returns the arguments of the forced
// function call. Transport failures, rate limiting and 5xx responses are
// retried on the client's backoff schedule.
func (c *OpenAI) Extract(ctx context.Context, prompt, model string) ([]byte, error) {
	if c.apiKey == "" {
		return nil, errors.New(errors.ErrCodeUnauthorized, "openai: API key not set")
	}
	body, err := json.Marshal(chatRequest{
		Model:        model,
		Messages:     []chatMessage{{Role: "user", Content: prompt}},
		Functions:    []json.RawMessage{SceneFunction},
		FunctionCall: functionChoice{Name: FunctionName},
	})
	if err != nil {
		return nil, err
	}

	var out chatResponse
	err = c.backoff.Retry(ctx, func() error {
		out = chatResponse{}
		return c.post(ctx, body, &out)
	})
	if err != nil {
		return nil, err
	}

	if len(out.Choices) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "openai: no choices in response")
	}
	call := out.Choices[0].Message.FunctionCall
	if call == nil || call.Name != FunctionName {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "openai: no %s call in response", FunctionName)
	}
	args := []byte(call.Arguments)
	if !json.Valid(args) {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "openai: invalid JSON in function arguments")
	}
	return args, nil
}

func (c *OpenAI) post(ctx context.Context, body []byte, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	host, path := hostPath(c.endpoint)
	hooks := observability.HTTP()
	hooks.OnRequest(ctx, req.Method, host, path)
	start := time.Now()

	resp, err := c.client.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, host, path, err)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return cache.Retryable(errors.Wrap(errors.ErrCodeNetwork, fmt.Errorf("%w: %v", cache.ErrNetwork, err), "openai request failed"))
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "openai: decode response")
	}
	return nil
}

func checkStatus(resp *http.Response) error {
	code := resp.StatusCode
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return errors.New(errors.ErrCodeUnauthorized, "openai: %s", resp.Status)
	case code == http.StatusTooManyRequests:
		retryAfter, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		return cache.Retryable(errors.Wrap(errors.ErrCodeRateLimited, &errors.RateLimitedError{RetryAfter: retryAfter}, "openai: rate limited"))
	case code >= 500:
		return cache.Retryable(errors.Wrap(errors.ErrCodeNetwork, fmt.Errorf("%w: status %d", cache.ErrNetwork, code), "openai: %s", resp.Status))
	default:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.New(errors.ErrCodeInvalidInput, "openai: %s: %s", resp.Status, bytes.TrimSpace(msg))
	}
}

func hostPath(endpoint string) (string, string) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return endpoint, ""
	}
	return u.Host, u.Path
}

var _ Extractor = (*OpenAI)(nil)
