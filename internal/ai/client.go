package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/josinaldojr/workersai-rag/internal/rag"
)

const defaultBaseURL = "https://api.cloudflare.com/client/v4/accounts/"

// Workers AI model slugs, one per task.
const (
	ModelEmbeddings = "@cf/baai/bge-base-en-v1.5"
	ModelGeneration = "@cf/meta/llama-2-7b-chat-int8"
	ModelWhisper    = "@cf/openai/whisper"
	ModelSentiment  = "@cf/huggingface/distilbert-sst-2-int8"
)

const groundingInstruction = "When answering the question or responding, use the context provided, if it is provided and relevant."

// Client calls the Workers AI run endpoints. All responses come wrapped in
// the same {result, success, errors} envelope.
type Client struct {
	accountID  string
	apiToken   string
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

// WithBaseURL overrides the API base URL. Used by tests.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if !strings.HasSuffix(u, "/") {
			u += "/"
		}
		c.baseURL = u
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func NewClient(accountID, apiToken string, opts ...Option) (*Client, error) {
	if accountID == "" || apiToken == "" {
		return nil, fmt.Errorf("missing CF_ACCOUNT_ID or CF_API_TOKEN")
	}

	c := &Client{
		accountID:  accountID,
		apiToken:   apiToken,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// envelope is the wrapper every Workers AI endpoint returns.
type envelope struct {
	Result  json.RawMessage `json:"result"`
	Success bool            `json:"success"`
	Errors  []apiError      `json:"errors"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Embed converts text into the model's 768-float vector. Empty text is
// sent as-is; whether that is valid is up to the provider.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, &rag.EmbeddingError{Err: err}
	}

	data, err := c.run(ctx, ModelEmbeddings, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, embedErr(err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &rag.EmbeddingError{Err: err}
	}
	if !env.Success {
		return nil, &rag.EmbeddingError{Reason: joinErrors(env.Errors)}
	}

	var result struct {
		Data [][]float32 `json:"data"`
	}
	if err := json.Unmarshal(env.Result, &result); err != nil {
		return nil, &rag.EmbeddingError{Err: err}
	}
	if len(result.Data) == 0 {
		return nil, &rag.EmbeddingError{Reason: "no vectors in result"}
	}

	return result.Data[0], nil
}

// Generate sends the grounded prompt to the generation model and returns
// the provider response byte-for-byte.
func (c *Client) Generate(ctx context.Context, notes []string, question string) (json.RawMessage, error) {
	payload := struct {
		Messages []message `json:"messages"`
	}{Messages: buildMessages(notes, question)}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &rag.GenerationError{Err: err}
	}

	data, err := c.run(ctx, ModelGeneration, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, genErr(err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &rag.GenerationError{Err: err}
	}
	if !env.Success {
		return nil, &rag.GenerationError{Reason: joinErrors(env.Errors)}
	}

	return json.RawMessage(data), nil
}

// Transcribe forwards raw audio bytes to the speech recognition model.
func (c *Client) Transcribe(ctx context.Context, audio io.Reader) (json.RawMessage, error) {
	data, err := c.run(ctx, ModelWhisper, "", audio)
	if err != nil {
		return nil, fmt.Errorf("speech recognition: %w", err)
	}
	return json.RawMessage(data), nil
}

// Sentiment forwards text to the sentiment classification model.
func (c *Client) Sentiment(ctx context.Context, text string) (json.RawMessage, error) {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, err
	}

	data, err := c.run(ctx, ModelSentiment, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("sentiment analysis: %w", err)
	}
	return json.RawMessage(data), nil
}

// buildMessages assembles the prompt: an optional system message listing
// the context notes as bulleted lines, the fixed grounding instruction,
// then the user question. With no notes the context message is omitted
// entirely, never sent empty.
func buildMessages(notes []string, question string) []message {
	msgs := make([]message, 0, 3)

	if len(notes) > 0 {
		lines := make([]string, len(notes))
		for i, note := range notes {
			lines[i] = "- " + note
		}
		msgs = append(msgs, message{Role: "system", Content: "Context:\n" + strings.Join(lines, "\n")})
	}

	msgs = append(msgs, message{Role: "system", Content: groundingInstruction})
	msgs = append(msgs, message{Role: "user", Content: question})

	return msgs
}

func (c *Client) run(ctx context.Context, model, contentType string, body io.Reader) ([]byte, error) {
	url := c.baseURL + c.accountID + "/ai/run/" + model

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if timedOut(err) {
			return nil, &rag.TimeoutError{Op: model, Err: err}
		}
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%s returned status %d", model, resp.StatusCode)
	}

	return data, nil
}

func timedOut(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err)
}

// embedErr keeps timeouts as their own kind; everything else becomes an
// embedding failure.
func embedErr(err error) error {
	var te *rag.TimeoutError
	if errors.As(err, &te) {
		return err
	}
	return &rag.EmbeddingError{Err: err}
}

func genErr(err error) error {
	var te *rag.TimeoutError
	if errors.As(err, &te) {
		return err
	}
	return &rag.GenerationError{Err: err}
}

func joinErrors(errs []apiError) string {
	if len(errs) == 0 {
		return "unknown provider error"
	}
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

var _ rag.Embedder = (*Client)(nil)
var _ rag.Generator = (*Client)(nil)
