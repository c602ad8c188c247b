package services

import (
  "bytes"
  "context"
  "encoding/json"
  "errors"
  "fmt"
  "io"
  "net"
  "net/http"
  "net/url"
  "os"
  "strconv"
  "strings"
  "time"

  "github.com/lilybloom/babynames-backend/internal/logger"
)

// OpenAIClient is the thin adapter around the generative-text service. One
// attempt per call: generation is user-triggered and the UI re-submits, so
// the client classifies failures instead of retrying.
type OpenAIClient interface {
  ChatComplete(ctx context.Context, system, user string, opts ChatOptions) (string, error)
}

type ChatOptions struct {
  Temperature float64
  MaxTokens   int
}

type openAIClient struct {
  log        *logger.Logger
  baseURL    string
  apiKey     string
  model      string
  httpClient *http.Client
}

func NewOpenAIClient(log *logger.Logger) (OpenAIClient, error) {
  apiKey := os.Getenv("OPENAI_API_KEY")
  if apiKey == "" {
    return nil, fmt.Errorf("missing OPENAI_API_KEY")
  }

  baseURL := os.Getenv("OPENAI_BASE_URL")
  if baseURL == "" {
    baseURL = "https://api.openai.com"
  }

  model := os.Getenv("OPENAI_MODEL")
  if model == "" {
    model = "gpt-4o-mini"
  }

  timeoutSec := 30
  if v := os.Getenv("OPENAI_TIMEOUT_SECONDS"); v != "" {
    if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed > 0 {
      timeoutSec = parsed
    }
  }

  return &openAIClient{
    log:        log.With("service", "OpenAIClient"),
    baseURL:    baseURL,
    apiKey:     apiKey,
    model:      model,
    httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
  }, nil
}

type openAIHTTPError struct {
  StatusCode int
  Body       string
}

func (e *openAIHTTPError) Error() string {
  return fmt.Sprintf("openai http %d: %s", e.StatusCode, e.Body)
}

func isTransientHTTP(code int) bool {
  if code == 408 || code == 429 {
    return true
  }
  if code >= 500 && code <= 599 {
    return true
  }
  return false
}

// isUnavailable folds transport-level and transient upstream failures into
// the OracleUnavailable class. A caller-side context cancel is not the
// oracle's fault and keeps its own error.
func isUnavailable(err error) bool {
  if err == nil {
    return false
  }
  if errors.Is(err, context.Canceled) {
    return false
  }
  if errors.Is(err, context.DeadlineExceeded) {
    return true
  }
  var netErr net.Error
  if errors.As(err, &netErr) && (netErr.Timeout() || netErr.Temporary()) {
    return true
  }
  var httpErr *openAIHTTPError
  if errors.As(err, &httpErr) {
    return isTransientHTTP(httpErr.StatusCode)
  }
  // Refused connections and DNS failures reach here as a bare *url.Error:
  // the oracle never answered, which is unavailability all the same.
  var urlErr *url.Error
  return errors.As(err, &urlErr)
}

type chatMessage struct {
  Role    string `json:"role"`
  Content string `json:"content"`
}

type chatCompletionRequest struct {
  Model       string        `json:"model"`
  Messages    []chatMessage `json:"messages"`
  Temperature float64       `json:"temperature,omitempty"`
  MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatCompletionResponse struct {
  Choices []struct {
    Message chatMessage `json:"message"`
  } `json:"choices"`
}

func (c *openAIClient) ChatComplete(ctx context.Context, system, user string, opts ChatOptions) (string, error) {
  req := chatCompletionRequest{
    Model: c.model,
    Messages: []chatMessage{
      {Role: "system", Content: system},
      {Role: "user", Content: user},
    },
    Temperature: opts.Temperature,
    MaxTokens:   opts.MaxTokens,
  }

  var resp chatCompletionResponse
  if err := c.doOnce(ctx, "POST", "/v1/chat/completions", req, &resp); err != nil {
    if errors.Is(err, context.Canceled) && ctx.Err() != nil {
      return "", err
    }
    if isUnavailable(err) {
      c.log.Warn("OpenAI request failed (transient)", "error", err)
      return "", errors.Join(ErrOracleUnavailable, err)
    }
    return "", err
  }

  if len(resp.Choices) == 0 {
    return "", fmt.Errorf("openai returned no choices")
  }
  return resp.Choices[0].Message.Content, nil
}

func (c *openAIClient) doOnce(ctx context.Context, method, path string, body any, out any) error {
  var buf bytes.Buffer
  if body != nil {
    if err := json.NewEncoder(&buf).Encode(body); err != nil {
      return err
    }
  }

  req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
  if err != nil {
    return err
  }
  req.Header.Set("Authorization", "Bearer "+c.apiKey)
  req.Header.Set("Content-Type", "application/json")

  resp, err := c.httpClient.Do(req)
  if err != nil {
    return err
  }

  raw, readErr := io.ReadAll(resp.Body)
  _ = resp.Body.Close()
  if readErr != nil {
    return readErr
  }

  if resp.StatusCode < 200 || resp.StatusCode >= 300 {
    return &openAIHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
  }

  if out == nil {
    return nil
  }
  if uErr := json.Unmarshal(raw, out); uErr != nil {
    return fmt.Errorf("openai decode error: %w", uErr)
  }
  return nil
}
