package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/joseph-ayodele/doccollate/internal/common"
	"github.com/joseph-ayodele/doccollate/internal/llm"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	Temperature    float32        `json:"temperature"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat map[string]any `json:"response_format,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete implements llm.Completer against chat/completions. JSON requests
// use response_format json_object and are decoded before returning.
func (c *Client) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	ctx, _ = common.EnsureRequestID(ctx)
	logger := common.LoggerFrom(ctx, c.logger).With("purpose", req.Purpose, "model", c.cfg.Model)
	start := time.Now()

	temp := req.Temperature
	if temp == 0 {
		temp = c.cfg.Temperature
	}
	body := chatRequest{
		Model:       c.cfg.Model,
		Temperature: temp,
	}
	if req.System != "" {
		body.Messages = append(body.Messages, chatMessage{Role: "system", Content: req.System})
	}
	body.Messages = append(body.Messages, chatMessage{Role: "user", Content: req.User})
	if req.JSON {
		body.ResponseFormat = map[string]any{"type": "json_object"}
	}

	logger.Info("llm.complete.start", "json", req.JSON, "user_len", len(req.User))

	raw, err := c.postWithRetry(ctx, body)
	if err != nil {
		logger.Error("llm.complete.http_error", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return llm.Response{}, err
	}

	var cc chatResponse
	if err := json.Unmarshal(raw, &cc); err != nil {
		logger.Error("llm.complete.decode_error", "error", err, "raw_bytes", len(raw))
		return llm.Response{}, llm.NewFatalError(common.NewAppError(common.CodeServiceCall, "decode openai response", fmt.Errorf("%w: %v", common.ErrServiceCall, err)))
	}
	if len(cc.Choices) == 0 {
		logger.Error("llm.complete.no_choices", "raw_bytes", len(raw))
		return llm.Response{}, llm.NewFatalError(common.NewAppError(common.CodeServiceCall, "no choices in openai response", common.ErrServiceCall))
	}

	resp := llm.Response{
		Content: strings.TrimSpace(cc.Choices[0].Message.Content),
		Model:   cc.Model,
	}
	if req.JSON {
		obj, err := llm.DecodeObject(resp.Content)
		if err != nil {
			logger.Error("llm.complete.json_error", "error", err, "content_len", len(resp.Content))
			return resp, llm.NewFatalError(err)
		}
		resp.Object = obj
	}

	logger.Info("llm.complete.ok", "content_len", len(resp.Content), "elapsed_ms", time.Since(start).Milliseconds())
	return resp, nil
}

func (c *Client) postWithRetry(ctx context.Context, body chatRequest) ([]byte, error) {
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.cfg.BaseBackoff * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
		raw, _, err := llm.SendJSON(ctx, c.http, endpoint, body, headers, c.logger)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		if !llm.IsTransient(err) {
			break
		}
		c.logger.Warn("llm.complete.retry", "attempt", attempt+1, "error", err)
	}
	return nil, lastErr
}
