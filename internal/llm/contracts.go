package llm

import (
	"context"
)

// Request is one completion call. JSON asks the service for a single JSON
// object; the decoded object is returned in Response.Object.
type Request struct {
	System      string
	User        string
	Temperature float32
	JSON        bool
	// Purpose labels the call in logs and metrics (e.g. "field", "summary").
	Purpose string
}

type Response struct {
	Content string
	Object  map[string]any
	Model   string
}

// Completer is the completion service the pipeline depends on.
type Completer interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, req Request) (Response, error)

func (f CompleterFunc) Complete(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

// CompleteJSON sends req in JSON mode and returns the decoded object.
func CompleteJSON(ctx context.Context, c Completer, req Request) (map[string]any, error) {
	req.JSON = true
	resp, err := c.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.Object != nil {
		return resp.Object, nil
	}
	return DecodeObject(resp.Content)
}

// CompleteText sends req in text mode and returns the trimmed content.
func CompleteText(ctx context.Context, c Completer, req Request) (string, error) {
	req.JSON = false
	resp, err := c.Complete(ctx, req)
	if err != nil {
		return "", err
	}
	return trimContent(resp.Content), nil
}
