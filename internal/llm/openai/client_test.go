package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/doccollate/internal/common"
	"github.com/joseph-ayodele/doccollate/internal/llm"
)

func chatServer(t *testing.T, status []int, content string, seen func(chatRequest)) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if seen != nil {
			seen(req)
		}
		if int(n) <= len(status) {
			w.WriteHeader(status[n-1])
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model": "gpt-4o-mini",
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newTestClient(url string, retries int) *Client {
	return NewClient(Config{
		APIKey:            "sk-test",
		BaseURL:           url,
		RequestsPerMinute: 6000,
		Burst:             10,
		MaxRetries:        retries,
		BaseBackoff:       time.Millisecond,
	}, nil)
}

func TestCompleteJSON(t *testing.T) {
	srv, _ := chatServer(t, nil, `{"env__os": "Linux"}`, func(req chatRequest) {
		assert.Equal(t, "gpt-4o-mini", req.Model)
		assert.InDelta(t, 0.2, req.Temperature, 1e-6)
		assert.Equal(t, map[string]any{"type": "json_object"}, req.ResponseFormat)
		if !assert.Len(t, req.Messages, 2) {
			return
		}
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "user", req.Messages[1].Role)
	})

	resp, err := newTestClient(srv.URL, 0).Complete(context.Background(), llm.Request{
		System: "sys", User: "user", Temperature: 0.2, JSON: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Linux", resp.Object["env__os"])
}

func TestCompleteText(t *testing.T) {
	srv, _ := chatServer(t, nil, "  摘要内容  ", func(req chatRequest) {
		assert.Nil(t, req.ResponseFormat)
	})
	got, err := llm.CompleteText(context.Background(), newTestClient(srv.URL, 0), llm.Request{User: "u", Temperature: 0.2})
	require.NoError(t, err)
	assert.Equal(t, "摘要内容", got)
}

func TestCompleteRetriesTransient(t *testing.T) {
	srv, calls := chatServer(t, []int{http.StatusServiceUnavailable, http.StatusTooManyRequests}, `{}`, nil)

	_, err := newTestClient(srv.URL, 2).Complete(context.Background(), llm.Request{User: "u", JSON: true})
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(calls))
}

func TestCompleteFatalNotRetried(t *testing.T) {
	srv, calls := chatServer(t, []int{http.StatusBadRequest}, `{}`, nil)

	_, err := newTestClient(srv.URL, 2).Complete(context.Background(), llm.Request{User: "u"})
	require.Error(t, err)
	assert.True(t, llm.IsFatal(err))
	assert.True(t, errors.Is(err, common.ErrServiceCall))
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestCompleteBadJSONContent(t *testing.T) {
	srv, _ := chatServer(t, nil, "抱歉，无法回答", nil)

	_, err := newTestClient(srv.URL, 0).Complete(context.Background(), llm.Request{User: "u", JSON: true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrServiceCall))
}
