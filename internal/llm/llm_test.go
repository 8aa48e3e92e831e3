package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/doccollate/internal/common"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"fenced", "说明如下\n```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"bare with prose", `结果: {"a": "x"} 完毕`, `{"a": "x"}`},
		{"trailing comma and comment", "{\n\"a\": \"http://x\", // note\n}", "{\n\"a\": \"http://x\"}"},
		{"none", "没有结果", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSON(tt.in))
		})
	}
}

func TestDecodeObject(t *testing.T) {
	m, err := DecodeObject("")
	require.NoError(t, err)
	assert.Empty(t, m)

	m, err = DecodeObject("```json\n{\"env__os\": \"Linux\",}\n```")
	require.NoError(t, err)
	assert.Equal(t, "Linux", m["env__os"])

	_, err = DecodeObject("not json")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrServiceCall))
}

func TestSingleFieldSchema(t *testing.T) {
	schema := SingleFieldSchema("env__os")
	tests := []struct {
		name string
		doc  string
		ok   bool
	}{
		{"string", `{"env__os": "Linux"}`, true},
		{"list", `{"env__os": ["Linux", {"name": "x"}]}`, true},
		{"bool", `{"env__os": true}`, true},
		{"missing", `{}`, false},
		{"extra key", `{"env__os": "Linux", "other": 1}`, false},
		{"null", `{"env__os": null}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateJSONAgainstSchema(schema, []byte(tt.doc))
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestSanitizeFieldObject(t *testing.T) {
	out, changed := SanitizeFieldObject(map[string]any{"ENV__OS ": " Linux ", "note": "x"}, "env__os", nil)
	assert.Equal(t, map[string]any{"env__os": "Linux"}, out)
	assert.Contains(t, changed, "note(unknown)")

	out, _ = SanitizeFieldObject(map[string]any{"answer": map[string]any{"env__os": "Windows"}}, "env__os", nil)
	assert.Equal(t, map[string]any{"env__os": "Windows"}, out)

	out, _ = SanitizeFieldObject(map[string]any{"env__os": nil}, "env__os", nil)
	assert.Empty(t, out)

	b, err := json.Marshal(out)
	require.NoError(t, err)
	assert.Error(t, ValidateJSONAgainstSchema(SingleFieldSchema("env__os"), b))
}

func TestSendJSONClassifiesStatus(t *testing.T) {
	tests := []struct {
		status    int
		transient bool
	}{
		{http.StatusTooManyRequests, true},
		{http.StatusBadGateway, true},
		{http.StatusBadRequest, false},
		{http.StatusUnauthorized, false},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":"x"}`))
			}))
			defer srv.Close()

			_, status, err := SendJSON(context.Background(), srv.Client(), srv.URL, map[string]any{"a": 1}, nil, nil)
			require.Error(t, err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.transient, IsTransient(err))
			assert.Equal(t, !tt.transient, IsFatal(err))
			assert.True(t, errors.Is(err, common.ErrServiceCall))
		})
	}
}

func TestCompleteJSONFallsBackToContent(t *testing.T) {
	c := CompleterFunc(func(_ context.Context, req Request) (Response, error) {
		assert.True(t, req.JSON)
		return Response{Content: `{"k": "v"}`}, nil
	})
	m, err := CompleteJSON(context.Background(), c, Request{User: "u"})
	require.NoError(t, err)
	assert.Equal(t, "v", m["k"])
}
