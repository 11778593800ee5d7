package huggingface

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-query-router-be/pkg/llm"
)

func TestHuggingFaceChat(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer hf_test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":" {\"category\":\"AUTOMATION\"} "}}]}`))
	}))
	defer srv.Close()

	p := NewHuggingFaceProvider("hf_test", srv.URL+"/v1/", "meta-llama/Llama-3.1-8B-Instruct")
	out, err := p.Chat(context.Background(), []llm.Message{
		{Role: "model", Content: "earlier"},
		{Role: "user", Content: "schedule my backups"},
	}, llm.WithTemperature(0), llm.WithJSONMode())

	require.NoError(t, err)
	assert.Equal(t, `{"category":"AUTOMATION"}`, out)
	assert.Equal(t, "meta-llama/Llama-3.1-8B-Instruct", got["model"])
	assert.Equal(t, 0.0, got["temperature"], "an explicit zero temperature is sent")
	assert.Equal(t, map[string]interface{}{"type": "json_object"}, got["response_format"])
	messages := got["messages"].([]interface{})
	assert.Equal(t, "assistant", messages[0].(map[string]interface{})["role"])
}

func TestHuggingFaceOmitsUnsetTemperature(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"hi"}}]}`))
	}))
	defer srv.Close()

	_, err := NewHuggingFaceProvider("", srv.URL, "m").Generate(context.Background(), "hello")
	require.NoError(t, err)
	_, present := got["temperature"]
	assert.False(t, present)
	_, present = got["response_format"]
	assert.False(t, present)
}

func TestHuggingFaceErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
		wantIs  error
	}{
		{name: "api error body", status: http.StatusUnauthorized, body: `{"error":{"message":"invalid token"}}`, wantErr: "invalid token"},
		{name: "plain error status", status: http.StatusBadGateway, body: `upstream down`, wantErr: "status 502"},
		{name: "no choices", status: http.StatusOK, body: `{"choices":[]}`, wantIs: llm.ErrEmptyResponse},
		{name: "blank content", status: http.StatusOK, body: `{"choices":[{"message":{"content":"  "}}]}`, wantIs: llm.ErrEmptyResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewHuggingFaceProvider("", srv.URL, "m").Generate(context.Background(), "hello")
			require.Error(t, err)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
			}
			if tt.wantIs != nil {
				assert.ErrorIs(t, err, tt.wantIs)
			}
		})
	}
}
