package tasks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"nodebridge/internal/common"
	"nodebridge/internal/domain/clickup"
	"nodebridge/internal/domain/execution"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClickUpClient_AuthorizationHeader(t *testing.T) {
	tests := []struct {
		auth string
		want string
	}{
		{execution.AuthAccessToken, "pk_123"},
		{"", "pk_123"},
		{execution.AuthOAuth2, "Bearer pk_123"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, tt.want, r.Header.Get("Authorization"))
				_, _ = io.WriteString(w, `{"teams": []}`)
			}))
			defer srv.Close()

			client := NewClickUpClient(srv.URL, "pk_123", tt.auth, 5*time.Second)
			var out map[string]any
			require.NoError(t, client.Get(context.Background(), "/team", nil, &out))
		})
	}
}

func TestClickUpClient_CreateTask(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/list/901/task", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = io.WriteString(w, `{"id": "t1", "name": "Call back"}`)
	}))
	defer srv.Close()

	client := NewClickUpClient(srv.URL, "pk", execution.AuthAccessToken, 5*time.Second)
	resp, err := client.CreateTask(context.Background(), "901", &clickup.TaskRequest{Name: "Call back", Priority: 2})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"id": "t1", "name": "Call back"}, resp)
	assert.Equal(t, map[string]any{"name": "Call back", "priority": float64(2)}, body)
}

func TestClickUpClient_SetCustomField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/task/t1/field/f-1", r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"value": 1700000000000, "value_options": {"time": true}}`, string(raw))
		_, _ = io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	client := NewClickUpClient(srv.URL, "pk", execution.AuthAccessToken, 5*time.Second)
	resp, err := client.SetCustomField(context.Background(), "t1", "f-1", &clickup.FieldUpdate{
		Value:        1700000000000,
		ValueOptions: &clickup.ValueOptions{Time: true},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, resp)
}

func TestClickUpClient_GetQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/list/9/task", r.URL.Path)
		assert.Equal(t, "false", r.URL.Query().Get("archived"))
		_, _ = io.WriteString(w, `{"tasks": [{"id": "t1", "name": "First"}]}`)
	}))
	defer srv.Close()

	client := NewClickUpClient(srv.URL, "pk", execution.AuthAccessToken, 5*time.Second)
	var out struct {
		Tasks []struct {
			ID string `json:"id"`
		} `json:"tasks"`
	}
	require.NoError(t, client.Get(context.Background(), "/list/9/task", url.Values{"archived": {"false"}}, &out))
	require.Len(t, out.Tasks, 1)
	assert.Equal(t, "t1", out.Tasks[0].ID)
}

func TestClickUpClient_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"err": "Token invalid", "ECODE": "OAUTH_025"}`)
	}))
	defer srv.Close()

	client := NewClickUpClient(srv.URL, "pk", execution.AuthAccessToken, 5*time.Second)
	_, err := client.CreateTask(context.Background(), "1", &clickup.TaskRequest{Name: "n"})

	var transportErr *common.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, http.StatusUnauthorized, transportErr.StatusCode)
	assert.Equal(t, "clickup request failed with status 401: Token invalid (OAUTH_025)", err.Error())
	assert.JSONEq(t, `{"err": "Token invalid", "ECODE": "OAUTH_025"}`, transportErr.Body)
}
