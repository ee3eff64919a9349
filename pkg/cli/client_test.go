package cli

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	c := NewClient("http://localhost:8080/", "tok")
	assert.Equal(t, "http://localhost:8080", c.BaseURL)
	assert.Equal(t, "tok", c.Token)
	require.NotNil(t, c.HTTPClient)
	assert.Equal(t, 30*time.Second, c.HTTPClient.Timeout)
}

func TestDo_RequestShape(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "my-jwt-token")
	q := url.Values{}
	q.Set("context", "drawer")
	resp, err := c.Do(context.Background(), "/summaries/tables/a.b", q)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.MethodGet, got.Method)
	assert.Equal(t, "/v1/summaries/tables/a.b", got.URL.Path)
	assert.Equal(t, "drawer", got.URL.Query().Get("context"))
	assert.Equal(t, "application/json", got.Header.Get("Accept"))
	assert.Equal(t, "Bearer my-jwt-token", got.Header.Get("Authorization"))
}

func TestDo_NoAuth(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
	}))
	t.Cleanup(srv.Close)

	resp, err := NewClient(srv.URL, "").Do(context.Background(), "/notifications", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Empty(t, gotAuth)
}

func TestDo_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	_, err := NewClient(addr, "").Do(context.Background(), "/notifications", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request /notifications")
}

func TestCheckError(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantNil bool
		wantMsg string
		code    int
	}{
		{name: "success", status: 200, wantNil: true},
		{name: "no content", status: 204, wantNil: true},
		{name: "structured", status: 404, body: `{"code":404,"message":"table x not found"}`, wantMsg: "table x not found", code: 404},
		{name: "raw body", status: 502, body: "bad gateway\n", wantMsg: "bad gateway", code: 502},
		{name: "empty body", status: 500, code: 500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &http.Response{StatusCode: tt.status, Body: http.NoBody}
			if tt.body != "" {
				resp.Body = readCloser(tt.body)
			}
			err := checkError(resp)
			if tt.wantNil {
				require.NoError(t, err)
				return
			}
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.HTTPStatus)
			assert.Equal(t, tt.code, apiErr.Code)
			assert.Equal(t, tt.wantMsg, apiErr.Message)
		})
	}
}

func TestSummaryPath(t *testing.T) {
	assert.Equal(t, "/summaries/tables/db.schema.orders", summaryPath("tables", "db.schema.orders"))
	assert.Equal(t, "/summaries/tables/svc.db.%22my%20table%22", summaryPath("tables", `svc.db."my table"`))
}

type stringReadCloser struct{ *strings.Reader }

func (stringReadCloser) Close() error { return nil }

func readCloser(s string) stringReadCloser { return stringReadCloser{strings.NewReader(s)} }
