package nerclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantErr     string
		wantMileage string
	}{
		{
			name:        "success",
			status:      http.StatusOK,
			body:        `{"mileage": "150000 km", "year": "2015", "power": null, "fuel": "diesel"}`,
			wantMileage: "150000 km",
		},
		{
			name:    "server_error",
			status:  http.StatusInternalServerError,
			body:    `{"error": "model not loaded"}`,
			wantErr: "unexpected status 500",
		},
		{
			name:    "malformed_response",
			status:  http.StatusOK,
			body:    `{invalid json`,
			wantErr: "unmarshal response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/extract", r.URL.Path)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

				var req ExtractRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "najeto 150000 km", req.Text)

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient(srv.URL)
			resp, err := client.Extract(context.Background(), "najeto 150000 km")

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Nil(t, resp)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, resp)
			require.NotNil(t, resp.Mileage)
			assert.Equal(t, tt.wantMileage, *resp.Mileage)
			assert.Nil(t, resp.Power)
		})
	}
}

func TestExtract_Retries5xx(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if attempts.Add(1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"mileage": "90000 km"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	resp, err := client.Extract(context.Background(), "text")
	require.NoError(t, err)
	require.NotNil(t, resp.Mileage)
	assert.Equal(t, "90000 km", *resp.Mileage)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestExtract_NoRetryOn4xx(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"empty text"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.Extract(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Equal(t, int32(1), attempts.Load())
}

func TestExtract_ExhaustsRetries(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.Extract(context.Background(), "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Equal(t, int32(maxRetryAttempts), attempts.Load())
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	assert.NoError(t, client.Health(context.Background()))
}

func TestHealth_Down(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	assert.Error(t, client.Health(context.Background()))
}

func TestNewClient_Defaults(t *testing.T) {
	t.Parallel()
	c := NewClient("")
	hc := c.(*httpClient)
	assert.Equal(t, defaultBaseURL, hc.baseURL)
	assert.NotNil(t, hc.http)
}

func TestWithHTTPClient(t *testing.T) {
	t.Parallel()
	custom := &http.Client{}
	c := NewClient("http://model:8008", WithHTTPClient(custom))
	hc := c.(*httpClient)
	assert.Equal(t, custom, hc.http)
}
