package semantic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/validate-cli/internal/resilience"
)

func TestValidate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/validate", r.URL.Path)

		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Acme Inc", req.SourceValue)
		assert.Equal(t, "Acme Incorporated", req.ExtractedValue)
		assert.Equal(t, "name", req.FieldType)
		assert.Equal(t, "company", req.FieldName)

		w.Write([]byte(`{"match": true, "confidence": 0.9, "reasoning": "same entity"}`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))

	raw, err := c.Validate(context.Background(), Request{
		SourceValue:    "Acme Inc",
		ExtractedValue: "Acme Incorporated",
		FieldType:      "name",
		FieldName:      "company",
	})
	require.NoError(t, err)
	assert.Contains(t, raw, `"match": true`)
}

func TestValidateWireFieldNames(t *testing.T) {
	// The service contract uses csv_value/web_value keys.
	body, err := json.Marshal(Request{SourceValue: "a", ExtractedValue: "b", FieldType: "text", FieldName: "f"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"csv_value":"a","web_value":"b","field_type":"text","field_name":"f"}`, string(body))
}

func TestValidateTransientStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))

	_, err := c.Validate(context.Background(), Request{})
	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err))
}

func TestValidatePermanentStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))

	_, err := c.Validate(context.Background(), Request{})
	require.Error(t, err)
	assert.False(t, resilience.IsTransient(err))
}

func TestHealthy(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		status  int
		wantErr string
	}{
		{"ready", `{"status": "ok", "model_loaded": true}`, http.StatusOK, ""},
		{"model not loaded", `{"status": "ok", "model_loaded": false}`, http.StatusOK, "model not loaded"},
		{"unhealthy status", `down`, http.StatusInternalServerError, "health status 500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/health", r.URL.Path)
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			err := NewClient(WithBaseURL(srv.URL)).Healthy(context.Background())
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
