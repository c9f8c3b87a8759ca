package navigate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/validate-cli/internal/model"
)

func TestResolveURL(t *testing.T) {
	log := zap.NewNop()
	record := model.NewRecord("row-1",
		[]string{"id", "name"},
		[]string{"c-42", "Acme & Sons"},
	)

	tests := []struct {
		name     string
		template string
		want     string
	}{
		{"single placeholder", "https://example.com/companies/{id}", "https://example.com/companies/c-42"},
		{"value is url encoded", "https://example.com/search?q={name}", "https://example.com/search?q=Acme+%26+Sons"},
		{"multiple placeholders", "https://example.com/{id}/{name}", "https://example.com/c-42/Acme+%26+Sons"},
		{"unresolved placeholder left intact", "https://example.com/{missing}", "https://example.com/{missing}"},
		{"no placeholders", "https://example.com/static", "https://example.com/static"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveURL(log, tt.template, record))
		})
	}
}

func TestHTTPNavigatorNavigate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "validate-cli/1.0", r.Header.Get("User-Agent"))
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer srv.Close()

	n := NewHTTPNavigator(HTTPOptions{}, zap.NewNop())
	record := model.NewRecord("row-1", []string{"path"}, []string{"page"})

	snap, err := n.Navigate(context.Background(), srv.URL+"/{path}", record)
	require.NoError(t, err)
	assert.Equal(t, 200, snap.StatusCode)
	assert.Contains(t, snap.HTML, "ok")
	assert.Equal(t, srv.URL+"/page", snap.FinalURL)
	assert.Nil(t, snap.Screenshot)
}

func TestHTTPNavigatorNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	n := NewHTTPNavigator(HTTPOptions{}, zap.NewNop())
	record := model.NewRecord("row-1", nil, nil)

	_, err := n.Navigate(context.Background(), srv.URL+"/missing", record)
	require.Error(t, err)
	assert.True(t, IsNavigationError(err))
	assert.Contains(t, err.Error(), "404")
}

func TestHTTPNavigatorConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // navigate against a dead server

	n := NewHTTPNavigator(HTTPOptions{}, zap.NewNop())
	record := model.NewRecord("row-1", nil, nil)

	_, err := n.Navigate(context.Background(), srv.URL, record)
	require.Error(t, err)
	assert.True(t, IsNavigationError(err))
}
