package netx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus(t *testing.T) {
	var gotMethod, gotCache string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotCache = r.Header.Get("Cache-Control")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	code, err := Status(context.Background(), ts.Client(), http.MethodHead, ts.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, code)
	assert.Equal(t, http.MethodHead, gotMethod)
	assert.Equal(t, "no-cache", gotCache)
}

func TestStatus_NonSuccessIsNotAnError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	code, err := Status(context.Background(), nil, http.MethodGet, ts.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestStatus_Errors(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	_, err := Status(context.Background(), nil, http.MethodGet, url)
	assert.Error(t, err, "closed server")

	_, err = Status(context.Background(), nil, "BAD METHOD", url)
	assert.Error(t, err, "invalid method")

	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer slow.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = Status(ctx, slow.Client(), http.MethodGet, slow.URL)
	assert.Error(t, err, "deadline")
}
