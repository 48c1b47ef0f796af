package devicesignal

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHTTPProvider_Signal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = w.Write([]byte(`{"deviceIdentifier":"abc","os":"linux"}`))
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL, time.Second)
	signal, err := p.Signal(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"deviceIdentifier": "abc", "os": "linux"}, signal)
}

func TestHTTPProvider_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewHTTPProvider(srv.URL, 0).Signal(context.Background())
	assert.ErrorContains(t, err, "unexpected status")
}

type countingProvider struct {
	calls  int
	signal map[string]any
	err    error
}

func (c *countingProvider) Signal(context.Context) (map[string]any, error) {
	c.calls++
	return c.signal, c.err
}

func TestCachingProvider_MissThenStore(t *testing.T) {
	db, mock := redismock.NewClientMock()
	up := &countingProvider{signal: map[string]any{"k": "v"}}
	p := NewCachingProvider(db, up, "dev-1", time.Hour, discardLogger())

	mock.ExpectGet(cacheKeyPrefix + "dev-1").RedisNil()
	mock.ExpectSet(cacheKeyPrefix+"dev-1", []byte(`{"k":"v"}`), time.Hour).SetVal("OK")

	signal, err := p.Signal(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"k": "v"}, signal)
	assert.Equal(t, 1, up.calls)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCachingProvider_Hit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	up := &countingProvider{}
	p := NewCachingProvider(db, up, "dev-1", time.Hour, discardLogger())

	mock.ExpectGet(cacheKeyPrefix + "dev-1").SetVal(`{"k":"cached"}`)

	signal, err := p.Signal(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "cached", signal["k"])
	assert.Zero(t, up.calls)
}

func TestCachingProvider_UpstreamError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	up := &countingProvider{err: errors.New("timeout")}
	p := NewCachingProvider(db, up, "dev-1", time.Hour, discardLogger())

	mock.ExpectGet(cacheKeyPrefix + "dev-1").SetErr(errors.New("redis down"))

	_, err := p.Signal(context.Background())
	assert.ErrorContains(t, err, "upstream")
	assert.Equal(t, 1, up.calls)
}

func TestStatic(t *testing.T) {
	s, err := Static{"a": 1}.Signal(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, s["a"])
}
