package stream

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roasbooster/analytics-backend/pkg/errors"
	"github.com/roasbooster/analytics-backend/pkg/logger"
)

type fakeSource struct {
	cached  string
	loadErr error
	updates chan string
}

func (f *fakeSource) LoadTodayRaw(context.Context) (string, error) {
	if f.loadErr != nil {
		return "", f.loadErr
	}
	return f.cached, nil
}

func (f *fakeSource) SubscribeToday(context.Context) (<-chan string, func(), error) {
	return f.updates, func() {}, nil
}

func testHub(source Source) *Hub {
	return NewHub(source, logger.New(logger.Options{ServiceName: "stream-test"}))
}

func serveStream(t *testing.T, hub *Hub, cancelAfter func(cancel context.CancelFunc)) string {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest("GET", "/api/stream", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		hub.ServeHTTP(rec, req)
	}()
	cancelAfter(cancel)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream handler did not return")
	}
	return rec.Body.String()
}

func TestHubSendsCachedReportOnConnect(t *testing.T) {
	source := &fakeSource{cached: `{"window":null}`, updates: make(chan string)}

	body := serveStream(t, testHub(source), func(cancel context.CancelFunc) {
		time.Sleep(20 * time.Millisecond)
		cancel()
	})

	assert.Contains(t, body, "event: today\ndata: {\"window\":null}\n\n")
}

func TestHubRelaysPublishedUpdates(t *testing.T) {
	source := &fakeSource{cached: `{"v":1}`, updates: make(chan string, 1)}

	body := serveStream(t, testHub(source), func(cancel context.CancelFunc) {
		source.updates <- `{"v":2}`
		time.Sleep(20 * time.Millisecond)
		cancel()
	})

	assert.Contains(t, body, `data: {"v":1}`)
	assert.Contains(t, body, `data: {"v":2}`)
}

func TestHubEmitsErrorEventWhenNoCache(t *testing.T) {
	source := &fakeSource{
		loadErr: errors.New(errors.CodeNotFound, "today report not generated yet"),
		updates: make(chan string),
	}

	body := serveStream(t, testHub(source), func(cancel context.CancelFunc) {
		time.Sleep(20 * time.Millisecond)
		cancel()
	})

	assert.Contains(t, body, "event: error")
	assert.Contains(t, body, "not generated yet")
}

func TestHubHeartbeat(t *testing.T) {
	source := &fakeSource{cached: `{}`, updates: make(chan string)}
	hub := testHub(source)
	hub.heartbeat = 10 * time.Millisecond

	body := serveStream(t, hub, func(cancel context.CancelFunc) {
		time.Sleep(50 * time.Millisecond)
		cancel()
	})

	assert.Contains(t, body, ": ping")
}

func TestHubContentType(t *testing.T) {
	source := &fakeSource{cached: `{}`, updates: make(chan string)}

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest("GET", "/api/stream", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		testHub(source).ServeHTTP(rec, req)
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()
	<-done

	require.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
}
