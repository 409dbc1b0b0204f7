package stream

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/roasbooster/analytics-backend/pkg/errors"
	"github.com/roasbooster/analytics-backend/pkg/logger"
)

const heartbeatInterval = 15 * time.Second

// Source is what the hub needs from the cache/relay pair.
type Source interface {
	LoadTodayRaw(ctx context.Context) (string, error)
	SubscribeToday(ctx context.Context) (<-chan string, func(), error)
}

// Hub serves the live today report over server-sent events. Each client
// gets the cached payload on connect, then every published update until
// it disconnects.
type Hub struct {
	source Source
	logg   *logger.Logger

	heartbeat time.Duration
}

func NewHub(source Source, logg *logger.Logger) *Hub {
	return &Hub{source: source, logg: logg, heartbeat: heartbeatInterval}
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	ctx := r.Context()

	if body, err := h.source.LoadTodayRaw(ctx); err != nil {
		if coded := errors.As(err); coded != nil && coded.Code() == errors.CodeNotFound {
			writeEvent(w, flusher, "error", `{"error":"today report not generated yet"}`)
		} else {
			h.logg.Error(ctx, "stream: loading cached today report", err)
			writeEvent(w, flusher, "error", `{"error":"today report unavailable"}`)
		}
	} else {
		writeEvent(w, flusher, "today", body)
	}

	updates, cancel, err := h.source.SubscribeToday(ctx)
	if err != nil {
		h.logg.Error(ctx, "stream: subscribing to today channel", err)
		writeEvent(w, flusher, "error", `{"error":"live updates unavailable"}`)
		return
	}
	defer cancel()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case body, ok := <-updates:
			if !ok {
				return
			}
			writeEvent(w, flusher, "today", body)
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, flusher http.Flusher, event, data string) {
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	flusher.Flush()
}
