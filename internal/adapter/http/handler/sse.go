package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/fundsbook/internal/adapter/http/dto"
)

const defaultHeartbeat = 15 * time.Second

// StreamRecorder receives live stream metrics.
type StreamRecorder interface {
	StreamOpened()
	StreamClosed()
	SnapshotStreamed()
}

type nopStreamRecorder struct{}

func (nopStreamRecorder) StreamOpened()     {}
func (nopStreamRecorder) StreamClosed()     {}
func (nopStreamRecorder) SnapshotStreamed() {}

// streamer turns a watch callback into a Server-Sent Events response.
type streamer struct {
	streams   StreamRecorder
	heartbeat time.Duration
}

func newStreamer(streams StreamRecorder, heartbeat time.Duration) streamer {
	if streams == nil {
		streams = nopStreamRecorder{}
	}
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	return streamer{streams: streams, heartbeat: heartbeat}
}

// serve runs watch and writes every value it sends as one event named
// event. Errors before the first value become a plain JSON error response;
// later ones end the stream with an "error" event.
func (s streamer) serve(w http.ResponseWriter, r *http.Request, event string, watch func(ctx context.Context, send func(any) error) error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported", "")
		return
	}

	s.streams.StreamOpened()
	defer s.streams.StreamClosed()

	var wg sync.WaitGroup
	defer wg.Wait()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	sse := &sseWriter{w: w, flusher: flusher}
	started := false

	err := watch(ctx, func(v any) error {
		if !started {
			started = true
			sse.start()

			wg.Add(1)
			go func() {
				defer wg.Done()
				s.keepAlive(ctx, sse)
			}()
		}

		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		if err := sse.event(event, data); err != nil {
			return err
		}
		s.streams.SnapshotStreamed()
		return nil
	})

	switch {
	case !started:
		writeDomainError(w, r, "failed to stream "+event, err)
	case err == nil, errors.Is(err, context.Canceled):
	default:
		zerolog.Ctx(r.Context()).Warn().Err(err).Str("event", event).Str("path", r.URL.Path).Msg("stream ended")
		data, _ := json.Marshal(dto.ErrorResponse{Error: "stream ended"})
		_ = sse.event("error", data)
	}
}

func (s streamer) keepAlive(ctx context.Context, sse *sseWriter) {
	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := sse.comment("ping"); err != nil {
				return
			}
		}
	}
}

// sseWriter serializes Server-Sent Events frames onto one response.
type sseWriter struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
}

func (s *sseWriter) start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := s.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	// Streams outlive the server's write timeout.
	_ = http.NewResponseController(s.w).SetWriteDeadline(time.Time{})
	s.w.WriteHeader(http.StatusOK)
	s.flusher.Flush()
}

// event writes one event. data must not contain newlines.
func (s *sseWriter) event(name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", name, data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

func (s *sseWriter) comment(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := fmt.Fprintf(s.w, ": %s\n\n", text); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}
