package stream

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"launchpad-indexer/internal/domain"
	"launchpad-indexer/internal/observability"
)

// SourceConfig configures WebSocket source behavior.
type SourceConfig struct {
	// ReconnectDelay is the initial delay before a reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay caps the exponential backoff.
	MaxReconnectDelay time.Duration
	// ReadTimeout is the timeout for reading one message.
	ReadTimeout time.Duration
	// HandshakeTimeout bounds the dial.
	HandshakeTimeout time.Duration
}

// DefaultSourceConfig returns default source configuration.
func DefaultSourceConfig() SourceConfig {
	return SourceConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		ReadTimeout:       60 * time.Second,
		HandshakeTimeout:  10 * time.Second,
	}
}

// Source reads event envelopes from the upstream delivery service over
// WebSocket and emits typed events. The upstream redelivers anything
// unacknowledged on reconnect, so a dropped connection never loses events;
// the consumer's dedup gate absorbs the resulting duplicates.
type Source struct {
	endpoint string
	cfg      SourceConfig
	logger   *zap.Logger
}

// NewSource creates a Source for the given WebSocket endpoint.
func NewSource(endpoint string, cfg SourceConfig, logger *zap.Logger) *Source {
	return &Source{
		endpoint: endpoint,
		cfg:      cfg,
		logger:   logger.Named("stream"),
	}
}

// Run connects and feeds parsed events into out until the context is
// cancelled. Undecodable frames are logged and skipped. Closes out on
// return.
func (s *Source) Run(ctx context.Context, out chan<- domain.Event) {
	defer close(out)

	delay := s.cfg.ReconnectDelay
	for {
		conn, err := s.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Warn("dial failed, retrying",
				zap.String("endpoint", s.endpoint),
				zap.Duration("delay", delay),
				zap.Error(err))
			observability.RecordStreamReconnect()
			if !sleep(ctx, delay) {
				return
			}
			delay = nextDelay(delay, s.cfg.MaxReconnectDelay)
			continue
		}

		delay = s.cfg.ReconnectDelay
		s.logger.Info("connected", zap.String("endpoint", s.endpoint))

		if !s.readAll(ctx, conn, out) {
			conn.Close()
			return
		}
		conn.Close()

		if ctx.Err() != nil {
			return
		}
		observability.RecordStreamReconnect()
		if !sleep(ctx, delay) {
			return
		}
		delay = nextDelay(delay, s.cfg.MaxReconnectDelay)
	}
}

func (s *Source) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: s.cfg.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, s.endpoint, nil)
	return conn, err
}

// readAll reads frames until the connection breaks. Returns false when the
// context ended and the source should stop.
func (s *Source) readAll(ctx context.Context, conn *websocket.Conn, out chan<- domain.Event) bool {
	// Unblock the read loop on cancellation.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	for {
		conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return false
			}
			s.logger.Warn("read failed, reconnecting", zap.Error(err))
			return true
		}

		event, err := ParseEnvelope(raw)
		if err != nil {
			observability.RecordStreamParseError()
			s.logger.Warn("undecodable envelope skipped", zap.Error(err))
			continue
		}

		select {
		case out <- event:
		case <-ctx.Done():
			return false
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

func nextDelay(current, max time.Duration) time.Duration {
	current *= 2
	if current > max {
		current = max
	}
	return current
}
