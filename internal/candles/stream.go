package candles

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"tradetaper-analytics/internal/domain"
	"tradetaper-analytics/internal/observability"
	"tradetaper-analytics/internal/storage"
)

// StreamConfig configures the live candle stream.
type StreamConfig struct {
	// ReconnectDelay is the initial delay before a reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay caps the backoff between reconnect attempts.
	MaxReconnectDelay time.Duration
	// ReadTimeout is the timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is the timeout for writing messages.
	WriteTimeout time.Duration
	// Source is the provider tag recorded on streamed candles.
	Source string
}

// DefaultStreamConfig returns default stream configuration.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		Source:            "stream",
	}
}

// Stream subscribes to a websocket candle feed and warms the candle store
// with every closed bar it receives.
type Stream struct {
	endpoint string
	config   StreamConfig
	store    storage.CandleStore
	log      *logrus.Entry

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	// subscriptions survive reconnects
	subs   map[string]streamSub
	subsMu sync.RWMutex

	done chan struct{}
	wg   sync.WaitGroup
}

type streamSub struct {
	Symbol    string `json:"symbol"`
	Timeframe string `json:"timeframe"`
}

// streamMessage is the wire shape of one feed message.
type streamMessage struct {
	Symbol    string   `json:"symbol"`
	Timeframe string   `json:"timeframe"`
	Timestamp int64    `json:"timestamp"`
	Open      float64  `json:"open"`
	High      float64  `json:"high"`
	Low       float64  `json:"low"`
	Close     float64  `json:"close"`
	Volume    *float64 `json:"volume,omitempty"`
	Closed    bool     `json:"closed"`
}

// NewStream connects to the feed endpoint and starts the read loop.
func NewStream(ctx context.Context, endpoint string, store storage.CandleStore, config *StreamConfig, log *logrus.Logger) (*Stream, error) {
	cfg := DefaultStreamConfig()
	if config != nil {
		cfg = *config
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	s := &Stream{
		endpoint: endpoint,
		config:   cfg,
		store:    store,
		log:      log.WithField("component", "candle_stream"),
		subs:     make(map[string]streamSub),
		done:     make(chan struct{}),
	}

	if err := s.connect(ctx); err != nil {
		return nil, err
	}

	s.wg.Add(1)
	go s.readLoop()

	return s, nil
}

func (s *Stream) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, s.endpoint, nil)
	if err != nil {
		return fmt.Errorf("dial candle feed: %w", err)
	}

	s.connMu.Lock()
	if s.conn != nil {
		s.conn.Close()
	}
	s.conn = conn
	s.connMu.Unlock()

	return nil
}

// Subscribe requests candle updates for a symbol and timeframe. The
// subscription is replayed after every reconnect.
func (s *Stream) Subscribe(symbol, timeframe string) error {
	if s.closed.Load() {
		return fmt.Errorf("stream closed")
	}

	sub := streamSub{Symbol: symbol, Timeframe: timeframe}

	s.subsMu.Lock()
	s.subs[symbol+"|"+timeframe] = sub
	s.subsMu.Unlock()

	return s.send(map[string]interface{}{
		"action":    "subscribe",
		"symbol":    symbol,
		"timeframe": timeframe,
	})
}

func (s *Stream) send(msg interface{}) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.conn == nil {
		return fmt.Errorf("not connected")
	}
	s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	return s.conn.WriteJSON(msg)
}

func (s *Stream) readLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.done:
			return
		default:
		}

		s.connMu.Lock()
		conn := s.conn
		s.connMu.Unlock()

		if conn == nil {
			if !s.reconnect() {
				return
			}
			continue
		}

		conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			if s.closed.Load() {
				return
			}
			s.log.WithError(err).Warn("Feed read failed, reconnecting")
			if !s.reconnect() {
				return
			}
			continue
		}

		s.handleMessage(data)
	}
}

func (s *Stream) handleMessage(data []byte) {
	var msg streamMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.log.WithError(err).Debug("Skipping unparseable feed message")
		return
	}
	if !msg.Closed || msg.Symbol == "" || msg.Timeframe == "" {
		return
	}

	candle := &domain.MarketCandle{
		Symbol:    msg.Symbol,
		Timeframe: msg.Timeframe,
		Timestamp: msg.Timestamp,
		Open:      msg.Open,
		High:      msg.High,
		Low:       msg.Low,
		Close:     msg.Close,
		Volume:    msg.Volume,
		Source:    s.config.Source,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.store.UpsertBulk(ctx, []*domain.MarketCandle{candle}); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"symbol":    msg.Symbol,
			"timeframe": msg.Timeframe,
		}).Warn("Failed to persist streamed candle")
		return
	}
	observability.RecordStreamCandleStored()
}

// reconnect retries the connection with exponential backoff and replays
// active subscriptions. Returns false when the stream is shutting down.
func (s *Stream) reconnect() bool {
	delay := s.config.ReconnectDelay

	for {
		select {
		case <-s.done:
			return false
		case <-time.After(delay):
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := s.connect(ctx)
		cancel()
		if err == nil {
			s.resubscribe()
			s.log.Info("Candle feed reconnected")
			return true
		}

		s.log.WithError(err).Warn("Reconnect failed")
		delay *= 2
		if delay > s.config.MaxReconnectDelay {
			delay = s.config.MaxReconnectDelay
		}
	}
}

func (s *Stream) resubscribe() {
	s.subsMu.RLock()
	subs := make([]streamSub, 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.subsMu.RUnlock()

	for _, sub := range subs {
		if err := s.send(map[string]interface{}{
			"action":    "subscribe",
			"symbol":    sub.Symbol,
			"timeframe": sub.Timeframe,
		}); err != nil {
			s.log.WithError(err).WithField("symbol", sub.Symbol).Warn("Resubscribe failed")
		}
	}
}

// Close stops the read loop and closes the connection.
func (s *Stream) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	close(s.done)

	s.connMu.Lock()
	if s.conn != nil {
		s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(s.config.WriteTimeout))
		s.conn.Close()
	}
	s.connMu.Unlock()

	s.wg.Wait()
	return nil
}
