// Package notify delivers sale events to the notification service after commit.
package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"api_pos/internal/metrics"
	"api_pos/internal/sales"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"resty.dev/v3"
)

var (
	// ErrQueueFull is returned when the dispatcher cannot take another event.
	ErrQueueFull = errors.New("notification queue is full")
	// ErrClosed is returned by Notify after Close.
	ErrClosed = errors.New("notification dispatcher is closed")
)

// Config configures a Dispatcher.
type Config struct {
	URL       string
	Timeout   time.Duration
	QueueSize int
	Retries   int
}

// event is the wire payload accepted by the notification endpoint.
type event struct {
	EventID  string `json:"eventId"`
	Message  string `json:"message"`
	SenderID int64  `json:"senderId"`
}

// Dispatcher queues notifications and posts them from a background worker,
// so a slow or failing endpoint never holds up a sale.
type Dispatcher struct {
	client  *resty.Client
	url     string
	timeout time.Duration
	logger  *zap.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan event
	done   chan struct{}
}

// NewDispatcher creates a Dispatcher and starts its worker.
func NewDispatcher(cfg Config, logger *zap.Logger) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 100
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.Retries).
		SetHeader("Content-Type", "application/json")

	d := &Dispatcher{
		client:  client,
		url:     cfg.URL,
		timeout: cfg.Timeout,
		logger:  logger,
		queue:   make(chan event, cfg.QueueSize),
		done:    make(chan struct{}),
	}
	go d.run()
	return d
}

// Notify implements sales.Notifier. It only enqueues.
func (d *Dispatcher) Notify(_ context.Context, n sales.Notification) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrClosed
	}

	e := event{EventID: uuid.NewString(), Message: n.Message, SenderID: n.SenderID}
	select {
	case d.queue <- e:
		return nil
	default:
		metrics.Notifications.WithLabelValues("dropped").Inc()
		return ErrQueueFull
	}
}

// Close stops accepting events and waits for the queue to drain or ctx to expire.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for e := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		err := d.send(ctx, e)
		cancel()
		if err != nil {
			metrics.Notifications.WithLabelValues("failed").Inc()
			d.logger.Warn("sale notification not delivered",
				zap.String("event_id", e.EventID), zap.Int64("sender_id", e.SenderID), zap.Error(err))
			continue
		}
		metrics.Notifications.WithLabelValues("sent").Inc()
		d.logger.Debug("sale notification delivered", zap.String("event_id", e.EventID))
	}
}

func (d *Dispatcher) send(ctx context.Context, e event) error {
	resp, err := d.client.R().
		SetContext(ctx).
		SetBody(e).
		Post(d.url)
	if err != nil {
		return fmt.Errorf("error making request to notification API: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("notification API returned unexpected status: %d", resp.StatusCode())
	}
	return nil
}
