// Package webhooks forwards processed thoughts to per-category endpoints
// without holding up the request that produced them.
package webhooks

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shubh-37/minddump/internal/async"
	"github.com/shubh-37/minddump/internal/models"
	"github.com/shubh-37/minddump/internal/taxonomy"
)

const (
	DefaultTimeout = 10 * time.Second
	historySize    = 50
)

// Payload is the body sent to an endpoint.
type Payload struct {
	Category  taxonomy.ID         `json:"category"`
	Type      taxonomy.LegacyType `json:"type"`
	RawText   string              `json:"rawText"`
	Analysis  *models.Analysis    `json:"analysis"`
	Timestamp time.Time           `json:"timestamp"`
}

// Config tells the dispatcher whether to send and where.
type Config interface {
	Enabled() bool
	URLFor(id taxonomy.ID) (string, bool)
}

// StaticConfig is a Config fixed at startup.
type StaticConfig struct {
	enabled bool
	urls    map[taxonomy.ID]string
}

// NewStaticConfig keys urls by canonical category; unknown keys are dropped.
func NewStaticConfig(enabled bool, urls map[string]string) StaticConfig {
	c := StaticConfig{enabled: enabled, urls: make(map[taxonomy.ID]string, len(urls))}
	for k, v := range urls {
		if cat, ok := taxonomy.Lookup(k); ok && v != "" {
			c.urls[cat.ID] = v
		}
	}
	return c
}

func (c StaticConfig) Enabled() bool { return c.enabled }

func (c StaticConfig) URLFor(id taxonomy.ID) (string, bool) {
	u, ok := c.urls[id]
	return u, ok
}

// Delivery is the recorded outcome of one detached send.
type Delivery struct {
	ID         string      `json:"id"`
	Category   taxonomy.ID `json:"category"`
	Host       string      `json:"host"`
	Success    bool        `json:"success"`
	Error      string      `json:"error,omitempty"`
	Pending    bool        `json:"pending"`
	StartedAt  time.Time   `json:"startedAt"`
	FinishedAt *time.Time  `json:"finishedAt,omitempty"`
}

// Dispatcher sends payloads in the background and keeps a short history of
// outcomes.
type Dispatcher struct {
	cfg     Config
	sender  Sender
	timeout time.Duration
	logger  *zap.Logger

	wg sync.WaitGroup

	mu      sync.Mutex
	history []Delivery
}

// NewDispatcher uses a RoutingSender when sender is nil.
func NewDispatcher(cfg Config, sender Sender, timeout time.Duration, logger *zap.Logger) *Dispatcher {
	if sender == nil {
		sender = NewRoutingSender()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Dispatcher{
		cfg:     cfg,
		sender:  sender,
		timeout: timeout,
		logger:  logger.Named("webhooks"),
	}
}

// Dispatch starts delivery and returns at once. The returned status says
// whether a delivery was started, not whether it succeeded.
func (d *Dispatcher) Dispatch(ctx context.Context, p Payload) models.IntegrationStatus {
	if d.cfg == nil || !d.cfg.Enabled() {
		return models.Succeeded(models.StatusDisabled)
	}
	endpoint, ok := d.cfg.URLFor(p.Category)
	if !ok {
		return models.Succeeded(models.StatusNoEndpoint)
	}

	id := uuid.New().String()
	d.record(Delivery{
		ID:        id,
		Category:  p.Category,
		Host:      hostOf(endpoint),
		Pending:   true,
		StartedAt: time.Now(),
	})

	async.Detach(ctx, d.logger, "webhook", d.timeout, &d.wg, func(ctx context.Context) error {
		err := d.sender.Send(ctx, endpoint, p)
		d.finish(id, err)
		return err
	})

	return models.Succeeded(models.StatusDispatched)
}

// Wait blocks until every started delivery has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Recent returns the delivery history, newest first.
func (d *Dispatcher) Recent() []Delivery {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Delivery, len(d.history))
	for i, rec := range d.history {
		out[len(d.history)-1-i] = rec
	}
	return out
}

func (d *Dispatcher) record(rec Delivery) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.history = append(d.history, rec)
	if len(d.history) > historySize {
		d.history = d.history[len(d.history)-historySize:]
	}
}

func (d *Dispatcher) finish(id string, err error) {
	now := time.Now()
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.history {
		if d.history[i].ID != id {
			continue
		}
		d.history[i].Pending = false
		d.history[i].FinishedAt = &now
		d.history[i].Success = err == nil
		if err != nil {
			d.history[i].Error = err.Error()
		}
		return
	}
}

// hostOf keeps endpoint secrets such as Slack tokens out of the history.
func hostOf(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return ""
	}
	return u.Host
}
