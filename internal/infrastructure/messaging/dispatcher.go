package messaging

import (
	"fmt"
	"sync"
	"time"

	"github.com/codequest-edu/codequest-backend/internal/domain/shared"
	"github.com/codequest-edu/codequest-backend/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// DISPATCHER
// ══════════════════════════════════════════════════════════════════════════════

// Dispatcher registers handlers on an event bus with retry support.
// Handlers that keep failing after all retries land in a dead letter
// queue for inspection. Transient side effects such as leaderboard
// cache updates are the intended users.
type Dispatcher struct {
	bus         EventBus
	retryConfig RetryConfig
	deadLetterQ *DeadLetterQueue
	logger      *logger.Logger
}

// RetryConfig contains retry configuration.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts.
	MaxRetries int

	// InitialBackoff is the initial wait between retries.
	InitialBackoff time.Duration

	// MaxBackoff is the maximum wait between retries.
	MaxBackoff time.Duration

	// BackoffMultiplier is the factor for exponential backoff.
	BackoffMultiplier float64
}

// DefaultRetryConfig returns sensible retry defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        3,
		InitialBackoff:    100 * time.Millisecond,
		MaxBackoff:        5 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// DispatcherConfig contains configuration for the Dispatcher.
type DispatcherConfig struct {
	// Bus is the underlying event bus.
	Bus EventBus

	// RetryConfig configures retry behavior.
	RetryConfig RetryConfig

	// DeadLetterQueueSize is the max entries kept in the DLQ.
	DeadLetterQueueSize int

	// Logger for structured logging.
	Logger *logger.Logger
}

// NewDispatcher creates a new dispatcher on top of an event bus.
func NewDispatcher(config DispatcherConfig) *Dispatcher {
	if config.Logger == nil {
		config.Logger = logger.Default()
	}
	if config.RetryConfig.MaxRetries < 0 {
		config.RetryConfig = DefaultRetryConfig()
	}
	if config.DeadLetterQueueSize <= 0 {
		config.DeadLetterQueueSize = 1000
	}

	return &Dispatcher{
		bus:         config.Bus,
		retryConfig: config.RetryConfig,
		deadLetterQ: NewDeadLetterQueue(config.DeadLetterQueueSize),
		logger:      config.Logger.With(logger.Component("dispatcher")),
	}
}

// Register subscribes a handler for an event type, wrapped with retry
// and dead-lettering.
func (d *Dispatcher) Register(eventType shared.EventType, handler shared.EventHandler) error {
	if handler == nil {
		return ErrNilHandler
	}
	return d.bus.Subscribe(eventType, d.wrap(handler))
}

// RegisterAll subscribes a handler for every event type, wrapped with
// retry and dead-lettering.
func (d *Dispatcher) RegisterAll(handler shared.EventHandler) error {
	if handler == nil {
		return ErrNilHandler
	}
	return d.bus.SubscribeAll(d.wrap(handler))
}

// DeadLetters returns the dead letter queue.
func (d *Dispatcher) DeadLetters() *DeadLetterQueue {
	return d.deadLetterQ
}

func (d *Dispatcher) wrap(handler shared.EventHandler) shared.EventHandler {
	return &retryingHandler{
		inner:  handler,
		config: d.retryConfig,
		dlq:    d.deadLetterQ,
		logger: d.logger,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Retrying handler
// ─────────────────────────────────────────────────────────────────────────────

type retryingHandler struct {
	inner  shared.EventHandler
	config RetryConfig
	dlq    *DeadLetterQueue
	logger *logger.Logger
}

func (h *retryingHandler) Name() string {
	return h.inner.Name()
}

func (h *retryingHandler) Handle(event shared.Event) error {
	backoff := h.config.InitialBackoff

	var lastErr error
	for attempt := 0; attempt <= h.config.MaxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(backoff)
			backoff = time.Duration(float64(backoff) * h.config.BackoffMultiplier)
			if backoff > h.config.MaxBackoff {
				backoff = h.config.MaxBackoff
			}
		}

		lastErr = h.inner.Handle(event)
		if lastErr == nil {
			if attempt > 0 {
				h.logger.Info("handler recovered after retry",
					logger.String("handler", h.inner.Name()),
					logger.String("event_type", string(event.EventType())),
					logger.Int("attempt", attempt),
				)
			}
			return nil
		}

		h.logger.Warn("handler attempt failed",
			logger.String("handler", h.inner.Name()),
			logger.String("event_type", string(event.EventType())),
			logger.Int("attempt", attempt),
			logger.Err(lastErr),
		)
	}

	h.dlq.Add(DeadLetter{
		Event:       event,
		HandlerName: h.inner.Name(),
		Error:       lastErr.Error(),
		Attempts:    h.config.MaxRetries + 1,
		FailedAt:    time.Now().UTC(),
	})

	return fmt.Errorf("handler %s exhausted %d attempts: %w",
		h.inner.Name(), h.config.MaxRetries+1, lastErr)
}

// ══════════════════════════════════════════════════════════════════════════════
// DEAD LETTER QUEUE
// ══════════════════════════════════════════════════════════════════════════════

// DeadLetter is an event that exhausted all handler retries.
type DeadLetter struct {
	Event       shared.Event
	HandlerName string
	Error       string
	Attempts    int
	FailedAt    time.Time
}

// DeadLetterQueue is a bounded in-memory queue of failed events.
// When full, the oldest entries are dropped.
type DeadLetterQueue struct {
	mu      sync.Mutex
	entries []DeadLetter
	maxSize int
	dropped int64
}

// NewDeadLetterQueue creates a queue holding at most maxSize entries.
func NewDeadLetterQueue(maxSize int) *DeadLetterQueue {
	return &DeadLetterQueue{
		entries: make([]DeadLetter, 0, maxSize),
		maxSize: maxSize,
	}
}

// Add appends a dead letter, evicting the oldest entry when full.
func (q *DeadLetterQueue) Add(letter DeadLetter) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.entries) >= q.maxSize {
		q.entries = q.entries[1:]
		q.dropped++
	}
	q.entries = append(q.entries, letter)
}

// Drain removes and returns all dead letters.
func (q *DeadLetterQueue) Drain() []DeadLetter {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := q.entries
	q.entries = make([]DeadLetter, 0, q.maxSize)
	return out
}

// Len returns the current number of dead letters.
func (q *DeadLetterQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Dropped returns how many dead letters were evicted due to the size cap.
func (q *DeadLetterQueue) Dropped() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
