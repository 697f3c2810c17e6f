// Package events turns committed repository changes into change events and
// publishes them to Kafka.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	json "github.com/goccy/go-json"
	kafka "github.com/segmentio/kafka-go"

	"tracker-suite/internal/repository"
)

// Event describes one committed write.
type Event struct {
	Kind     string    `json:"kind"`
	ID       string    `json:"id"`
	TenantID string    `json:"tenantId,omitempty"`
	Op       string    `json:"op"`
	At       time.Time `json:"at"`
}

// Key is the partition key: events for the same entity stay ordered.
func (e Event) Key() string { return e.Kind + "/" + e.ID }

// FromChanges maps changes to events stamped at.
func FromChanges(changes []repository.Change, at time.Time) []Event {
	out := make([]Event, 0, len(changes))
	for _, c := range changes {
		out = append(out, Event{
			Kind:     c.Record.Kind,
			ID:       c.Record.ID,
			TenantID: c.Record.Tenant,
			Op:       c.Op.String(),
			At:       at.UTC(),
		})
	}
	return out
}

// Messages encodes events as Kafka messages.
func Messages(events []Event) ([]kafka.Message, error) {
	out := make([]kafka.Message, 0, len(events))
	for _, e := range events {
		body, err := json.Marshal(e)
		if err != nil {
			return nil, err
		}
		out = append(out, kafka.Message{Key: []byte(e.Key()), Value: body})
	}
	return out, nil
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

const (
	queueSize    = 256
	writeTimeout = 5 * time.Second
)

// KafkaPublisher is a repository.CommitHook publishing every commit.
// Publishing is best effort: the commit has already happened, so Committed
// only queues the events and a background writer sends them. Failures and
// overflow are logged and dropped.
type KafkaPublisher struct {
	w      messageWriter
	logger *log.Logger
	now    func() time.Time

	mu     sync.RWMutex
	closed bool
	queue  chan []kafka.Message
	done   chan struct{}
}

// NewKafkaPublisher writes to topic on brokers.
func NewKafkaPublisher(brokers []string, topic string, logger *log.Logger) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	return newKafkaPublisher(w, logger)
}

func newKafkaPublisher(w messageWriter, logger *log.Logger) *KafkaPublisher {
	p := &KafkaPublisher{
		w:      w,
		logger: logger,
		now:    time.Now,
		queue:  make(chan []kafka.Message, queueSize),
		done:   make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *KafkaPublisher) run() {
	defer close(p.done)
	for msgs := range p.queue {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := p.w.WriteMessages(ctx, msgs...)
		cancel()
		if err != nil {
			p.logger.Error("publish change events", "count", len(msgs), "err", err)
			continue
		}
		p.logger.Debug("published change events", "count", len(msgs))
	}
}

// Committed queues the events for changes. It never waits on the broker.
func (p *KafkaPublisher) Committed(_ context.Context, changes []repository.Change) {
	msgs, err := Messages(FromChanges(changes, p.now()))
	if err != nil {
		p.logger.Error("encode change events", "err", err)
		return
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.logger.Warn("publisher closed, dropping change events", "count", len(msgs))
		return
	}
	select {
	case p.queue <- msgs:
	default:
		p.logger.Warn("event queue full, dropping change events", "count", len(msgs))
	}
}

// Close flushes queued events and closes the writer.
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()
	<-p.done
	return p.w.Close()
}

// LogHook logs every commit at debug level. Used when no broker is
// configured.
func LogHook(logger *log.Logger) repository.CommitHook {
	return repository.CommitHookFunc(func(_ context.Context, changes []repository.Change) {
		for _, c := range changes {
			logger.Debug("committed", "op", c.Op, "kind", c.Record.Kind, "id", c.Record.ID)
		}
	})
}
