package events

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	kafka "github.com/segmentio/kafka-go"

	"tracker-suite/internal/repository"
	"tracker-suite/internal/repository/repotest"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

var at = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func sampleChanges() []repository.Change {
	return []repository.Change{
		{Op: repository.OpInsert, Record: repository.Record{Kind: "habits", ID: "h1", Tenant: "t1", Body: []byte(`{}`)}},
		{Op: repository.OpDelete, Record: repository.Record{Kind: "chores", ID: "c9"}},
	}
}

func TestFromChanges(t *testing.T) {
	evs := FromChanges(sampleChanges(), at)
	if len(evs) != 2 {
		t.Fatalf("expected 2 events, got %d", len(evs))
	}
	want := Event{Kind: "habits", ID: "h1", TenantID: "t1", Op: "insert", At: at}
	if evs[0] != want {
		t.Errorf("got %+v, want %+v", evs[0], want)
	}
	if evs[1].Op != "delete" || evs[1].Key() != "chores/c9" {
		t.Errorf("unexpected second event %+v", evs[1])
	}
}

func TestMessages(t *testing.T) {
	msgs, err := Messages(FromChanges(sampleChanges(), at))
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	if string(msgs[0].Key) != "habits/h1" {
		t.Errorf("key: got %q", msgs[0].Key)
	}
	var decoded map[string]any
	if err := json.Unmarshal(msgs[0].Value, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, field := range []string{"kind", "id", "tenantId", "op", "at"} {
		if _, ok := decoded[field]; !ok {
			t.Errorf("missing field %q in %s", field, msgs[0].Value)
		}
	}
	if strings.Contains(string(msgs[1].Value), "tenantId") {
		t.Errorf("untenanted event should omit tenantId: %s", msgs[1].Value)
	}
}

func TestKafkaPublisherCommitted(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaPublisher(w, log.New(&bytes.Buffer{}))
	p.now = func() time.Time { return at }

	p.Committed(context.Background(), sampleChanges())
	if err := p.Close(); err != nil || !w.closed {
		t.Errorf("close: err=%v closed=%v", err, w.closed)
	}
	if len(w.msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(w.msgs))
	}

	// after Close commits are dropped, not panicking on the closed queue
	p.Committed(context.Background(), sampleChanges())
	if len(w.msgs) != 2 {
		t.Errorf("expected no writes after close, got %d", len(w.msgs))
	}
}

func TestKafkaPublisherLogsFailure(t *testing.T) {
	var buf bytes.Buffer
	w := &fakeWriter{err: errors.New("broker down")}
	p := newKafkaPublisher(w, log.New(&buf))

	p.Committed(context.Background(), sampleChanges())
	p.Close()
	if !strings.Contains(buf.String(), "broker down") {
		t.Errorf("expected failure logged, got %q", buf.String())
	}
}

type blockingWriter struct {
	release chan struct{}
	written chan int
}

func (b *blockingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	<-b.release
	b.written <- len(msgs)
	return nil
}

func (b *blockingWriter) Close() error { return nil }

func TestSaveChangesDoesNotWaitForBroker(t *testing.T) {
	w := &blockingWriter{release: make(chan struct{}), written: make(chan int, 1)}
	p := newKafkaPublisher(w, log.New(io.Discard))

	uow := repository.New(repository.NewMemory(), uuid.Nil, repository.WithHook(p))
	notes := repository.Register[uuid.UUID, *repotest.Note](uow, "notes")
	if err := notes.Add(repotest.NewNote(uuid.New(), "queued")); err != nil {
		t.Fatalf("add: %v", err)
	}

	saved := make(chan error, 1)
	go func() {
		_, err := uow.SaveChanges(context.Background())
		saved <- err
	}()
	select {
	case err := <-saved:
		if err != nil {
			t.Fatalf("save: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("SaveChanges waited on the broker")
	}

	close(w.release)
	if n := <-w.written; n != 1 {
		t.Errorf("expected 1 message written, got %d", n)
	}
	if err := p.Close(); err != nil {
		t.Errorf("close: %v", err)
	}
}

func TestLogHook(t *testing.T) {
	var buf bytes.Buffer
	l := log.New(&buf)
	l.SetLevel(log.DebugLevel)

	LogHook(l).Committed(context.Background(), sampleChanges())
	out := buf.String()
	if !strings.Contains(out, "kind=habits") || !strings.Contains(out, "op=delete") {
		t.Errorf("unexpected log output %q", out)
	}
}
