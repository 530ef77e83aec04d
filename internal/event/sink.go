package event

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"swapPilot/internal/storage"
)

// Sink receives published events. Implementations must not block the caller
// for long and report their own delivery failures.
type Sink interface {
	Publish(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) Publish(e Event) { f(e) }

// Fanout publishes every event to each sink in order.
type Fanout []Sink

func (f Fanout) Publish(e Event) {
	for _, s := range f {
		if s != nil {
			s.Publish(e)
		}
	}
}

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})

// LogSink writes events to a zap logger.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Publish(e Event) {
	switch e.Type {
	case TypeLog:
		s.logger.Info(e.Message())
	case TypeError:
		s.logger.Error("bot error", zap.String("message", e.Message()))
	default:
		name, data, err := e.Encode()
		if err != nil {
			s.logger.Warn("event encode failed", zap.String("type", string(e.Type)), zap.Error(err))
			return
		}
		s.logger.Info("event", zap.String("type", name), zap.ByteString("data", data))
	}
}

type journalRecord struct {
	Event string    `json:"event"`
	Data  string    `json:"data"`
	TS    time.Time `json:"ts"`
}

// JournalSink appends every event to a JSON lines file.
type JournalSink struct {
	file   *storage.JSONLFile
	logger *zap.Logger
}

func NewJournalSink(path string, logger *zap.Logger) *JournalSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JournalSink{file: storage.NewJSONLFile(path), logger: logger}
}

func (s *JournalSink) Publish(e Event) {
	name, data, err := e.Encode()
	if err != nil {
		s.logger.Warn("event encode failed", zap.String("type", string(e.Type)), zap.Error(err))
		return
	}
	rec := journalRecord{Event: name, Data: string(data), TS: e.Timestamp.UTC()}
	if err := s.file.Append(rec); err != nil {
		s.logger.Warn("event journal write failed", zap.String("path", s.file.Path()), zap.Error(err))
	}
}

// Recent keeps the last events in memory for status reporting.
type Recent struct {
	mu       sync.Mutex
	capacity int
	events   []Event
}

// NewRecent keeps at most capacity events. A non-positive capacity keeps all.
func NewRecent(capacity int) *Recent {
	return &Recent{capacity: capacity}
}

func (r *Recent) Publish(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	if r.capacity > 0 && len(r.events) > r.capacity {
		r.events = append(r.events[:0:0], r.events[len(r.events)-r.capacity:]...)
	}
	r.mu.Unlock()
}

// Events returns a copy, oldest first.
func (r *Recent) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// OfType filters the retained events by type.
func (r *Recent) OfType(t Type) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
