package events

import (
	"encoding/json"
	"sync"

	"github.com/AdaSwap/adaswap-dex-smart-contracts/internal/model"
)

// Sink receives finished event records.
type Sink interface {
	Append(record model.EventRecord)
}

// Nop discards every record.
type Nop struct{}

func (Nop) Append(model.EventRecord) {}

// Memory keeps records in order; used by tests and the simulation runner.
type Memory struct {
	mu      sync.Mutex
	records []model.EventRecord
}

func (m *Memory) Append(record model.EventRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, record)
}

// Records returns a copy of everything appended so far.
func (m *Memory) Records() []model.EventRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.EventRecord, len(m.records))
	copy(out, m.records)
	return out
}

// Drain returns the buffered records and clears the buffer.
func (m *Memory) Drain() []model.EventRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.records
	m.records = nil
	return out
}

// Recorder assigns sequence numbers and timestamps and fans records out to sinks.
type Recorder struct {
	mu    sync.Mutex
	seq   uint64
	sinks []Sink
}

func NewRecorder(sinks ...Sink) *Recorder {
	return &Recorder{sinks: sinks}
}

// Emit marshals the payload and delivers one record to every sink.
func (r *Recorder) Emit(timestamp uint64, source, contract, name string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		// Payloads are plain structs of strings and integers; a marshal
		// failure is a programming error, not a runtime condition.
		panic(err)
	}

	r.mu.Lock()
	r.seq++
	record := model.EventRecord{
		Seq:       r.seq,
		Timestamp: timestamp,
		Source:    source,
		Contract:  contract,
		EventName: name,
		Data:      data,
	}
	sinks := r.sinks
	r.mu.Unlock()

	for _, sink := range sinks {
		sink.Append(record)
	}
}
