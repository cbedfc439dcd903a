package log

import (
	"fmt"
	"sync"

	"github.com/go-seguros/sagabus/log"
)

// NewTestLogger captures entries in memory so tests can assert on them
func NewTestLogger() *testLogger {
	return &testLogger{entriesStore: &entriesStore{}}
}

type entriesStore struct {
	mu      sync.Mutex
	entries []entry
}

func (s *entriesStore) add(e entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
}

type testLogger struct {
	level        log.Level
	fields       log.Fields
	entriesStore *entriesStore
}

type entry struct {
	Msg   string
	Level log.Level
}

func (n *testLogger) Log(level log.Level, v ...interface{}) {
	n.entriesStore.add(entry{Msg: fmt.Sprint(v...), Level: level})
}

func (n *testLogger) Logf(level log.Level, template string, args ...interface{}) {
	n.entriesStore.add(entry{Msg: fmt.Sprintf(template, args...), Level: level})
}

func (n *testLogger) SetLevel(level log.Level) {
	n.level = level
}

func (n *testLogger) WithFields(fields log.Fields) log.Logger {
	mergedFields := make(log.Fields)

	for k, v := range n.fields {
		mergedFields[k] = v
	}

	for k, v := range fields {
		mergedFields[k] = v
	}

	return &testLogger{
		entriesStore: n.entriesStore,
		level:        n.level,
		fields:       mergedFields,
	}
}

func (n testLogger) Entries() []entry {
	n.entriesStore.mu.Lock()
	defer n.entriesStore.mu.Unlock()

	r := make([]entry, len(n.entriesStore.entries))
	copy(r, n.entriesStore.entries)

	return r
}

func (n testLogger) Messages() []string {
	entries := n.Entries()

	r := make([]string, len(entries))
	for i := range entries {
		r[i] = entries[i].Msg
	}

	return r
}

func (n testLogger) LastMessage() string {
	entries := n.Entries()

	if len(entries) > 0 {
		return entries[len(entries)-1].Msg
	}

	return ""
}

func (n *testLogger) Clear() {
	n.entriesStore.mu.Lock()
	defer n.entriesStore.mu.Unlock()

	n.entriesStore.entries = make([]entry, 0)
	n.level = log.InfoLevel
	n.fields = nil
}
