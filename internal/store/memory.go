package store

import (
	"context"
	"sync"

	"github.com/Agrid-Dev/coldload/internal/coldroom"
)

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]map[RecordName]coldroom.Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string]map[RecordName]coldroom.Record{}}
}

func (m *MemoryStore) Load(_ context.Context, projectID string, name RecordName) (coldroom.Record, error) {
	if err := checkArgs(projectID, name); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.records[projectID][name]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneRecord(r), nil
}

func (m *MemoryStore) Save(_ context.Context, projectID string, name RecordName, rec coldroom.Record) error {
	if err := checkArgs(projectID, name); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.records[projectID]
	if !ok {
		p = map[RecordName]coldroom.Record{}
		m.records[projectID] = p
	}
	p[name] = cloneRecord(rec)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, projectID string, name RecordName) error {
	if err := checkArgs(projectID, name); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.records[projectID], name)
	return nil
}

func (m *MemoryStore) Close() error { return nil }
