package repository

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"resume-preview/internal/domain"
)

// MemoryStore keeps resumes and export jobs in process memory. It is used
// when no database is configured and in tests.
type MemoryStore struct {
	mu      sync.RWMutex
	resumes map[uuid.UUID][]byte
	exports map[uuid.UUID][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		resumes: map[uuid.UUID][]byte{},
		exports: map[uuid.UUID][]byte{},
	}
}

// Resumes returns the store as a resume repository.
func (s *MemoryStore) Resumes() *MemoryResumes { return &MemoryResumes{s} }

// Exports returns the store as an export job repository.
func (s *MemoryStore) Exports() *MemoryExports { return &MemoryExports{s} }

type MemoryResumes struct{ s *MemoryStore }

func (m *MemoryResumes) Save(_ context.Context, rec *domain.ResumeRecord) error {
	if rec.Title == "" {
		rec.Title = rec.Resume.Meta.Name
	}
	return m.s.put(m.s.resumes, rec.ID, rec)
}

func (m *MemoryResumes) Get(_ context.Context, id uuid.UUID) (*domain.ResumeRecord, error) {
	var rec domain.ResumeRecord
	if err := m.s.get(m.s.resumes, id, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

type MemoryExports struct{ s *MemoryStore }

func (m *MemoryExports) Save(_ context.Context, j *domain.ExportJob) error {
	return m.s.put(m.s.exports, j.ID, j)
}

func (m *MemoryExports) Get(_ context.Context, id uuid.UUID) (*domain.ExportJob, error) {
	var j domain.ExportJob
	if err := m.s.get(m.s.exports, id, &j); err != nil {
		return nil, err
	}
	return &j, nil
}

// values are stored encoded so callers never share memory with the store
func (s *MemoryStore) put(table map[uuid.UUID][]byte, id uuid.UUID, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.mu.Lock()
	table[id] = b
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) get(table map[uuid.UUID][]byte, id uuid.UUID, out interface{}) error {
	s.mu.RLock()
	b, ok := table[id]
	s.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	return json.Unmarshal(b, out)
}
