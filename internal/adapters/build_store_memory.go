package adapters

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"pybins/internal/ports"
	"pybins/internal/types"
)

// MemoryBuildStore keeps build records for the lifetime of the process.
// Records go in and come out by value.
type MemoryBuildStore struct {
	mu      sync.RWMutex
	records map[string]types.BuildRecord
	order   []string
}

func NewMemoryBuildStore() *MemoryBuildStore {
	return &MemoryBuildStore{records: map[string]types.BuildRecord{}}
}

func (s *MemoryBuildStore) Create(ctx context.Context, record types.BuildRecord) error {
	if strings.TrimSpace(record.BuildID) == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("build id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[record.BuildID]; exists {
		return errbuilder.New().
			WithCode(errbuilder.CodeAlreadyExists).
			WithMsg(fmt.Sprintf("build %s already exists", record.BuildID))
	}
	s.records[record.BuildID] = record
	s.order = append(s.order, record.BuildID)
	return nil
}

func (s *MemoryBuildStore) Update(ctx context.Context, record types.BuildRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, exists := s.records[record.BuildID]
	if !exists {
		return errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("Build %s not found", record.BuildID))
	}
	if current.Status.Terminal() {
		return errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(fmt.Sprintf("build %s is already %s", record.BuildID, current.Status))
	}
	if current.Status != record.Status && !current.Status.CanTransition(record.Status) {
		return errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(fmt.Sprintf("build %s cannot move from %s to %s", record.BuildID, current.Status, record.Status))
	}
	s.records[record.BuildID] = record
	return nil
}

func (s *MemoryBuildStore) Get(ctx context.Context, buildID string) (types.BuildRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, exists := s.records[buildID]
	if !exists {
		return types.BuildRecord{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("Build %s not found", buildID))
	}
	return record, nil
}

// List returns every record in creation order.
func (s *MemoryBuildStore) List(ctx context.Context) ([]types.BuildRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make([]types.BuildRecord, 0, len(s.order))
	for _, id := range s.order {
		records = append(records, s.records[id])
	}
	return records, nil
}

var _ ports.BuildStorePort = (*MemoryBuildStore)(nil)
