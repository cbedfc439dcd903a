package saga

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
)

//go:generate mockgen --build_flags=--mod=mod -destination ../testing/mocks/saga/store.go -package saga . Store

// Store persists saga instances. GetByID returns nil, nil when the instance
// doesn't exist.
type Store interface {
	Save(ctx context.Context, instance *Instance) error
	Update(ctx context.Context, instance *Instance) error
	GetByID(ctx context.Context, uid string) (*Instance, error)
	GetByCorrelationID(ctx context.Context, correlationID string) ([]*Instance, error)
	GetByStatus(ctx context.Context, status Status) ([]*Instance, error)
	Delete(ctx context.Context, uid string) error
}

// NewInMemoryStore is a Store backed by a map, mostly useful in tests and
// single-process setups
func NewInMemoryStore() Store {
	return &inMemoryStore{
		instances:     map[string]*Instance{},
		byCorrelation: map[string][]string{},
	}
}

type inMemoryStore struct {
	mu sync.RWMutex

	instances     map[string]*Instance
	byCorrelation map[string][]string
}

func (s *inMemoryStore) Save(ctx context.Context, instance *Instance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.instances[instance.UID]; exists {
		return errors.Errorf("saga instance %s already exists", instance.UID)
	}

	now := time.Now()
	instance.CreatedAt = now
	instance.UpdatedAt = now

	s.instances[instance.UID] = instance.copy()
	s.byCorrelation[instance.CorrelationID] = append(s.byCorrelation[instance.CorrelationID], instance.UID)

	return nil
}

func (s *inMemoryStore) Update(ctx context.Context, instance *Instance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.instances[instance.UID]; !exists {
		return errors.Errorf("saga instance %s does not exist", instance.UID)
	}

	instance.UpdatedAt = time.Now()
	s.instances[instance.UID] = instance.copy()

	return nil
}

func (s *inMemoryStore) GetByID(ctx context.Context, uid string) (*Instance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	instance, exists := s.instances[uid]
	if !exists {
		return nil, nil
	}

	return instance.copy(), nil
}

func (s *inMemoryStore) GetByCorrelationID(ctx context.Context, correlationID string) ([]*Instance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	uids := s.byCorrelation[correlationID]

	res := make([]*Instance, 0, len(uids))
	for _, uid := range uids {
		if instance, exists := s.instances[uid]; exists {
			res = append(res, instance.copy())
		}
	}

	return res, nil
}

func (s *inMemoryStore) GetByStatus(ctx context.Context, status Status) ([]*Instance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var res []*Instance
	for _, instance := range s.instances {
		if instance.Status == status {
			res = append(res, instance.copy())
		}
	}

	return res, nil
}

func (s *inMemoryStore) Delete(ctx context.Context, uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	instance, exists := s.instances[uid]
	if !exists {
		return errors.Errorf("no saga instance %s found", uid)
	}

	delete(s.instances, uid)

	uids := s.byCorrelation[instance.CorrelationID]
	for i, id := range uids {
		if id == uid {
			s.byCorrelation[instance.CorrelationID] = append(uids[:i], uids[i+1:]...)
			break
		}
	}

	return nil
}
