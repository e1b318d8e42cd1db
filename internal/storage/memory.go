package storage

import (
	"context"
	"sort"
	"sync"

	"synaptical/internal/logging"
	"synaptical/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	networks    map[string]model.Network
	runs        map[string]model.TrainingRun
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.networks = make(map[string]model.Network)
	s.runs = make(map[string]model.TrainingRun)
	return nil
}

func (s *MemoryStore) SaveNetwork(_ context.Context, network model.Network) error {
	if network.ID == "" {
		return ErrMissingID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return ErrNotInitialized
	}

	s.networks[network.ID] = cloneNetwork(network)
	logging.Debugf("memory store: saved network %s (%d neurons)", network.ID, len(network.Neurons))
	return nil
}

func (s *MemoryStore) GetNetwork(_ context.Context, id string) (model.Network, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.initialized {
		return model.Network{}, false, ErrNotInitialized
	}

	network, ok := s.networks[id]
	if !ok {
		return model.Network{}, false, nil
	}
	return cloneNetwork(network), true, nil
}

func (s *MemoryStore) ListNetworks(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.initialized {
		return nil, ErrNotInitialized
	}

	ids := make([]string, 0, len(s.networks))
	for id := range s.networks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *MemoryStore) DeleteNetwork(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return ErrNotInitialized
	}

	delete(s.networks, id)
	for runID, run := range s.runs {
		if run.NetworkID == id {
			delete(s.runs, runID)
		}
	}
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.TrainingRun) error {
	if run.ID == "" {
		return ErrMissingID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return ErrNotInitialized
	}

	s.runs[run.ID] = run
	logging.Debugf("memory store: saved run %s for network %s", run.ID, run.NetworkID)
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (model.TrainingRun, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.initialized {
		return model.TrainingRun{}, false, ErrNotInitialized
	}

	run, ok := s.runs[id]
	return run, ok, nil
}

func (s *MemoryStore) ListRuns(_ context.Context, networkID string) ([]model.TrainingRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.initialized {
		return nil, ErrNotInitialized
	}

	var runs []model.TrainingRun
	for _, run := range s.runs {
		if run.NetworkID == networkID {
			runs = append(runs, run)
		}
	}
	sortRuns(runs)
	return runs, nil
}

func sortRuns(runs []model.TrainingRun) {
	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].CreatedAt.Equal(runs[j].CreatedAt) {
			return runs[i].CreatedAt.Before(runs[j].CreatedAt)
		}
		return runs[i].ID < runs[j].ID
	})
}
