package mesh

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// PlanStore persists floor plans by ID.
type PlanStore interface {
	Save(ctx context.Context, plan *FloorPlan) error
	Get(ctx context.Context, id string) (*FloorPlan, error)
	List(ctx context.Context) ([]*FloorPlan, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// OpenPlanStore opens the store selected by the config. An empty driver
// means "file".
func OpenPlanStore(cfg StoreConfig) (PlanStore, error) {
	switch cfg.Driver {
	case "", "file":
		return NewFilePlanStore(cfg.Path), nil
	case "sqlite":
		return OpenSQLitePlanStore(cfg.Path)
	}
	return nil, fmt.Errorf("unknown store driver %q (want file or sqlite)", cfg.Driver)
}

// FilePlanStore keeps every plan in a single JSON array file.
type FilePlanStore struct {
	path string
	mu   sync.Mutex
}

// DefaultPlansFile is the file name used when no store path is configured.
const DefaultPlansFile = "plans.json"

// NewFilePlanStore creates a store backed by the JSON file at path.
func NewFilePlanStore(path string) *FilePlanStore {
	if path == "" {
		path = DefaultPlansFile
	}
	return &FilePlanStore{path: path}
}

// Path returns the backing file.
func (s *FilePlanStore) Path() string {
	return s.path
}

func (s *FilePlanStore) Save(ctx context.Context, plan *FloorPlan) error {
	if plan == nil {
		return fmt.Errorf("save plan: %w", ErrMissingInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	plans, err := s.load()
	if err != nil {
		return err
	}
	replaced := false
	for i, p := range plans {
		if p.ID == plan.ID {
			plans[i] = plan.Clone()
			replaced = true
			break
		}
	}
	if !replaced {
		plans = append(plans, plan.Clone())
	}
	return s.write(ctx, plans)
}

func (s *FilePlanStore) Get(ctx context.Context, id string) (*FloorPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	plans, err := s.load()
	if err != nil {
		return nil, err
	}
	for _, p := range plans {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrPlanNotFound, id)
}

// List returns plans newest first.
func (s *FilePlanStore) List(ctx context.Context) ([]*FloorPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	plans, err := s.load()
	if err != nil {
		return nil, err
	}
	sortNewestFirst(plans)
	return plans, nil
}

func (s *FilePlanStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	plans, err := s.load()
	if err != nil {
		return err
	}
	kept := plans[:0]
	for _, p := range plans {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	if len(kept) == len(plans) {
		return fmt.Errorf("%w: %s", ErrPlanNotFound, id)
	}
	return s.write(ctx, kept)
}

func (s *FilePlanStore) Close() error {
	return nil
}

// load reads the plans file. A missing file is an empty store.
func (s *FilePlanStore) load() ([]*FloorPlan, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading plans file: %w", err)
	}
	var plans []*FloorPlan
	if err := json.Unmarshal(data, &plans); err != nil {
		return nil, fmt.Errorf("parsing plans file %s: %w", s.path, err)
	}
	return plans, nil
}

func (s *FilePlanStore) write(ctx context.Context, plans []*FloorPlan) error {
	if plans == nil {
		plans = []*FloorPlan{}
	}
	data, err := json.MarshalIndent(plans, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling plans: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating store directory: %w", err)
	}
	if err := writeFileAtomic(ctx, s.path, data); err != nil {
		return fmt.Errorf("writing plans file: %w", err)
	}
	return nil
}

func sortNewestFirst(plans []*FloorPlan) {
	sort.SliceStable(plans, func(i, j int) bool {
		return plans[i].CreatedAt.After(plans[j].CreatedAt)
	})
}
