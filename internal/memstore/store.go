// Package memstore is an in-memory document store with the same query
// surface as the Firestore client: equality filters and a limit, in
// insertion order. It backs tests and the offline demo.
package memstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/repairhub/repair-search/internal/models"
)

var ErrUnavailable = errors.New("memstore: collection unavailable")

type Store struct {
	mu          sync.RWMutex
	collections map[string][]models.Document
	failures    map[string]error
	delays      map[string]time.Duration
	calls       map[string]int
}

func New() *Store {
	return &Store{
		collections: make(map[string][]models.Document),
		failures:    make(map[string]error),
		delays:      make(map[string]time.Duration),
		calls:       make(map[string]int),
	}
}

// Add appends documents to collection. Fields maps are copied.
func (s *Store) Add(collection string, docs ...models.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range docs {
		s.collections[collection] = append(s.collections[collection], models.Document{
			ID:     d.ID,
			Fields: copyFields(d.Fields),
		})
	}
}

// Fail makes every read of collection return err. A nil err clears it.
func (s *Store) Fail(collection string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, collection)
		return
	}
	s.failures[collection] = err
}

// Delay holds every read of collection for d, or until the caller's context
// is done.
func (s *Store) Delay(collection string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays[collection] = d
}

// Calls reports how many reads collection has served, failed ones included.
func (s *Store) Calls(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls[collection]
}

func (s *Store) Query(ctx context.Context, collection string, opts models.QueryOptions) ([]models.Document, error) {
	s.mu.Lock()
	s.calls[collection]++
	delay := s.delays[collection]
	failure := s.failures[collection]
	s.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if failure != nil {
		return nil, fmt.Errorf("memstore query %s: %w", collection, failure)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Document
	for _, d := range s.collections[collection] {
		if !matchesEquals(d, opts.Equals) {
			continue
		}
		out = append(out, models.Document{ID: d.ID, Fields: copyFields(d.Fields)})
		if opts.Limit > 0 && len(out) >= opts.Limit {
			break
		}
	}
	return out, nil
}

func (s *Store) HealthCheck(ctx context.Context) error {
	return ctx.Err()
}

func matchesEquals(d models.Document, equals map[string]any) bool {
	for field, want := range equals {
		got, ok := d.Fields[field]
		if !ok || !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}

func copyFields(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

type fixture struct {
	Collections map[string][]map[string]any `yaml:"collections"`
}

// LoadFixture reads a YAML file of the form
//
//	collections:
//	  spareParts:
//	    - id: p1
//	      name: iPhone Battery
//
// Sub-collections use their full path as the key, e.g. "shops/s1/inventory".
func LoadFixture(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixture %s: %w", path, err)
	}
	return ParseFixture(data)
}

func ParseFixture(data []byte) (*Store, error) {
	var f fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing fixture: %w", err)
	}

	s := New()
	for collection, rows := range f.Collections {
		for i, row := range rows {
			id, _ := row["id"].(string)
			if id == "" {
				return nil, fmt.Errorf("fixture %s[%d]: missing string id", collection, i)
			}
			delete(row, "id")
			s.Add(collection, models.Document{ID: id, Fields: row})
		}
	}
	return s, nil
}
