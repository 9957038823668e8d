package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mitchellh/mapstructure"
)

const (
	collectionCandidates = "candidates"
	collectionJobs       = "jobs"
)

// Memory keeps records as schemaless documents, the way a document database
// returns them, and decodes them on read.
type Memory struct {
	mu   sync.RWMutex
	docs map[string]map[string]map[string]map[string]any // collection -> tenant -> id -> document
}

func NewMemory() *Memory {
	return &Memory{docs: map[string]map[string]map[string]map[string]any{}}
}

// LoadFile reads a JSON seed file into the store. Documents are kept as they
// are in the file.
func (m *Memory) LoadFile(path string) error {
	seed, err := readSeed(path)
	if err != nil {
		return err
	}

	for i, doc := range seed.Candidates {
		if err := m.put(collectionCandidates, doc); err != nil {
			return fmt.Errorf("candidate #%d: %w", i, err)
		}
	}
	for i, doc := range seed.Jobs {
		if err := m.put(collectionJobs, doc); err != nil {
			return fmt.Errorf("job #%d: %w", i, err)
		}
	}
	return nil
}

func (m *Memory) PutCandidate(_ context.Context, c Candidate) error {
	doc, err := toDocument(c)
	if err != nil {
		return err
	}
	return m.put(collectionCandidates, doc)
}

func (m *Memory) PutJob(_ context.Context, j Job) error {
	doc, err := toDocument(j)
	if err != nil {
		return err
	}
	return m.put(collectionJobs, doc)
}

func (m *Memory) Candidate(_ context.Context, tenant, id string) (*Candidate, error) {
	doc, ok := m.get(collectionCandidates, tenant, id)
	if !ok {
		return nil, fmt.Errorf("candidate %q: %w", id, ErrNotFound)
	}
	var c Candidate
	if err := decode(doc, &c); err != nil {
		return nil, fmt.Errorf("decode candidate %q: %w", id, err)
	}
	return &c, nil
}

func (m *Memory) Job(_ context.Context, tenant, id string) (*Job, error) {
	doc, ok := m.get(collectionJobs, tenant, id)
	if !ok {
		return nil, fmt.Errorf("job %q: %w", id, ErrNotFound)
	}
	var j Job
	if err := decode(doc, &j); err != nil {
		return nil, fmt.Errorf("decode job %q: %w", id, err)
	}
	return &j, nil
}

func (m *Memory) Candidates(_ context.Context, tenant string) ([]Candidate, error) {
	var candidates []Candidate
	if err := decode(m.list(collectionCandidates, tenant), &candidates); err != nil {
		return nil, fmt.Errorf("decode candidates: %w", err)
	}
	return candidates, nil
}

func (m *Memory) OpenJobs(_ context.Context, tenant string) ([]Job, error) {
	var jobs []Job
	if err := decode(m.list(collectionJobs, tenant), &jobs); err != nil {
		return nil, fmt.Errorf("decode jobs: %w", err)
	}

	open := jobs[:0]
	for _, j := range jobs {
		if j.IsOpen() {
			open = append(open, j)
		}
	}
	return open, nil
}

func (m *Memory) put(collection string, doc map[string]any) error {
	tenant, _ := doc["tenantId"].(string)
	id, _ := doc["id"].(string)
	if tenant == "" || id == "" {
		return fmt.Errorf("document in %s requires tenantId and id", collection)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	tenants, ok := m.docs[collection]
	if !ok {
		tenants = map[string]map[string]map[string]any{}
		m.docs[collection] = tenants
	}
	byID, ok := tenants[tenant]
	if !ok {
		byID = map[string]map[string]any{}
		tenants[tenant] = byID
	}
	byID[id] = doc
	return nil
}

func (m *Memory) get(collection, tenant, id string) (map[string]any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[collection][tenant][id]
	return doc, ok
}

func (m *Memory) list(collection, tenant string) []map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	byID := m.docs[collection][tenant]
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	docs := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		docs = append(docs, byID[id])
	}
	return docs
}

func decode(input, result any) error {
	cfg := &mapstructure.DecoderConfig{
		Result:           result,
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeHookFunc(time.RFC3339),
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}

func toDocument(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
