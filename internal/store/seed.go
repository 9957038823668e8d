package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// Seed is the on-disk format accepted by LoadFile and Import.
type Seed struct {
	Candidates []map[string]any `json:"candidates"`
	Jobs       []map[string]any `json:"jobs"`
}

// Writer saves candidates and jobs.
type Writer interface {
	PutCandidate(ctx context.Context, c Candidate) error
	PutJob(ctx context.Context, j Job) error
}

// Import decodes the seed file at path and writes every record through w.
// It stops at the first record that cannot be decoded or saved.
func Import(ctx context.Context, w Writer, path string) (candidates, jobs int, err error) {
	seed, err := readSeed(path)
	if err != nil {
		return 0, 0, err
	}

	for i, doc := range seed.Candidates {
		var c Candidate
		if err := decode(doc, &c); err != nil {
			return candidates, jobs, fmt.Errorf("decode candidate #%d: %w", i, err)
		}
		if c.TenantID == "" || c.ID == "" {
			return candidates, jobs, fmt.Errorf("candidate #%d requires tenantId and id", i)
		}
		if err := w.PutCandidate(ctx, c); err != nil {
			return candidates, jobs, fmt.Errorf("save candidate %q: %w", c.ID, err)
		}
		candidates++
	}

	for i, doc := range seed.Jobs {
		var j Job
		if err := decode(doc, &j); err != nil {
			return candidates, jobs, fmt.Errorf("decode job #%d: %w", i, err)
		}
		if j.TenantID == "" || j.ID == "" {
			return candidates, jobs, fmt.Errorf("job #%d requires tenantId and id", i)
		}
		if err := w.PutJob(ctx, j); err != nil {
			return candidates, jobs, fmt.Errorf("save job %q: %w", j.ID, err)
		}
		jobs++
	}

	return candidates, jobs, nil
}

func readSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var seed Seed
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return &seed, nil
}
