package eventstore

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"
)

// TypeCount is the number of journaled actions of one type.
type TypeCount struct {
	Type     string    `json:"type"`
	Count    int       `json:"count"`
	LastSeen time.Time `json:"last_seen"`
}

// TypeCounts is a read model of action type frequencies rebuilt from a journal.
type TypeCounts struct {
	mu       sync.RWMutex
	journal  Journal
	counts   map[string]*TypeCount
	lastSync time.Time
}

// NewTypeCounts returns an empty projection over j.
func NewTypeCounts(j Journal) *TypeCounts {
	return &TypeCounts{journal: j, counts: map[string]*TypeCount{}}
}

// Rebuild recomputes the projection from the whole journal.
func (p *TypeCounts) Rebuild(ctx context.Context) error {
	entries, err := p.journal.All(ctx)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.counts = map[string]*TypeCount{}
	for _, e := range entries {
		p.applyLocked(e.Type, e.Timestamp)
	}
	p.lastSync = time.Now()
	return nil
}

// Apply counts one action observed after the last rebuild.
func (p *TypeCounts) Apply(actionType string, at time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.applyLocked(actionType, at)
}

func (p *TypeCounts) applyLocked(actionType string, at time.Time) {
	c, ok := p.counts[actionType]
	if !ok {
		c = &TypeCount{Type: actionType}
		p.counts[actionType] = c
	}
	c.Count++
	if at.After(c.LastSeen) {
		c.LastSeen = at
	}
}

// List returns counts ordered by descending count, then type.
func (p *TypeCounts) List() []TypeCount {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]TypeCount, 0, len(p.counts))
	for _, k := range slices.Sorted(maps.Keys(p.counts)) {
		out = append(out, *p.counts[k])
	}
	slices.SortStableFunc(out, func(a, b TypeCount) int { return b.Count - a.Count })
	return out
}

// LastSync returns when Rebuild last completed.
func (p *TypeCounts) LastSync() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastSync
}
