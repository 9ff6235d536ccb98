package entity_store

import "github.com/Carmen-Shannon/oxy-crowd/common"

// Lease is the exclusive write borrow of a Store's arrays handed to one in-flight chain.
// Tasks of the chain write disjoint index ranges of the slices; nothing else touches them until
// Return is called.
type Lease struct {
	store *Store
	count int

	Positions  []float32
	Velocities []float32
	Rects      []common.Rect
	Placements []common.Mat4
}

// Lease marks the store as owned by an in-flight chain and returns its arrays.
// Leasing an already leased or released store panics.
//
// Returns:
//   - *Lease: the borrowed arrays
func (s *Store) Lease() *Lease {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		panic("entity_store: Lease on a released store")
	}
	if !s.leased.CompareAndSwap(false, true) {
		panic("entity_store: Lease while another chain holds the store")
	}
	return &Lease{
		store:      s,
		count:      s.count,
		Positions:  s.positions,
		Velocities: s.velocities,
		Rects:      s.rects,
		Placements: s.placements,
	}
}

// Count returns the number of entities covered by the lease.
func (l *Lease) Count() int {
	return l.count
}

// Return hands the arrays back to the store. Calling Return twice is a no-op.
func (l *Lease) Return() {
	if l == nil || l.store == nil {
		return
	}
	l.store.leased.Store(false)
	l.store = nil
	l.Positions, l.Velocities, l.Rects, l.Placements = nil, nil, nil, nil
}
