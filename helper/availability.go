package helper

import (
	"sort"
	"sync"
	"time"
)

type dayKey struct {
	TableId uint
	Date    string // "2006-01-02"
}

// AvailabilityIndex maps (table, date) to the occupied intervals of that
// table's PENDING/CONFIRMED reservations. It is derived data, lazily primed
// from the reservation store and rebuildable at any time; the store stays
// the source of truth.
//
// Reads (freeTables) take the RWMutex read side and may observe a snapshot
// that is stale against in-flight writers. That is fine: the correctness
// gate is the per-(table, date) claim lock plus the overlap re-check the
// allocator performs while holding it.
type AvailabilityIndex struct {
	mu     sync.RWMutex
	days   map[dayKey][]Interval
	loaded map[dayKey]bool
	epoch  map[dayKey]uint64
	claims map[dayKey]chan struct{}
}

func NewAvailabilityIndex() *AvailabilityIndex {
	return &AvailabilityIndex{
		days:   make(map[dayKey][]Interval),
		loaded: make(map[dayKey]bool),
		epoch:  make(map[dayKey]uint64),
		claims: make(map[dayKey]chan struct{}),
	}
}

func (ix *AvailabilityIndex) claimSlot(k dayKey) chan struct{} {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ch, ok := ix.claims[k]
	if !ok {
		ch = make(chan struct{}, 1)
		ix.claims[k] = ch
	}
	return ch
}

// Acquire takes the exclusive claim for (table, date), waiting at most
// timeout. Failing to get it within the bound is a ConflictError, never a
// deadlock: the caller is expected to re-query and retry.
func (ix *AvailabilityIndex) Acquire(tableId uint, date string, timeout time.Duration) error {
	ch := ix.claimSlot(dayKey{tableId, date})
	select {
	case ch <- struct{}{}:
		return nil
	case <-time.After(timeout):
		return &ConflictError{Reason: "table is being booked by another request, retry"}
	}
}

// Release frees the claim taken by Acquire.
func (ix *AvailabilityIndex) Release(tableId uint, date string) {
	ch := ix.claimSlot(dayKey{tableId, date})
	select {
	case <-ch:
	default:
	}
}

// Loaded reports whether the day has been primed from the store.
func (ix *AvailabilityIndex) Loaded(tableId uint, date string) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.loaded[dayKey{tableId, date}]
}

// Epoch returns the day's invalidation counter. A loader samples it
// before reading the store and hands it back to Prime, which rejects the
// install when a release invalidated the day in between.
func (ix *AvailabilityIndex) Epoch(tableId uint, date string) uint64 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.epoch[dayKey{tableId, date}]
}

// Prime installs the store's intervals for a day and reports whether the
// day is now loaded. It is a no-op once the day is loaded, so a late
// racing reader cannot clobber intervals added by a claim holder. A
// snapshot read under an older epoch is rejected: a release landed while
// the loader was reading and the snapshot may still carry the released
// interval.
func (ix *AvailabilityIndex) Prime(tableId uint, date string, ivs []Interval, epoch uint64) bool {
	k := dayKey{tableId, date}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.loaded[k] {
		return true
	}
	if ix.epoch[k] != epoch {
		return false
	}
	cp := make([]Interval, len(ivs))
	copy(cp, ivs)
	sort.Slice(cp, func(i, j int) bool { return cp[i].Start < cp[j].Start })
	ix.days[k] = cp
	ix.loaded[k] = true
	return true
}

// Free reports whether iv overlaps nothing occupied on (table, date).
func (ix *AvailabilityIndex) Free(tableId uint, date string, iv Interval) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return !OverlapsAny(ix.days[dayKey{tableId, date}], iv)
}

// Add records a newly claimed interval, keeping the set sorted.
func (ix *AvailabilityIndex) Add(tableId uint, date string, iv Interval) {
	k := dayKey{tableId, date}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	set := append(ix.days[k], iv)
	sort.Slice(set, func(i, j int) bool { return set[i].Start < set[j].Start })
	ix.days[k] = set
	ix.loaded[k] = true
}

// Remove drops an interval when its reservation stops occupying the table
// (cancelled or expired), making the slot bookable again.
func (ix *AvailabilityIndex) Remove(tableId uint, date string, iv Interval) {
	k := dayKey{tableId, date}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if !ix.loaded[k] {
		// A loader may be mid-read with a snapshot that still carries this
		// interval; bump the epoch so its Prime is rejected and it re-reads.
		ix.epoch[k]++
		return
	}
	set := ix.days[k]
	for i, o := range set {
		if o == iv {
			ix.days[k] = append(set[:i:i], set[i+1:]...)
			return
		}
	}
	// Unknown interval: the day is out of sync with the store. Drop it and
	// let the next reader re-prime.
	delete(ix.days, k)
	ix.loaded[k] = false
	ix.epoch[k]++
}

// PruneBefore evicts all days strictly before the given date and returns
// how many were dropped. Dates compare lexicographically in this format.
func (ix *AvailabilityIndex) PruneBefore(date string) int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	n := 0
	for k := range ix.days {
		if k.Date < date {
			delete(ix.days, k)
			delete(ix.loaded, k)
			delete(ix.epoch, k)
			delete(ix.claims, k)
			n++
		}
	}
	return n
}
