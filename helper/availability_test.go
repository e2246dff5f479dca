package helper

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestAcquireReleaseClaim(t *testing.T) {
	ix := NewAvailabilityIndex()

	if err := ix.Acquire(1, "2026-03-12", 10*time.Millisecond); err != nil {
		t.Fatalf("first Acquire: %v", err)
	}

	err := ix.Acquire(1, "2026-03-12", 10*time.Millisecond)
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("second Acquire = %v, want ConflictError", err)
	}

	// A different day on the same table is an independent claim.
	if err := ix.Acquire(1, "2026-03-13", 10*time.Millisecond); err != nil {
		t.Fatalf("Acquire for other day: %v", err)
	}
	ix.Release(1, "2026-03-13")

	ix.Release(1, "2026-03-12")
	if err := ix.Acquire(1, "2026-03-12", 10*time.Millisecond); err != nil {
		t.Fatalf("Acquire after Release: %v", err)
	}
	ix.Release(1, "2026-03-12")
}

func TestConcurrentClaimSingleWinner(t *testing.T) {
	ix := NewAvailabilityIndex()

	const workers = 16
	var wg sync.WaitGroup
	wins := make(chan struct{}, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := ix.Acquire(7, "2026-03-12", 20*time.Millisecond); err == nil {
				wins <- struct{}{}
				// Hold past every loser's timeout.
				time.Sleep(50 * time.Millisecond)
				ix.Release(7, "2026-03-12")
			}
		}()
	}
	wg.Wait()
	close(wins)

	var n int
	for range wins {
		n++
	}
	if n != 1 {
		t.Errorf("claim winners = %d, want exactly 1", n)
	}
}

func TestPrimeIsNoOpOnceLoaded(t *testing.T) {
	ix := NewAvailabilityIndex()
	dinner := Interval{1140, 1230}

	ix.Prime(1, "2026-03-12", nil, ix.Epoch(1, "2026-03-12"))
	ix.Add(1, "2026-03-12", dinner)

	// A racing reader priming from a stale store read must not erase the
	// interval added under the claim.
	if !ix.Prime(1, "2026-03-12", nil, ix.Epoch(1, "2026-03-12")) {
		t.Error("Prime on a loaded day should report loaded")
	}

	if ix.Free(1, "2026-03-12", dinner) {
		t.Error("interval lost after re-Prime")
	}
}

func TestRemoveInvalidatesInFlightPrime(t *testing.T) {
	ix := NewAvailabilityIndex()
	dinner := Interval{1140, 1230}

	// A loader samples the epoch, then a cancel releases the interval
	// before the loader's snapshot is installed.
	epoch := ix.Epoch(5, "2026-03-12")
	ix.Remove(5, "2026-03-12", dinner)

	if ix.Prime(5, "2026-03-12", []Interval{dinner}, epoch) {
		t.Fatal("stale snapshot installed after a release")
	}
	if ix.Loaded(5, "2026-03-12") {
		t.Fatal("day marked loaded by a rejected Prime")
	}

	// The retried read sees the post-cancel store and installs cleanly.
	if !ix.Prime(5, "2026-03-12", nil, ix.Epoch(5, "2026-03-12")) {
		t.Fatal("fresh snapshot rejected")
	}
	if !ix.Free(5, "2026-03-12", dinner) {
		t.Error("released interval still occupied")
	}
}

func TestAddRemoveFree(t *testing.T) {
	ix := NewAvailabilityIndex()
	lunch := Interval{720, 810}
	dinner := Interval{1140, 1230}

	ix.Prime(3, "2026-03-12", []Interval{lunch}, ix.Epoch(3, "2026-03-12"))
	ix.Add(3, "2026-03-12", dinner)

	if ix.Free(3, "2026-03-12", Interval{1170, 1260}) {
		t.Error("overlapping interval reported free")
	}
	if !ix.Free(3, "2026-03-12", Interval{810, 900}) {
		t.Error("gap between reservations reported occupied")
	}

	ix.Remove(3, "2026-03-12", dinner)
	if !ix.Free(3, "2026-03-12", dinner) {
		t.Error("removed interval still occupied")
	}
	if ix.Free(3, "2026-03-12", lunch) {
		t.Error("remaining interval lost by Remove")
	}

	// Removing an unknown interval means the day is out of sync with the
	// store; it is dropped so the next reader re-primes.
	ix.Remove(3, "2026-03-12", Interval{0, 60})
	if ix.Loaded(3, "2026-03-12") {
		t.Error("out-of-sync day still loaded after removing an absent interval")
	}
}

func TestPruneBefore(t *testing.T) {
	ix := NewAvailabilityIndex()
	ix.Prime(1, "2026-03-10", []Interval{{720, 810}}, 0)
	ix.Prime(1, "2026-03-11", []Interval{{720, 810}}, 0)
	ix.Prime(2, "2026-03-12", []Interval{{720, 810}}, 0)

	if n := ix.PruneBefore("2026-03-12"); n != 2 {
		t.Errorf("PruneBefore dropped %d days, want 2", n)
	}
	if ix.Loaded(1, "2026-03-10") {
		t.Error("pruned day still loaded")
	}
	if !ix.Loaded(2, "2026-03-12") {
		t.Error("current day evicted")
	}
}
