package helper

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"reservaya/model"
	"reservaya/utils"
)

// The fixture runs the engine against in-memory stores: a Tuesday at 10:00,
// one establishment open 12:00-22:00 every day except Monday, 90-minute
// reservations on a half-hour grid, three bookable tables.
const (
	fixtureDate = "2026-03-12" // Thursday
	closedDate  = "2026-03-16" // Monday
)

var fixtureNow = time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

type fakeCatalog struct {
	establishments map[uint]*model.Establishment
	tables         map[uint]*model.Table
}

func (f *fakeCatalog) EstablishmentByID(_ context.Context, id uint) (*model.Establishment, error) {
	return f.establishments[id], nil
}

func (f *fakeCatalog) TableByID(_ context.Context, id uint) (*model.Table, error) {
	return f.tables[id], nil
}

func (f *fakeCatalog) ActiveTables(_ context.Context, establishmentId uint) ([]model.Table, error) {
	var out []model.Table
	for _, t := range f.tables {
		if t.EstablishmentId == establishmentId && t.IsActive {
			out = append(out, *t)
		}
	}
	return out, nil
}

type fakeReservationStore struct {
	mu   sync.Mutex
	next uint
	rows map[uint]model.Reservation

	// heldHook and expiredHook run after the corresponding query has taken
	// its snapshot and released the lock, to interleave a competing write
	// into the gap.
	heldHook    func()
	expiredHook func()
}

func newFakeReservationStore() *fakeReservationStore {
	return &fakeReservationStore{rows: make(map[uint]model.Reservation)}
}

func (f *fakeReservationStore) Insert(_ context.Context, r *model.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.rows {
		if o.Held() && o.TableId == r.TableId && o.Date.String() == r.Date.String() && o.StartTime == r.StartTime {
			return ErrDuplicateClaim
		}
	}
	f.next++
	r.ID = f.next
	f.rows[r.ID] = *r
	return nil
}

func (f *fakeReservationStore) Update(_ context.Context, r *model.Reservation, fromStatus string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.rows[r.ID]
	if !ok {
		return errors.New("reservation vanished")
	}
	if cur.Status != fromStatus {
		return ErrStaleTransition
	}
	f.rows[r.ID] = *r
	return nil
}

func (f *fakeReservationStore) ByID(_ context.Context, id uint) (*model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.rows[id]; ok {
		cp := r
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeReservationStore) ByToken(_ context.Context, token string) (*model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.ConfirmationToken == token {
			cp := r
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeReservationStore) HeldForDay(_ context.Context, tableId uint, date string) ([]model.Reservation, error) {
	f.mu.Lock()
	var out []model.Reservation
	for _, r := range f.rows {
		if r.Held() && r.TableId == tableId && r.Date.String() == date {
			out = append(out, r)
		}
	}
	f.mu.Unlock()
	if f.heldHook != nil {
		f.heldHook()
	}
	return out, nil
}

func (f *fakeReservationStore) ExpiredPending(_ context.Context, now time.Time) ([]model.Reservation, error) {
	f.mu.Lock()
	var out []model.Reservation
	for _, r := range f.rows {
		if r.Status == model.ReservationPending && now.After(r.CreatedAt.Add(15*time.Minute)) {
			out = append(out, r)
		}
	}
	f.mu.Unlock()
	if f.expiredHook != nil {
		f.expiredHook()
	}
	return out, nil
}

func (f *fakeReservationStore) seed(r model.Reservation) model.Reservation {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	r.ID = f.next
	if r.ConfirmationToken == "" {
		r.ConfirmationToken = utils.NewConfirmationToken()
	}
	f.rows[r.ID] = r
	return r
}

type fixture struct {
	engine *BookingEngine
	store  *fakeReservationStore
	now    time.Time
}

func newFixture() *fixture {
	est := &model.Establishment{
		DTO:                    model.DTO{ID: 1},
		Name:                   "La Terraza del Centro",
		Slug:                   "la-terraza-del-centro",
		IsActive:               true,
		SlotGranularityMin:     30,
		ReservationDurationMin: 90,
		BookingHorizonDays:     30,
		CancelWindowHours:      24,
		HoldWindowMin:          15,
	}
	for wd := 0; wd <= 6; wd++ {
		est.Hours = append(est.Hours, model.OperatingHours{
			EstablishmentId: 1,
			Weekday:         wd,
			Opens:           "12:00",
			Closes:          "22:00",
			Closed:          wd == 1,
		})
	}

	catalog := &fakeCatalog{
		establishments: map[uint]*model.Establishment{1: est},
		tables: map[uint]*model.Table{
			1: {DTO: model.DTO{ID: 1}, EstablishmentId: 1, Label: "T1", Capacity: 2, IsActive: true},
			2: {DTO: model.DTO{ID: 2}, EstablishmentId: 1, Label: "T2", Capacity: 4, IsActive: true},
			3: {DTO: model.DTO{ID: 3}, EstablishmentId: 1, Label: "T3", Capacity: 6, IsActive: true},
			4: {DTO: model.DTO{ID: 4}, EstablishmentId: 1, Label: "T4", Capacity: 4, IsActive: false},
		},
	}

	f := &fixture{
		store: newFakeReservationStore(),
		now:   fixtureNow,
	}
	f.engine = NewBookingEngine(catalog, f.store)
	f.engine.SetClock(func() time.Time { return f.now }, time.UTC)
	return f
}

func (f *fixture) book(t *testing.T, tableId uint, date, startTime string, partySize int) *model.Reservation {
	t.Helper()
	r, err := f.engine.CreateReservation(context.Background(), 1, nil, model.CreateReservationInput{
		TableId:   tableId,
		Date:      date,
		StartTime: startTime,
		PartySize: partySize,
	})
	if err != nil {
		t.Fatalf("CreateReservation(table %d, %s %s): %v", tableId, date, startTime, err)
	}
	return r
}

func TestListSlots(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	slots, err := f.engine.ListSlots(ctx, 1, fixtureDate)
	if err != nil {
		t.Fatalf("ListSlots: %v", err)
	}
	if len(slots) != 18 {
		t.Fatalf("got %d slots, want 18", len(slots))
	}
	if slots[0] != "12:00" || slots[len(slots)-1] != "20:30" {
		t.Errorf("slot range = %s..%s, want 12:00..20:30", slots[0], slots[len(slots)-1])
	}

	closed, err := f.engine.ListSlots(ctx, 1, closedDate)
	if err != nil {
		t.Fatalf("ListSlots on closed day: %v", err)
	}
	if closed == nil || len(closed) != 0 {
		t.Errorf("closed day slots = %v, want empty list", closed)
	}

	if _, err := f.engine.ListSlots(ctx, 1, "12/03/2026"); err == nil {
		t.Error("expected error for malformed date")
	}
}

func TestListSlotsTodayDropsPastTimes(t *testing.T) {
	f := newFixture()
	f.now = time.Date(2026, 3, 10, 19, 0, 0, 0, time.UTC)

	slots, err := f.engine.ListSlots(context.Background(), 1, "2026-03-10")
	if err != nil {
		t.Fatalf("ListSlots: %v", err)
	}
	want := []string{"19:30", "20:00", "20:30"}
	if len(slots) != len(want) {
		t.Fatalf("got %v, want %v", slots, want)
	}
	for i := range want {
		if slots[i] != want[i] {
			t.Errorf("slots[%d] = %q, want %q", i, slots[i], want[i])
		}
	}
}

func TestFreeTables(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.book(t, 1, fixtureDate, "19:00", 2)

	// T1 is taken 19:00-20:30; a 19:00 party of two gets the other tables,
	// tightest fit first.
	tables, err := f.engine.FreeTables(ctx, 1, fixtureDate, "19:00", 2)
	if err != nil {
		t.Fatalf("FreeTables: %v", err)
	}
	if len(tables) != 2 || tables[0].Label != "T2" || tables[1].Label != "T3" {
		t.Errorf("free tables = %v, want [T2 T3]", labels(tables))
	}

	// 18:00 still overlaps T1's 19:00 booking; 17:30 ends exactly at 19:00.
	tables, _ = f.engine.FreeTables(ctx, 1, fixtureDate, "18:00", 2)
	if containsLabel(tables, "T1") {
		t.Error("T1 free at 18:00 despite 19:00 booking overlap")
	}
	tables, _ = f.engine.FreeTables(ctx, 1, fixtureDate, "17:30", 2)
	if !containsLabel(tables, "T1") {
		t.Error("T1 not free at 17:30, back-to-back turns should be allowed")
	}

	// Capacity filter, and the inactive T4 never shows up.
	tables, _ = f.engine.FreeTables(ctx, 1, fixtureDate, "13:00", 5)
	if len(tables) != 1 || tables[0].Label != "T3" {
		t.Errorf("party of 5 tables = %v, want [T3]", labels(tables))
	}
	tables, _ = f.engine.FreeTables(ctx, 1, fixtureDate, "13:00", 3)
	if containsLabel(tables, "T4") {
		t.Error("inactive table offered")
	}

	if _, err := f.engine.FreeTables(ctx, 1, fixtureDate, "19:00", 0); err == nil {
		t.Error("expected validation error for partySize 0")
	}
	if _, err := f.engine.FreeTables(ctx, 1, fixtureDate, "7pm", 2); err == nil {
		t.Error("expected validation error for malformed time")
	}
}

func labels(tables []model.Table) []string {
	out := make([]string, len(tables))
	for i, t := range tables {
		out[i] = t.Label
	}
	return out
}

func containsLabel(tables []model.Table, label string) bool {
	for _, t := range tables {
		if t.Label == label {
			return true
		}
	}
	return false
}

func TestCreateReservation(t *testing.T) {
	f := newFixture()

	r := f.book(t, 2, fixtureDate, "19:00", 4)
	if r.Status != model.ReservationPending {
		t.Errorf("status = %s, want PENDING", r.Status)
	}
	if r.DurationMin != 90 {
		t.Errorf("durationMin = %d, want 90", r.DurationMin)
	}
	if !strings.HasPrefix(r.PublicCode, "RSV-") {
		t.Errorf("publicCode = %q, want RSV- prefix", r.PublicCode)
	}
	if len(r.ConfirmationToken) != 32 {
		t.Errorf("token length = %d, want 32", len(r.ConfirmationToken))
	}
}

func TestCreateReservationValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	tests := []struct {
		name  string
		estId uint
		in    model.CreateReservationInput
	}{
		{"unknown establishment", 99, model.CreateReservationInput{TableId: 1, Date: fixtureDate, StartTime: "19:00", PartySize: 2}},
		{"unknown table", 1, model.CreateReservationInput{TableId: 99, Date: fixtureDate, StartTime: "19:00", PartySize: 2}},
		{"inactive table", 1, model.CreateReservationInput{TableId: 4, Date: fixtureDate, StartTime: "19:00", PartySize: 2}},
		{"malformed date", 1, model.CreateReservationInput{TableId: 1, Date: "12-03-2026", StartTime: "19:00", PartySize: 2}},
		{"past date", 1, model.CreateReservationInput{TableId: 1, Date: "2026-03-09", StartTime: "19:00", PartySize: 2}},
		{"beyond horizon", 1, model.CreateReservationInput{TableId: 1, Date: "2026-04-10", StartTime: "19:00", PartySize: 2}},
		{"closed day", 1, model.CreateReservationInput{TableId: 1, Date: closedDate, StartTime: "19:00", PartySize: 2}},
		{"off-grid time", 1, model.CreateReservationInput{TableId: 1, Date: fixtureDate, StartTime: "19:10", PartySize: 2}},
		{"after last slot", 1, model.CreateReservationInput{TableId: 1, Date: fixtureDate, StartTime: "21:00", PartySize: 2}},
		{"party beyond capacity", 1, model.CreateReservationInput{TableId: 1, Date: fixtureDate, StartTime: "19:00", PartySize: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.engine.CreateReservation(ctx, tt.estId, nil, tt.in)
			var validation *ValidationError
			if !errors.As(err, &validation) {
				t.Errorf("got %v, want ValidationError", err)
			}
		})
	}

	// Party size exactly at capacity is fine.
	f.book(t, 1, fixtureDate, "19:00", 2)
}

func TestCreateReservationConflict(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.book(t, 1, fixtureDate, "19:00", 2)

	_, err := f.engine.CreateReservation(ctx, 1, nil, model.CreateReservationInput{
		TableId: 1, Date: fixtureDate, StartTime: "19:00", PartySize: 2,
	})
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("same slot rebooked: got %v, want ConflictError", err)
	}

	// 20:00 overlaps 19:00-20:30.
	_, err = f.engine.CreateReservation(ctx, 1, nil, model.CreateReservationInput{
		TableId: 1, Date: fixtureDate, StartTime: "20:00", PartySize: 2,
	})
	if !errors.As(err, &conflict) {
		t.Fatalf("overlapping slot: got %v, want ConflictError", err)
	}

	// 20:30 starts exactly when the first reservation ends.
	f.book(t, 1, fixtureDate, "20:30", 2)

	// Same slot on a different table is independent.
	f.book(t, 2, fixtureDate, "19:00", 2)
}

func TestConcurrentCreateSingleWinner(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.engine.CreateReservation(ctx, 1, nil, model.CreateReservationInput{
				TableId: 3, Date: fixtureDate, StartTime: "19:00", PartySize: 4,
			})
		}(i)
	}
	wg.Wait()

	var created, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			created++
		default:
			var conflict *ConflictError
			if !errors.As(err, &conflict) {
				t.Errorf("unexpected error: %v", err)
				continue
			}
			conflicts++
		}
	}
	if created != 1 {
		t.Errorf("created = %d, want exactly 1", created)
	}
	if conflicts != attempts-1 {
		t.Errorf("conflicts = %d, want %d", conflicts, attempts-1)
	}
}

func TestConfirm(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	r := f.book(t, 1, fixtureDate, "19:00", 2)

	confirmed, err := f.engine.Confirm(ctx, r.ID, Actor{ViaToken: true})
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if confirmed.Status != model.ReservationConfirmed {
		t.Errorf("status = %s, want CONFIRMED", confirmed.Status)
	}
	if confirmed.ConfirmedAt == nil {
		t.Error("ConfirmedAt not set")
	}

	// Confirming again is a no-op.
	again, err := f.engine.Confirm(ctx, r.ID, Actor{ViaToken: true})
	if err != nil {
		t.Fatalf("second Confirm: %v", err)
	}
	if again.Status != model.ReservationConfirmed {
		t.Errorf("second confirm status = %s", again.Status)
	}

	if _, err := f.engine.Confirm(ctx, 999, Actor{Staff: true}); err == nil {
		t.Error("expected NotFoundError for unknown id")
	}
}

func TestConfirmAfterHoldWindowExpires(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	var releasedReason string
	f.engine.OnRelease = func(_ *model.Reservation, reason string) { releasedReason = reason }

	r := f.book(t, 1, fixtureDate, "19:00", 2)
	f.now = f.now.Add(16 * time.Minute)

	_, err := f.engine.Confirm(ctx, r.ID, Actor{ViaToken: true})
	var transition *InvalidTransitionError
	if !errors.As(err, &transition) {
		t.Fatalf("got %v, want InvalidTransitionError", err)
	}
	if transition.From != model.ReservationExpired {
		t.Errorf("transition from = %s, want EXPIRED", transition.From)
	}
	if releasedReason != "expired" {
		t.Errorf("OnRelease reason = %q, want expired", releasedReason)
	}

	stored, _ := f.store.ByID(ctx, r.ID)
	if stored.Status != model.ReservationExpired {
		t.Errorf("stored status = %s, want EXPIRED", stored.Status)
	}

	// The lapsed hold frees the slot for someone else.
	f.book(t, 1, fixtureDate, "19:00", 2)
}

func TestConfirmAfterStartTime(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// Pending hold created minutes ago for a start time already behind us.
	date, _ := utils.ParseCustomDate("2026-03-10")
	r := f.store.seed(model.Reservation{
		DTO:             model.DTO{CreatedAt: f.now.Add(-5 * time.Minute)},
		EstablishmentId: 1,
		TableId:         1,
		Date:            date,
		StartTime:       "09:00",
		DurationMin:     90,
		PartySize:       2,
		Status:          model.ReservationPending,
	})

	_, err := f.engine.Confirm(ctx, r.ID, Actor{ViaToken: true})
	var transition *InvalidTransitionError
	if !errors.As(err, &transition) {
		t.Fatalf("got %v, want InvalidTransitionError", err)
	}
	if transition.Reason != "start time has passed" {
		t.Errorf("reason = %q", transition.Reason)
	}
}

func TestCancel(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	r := f.book(t, 1, fixtureDate, "19:00", 2)

	// Pending reservations expire, they are not cancelled.
	_, err := f.engine.Cancel(ctx, r.ID, Actor{ViaToken: true})
	var transition *InvalidTransitionError
	if !errors.As(err, &transition) {
		t.Fatalf("cancel pending: got %v, want InvalidTransitionError", err)
	}

	if _, err := f.engine.Confirm(ctx, r.ID, Actor{ViaToken: true}); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	cancelled, err := f.engine.Cancel(ctx, r.ID, Actor{ViaToken: true})
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Status != model.ReservationCancelled {
		t.Errorf("status = %s, want CANCELLED", cancelled.Status)
	}
	if cancelled.CancelledAt == nil {
		t.Error("CancelledAt not set")
	}

	// The slot is inventory again.
	tables, _ := f.engine.FreeTables(ctx, 1, fixtureDate, "19:00", 2)
	if !containsLabel(tables, "T1") {
		t.Error("cancelled slot not returned to inventory")
	}
}

func TestCancelOwnershipAndWindow(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	customerId := uint(7)
	r, err := f.engine.CreateReservation(ctx, 1, &customerId, model.CreateReservationInput{
		TableId: 1, Date: fixtureDate, StartTime: "19:00", PartySize: 2,
	})
	if err != nil {
		t.Fatalf("CreateReservation: %v", err)
	}
	if _, err := f.engine.Confirm(ctx, r.ID, Actor{CustomerId: 7}); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	_, err = f.engine.Cancel(ctx, r.ID, Actor{CustomerId: 8})
	var policy *PolicyError
	if !errors.As(err, &policy) {
		t.Fatalf("foreign customer cancel: got %v, want PolicyError", err)
	}

	// One hour before the start, inside the 24h window: the owner is
	// refused, staff are not.
	f.now = time.Date(2026, 3, 12, 18, 0, 0, 0, time.UTC)
	_, err = f.engine.Cancel(ctx, r.ID, Actor{CustomerId: 7})
	if !errors.As(err, &policy) {
		t.Fatalf("late customer cancel: got %v, want PolicyError", err)
	}
	if _, err := f.engine.Cancel(ctx, r.ID, Actor{Staff: true}); err != nil {
		t.Fatalf("staff cancel inside window: %v", err)
	}
}

func TestGuestReservationNeedsTokenForLifecycle(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	// Guest booking: no customer id, so the sequential reservation id alone
	// must not let a stranger confirm or cancel it.
	r := f.book(t, 1, fixtureDate, "19:00", 2)

	var policy *PolicyError
	if _, err := f.engine.Confirm(ctx, r.ID, Actor{CustomerId: 9}); !errors.As(err, &policy) {
		t.Fatalf("stranger confirm by id: got %v, want PolicyError", err)
	}
	if _, err := f.engine.Confirm(ctx, r.ID, Actor{}); !errors.As(err, &policy) {
		t.Fatalf("anonymous confirm by id: got %v, want PolicyError", err)
	}
	if _, err := f.engine.Confirm(ctx, r.ID, Actor{ViaToken: true}); err != nil {
		t.Fatalf("token confirm: %v", err)
	}

	if _, err := f.engine.Cancel(ctx, r.ID, Actor{CustomerId: 9}); !errors.As(err, &policy) {
		t.Fatalf("stranger cancel by id: got %v, want PolicyError", err)
	}
	if _, err := f.engine.Cancel(ctx, r.ID, Actor{ViaToken: true}); err != nil {
		t.Fatalf("token cancel: %v", err)
	}
}

func TestCancelDuringAvailabilityLoad(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	date, _ := utils.ParseCustomDate(fixtureDate)
	r := f.store.seed(model.Reservation{
		EstablishmentId: 1,
		TableId:         1,
		Date:            date,
		StartTime:       "19:00",
		DurationMin:     90,
		PartySize:       2,
		Status:          model.ReservationConfirmed,
	})

	// The cancel lands after the day's held rows have been read but before
	// the index installs them, so the snapshot still carries the interval.
	f.store.heldHook = func() {
		f.store.heldHook = nil
		if _, err := f.engine.Cancel(ctx, r.ID, Actor{Staff: true}); err != nil {
			t.Errorf("Cancel: %v", err)
		}
	}

	// The freed slot must be bookable; a stale snapshot would pin it as
	// occupied with no held row backing it.
	f.book(t, 1, fixtureDate, "19:00", 2)
}

func TestCompleteAndNoShow(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	r := f.book(t, 1, fixtureDate, "19:00", 2)
	if _, err := f.engine.Confirm(ctx, r.ID, Actor{ViaToken: true}); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	_, err := f.engine.Complete(ctx, r.ID, Actor{CustomerId: 1})
	var policy *PolicyError
	if !errors.As(err, &policy) {
		t.Fatalf("customer complete: got %v, want PolicyError", err)
	}

	_, err = f.engine.Complete(ctx, r.ID, Actor{Staff: true})
	var transition *InvalidTransitionError
	if !errors.As(err, &transition) {
		t.Fatalf("complete before start: got %v, want InvalidTransitionError", err)
	}

	f.now = time.Date(2026, 3, 12, 19, 10, 0, 0, time.UTC)
	done, err := f.engine.Complete(ctx, r.ID, Actor{Staff: true})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if done.Status != model.ReservationCompleted || done.CompletedAt == nil {
		t.Errorf("completed = %s/%v", done.Status, done.CompletedAt)
	}

	// Terminal: no-show after completion is refused.
	if _, err := f.engine.NoShow(ctx, r.ID, Actor{Staff: true}); !errors.As(err, &transition) {
		t.Errorf("no-show after completion: got %v, want InvalidTransitionError", err)
	}
}

func TestNoShow(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	r := f.book(t, 2, fixtureDate, "19:00", 4)
	if _, err := f.engine.Confirm(ctx, r.ID, Actor{ViaToken: true}); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	f.now = time.Date(2026, 3, 12, 19, 30, 0, 0, time.UTC)
	marked, err := f.engine.NoShow(ctx, r.ID, Actor{Staff: true})
	if err != nil {
		t.Fatalf("NoShow: %v", err)
	}
	if marked.Status != model.ReservationNoShow {
		t.Errorf("status = %s, want NO_SHOW", marked.Status)
	}
	if marked.CompletedAt != nil {
		t.Error("CompletedAt set on a no-show")
	}
}

func TestGetByToken(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	r := f.book(t, 1, fixtureDate, "19:00", 2)

	got, err := f.engine.GetByToken(ctx, r.ConfirmationToken)
	if err != nil {
		t.Fatalf("GetByToken: %v", err)
	}
	if got.ID != r.ID {
		t.Errorf("got reservation %d, want %d", got.ID, r.ID)
	}

	_, err = f.engine.GetByToken(ctx, "deadbeef")
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Errorf("unknown token: got %v, want NotFoundError", err)
	}
}

func TestExpireSweep(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	var released []string
	f.engine.OnRelease = func(_ *model.Reservation, reason string) { released = append(released, reason) }

	r1 := f.book(t, 1, fixtureDate, "19:00", 2)
	r2 := f.book(t, 2, fixtureDate, "13:00", 4)
	r3 := f.book(t, 3, fixtureDate, "19:00", 4)
	if _, err := f.engine.Confirm(ctx, r3.ID, Actor{ViaToken: true}); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	f.now = f.now.Add(20 * time.Minute)
	n, err := f.engine.ExpireSweep(ctx)
	if err != nil {
		t.Fatalf("ExpireSweep: %v", err)
	}
	if n != 2 {
		t.Errorf("expired %d holds, want 2", n)
	}
	if len(released) != 2 {
		t.Errorf("OnRelease calls = %d, want 2", len(released))
	}

	for _, id := range []uint{r1.ID, r2.ID} {
		stored, _ := f.store.ByID(ctx, id)
		if stored.Status != model.ReservationExpired {
			t.Errorf("reservation %d status = %s, want EXPIRED", id, stored.Status)
		}
	}
	confirmed, _ := f.store.ByID(ctx, r3.ID)
	if confirmed.Status != model.ReservationConfirmed {
		t.Errorf("confirmed reservation swept to %s", confirmed.Status)
	}

	// Both expired slots are bookable again.
	f.book(t, 1, fixtureDate, "19:00", 2)
	f.book(t, 2, fixtureDate, "13:00", 4)
}

func TestExpireSweepLosesRaceToConfirm(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	r := f.book(t, 1, fixtureDate, "19:00", 2)
	f.now = fixtureNow.Add(16 * time.Minute)

	// A confirm slips in between the sweep's query and its write: the
	// sweep saw the row as PENDING, but the guarded update must lose.
	f.store.expiredHook = func() {
		f.store.expiredHook = nil
		saved := f.now
		f.now = fixtureNow.Add(14 * time.Minute)
		if _, err := f.engine.Confirm(ctx, r.ID, Actor{ViaToken: true}); err != nil {
			t.Errorf("Confirm: %v", err)
		}
		f.now = saved
	}

	n, err := f.engine.ExpireSweep(ctx)
	if err != nil {
		t.Fatalf("ExpireSweep: %v", err)
	}
	if n != 0 {
		t.Errorf("expired %d holds, want 0", n)
	}

	stored, _ := f.store.ByID(ctx, r.ID)
	if stored.Status != model.ReservationConfirmed {
		t.Fatalf("stored status = %s, want CONFIRMED", stored.Status)
	}

	// The confirmed reservation still holds its table.
	_, err = f.engine.CreateReservation(ctx, 1, nil, model.CreateReservationInput{
		TableId: 1, Date: fixtureDate, StartTime: "19:00", PartySize: 2,
	})
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("slot rebooked under a confirmed reservation: got %v, want ConflictError", err)
	}
}

func TestPruneIndex(t *testing.T) {
	f := newFixture()
	f.book(t, 1, fixtureDate, "19:00", 2)

	if n := f.engine.PruneIndex(); n != 0 {
		t.Errorf("pruned %d future days, want 0", n)
	}

	f.now = time.Date(2026, 3, 20, 10, 0, 0, 0, time.UTC)
	if n := f.engine.PruneIndex(); n != 1 {
		t.Errorf("pruned %d past days, want 1", n)
	}
}
