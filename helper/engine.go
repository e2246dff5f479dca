package helper

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"reservaya/model"
	"reservaya/utils"
)

// CatalogStore is the read-only establishment/table catalog. Lookups
// return (nil, nil) for unknown ids.
type CatalogStore interface {
	EstablishmentByID(ctx context.Context, id uint) (*model.Establishment, error)
	TableByID(ctx context.Context, id uint) (*model.Table, error)
	ActiveTables(ctx context.Context, establishmentId uint) ([]model.Table, error)
}

// ReservationStore persists reservations. Insert must reject a second
// PENDING/CONFIRMED row for the same (table, date, startTime) with
// ErrDuplicateClaim. Update persists a lifecycle transition and must apply
// only while the row still has fromStatus, returning ErrStaleTransition
// when another writer moved it first. Lookups return (nil, nil) when
// missing.
type ReservationStore interface {
	Insert(ctx context.Context, r *model.Reservation) error
	Update(ctx context.Context, r *model.Reservation, fromStatus string) error
	ByID(ctx context.Context, id uint) (*model.Reservation, error)
	ByToken(ctx context.Context, token string) (*model.Reservation, error)
	HeldForDay(ctx context.Context, tableId uint, date string) ([]model.Reservation, error)
	ExpiredPending(ctx context.Context, now time.Time) ([]model.Reservation, error)
}

// Actor identifies who asks for a lifecycle transition. Staff actors
// bypass the cancellation window. ViaToken marks a caller who presented
// the reservation's confirmation token, which authenticates the booking
// party even when the reservation was made as a guest.
type Actor struct {
	CustomerId uint
	Staff      bool
	ViaToken   bool
}

// partyAllowed reports whether the actor may manage the reservation:
// staff always, token holders always, otherwise the reservation must
// belong to the requesting customer. Guest reservations have no customer
// id, so by id alone nobody but staff can touch them.
func partyAllowed(r *model.Reservation, actor Actor) bool {
	if actor.Staff || actor.ViaToken {
		return true
	}
	return r.CustomerId != nil && *r.CustomerId == actor.CustomerId
}

// BookingEngine is the allocation core: slot discovery, availability,
// atomic reservation claims and lifecycle transitions. Handlers stay thin
// around it.
type BookingEngine struct {
	catalog CatalogStore
	store   ReservationStore
	index   *AvailabilityIndex

	// Events publishes lifecycle events when configured; nil is fine.
	Events *EventPublisher
	// OnRelease is invoked after a reservation stops occupying its table
	// (cancelled or expired) so callers can notify/broadcast.
	OnRelease func(r *model.Reservation, reason string)
	// ClaimTimeout bounds how long a create waits on a competing claim for
	// the same (table, date) before failing with a retryable conflict.
	ClaimTimeout time.Duration

	now func() time.Time
	loc *time.Location
}

func NewBookingEngine(catalog CatalogStore, store ReservationStore) *BookingEngine {
	return &BookingEngine{
		catalog:      catalog,
		store:        store,
		index:        NewAvailabilityIndex(),
		ClaimTimeout: 300 * time.Millisecond,
		now:          time.Now,
		loc:          time.Local,
	}
}

// SetClock overrides the engine's clock and location. Used by tests and
// by main when the deployment pins an establishment timezone.
func (e *BookingEngine) SetClock(now func() time.Time, loc *time.Location) {
	if now != nil {
		e.now = now
	}
	if loc != nil {
		e.loc = loc
	}
}

func (e *BookingEngine) today() time.Time {
	n := e.now().In(e.loc)
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, e.loc)
}

func reservationInterval(r *model.Reservation) (Interval, error) {
	start, err := ParseClock(r.StartTime)
	if err != nil {
		return Interval{}, err
	}
	return Interval{Start: start, End: start + r.DurationMin}, nil
}

// ensureDay primes the index for (table, date) from the store on first
// use. The epoch sampled before the store read lets Prime detect a
// release that landed mid-read; the snapshot is then stale and the read
// is retried.
func (e *BookingEngine) ensureDay(ctx context.Context, tableId uint, date string) error {
	for {
		if e.index.Loaded(tableId, date) {
			return nil
		}
		epoch := e.index.Epoch(tableId, date)
		held, err := e.store.HeldForDay(ctx, tableId, date)
		if err != nil {
			return fmt.Errorf("load occupied intervals: %w", err)
		}
		ivs := make([]Interval, 0, len(held))
		for i := range held {
			iv, err := reservationInterval(&held[i])
			if err != nil {
				log.Printf("skipping reservation %d with bad start time %q", held[i].ID, held[i].StartTime)
				continue
			}
			ivs = append(ivs, iv)
		}
		if e.index.Prime(tableId, date, ivs, epoch) {
			return nil
		}
	}
}

func (e *BookingEngine) establishment(ctx context.Context, id uint) (*model.Establishment, error) {
	est, err := e.catalog.EstablishmentByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load establishment: %w", err)
	}
	if est == nil {
		return nil, &NotFoundError{Resource: "establishment"}
	}
	return est, nil
}

// ListSlots returns the candidate start times for an establishment on a
// date. Closed weekdays yield an empty list; for today, start times
// already in the past are dropped.
func (e *BookingEngine) ListSlots(ctx context.Context, establishmentId uint, date string) ([]string, error) {
	d, err := time.ParseInLocation("2006-01-02", date, e.loc)
	if err != nil {
		return nil, &ValidationError{Field: "date", Reason: "expected YYYY-MM-DD"}
	}
	est, err := e.establishment(ctx, establishmentId)
	if err != nil {
		return nil, err
	}

	hours := est.HoursFor(int(d.Weekday()))
	if hours == nil {
		return []string{}, nil
	}
	slots := GenerateSlots(hours.Opens, hours.Closes, est.SlotGranularityMin, est.ReservationDurationMin)

	if d.Equal(e.today()) {
		n := e.now().In(e.loc)
		nowMin := n.Hour()*60 + n.Minute()
		upcoming := slots[:0]
		for _, s := range slots {
			if min, err := ParseClock(s); err == nil && min > nowMin {
				upcoming = append(upcoming, s)
			}
		}
		slots = upcoming
	}
	if slots == nil {
		slots = []string{}
	}
	return slots, nil
}

// FreeTables returns the establishment's active tables that seat the party
// and are free for [startTime, startTime+duration) on the date, tightest
// fit first. Read-only; stale-but-consistent under concurrent writers.
func (e *BookingEngine) FreeTables(ctx context.Context, establishmentId uint, date, startTime string, partySize int) ([]model.Table, error) {
	if partySize < 1 {
		return nil, &ValidationError{Field: "partySize", Reason: "must be at least 1"}
	}
	if _, err := time.ParseInLocation("2006-01-02", date, e.loc); err != nil {
		return nil, &ValidationError{Field: "date", Reason: "expected YYYY-MM-DD"}
	}
	start, err := ParseClock(startTime)
	if err != nil {
		return nil, &ValidationError{Field: "startTime", Reason: "expected HH:MM"}
	}
	est, err := e.establishment(ctx, establishmentId)
	if err != nil {
		return nil, err
	}
	iv := Interval{Start: start, End: start + est.ReservationDurationMin}

	tables, err := e.catalog.ActiveTables(ctx, establishmentId)
	if err != nil {
		return nil, fmt.Errorf("load tables: %w", err)
	}

	free := make([]model.Table, 0, len(tables))
	for _, t := range tables {
		if t.Capacity < partySize {
			continue
		}
		if err := e.ensureDay(ctx, t.ID, date); err != nil {
			return nil, err
		}
		if e.index.Free(t.ID, date, iv) {
			free = append(free, t)
		}
	}
	sort.Slice(free, func(i, j int) bool {
		if free[i].Capacity != free[j].Capacity {
			return free[i].Capacity < free[j].Capacity
		}
		return free[i].Label < free[j].Label
	})
	return free, nil
}

// CreateReservation is the allocator. Behaves as if serialized per
// (table, date): validation runs lock-free, then the claim is taken, the
// occupied set is re-checked under it, and only then is the row inserted.
// Losing the race is always a ConflictError so callers know to re-query
// and pick again; the engine never substitutes a different table or time.
func (e *BookingEngine) CreateReservation(ctx context.Context, establishmentId uint, customerId *uint, in model.CreateReservationInput) (*model.Reservation, error) {
	d, err := time.ParseInLocation("2006-01-02", in.Date, e.loc)
	if err != nil {
		return nil, &ValidationError{Field: "date", Reason: "expected YYYY-MM-DD"}
	}
	est, errEst := e.catalog.EstablishmentByID(ctx, establishmentId)
	if errEst != nil {
		return nil, fmt.Errorf("load establishment: %w", errEst)
	}
	if est == nil {
		return nil, &ValidationError{Field: "establishmentId", Reason: "unknown establishment"}
	}

	table, err := e.catalog.TableByID(ctx, in.TableId)
	if err != nil {
		return nil, fmt.Errorf("load table: %w", err)
	}
	if table == nil || table.EstablishmentId != est.ID {
		return nil, &ValidationError{Field: "tableId", Reason: "unknown table"}
	}
	if !table.IsActive {
		return nil, &ValidationError{Field: "tableId", Reason: "table is not bookable"}
	}

	today := e.today()
	if d.Before(today) {
		return nil, &ValidationError{Field: "date", Reason: "date is in the past"}
	}
	if d.After(today.AddDate(0, 0, est.BookingHorizonDays)) {
		return nil, &ValidationError{Field: "date", Reason: "date is beyond the booking horizon"}
	}

	hours := est.HoursFor(int(d.Weekday()))
	if hours == nil {
		return nil, &ValidationError{Field: "date", Reason: "establishment is closed that day"}
	}
	onGrid := false
	for _, s := range GenerateSlots(hours.Opens, hours.Closes, est.SlotGranularityMin, est.ReservationDurationMin) {
		if s == in.StartTime {
			onGrid = true
			break
		}
	}
	if !onGrid {
		return nil, &ValidationError{Field: "startTime", Reason: "start time is not on the slot grid"}
	}

	if in.PartySize > table.Capacity {
		return nil, &ValidationError{Field: "partySize", Reason: fmt.Sprintf("table seats at most %d", table.Capacity)}
	}

	// Exclusive claim on (table, date); bounded wait, then conflict.
	if err := e.index.Acquire(in.TableId, in.Date, e.ClaimTimeout); err != nil {
		return nil, err
	}
	defer e.index.Release(in.TableId, in.Date)

	if err := e.ensureDay(ctx, in.TableId, in.Date); err != nil {
		return nil, err
	}
	start, _ := ParseClock(in.StartTime)
	iv := Interval{Start: start, End: start + est.ReservationDurationMin}

	// The pre-claim availability read may be stale; this re-check under the
	// claim is the actual correctness gate.
	if !e.index.Free(in.TableId, in.Date, iv) {
		return nil, &ConflictError{Reason: "table already reserved for an overlapping time"}
	}

	r := &model.Reservation{
		PublicCode:        utils.NewPublicCode("RSV"),
		ConfirmationToken: utils.NewConfirmationToken(),
		EstablishmentId:   est.ID,
		TableId:           table.ID,
		CustomerId:        customerId,
		Date:              utils.NewCustomDate(d),
		StartTime:         in.StartTime,
		DurationMin:       est.ReservationDurationMin,
		PartySize:         in.PartySize,
		Status:            model.ReservationPending,
		Notes:             in.Notes,
		ContactName:       in.ContactName,
		ContactEmail:      in.ContactEmail,
	}
	r.CreatedAt = e.now()

	if err := e.store.Insert(ctx, r); err != nil {
		if errors.Is(err, ErrDuplicateClaim) {
			return nil, &ConflictError{Reason: "table already reserved for that slot"}
		}
		return nil, fmt.Errorf("insert reservation: %w", err)
	}
	e.index.Add(in.TableId, in.Date, iv)
	e.Events.PublishReservation("created", r)
	return r, nil
}

func (e *BookingEngine) byID(ctx context.Context, id uint) (*model.Reservation, error) {
	r, err := e.store.ByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load reservation: %w", err)
	}
	if r == nil {
		return nil, &NotFoundError{Resource: "reservation"}
	}
	return r, nil
}

// Confirm moves PENDING → CONFIRMED. Confirming an already confirmed
// reservation is a no-op, not an error. A pending hold past its window is
// expired lazily here even if the sweep has not caught it yet. Guest
// reservations are confirmed through their token; by id only staff or the
// owning customer may confirm.
func (e *BookingEngine) Confirm(ctx context.Context, id uint, actor Actor) (*model.Reservation, error) {
	r, err := e.byID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !partyAllowed(r, actor) {
		return nil, &PolicyError{Reason: "not allowed to manage this reservation"}
	}
	if r.Status == model.ReservationConfirmed {
		return r, nil
	}
	if r.Status != model.ReservationPending {
		return nil, &InvalidTransitionError{From: r.Status, To: model.ReservationConfirmed}
	}

	est, err := e.establishment(ctx, r.EstablishmentId)
	if err != nil {
		return nil, err
	}
	now := e.now()
	if now.After(r.CreatedAt.Add(time.Duration(est.HoldWindowMin) * time.Minute)) {
		if err := e.expire(ctx, r); err != nil {
			if errors.Is(err, ErrStaleTransition) {
				return e.afterLostConfirmRace(ctx, id)
			}
			return nil, err
		}
		return nil, &InvalidTransitionError{From: model.ReservationExpired, To: model.ReservationConfirmed, Reason: "hold window elapsed"}
	}
	if !now.Before(r.StartAt(e.loc)) {
		return nil, &InvalidTransitionError{From: r.Status, To: model.ReservationConfirmed, Reason: "start time has passed"}
	}

	r.Status = model.ReservationConfirmed
	r.ConfirmedAt = &now
	if err := e.store.Update(ctx, r, model.ReservationPending); err != nil {
		if errors.Is(err, ErrStaleTransition) {
			return e.afterLostConfirmRace(ctx, id)
		}
		return nil, fmt.Errorf("update reservation: %w", err)
	}
	e.Events.PublishReservation("confirmed", r)
	return r, nil
}

// afterLostConfirmRace re-reads a reservation whose guarded status write
// matched no row. A concurrent confirm keeps the idempotent contract;
// anything else reports the status that won.
func (e *BookingEngine) afterLostConfirmRace(ctx context.Context, id uint) (*model.Reservation, error) {
	cur, err := e.byID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cur.Status == model.ReservationConfirmed {
		return cur, nil
	}
	return nil, &InvalidTransitionError{From: cur.Status, To: model.ReservationConfirmed}
}

// Cancel moves CONFIRMED → CANCELLED and releases the interval. Customers
// must be outside the establishment's cancellation window; staff bypass
// it. Guest reservations cancel through their confirmation token.
func (e *BookingEngine) Cancel(ctx context.Context, id uint, actor Actor) (*model.Reservation, error) {
	r, err := e.byID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(r.Status, model.ReservationCancelled) {
		return nil, &InvalidTransitionError{From: r.Status, To: model.ReservationCancelled}
	}
	if !partyAllowed(r, actor) {
		return nil, &PolicyError{Reason: "not allowed to manage this reservation"}
	}

	if !actor.Staff {
		est, err := e.establishment(ctx, r.EstablishmentId)
		if err != nil {
			return nil, err
		}
		deadline := r.StartAt(e.loc).Add(-time.Duration(est.CancelWindowHours) * time.Hour)
		if !e.now().Before(deadline) {
			return nil, &PolicyError{Reason: fmt.Sprintf("cancellations close %d hours before the reservation", est.CancelWindowHours)}
		}
	}

	now := e.now()
	prev := r.Status
	r.Status = model.ReservationCancelled
	r.CancelledAt = &now
	if err := e.store.Update(ctx, r, prev); err != nil {
		if errors.Is(err, ErrStaleTransition) {
			cur, err2 := e.byID(ctx, id)
			if err2 != nil {
				return nil, err2
			}
			return nil, &InvalidTransitionError{From: cur.Status, To: model.ReservationCancelled}
		}
		return nil, fmt.Errorf("update reservation: %w", err)
	}
	e.releaseInterval(r)
	e.Events.PublishReservation("cancelled", r)
	if e.OnRelease != nil {
		e.OnRelease(r, "cancelled")
	}
	return r, nil
}

// Complete moves CONFIRMED → COMPLETED after the visit. Staff only.
func (e *BookingEngine) Complete(ctx context.Context, id uint, actor Actor) (*model.Reservation, error) {
	return e.closeOut(ctx, id, actor, model.ReservationCompleted)
}

// NoShow moves CONFIRMED → NO_SHOW after the start time. Staff only and
// mutually exclusive with Complete.
func (e *BookingEngine) NoShow(ctx context.Context, id uint, actor Actor) (*model.Reservation, error) {
	return e.closeOut(ctx, id, actor, model.ReservationNoShow)
}

func (e *BookingEngine) closeOut(ctx context.Context, id uint, actor Actor, to string) (*model.Reservation, error) {
	if !actor.Staff {
		return nil, &PolicyError{Reason: "staff only"}
	}
	r, err := e.byID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(r.Status, to) {
		return nil, &InvalidTransitionError{From: r.Status, To: to}
	}
	now := e.now()
	if now.Before(r.StartAt(e.loc)) {
		return nil, &InvalidTransitionError{From: r.Status, To: to, Reason: "reservation has not started yet"}
	}
	prev := r.Status
	r.Status = to
	if to == model.ReservationCompleted {
		r.CompletedAt = &now
	}
	if err := e.store.Update(ctx, r, prev); err != nil {
		if errors.Is(err, ErrStaleTransition) {
			cur, err2 := e.byID(ctx, id)
			if err2 != nil {
				return nil, err2
			}
			return nil, &InvalidTransitionError{From: cur.Status, To: to}
		}
		return nil, fmt.Errorf("update reservation: %w", err)
	}
	e.Events.PublishReservation(eventName(to), r)
	return r, nil
}

func eventName(status string) string {
	switch status {
	case model.ReservationCompleted:
		return "completed"
	case model.ReservationNoShow:
		return "no_show"
	}
	return "updated"
}

// GetByToken resolves a reservation from its confirmation token.
func (e *BookingEngine) GetByToken(ctx context.Context, token string) (*model.Reservation, error) {
	r, err := e.store.ByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("load reservation: %w", err)
	}
	if r == nil {
		return nil, &NotFoundError{Resource: "reservation"}
	}
	return r, nil
}

// expire flips a pending hold to EXPIRED with a guarded write. When the
// guard reports a lost race the caller gets ErrStaleTransition and the
// interval is NOT released: whoever won the race (a confirm, usually)
// still holds the table.
func (e *BookingEngine) expire(ctx context.Context, r *model.Reservation) error {
	prev := r.Status
	r.Status = model.ReservationExpired
	if err := e.store.Update(ctx, r, prev); err != nil {
		if errors.Is(err, ErrStaleTransition) {
			return err
		}
		return fmt.Errorf("update reservation: %w", err)
	}
	e.releaseInterval(r)
	e.Events.PublishReservation("expired", r)
	if e.OnRelease != nil {
		e.OnRelease(r, "expired")
	}
	return nil
}

func (e *BookingEngine) releaseInterval(r *model.Reservation) {
	iv, err := reservationInterval(r)
	if err != nil {
		return
	}
	e.index.Remove(r.TableId, r.Date.String(), iv)
}

// ExpireSweep expires pending holds whose window has elapsed, releasing
// their intervals. Run by the cron scheduler every minute.
func (e *BookingEngine) ExpireSweep(ctx context.Context) (int, error) {
	stale, err := e.store.ExpiredPending(ctx, e.now())
	if err != nil {
		return 0, fmt.Errorf("query expired pending holds: %w", err)
	}
	n := 0
	for i := range stale {
		if err := e.expire(ctx, &stale[i]); err != nil {
			if errors.Is(err, ErrStaleTransition) {
				// Confirmed or cancelled since the query; leave it be.
				continue
			}
			log.Printf("expire reservation %d failed: %v", stale[i].ID, err)
			continue
		}
		n++
	}
	return n, nil
}

// PruneIndex evicts index days before today. Run daily; the index reloads
// any day from the store on demand, so this only trims memory.
func (e *BookingEngine) PruneIndex() int {
	return e.index.PruneBefore(e.today().Format("2006-01-02"))
}
