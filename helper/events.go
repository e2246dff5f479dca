package helper

import (
	"encoding/json"
	"log"
	"time"

	"github.com/nats-io/nats.go"

	"reservaya/model"
)

// ReservationEvent is the payload published on "reservation.<event>"
// subjects for downstream consumers (kanban boards, metrics dashboards).
type ReservationEvent struct {
	Event           string `json:"event"`
	ReservationId   uint   `json:"reservationId"`
	PublicCode      string `json:"publicCode"`
	EstablishmentId uint   `json:"establishmentId"`
	TableId         uint   `json:"tableId"`
	Date            string `json:"date"`
	StartTime       string `json:"startTime"`
	PartySize       int    `json:"partySize"`
	Status          string `json:"status"`
	At              string `json:"at"`
}

// EventPublisher publishes reservation lifecycle events over NATS.
// Best-effort: publish failures are logged, never surfaced to callers.
type EventPublisher struct {
	nc *nats.Conn
}

func NewEventPublisher(url string) (*EventPublisher, error) {
	nc, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, err
	}
	return &EventPublisher{nc: nc}, nil
}

func (p *EventPublisher) Close() {
	if p == nil || p.nc == nil {
		return
	}
	p.nc.Drain()
}

// PublishReservation emits a lifecycle event. Safe on a nil publisher so
// the engine can run without an event bus configured.
func (p *EventPublisher) PublishReservation(event string, r *model.Reservation) {
	if p == nil || p.nc == nil {
		return
	}
	payload, err := json.Marshal(ReservationEvent{
		Event:           event,
		ReservationId:   r.ID,
		PublicCode:      r.PublicCode,
		EstablishmentId: r.EstablishmentId,
		TableId:         r.TableId,
		Date:            r.Date.String(),
		StartTime:       r.StartTime,
		PartySize:       r.PartySize,
		Status:          r.Status,
		At:              time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		log.Printf("marshal reservation event: %v", err)
		return
	}
	if err := p.nc.Publish("reservation."+event, payload); err != nil {
		log.Printf("publish reservation.%s: %v", event, err)
	}
}
