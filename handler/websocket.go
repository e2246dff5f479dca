package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/redis/go-redis/v9"

	"reservaya/config"
	"reservaya/model"
)

var (
	redisClient *redis.Client

	availabilityConns = make(map[string]map[*websocket.Conn]bool)
	availabilityMu    sync.Mutex
)

// InitRedis connects the pub/sub client used for availability fanout.
func InitRedis() {
	redisClient = redis.NewClient(&redis.Options{
		Addr: config.ConfigOr("REDIS_ADDR", "localhost:6379"),
	})
}

func availabilityChannel(estId uint, date string) string {
	return fmt.Sprintf("availability:%d:%s", estId, date)
}

type slotAvailability struct {
	Time       string `json:"time"`
	FreeTables int    `json:"freeTables"`
}

type availabilitySnapshot struct {
	EstablishmentId uint               `json:"establishmentId"`
	Date            string             `json:"date"`
	Slots           []slotAvailability `json:"slots"`
}

func buildAvailabilitySnapshot(estId uint, date string) (*availabilitySnapshot, error) {
	ctx := context.Background()

	slots, err := Engine.ListSlots(ctx, estId, date)
	if err != nil {
		return nil, err
	}

	snapshot := &availabilitySnapshot{
		EstablishmentId: estId,
		Date:            date,
		Slots:           make([]slotAvailability, 0, len(slots)),
	}
	for _, slot := range slots {
		tables, err := Engine.FreeTables(ctx, estId, date, slot, 1)
		if err != nil {
			return nil, err
		}
		snapshot.Slots = append(snapshot.Slots, slotAvailability{
			Time:       slot,
			FreeTables: len(tables),
		})
	}
	return snapshot, nil
}

// BroadcastAvailability recomputes the day's availability and publishes it
// on Redis; every subscribed websocket picks it up, across instances too.
func BroadcastAvailability(estId uint, date string) {
	snapshot, err := buildAvailabilitySnapshot(estId, date)
	if err != nil {
		log.Printf("availability broadcast skipped for %d/%s: %v", estId, date, err)
		return
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		log.Printf("availability broadcast marshal error: %v", err)
		return
	}
	if redisClient == nil {
		deliverAvailability(availabilityChannel(estId, date), payload)
		return
	}
	if err := redisClient.Publish(context.Background(), availabilityChannel(estId, date), payload).Err(); err != nil {
		log.Printf("availability publish error: %v", err)
		// Redis down: still serve the local connections.
		deliverAvailability(availabilityChannel(estId, date), payload)
	}
}

func deliverAvailability(channel string, payload []byte) {
	availabilityMu.Lock()
	defer availabilityMu.Unlock()
	for conn := range availabilityConns[channel] {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			conn.Close()
			delete(availabilityConns[channel], conn)
		}
	}
}

// AvailabilityWebsocket streams availability updates for one
// establishment day. Route params: :slug and :date.
func AvailabilityWebsocket(c *websocket.Conn) {
	slugParam := c.Params("slug")
	date := c.Params("date")

	est, ok := c.Locals("establishment").(model.Establishment)
	if !ok || est.Slug != slugParam {
		log.Printf("WS rejected, unknown establishment %q", slugParam)
		c.Close()
		return
	}
	channel := availabilityChannel(est.ID, date)

	availabilityMu.Lock()
	if availabilityConns[channel] == nil {
		availabilityConns[channel] = make(map[*websocket.Conn]bool)
	}
	availabilityConns[channel][c] = true
	availabilityMu.Unlock()

	defer func() {
		availabilityMu.Lock()
		delete(availabilityConns[channel], c)
		if len(availabilityConns[channel]) == 0 {
			delete(availabilityConns, channel)
		}
		availabilityMu.Unlock()
		c.Close()
	}()

	// First frame: current state, so the client renders before anything changes.
	if snapshot, err := buildAvailabilitySnapshot(est.ID, date); err == nil {
		c.WriteJSON(snapshot)
	}

	if redisClient != nil {
		pubsub := redisClient.Subscribe(context.Background(), channel)
		defer pubsub.Close()

		go func() {
			for msg := range pubsub.Channel() {
				if err := c.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
					return
				}
			}
		}()
	}

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			break
		}
	}
}
