package sse

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	redisclient "github.com/atomity/research-server-go/internal/redis"
)

const (
	HeartbeatInterval = 30 * time.Second
)

// Event types pushed to researcher streams.
const (
	EventSessionRevoked     = "session_revoked"
	EventKeepAliveStatus    = "keepalive_status"
	EventReservationExpired = "reservation_expired"
)

type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type Client struct {
	ResearcherID string
	Events       chan Event
	Done         chan struct{}
}

// Broker fans researcher events out to connected SSE clients. Events
// travel through Redis pub/sub so every server instance sees them.
type Broker struct {
	redis   *redisclient.Client
	clients map[string]map[*Client]bool // researcherID -> set of clients
	mu      sync.RWMutex
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewBroker(redisClient *redisclient.Client) *Broker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Broker{
		redis:   redisClient,
		clients: make(map[string]map[*Client]bool),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (b *Broker) Subscribe(researcherID string) *Client {
	client := &Client{
		ResearcherID: researcherID,
		Events:       make(chan Event, 100),
		Done:         make(chan struct{}),
	}

	b.mu.Lock()
	if b.clients[researcherID] == nil {
		b.clients[researcherID] = make(map[*Client]bool)
		go b.subscribeToRedis(researcherID)
	}
	b.clients[researcherID][client] = true
	clientCount := len(b.clients[researcherID])
	b.mu.Unlock()

	log.Info().
		Str("researcherId", researcherID).
		Int("clientCount", clientCount).
		Msg("sse client subscribed")

	return client
}

func (b *Broker) Unsubscribe(client *Client) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if clients, ok := b.clients[client.ResearcherID]; ok {
		delete(clients, client)
		close(client.Done)

		if len(clients) == 0 {
			delete(b.clients, client.ResearcherID)
		}

		log.Info().
			Str("researcherId", client.ResearcherID).
			Int("clientCount", len(clients)).
			Msg("sse client unsubscribed")
	}
}

func (b *Broker) Publish(ctx context.Context, researcherID string, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	channel := redisclient.EventChannel(researcherID)
	return b.redis.Publish(ctx, channel, data).Err()
}

// PublishJSON marshals data and publishes it as an event of the given
// type.
func (b *Broker) PublishJSON(ctx context.Context, researcherID, eventType string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return b.Publish(ctx, researcherID, Event{Type: eventType, Data: payload})
}

func (b *Broker) subscribeToRedis(researcherID string) {
	channel := redisclient.EventChannel(researcherID)
	pubsub := b.redis.Subscribe(b.ctx, channel)
	defer pubsub.Close()

	log.Debug().
		Str("researcherId", researcherID).
		Str("channel", channel).
		Msg("redis pubsub subscribed")

	ch := pubsub.Channel()

	for {
		select {
		case <-b.ctx.Done():
			return

		case msg, ok := <-ch:
			if !ok {
				return
			}

			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Error().Err(err).Msg("failed to unmarshal event")
				continue
			}

			b.broadcast(researcherID, event)
		}
	}
}

func (b *Broker) broadcast(researcherID string, event Event) {
	b.mu.RLock()
	clients := b.clients[researcherID]
	b.mu.RUnlock()

	for client := range clients {
		select {
		case client.Events <- event:
		default:
			log.Warn().
				Str("researcherId", researcherID).
				Msg("client event buffer full, dropping event")
		}
	}
}

func (b *Broker) Close() {
	b.cancel()

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, clients := range b.clients {
		for client := range clients {
			close(client.Done)
		}
	}
	b.clients = make(map[string]map[*Client]bool)
}

func (b *Broker) ClientCount(researcherID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients[researcherID])
}

func (b *Broker) TotalClients() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	total := 0
	for _, clients := range b.clients {
		total += len(clients)
	}
	return total
}
