package kds

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/go-redis/redis/v8"

	"comanda/utils"
)

const channelPrefix = "comanda:group:"

// RedisBus fans a publish out across horizontally-scaled instances. Each
// publish goes to a Redis channel named after the group; every instance
// relays what it receives into its local Hub, which holds the actual
// websocket connections. With a single instance the plain Hub is enough.
type RedisBus struct {
	rdb *redis.Client
	hub *Hub
}

func NewRedisBus(rdb *redis.Client, hub *Hub) *RedisBus {
	return &RedisBus{rdb: rdb, hub: hub}
}

func (b *RedisBus) Publish(group string, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return b.rdb.Publish(context.Background(), channelPrefix+group, data).Err()
}

// Run subscribes to all group channels and relays payloads into the local
// hub until ctx is cancelled. Callers run it in its own goroutine.
func (b *RedisBus) Run(ctx context.Context) {
	pubsub := b.rdb.PSubscribe(ctx, channelPrefix+"*")
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-ch:
			if !ok {
				return
			}
			group := strings.TrimPrefix(m.Channel, channelPrefix)
			b.hub.deliver(group, []byte(m.Payload))
		}
	}
}

// NewRedisClient builds the client from an address; ping failures are left
// to the first publish, which is best-effort anyway.
func NewRedisClient(addr, password string, db int) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		utils.ErrorLogger.Printf("kds: redis ping failed: %v", err)
	}
	return rdb
}
