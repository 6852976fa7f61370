package api

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"

	"fleetplan/internal/model"
)

// EventBroker distributes plan events to streaming clients. The in-memory
// Broker covers single-instance deployments; RedisBroker spans replicas.
type EventBroker interface {
	Subscribe(planID string) chan model.PlanEvent
	Unsubscribe(planID string, ch chan model.PlanEvent)
	Publish(planID string, evt model.PlanEvent)
}

// RedisBroker implements EventBroker over Redis Pub/Sub.
type RedisBroker struct {
	rdb *redis.Client
}

func NewRedisBroker(url string) (*RedisBroker, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &RedisBroker{rdb: redis.NewClient(opt)}, nil
}

func (b *RedisBroker) Subscribe(planID string) chan model.PlanEvent {
	ch := make(chan model.PlanEvent, 16)
	ctx := context.Background()
	ps := b.rdb.Subscribe(ctx, b.chanName(planID))
	// initial consume to ensure the subscription is active
	_, _ = ps.Receive(ctx)
	go func() {
		defer close(ch)
		for msg := range ps.Channel() {
			var evt model.PlanEvent
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err == nil {
				select {
				case ch <- evt:
				default:
				}
			}
		}
	}()
	return ch
}

func (b *RedisBroker) Unsubscribe(planID string, ch chan model.PlanEvent) {
	// The pump goroutine exits when the PubSub channel closes on connection
	// loss; closing our channel releases the stream handler.
	close(ch)
}

func (b *RedisBroker) Publish(planID string, evt model.PlanEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	data, _ := json.Marshal(evt)
	_ = b.rdb.Publish(ctx, b.chanName(planID), data).Err()
}

func (b *RedisBroker) chanName(planID string) string { return "plan:" + planID }
