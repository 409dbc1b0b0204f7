package stream

import (
	"context"

	redispkg "github.com/roasbooster/analytics-backend/pkg/redis"
)

// NewSource combines the cache and relay into the hub's Source.
func NewSource(cache *Cache, relay *Relay) Source {
	return combinedSource{cache, relay}
}

type combinedSource struct {
	*Cache
	*Relay
}

// Relay bridges the redis pub/sub channel into a plain string channel
// the hub can range over.
type Relay struct {
	client *redispkg.Client
}

func NewRelay(client *redispkg.Client) *Relay {
	return &Relay{client: client}
}

// SubscribeToday opens a subscription to the today channel. The
// returned cancel func closes the subscription and drains the channel.
func (r *Relay) SubscribeToday(ctx context.Context) (<-chan string, func(), error) {
	pubsub, err := r.client.Subscribe(ctx, r.client.StreamChannel(todayName))
	if err != nil {
		return nil, nil, err
	}

	out := make(chan string)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-pubsub.Channel():
				if !ok {
					return
				}
				select {
				case out <- msg.Payload:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	cancel := func() { _ = pubsub.Close() }
	return out, cancel, nil
}
