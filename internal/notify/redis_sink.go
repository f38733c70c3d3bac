package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/rueidis"

	model "task-review-system.com/task-review-system/internal/models"
)

// RedisSink appends each rendered notification to the recipient's list at
// <prefix>:<userRef>.
type RedisSink struct {
	client rueidis.Client
	prefix string
}

func NewRedisSink(client rueidis.Client, prefix string) *RedisSink {
	return &RedisSink{client: client, prefix: prefix}
}

func (s *RedisSink) Key(userRef string) string {
	return s.prefix + ":" + userRef
}

func (s *RedisSink) Deliver(ctx context.Context, event model.DomainEvent) error {
	notifications := Render(event)
	if len(notifications) == 0 {
		return nil
	}

	cmds := make(rueidis.Commands, 0, len(notifications))
	for _, n := range notifications {
		body, err := json.Marshal(n)
		if err != nil {
			return fmt.Errorf("encode notification: %w", err)
		}
		cmds = append(cmds, s.client.B().Rpush().Key(s.Key(n.UserRef)).Element(string(body)).Build())
	}

	for _, resp := range s.client.DoMulti(ctx, cmds...) {
		if err := resp.Error(); err != nil {
			return fmt.Errorf("redis rpush: %w", err)
		}
	}
	return nil
}
