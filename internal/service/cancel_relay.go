package service

import (
	"context"

	"civic-assistant-be/internal/pkg/logger"
	"civic-assistant-be/internal/repository/memory"

	"github.com/redis/go-redis/v9"
)

const cancelChannel = "chat_turn_cancel"

// CancelRelay lets any instance stop a turn that is streaming on another one.
type CancelRelay struct {
	rdb    *redis.Client
	turns  *memory.TurnRepository
	logger logger.ILogger
}

func NewCancelRelay(rdb *redis.Client, turns *memory.TurnRepository, log logger.ILogger) *CancelRelay {
	return &CancelRelay{rdb: rdb, turns: turns, logger: log}
}

func (r *CancelRelay) Broadcast(ctx context.Context, turnKey string) error {
	return r.rdb.Publish(ctx, cancelChannel, turnKey).Err()
}

// Run cancels local turns named on the channel until ctx is done.
func (r *CancelRelay) Run(ctx context.Context) {
	sub := r.rdb.Subscribe(ctx, cancelChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if r.turns.Cancel(msg.Payload) {
				r.logger.Info("CancelRelay", "turn cancelled by peer", map[string]interface{}{"turn": msg.Payload})
			}
		}
	}
}
