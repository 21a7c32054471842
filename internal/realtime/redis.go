package realtime

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Windi-Fikriyansyah/jobshare_be/internal/config"
)

// NewRedis returns nil when no Redis address is configured.
func NewRedis(cfg config.Config, logger *zap.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	logger.Info("redis client created", zap.String("addr", cfg.RedisAddr))
	return rdb
}

// Bridge forwards notifications published on Redis by any API instance to
// the clients connected to this one.
type Bridge struct {
	RDB    *redis.Client
	Hub    *Hub
	Logger *zap.Logger
}

func NewBridge(rdb *redis.Client, hub *Hub, logger *zap.Logger) *Bridge {
	return &Bridge{RDB: rdb, Hub: hub, Logger: logger}
}

// Run blocks until ctx is cancelled.
func (b *Bridge) Run(ctx context.Context) {
	sub := b.RDB.PSubscribe(ctx, channelPrefix+"*")
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
			userID, err := UserFromChannel(msg.Channel)
			if err != nil {
				b.Logger.Warn("ignoring notification", zap.String("channel", msg.Channel), zap.Error(err))
				continue
			}
			b.Hub.SendToUser(userID, []byte(msg.Payload))
		}
	}
}
