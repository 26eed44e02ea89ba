package hub

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const userChannelPrefix = "dm:user:"

type relayEnvelope struct {
	FromServerID string `json:"fromServerId"`
	ToUserID     int    `json:"toUserId"`
	Payload      []byte `json:"payload"`
}

// RedisRelay fans deliveries out to other API instances over Redis pub/sub,
// one channel per user. Instances ignore what they published themselves.
type RedisRelay struct {
	rdb      *redis.Client
	serverID string
	log      logrus.FieldLogger
}

func NewRedisRelay(rdb *redis.Client, serverID string, log logrus.FieldLogger) *RedisRelay {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &RedisRelay{rdb: rdb, serverID: serverID, log: log.WithField("server_id", serverID)}
}

func (r *RedisRelay) Publish(ctx context.Context, userID int, payload []byte) error {
	b, err := json.Marshal(relayEnvelope{FromServerID: r.serverID, ToUserID: userID, Payload: payload})
	if err != nil {
		return err
	}
	return r.rdb.Publish(ctx, userChannel(userID), b).Err()
}

func (r *RedisRelay) Subscribe(ctx context.Context, deliver func(userID int, payload []byte)) error {
	sub := r.rdb.PSubscribe(ctx, userChannelPrefix+"*")
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	r.log.Info("redis relay subscribed")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			env, ok := r.decode(msg.Channel, msg.Payload)
			if !ok {
				continue
			}
			deliver(env.ToUserID, env.Payload)
		}
	}
}

// decode returns the envelope if it came from another instance and is well formed.
func (r *RedisRelay) decode(channel, raw string) (relayEnvelope, bool) {
	var env relayEnvelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		r.log.WithError(err).WithField("channel", channel).Warn("bad relay envelope")
		return env, false
	}
	if env.FromServerID == r.serverID {
		return env, false
	}
	if id, err := strconv.Atoi(strings.TrimPrefix(channel, userChannelPrefix)); err != nil || id != env.ToUserID {
		r.log.WithField("channel", channel).Warn("relay envelope addressed to another channel")
		return env, false
	}
	return env, true
}

func (r *RedisRelay) Close() error {
	return r.rdb.Close()
}

func userChannel(userID int) string {
	return userChannelPrefix + strconv.Itoa(userID)
}
