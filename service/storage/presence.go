package storage

import (
	"context"
	"encoding/json"
	"time"

	"NeuroQ/tools/errs"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// presence key: neuroq:presence:<user>
// Value: {node, conn, ts}, TTL controls the online validity period
func presenceKey(user string) string { return "neuroq:presence:" + user }

type PresenceRecord struct {
	Node   string `json:"node"`
	ConnID string `json:"conn"`
	Since  int64  `json:"ts"`
}

// 只删除仍属于该连接的 key，避免旧连接下线把新连接的在线状态抹掉
var offlineScript = redis.NewScript(`
local v = redis.call("GET", KEYS[1])
if not v then return 0 end
local ok, rec = pcall(cjson.decode, v)
if ok and rec["conn"] == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// 续期同样只针对仍属于该连接的 key
var refreshScript = redis.NewScript(`
local v = redis.call("GET", KEYS[1])
if not v then return 0 end
local ok, rec = pcall(cjson.decode, v)
if ok and rec["conn"] == ARGV[1] then
  return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

type Presence struct {
	rdb  redis.UniversalClient
	node string
	ttl  time.Duration
}

func NewPresence(rdb redis.UniversalClient, node string, ttl time.Duration) *Presence {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &Presence{rdb: rdb, node: node, ttl: ttl}
}

// Online marks user as connected through connID on this node, replacing
// any previous record.
func (p *Presence) Online(ctx context.Context, userID, connID string) error {
	if userID == "" {
		return nil
	}
	b, err := json.Marshal(PresenceRecord{Node: p.node, ConnID: connID, Since: time.Now().UnixMilli()})
	if err != nil {
		return errs.Wrap(err)
	}
	if err := p.rdb.Set(ctx, presenceKey(userID), b, p.ttl).Err(); err != nil {
		return errs.WrapMsg(err, "presence online", "user_id", userID)
	}
	return nil
}

// Refresh extends the TTL of userID's record while it still belongs to
// connID. A superseded connection never extends its successor's key.
func (p *Presence) Refresh(ctx context.Context, userID, connID string) error {
	if userID == "" {
		return nil
	}
	err := refreshScript.Run(ctx, p.rdb, []string{presenceKey(userID)}, connID, p.ttl.Milliseconds()).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return errs.WrapMsg(err, "presence refresh", "user_id", userID)
	}
	return nil
}

// RefreshEvery is how often an active connection should call Refresh.
func (p *Presence) RefreshEvery() time.Duration { return p.ttl / 2 }

func (p *Presence) Offline(ctx context.Context, userID, connID string) error {
	if userID == "" {
		return nil
	}
	if err := offlineScript.Run(ctx, p.rdb, []string{presenceKey(userID)}, connID).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return errs.WrapMsg(err, "presence offline", "user_id", userID)
	}
	return nil
}

// Lookup reports whether the user is online anywhere in the cluster.
func (p *Presence) Lookup(ctx context.Context, userID string) (PresenceRecord, bool, error) {
	val, err := p.rdb.Get(ctx, presenceKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return PresenceRecord{}, false, nil
	}
	if err != nil {
		return PresenceRecord{}, false, errs.WrapMsg(err, "presence lookup", "user_id", userID)
	}
	var rec PresenceRecord
	if err := json.Unmarshal(val, &rec); err != nil {
		return PresenceRecord{}, false, errs.WrapMsg(err, "presence decode", "user_id", userID)
	}
	return rec, true, nil
}
