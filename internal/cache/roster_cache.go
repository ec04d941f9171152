package cache

import (
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// RosterTTL bounds staleness of cached group rosters. Recipient fan-out reads
// rosters on every broadcast and every scheduler sweep; membership changes
// invalidate eagerly, the TTL covers anything missed.
const RosterTTL = 2 * time.Minute

// GroupRoster is the cached fan-out view of a group.
type GroupRoster struct {
	GroupID   uint   `msgpack:"group_id"`
	GroupName string `msgpack:"group_name"`
	MemberIDs []uint `msgpack:"member_ids"`
}

// RosterCache caches group rosters for recipient resolution.
type RosterCache struct {
	redis *RedisCache
}

func NewRosterCache(redis *RedisCache) *RosterCache {
	return &RosterCache{redis: redis}
}

func rosterKey(groupID uint) string {
	return fmt.Sprintf("roster:%d", groupID)
}

// GetRoster retrieves a cached roster. A nil cache or a miss returns ok=false.
func (rc *RosterCache) GetRoster(groupID uint) (*GroupRoster, bool) {
	if rc == nil || rc.redis == nil {
		return nil, false
	}
	data, err := rc.redis.Get(rosterKey(groupID))
	if err != nil || data == nil {
		return nil, false
	}

	var roster GroupRoster
	if err := msgpack.Unmarshal(data, &roster); err != nil {
		return nil, false
	}
	return &roster, true
}

// SetRoster caches a roster. Best-effort: a nil cache is a no-op.
func (rc *RosterCache) SetRoster(roster *GroupRoster) error {
	if rc == nil || rc.redis == nil {
		return nil
	}
	data, err := msgpack.Marshal(roster)
	if err != nil {
		return err
	}
	return rc.redis.Set(rosterKey(roster.GroupID), data, RosterTTL)
}

// InvalidateRoster drops the cached roster after a membership change.
func (rc *RosterCache) InvalidateRoster(groupID uint) error {
	if rc == nil || rc.redis == nil {
		return nil
	}
	return rc.redis.Delete(rosterKey(groupID))
}
