package config

import (
	"fmt"

	"github.com/google/uuid"
)

// keyPrefix namespaces every engine key so the Redis instance can be shared.
const keyPrefix = "exstem"

type CacheKeyStruct struct {
	prefix string
}

func NewCacheKeyStruct(prefix string) *CacheKeyStruct {
	return &CacheKeyStruct{prefix: prefix}
}

// SessionResultKey holds a submitted session's outcome until the result TTL
// runs out.
func (k *CacheKeyStruct) SessionResultKey(sessionID uuid.UUID) string {
	return fmt.Sprintf("%s:session:%s:result", k.prefix, sessionID)
}

// SessionMonitorChannel is the pub/sub channel of one session's integrity feed.
func (k *CacheKeyStruct) SessionMonitorChannel(sessionID uuid.UUID) string {
	return fmt.Sprintf("%s:session:%s:monitor", k.prefix, sessionID)
}

// MonitorChannel aggregates the integrity feed of every session.
func (k *CacheKeyStruct) MonitorChannel() string {
	return k.prefix + ":sessions:monitor"
}

var CacheKey = NewCacheKeyStruct(keyPrefix)
