package storage

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Shard is one of the N independent keyspaces a server owns (C2). All
// operations are safe under concurrent callers; the map is guarded by a
// single RWMutex, which is the concurrency primitive the rest of this
// codebase (replication, cluster) already standardizes on for a
// single-process concurrent map with custom per-entry semantics.
type Shard struct {
	mu   sync.RWMutex
	data map[string]*Value
	pub  *publisher
}

// NewShard creates an empty shard.
func NewShard(logger zerolog.Logger) *Shard {
	return &Shard{
		data: make(map[string]*Value),
		pub:  newPublisher(logger),
	}
}

// Subscribe registers a callback invoked once per mutation (§4.1).
func (s *Shard) Subscribe(sub Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pub.subscribe(sub)
}

// SetValue installs v at key, replacing anything previously there.
func (s *Shard) SetValue(key string, v *Value) {
	s.mu.Lock()
	_, existed := s.data[key]
	s.data[key] = v
	s.mu.Unlock()

	if existed {
		s.pub.publish(Event{Kind: EventUpdated, Key: key})
	} else {
		s.pub.publish(Event{Kind: EventAdded, Key: key})
	}
}

// Get returns the value at key, applying read-through expiration: an
// expired entry is removed eagerly and reported absent (§4.1).
func (s *Shard) Get(key string) (*Value, bool) {
	s.mu.Lock()
	v, ok := s.lockedGetLive(key, time.Now())
	if ok {
		v.AccessedAt = time.Now()
	}
	s.mu.Unlock()

	if !ok {
		return nil, false
	}
	return v, true
}

// lockedGetLive must be called with s.mu held. It evicts an expired entry
// and returns (nil, false) when the entry is logically absent, publishing
// an expired event for the caller to see once the lock is released.
func (s *Shard) lockedGetLive(key string, now time.Time) (*Value, bool) {
	v, ok := s.data[key]
	if !ok {
		return nil, false
	}
	if v.expired(now) {
		delete(s.data, key)
		s.mu.Unlock()
		s.pub.publish(Event{Kind: EventExpired, Key: key})
		s.mu.Lock()
		return nil, false
	}
	return v, true
}

// Exists reports whether key holds a live (non-expired) value.
func (s *Shard) Exists(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// Delete removes key unconditionally. Returns true if it was present.
func (s *Shard) Delete(key string) bool {
	s.mu.Lock()
	_, existed := s.data[key]
	delete(s.data, key)
	s.mu.Unlock()

	if existed {
		s.pub.publish(Event{Kind: EventDeleted, Key: key})
	}
	return existed
}

// Keys returns a snapshot of all live keys matching pattern ("*" for all).
func (s *Shard) Keys(pattern string) []string {
	now := time.Now()
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.data))
	for k, v := range s.data {
		if v.expired(now) {
			continue
		}
		if pattern == "" || pattern == "*" || MatchPattern(pattern, k) {
			keys = append(keys, k)
		}
	}
	return keys
}

// Size returns the number of entries, expired or not (callers that need a
// live count should go through Keys("*") or let the reaper run first).
func (s *Shard) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Clear removes every key (FLUSHDB).
func (s *Shard) Clear() {
	s.mu.Lock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	s.data = make(map[string]*Value)
	s.mu.Unlock()

	for _, k := range keys {
		s.pub.publish(Event{Kind: EventDeleted, Key: k})
	}
}

// Expire sets key's expiration to ttl from now. Returns false if key is
// absent.
func (s *Shard) Expire(key string, ttl time.Duration) bool {
	s.mu.Lock()
	v, ok := s.lockedGetLive(key, time.Now())
	if !ok {
		s.mu.Unlock()
		return false
	}
	when := time.Now().Add(ttl)
	v.ExpiresAt = &when
	s.mu.Unlock()

	s.pub.publish(Event{Kind: EventExpirationSet, Key: key})
	return true
}

// TTL reports remaining time-to-live in milliseconds: -1 if key exists but
// has no expiration, -2 if key is absent (§3, P5).
func (s *Shard) TTL(key string) int64 {
	s.mu.Lock()
	v, ok := s.lockedGetLive(key, time.Now())
	s.mu.Unlock()
	if !ok {
		return -2
	}
	if v.ExpiresAt == nil {
		return -1
	}
	ms := time.Until(*v.ExpiresAt).Milliseconds()
	if ms < 0 {
		return 0
	}
	return ms
}

// Persist removes key's expiration. Returns true if an expiration was set.
func (s *Shard) Persist(key string) bool {
	s.mu.Lock()
	v, ok := s.lockedGetLive(key, time.Now())
	if !ok || v.ExpiresAt == nil {
		s.mu.Unlock()
		return false
	}
	v.ExpiresAt = nil
	s.mu.Unlock()
	return true
}

// IsExpired reports whether key is present in the map and logically
// expired as of now, without evicting it.
func (s *Shard) IsExpired(key string, now time.Time) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	return ok && v.expired(now)
}

// SnapshotEntries returns a deep-cloned copy of every entry for
// persistence save paths (§5: "a shallow copy of the shard's key/value
// map or stream under a read guard"). Expired entries are excluded. Also
// used by C8's replication server to serialize a shard over the wire.
func (s *Shard) SnapshotEntries() map[string]*Value {
	now := time.Now()
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]*Value, len(s.data))
	for k, v := range s.data {
		if v.expired(now) {
			continue
		}
		out[k] = v.clone()
	}
	return out
}

// ReplaceAll atomically swaps the shard's entire contents, used by C7's
// replication pull and persistence load. Existing subscribers are kept;
// only the data map changes.
func (s *Shard) ReplaceAll(entries map[string]*Value) {
	s.mu.Lock()
	s.data = entries
	s.mu.Unlock()
}

// sweepExpired removes every entry whose expiration has passed as of now,
// publishing an expired event per removal. Used by the reaper (C3).
func (s *Shard) sweepExpired(now time.Time) int {
	s.mu.Lock()
	var expiredKeys []string
	for k, v := range s.data {
		if v.expired(now) {
			expiredKeys = append(expiredKeys, k)
		}
	}
	for _, k := range expiredKeys {
		delete(s.data, k)
	}
	s.mu.Unlock()

	for _, k := range expiredKeys {
		s.pub.publish(Event{Kind: EventExpired, Key: k})
	}
	return len(expiredKeys)
}

// withValue runs fn against the live value at key while holding the write
// lock, creating it with makeEmpty if absent. fn's bool return indicates
// whether the operation mutated the shard (drives added/updated events);
// its error return is propagated to the caller (e.g. ErrWrongType).
func (s *Shard) withValue(key string, wantType ValueType, makeEmpty func() *Value, fn func(v *Value) (bool, error)) error {
	s.mu.Lock()
	v, ok := s.lockedGetLive(key, time.Now())
	isNew := false
	if !ok {
		if makeEmpty == nil {
			s.mu.Unlock()
			return ErrNoSuchKey
		}
		v = makeEmpty()
		isNew = true
	} else if v.Type != wantType {
		s.mu.Unlock()
		return ErrWrongType
	}

	changed, err := fn(v)
	if err == nil && isNew {
		s.data[key] = v
	}
	s.mu.Unlock()

	if err != nil {
		return err
	}
	if isNew {
		s.pub.publish(Event{Kind: EventAdded, Key: key})
	} else if changed {
		s.pub.publish(Event{Kind: EventUpdated, Key: key})
	}
	return nil
}

// readValue runs fn against the live value at key while holding the shard
// mutex (write lock, since an expired key is evicted on the way), or
// reports absent via ok=false.
func (s *Shard) readValue(key string, wantType ValueType, fn func(v *Value)) (ok bool, err error) {
	s.mu.Lock()
	v, found := s.lockedGetLive(key, time.Now())
	if !found {
		s.mu.Unlock()
		return false, nil
	}
	if v.Type != wantType {
		s.mu.Unlock()
		return true, ErrWrongType
	}
	v.AccessedAt = time.Now()
	fn(v)
	s.mu.Unlock()
	return true, nil
}
