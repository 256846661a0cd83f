package storage

import (
	"strconv"
	"time"
)

// SetString installs key as a STRING value, overwriting whatever was there
// regardless of its previous type.
func (s *Shard) SetString(key, value string) {
	s.SetValue(key, NewStringValue(value))
}

// GetString returns key's string payload. ok is false if key is absent.
func (s *Shard) GetString(key string) (value string, ok bool, err error) {
	ok, err = s.readValue(key, StringType, func(v *Value) {
		value = v.Str
	})
	return value, ok, err
}

// GetSet atomically sets key to value and returns the previous string, if
// any existed (the old value need not have been a string: any previous
// type is simply discarded by the overwrite, matching SET's semantics).
func (s *Shard) GetSet(key, value string) (previous string, existed bool) {
	s.mu.Lock()
	if v, ok := s.lockedGetLive(key, time.Now()); ok && v.Type == StringType {
		previous, existed = v.Str, true
	}
	_, hadAny := s.data[key]
	s.data[key] = NewStringValue(value)
	s.mu.Unlock()

	if hadAny {
		s.pub.publish(Event{Kind: EventUpdated, Key: key})
	} else {
		s.pub.publish(Event{Kind: EventAdded, Key: key})
	}
	return previous, existed
}

// Append appends suffix to key's string value, creating it if absent.
// Returns the resulting length.
func (s *Shard) Append(key, suffix string) (int, error) {
	var length int
	err := s.withValue(key, StringType, func() *Value { return NewStringValue("") }, func(v *Value) (bool, error) {
		v.Str += suffix
		length = len(v.Str)
		return true, nil
	})
	return length, err
}

// StrLen returns the length of key's string value, 0 if absent.
func (s *Shard) StrLen(key string) (int, error) {
	var length int
	ok, err := s.readValue(key, StringType, func(v *Value) {
		length = len(v.Str)
	})
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return length, nil
}

// IncrBy adds delta to the integer value at key (creating it as "0" first
// if absent) and returns the new value, stored back as its decimal text.
func (s *Shard) IncrBy(key string, delta int64) (int64, error) {
	var result int64
	err := s.withValue(key, StringType, func() *Value { return NewStringValue("0") }, func(v *Value) (bool, error) {
		current, err := strconv.ParseInt(v.Str, 10, 64)
		if err != nil {
			return false, ErrNotInteger
		}
		result = current + delta
		v.Str = strconv.FormatInt(result, 10)
		return true, nil
	})
	return result, err
}

// IncrByFloat adds delta to the floating-point value at key (creating it as
// "0" first if absent) and returns the new value.
func (s *Shard) IncrByFloat(key string, delta float64) (float64, error) {
	var result float64
	err := s.withValue(key, StringType, func() *Value { return NewStringValue("0") }, func(v *Value) (bool, error) {
		current, err := strconv.ParseFloat(v.Str, 64)
		if err != nil {
			return false, ErrNotFloat
		}
		result = current + delta
		v.Str = strconv.FormatFloat(result, 'f', -1, 64)
		return true, nil
	})
	return result, err
}
