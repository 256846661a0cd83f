package storage

// ZAdd adds or updates members with scores in key's sorted set, creating it
// if absent. Returns the number of members newly added (not updated).
func (s *Shard) ZAdd(key string, members map[string]float64) (int, error) {
	var added int
	err := s.withValue(key, ZSetType, NewZSetValue, func(v *Value) (bool, error) {
		changed := false
		for member, score := range members {
			existed := v.ZSet.Has(member)
			if v.ZSet.Add(member, score) {
				changed = true
			}
			if !existed {
				added++
			}
		}
		return changed, nil
	})
	return added, err
}

// ZRem removes members from key's sorted set, deleting the key if it
// becomes empty. Returns the number removed.
func (s *Shard) ZRem(key string, members ...string) (int, error) {
	var removed int
	var emptied bool
	err := s.withValue(key, ZSetType, nil, func(v *Value) (bool, error) {
		for _, m := range members {
			if v.ZSet.Remove(m) {
				removed++
			}
		}
		emptied = v.ZSet.Len() == 0
		return removed > 0, nil
	})
	if err == ErrNoSuchKey {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if emptied {
		s.Delete(key)
	}
	return removed, nil
}

// ZScore returns the score of member in key's sorted set.
func (s *Shard) ZScore(key, member string) (score float64, ok bool, err error) {
	found, err := s.readValue(key, ZSetType, func(v *Value) {
		if sc := v.ZSet.Score(member); sc != nil {
			score, ok = *sc, true
		}
	})
	if err != nil {
		return 0, false, err
	}
	if !found {
		return 0, false, nil
	}
	return score, ok, nil
}

// ZCard returns the number of members in key's sorted set.
func (s *Shard) ZCard(key string) (int, error) {
	var size int
	ok, err := s.readValue(key, ZSetType, func(v *Value) {
		size = v.ZSet.Len()
	})
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return size, nil
}

// ZIncrBy adds delta to member's score in key's sorted set, creating both
// the set and the member (score 0) if absent. Returns the new score.
func (s *Shard) ZIncrBy(key, member string, delta float64) (float64, error) {
	var result float64
	err := s.withValue(key, ZSetType, NewZSetValue, func(v *Value) (bool, error) {
		result = v.ZSet.IncrBy(member, delta)
		return true, nil
	})
	return result, err
}

// ZRank returns member's 0-based ascending rank, ok=false if absent.
func (s *Shard) ZRank(key, member string) (rank int, ok bool, err error) {
	found, err := s.readValue(key, ZSetType, func(v *Value) {
		r := v.ZSet.Rank(member)
		if r >= 0 {
			rank, ok = r, true
		}
	})
	if err != nil {
		return 0, false, err
	}
	if !found {
		return 0, false, nil
	}
	return rank, ok, nil
}

// ZRevRank returns member's 0-based descending rank, ok=false if absent.
func (s *Shard) ZRevRank(key, member string) (rank int, ok bool, err error) {
	found, err := s.readValue(key, ZSetType, func(v *Value) {
		r := v.ZSet.RevRank(member)
		if r >= 0 {
			rank, ok = r, true
		}
	})
	if err != nil {
		return 0, false, err
	}
	if !found {
		return 0, false, nil
	}
	return rank, ok, nil
}

// ZRange returns members by rank range [start, stop] in ascending order.
func (s *Shard) ZRange(key string, start, stop int) ([]ZSetMember, error) {
	var result []ZSetMember
	_, err := s.readValue(key, ZSetType, func(v *Value) {
		result = v.ZSet.RangeByRank(start, stop)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ZRevRange returns members by rank range [start, stop] in descending order.
func (s *Shard) ZRevRange(key string, start, stop int) ([]ZSetMember, error) {
	var result []ZSetMember
	_, err := s.readValue(key, ZSetType, func(v *Value) {
		result = v.ZSet.RevRangeByRank(start, stop)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ZRangeByScore returns members with scores in [min, max], ascending.
func (s *Shard) ZRangeByScore(key string, min, max float64, offset, count int) ([]ZSetMember, error) {
	var result []ZSetMember
	_, err := s.readValue(key, ZSetType, func(v *Value) {
		result = v.ZSet.Range(min, max, offset, count)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ZRevRangeByScore returns members with scores in [min, max], descending.
func (s *Shard) ZRevRangeByScore(key string, min, max float64, offset, count int) ([]ZSetMember, error) {
	var result []ZSetMember
	_, err := s.readValue(key, ZSetType, func(v *Value) {
		result = v.ZSet.RevRange(min, max, offset, count)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ZCount returns the number of members with scores in [min, max].
func (s *Shard) ZCount(key string, min, max float64) (int, error) {
	var count int
	_, err := s.readValue(key, ZSetType, func(v *Value) {
		count = v.ZSet.Count(min, max)
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// ZPopMin removes and returns the member with the lowest score.
func (s *Shard) ZPopMin(key string) (*ZSetMember, error) {
	return s.zsetPop(key, true)
}

// ZPopMax removes and returns the member with the highest score.
func (s *Shard) ZPopMax(key string) (*ZSetMember, error) {
	return s.zsetPop(key, false)
}

func (s *Shard) zsetPop(key string, min bool) (*ZSetMember, error) {
	var popped *ZSetMember
	var emptied bool
	err := s.withValue(key, ZSetType, nil, func(v *Value) (bool, error) {
		if min {
			popped = v.ZSet.PopMin()
		} else {
			popped = v.ZSet.PopMax()
		}
		emptied = v.ZSet.Len() == 0
		return popped != nil, nil
	})
	if err == ErrNoSuchKey {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if emptied {
		s.Delete(key)
	}
	return popped, nil
}

// ZRemRangeByScore removes members with scores in [min, max]. Returns the
// number removed, deleting the key if it becomes empty.
func (s *Shard) ZRemRangeByScore(key string, min, max float64) (int, error) {
	var removed int
	var emptied bool
	err := s.withValue(key, ZSetType, nil, func(v *Value) (bool, error) {
		removed = v.ZSet.RemoveRangeByScore(min, max)
		emptied = v.ZSet.Len() == 0
		return removed > 0, nil
	})
	if err == ErrNoSuchKey {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if emptied {
		s.Delete(key)
	}
	return removed, nil
}

// ZRemRangeByRank removes members in rank range [start, stop]. Returns the
// number removed, deleting the key if it becomes empty.
func (s *Shard) ZRemRangeByRank(key string, start, stop int) (int, error) {
	var removed int
	var emptied bool
	err := s.withValue(key, ZSetType, nil, func(v *Value) (bool, error) {
		removed = v.ZSet.RemoveRangeByRank(start, stop)
		emptied = v.ZSet.Len() == 0
		return removed > 0, nil
	})
	if err == ErrNoSuchKey {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if emptied {
		s.Delete(key)
	}
	return removed, nil
}
