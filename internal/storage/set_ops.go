package storage

// SAdd adds members to key's set, creating it if absent. Returns the
// number of members that were newly added.
func (s *Shard) SAdd(key string, members ...string) (int, error) {
	var added int
	err := s.withValue(key, SetType, NewSetValue, func(v *Value) (bool, error) {
		for _, m := range members {
			if v.Set.Add(m) {
				added++
			}
		}
		return added > 0, nil
	})
	return added, err
}

// SRem removes members from key's set, deleting the key if it becomes
// empty. Returns the number removed.
func (s *Shard) SRem(key string, members ...string) (int, error) {
	var removed int
	var emptied bool
	err := s.withValue(key, SetType, nil, func(v *Value) (bool, error) {
		for _, m := range members {
			if v.Set.Remove(m) {
				removed++
			}
		}
		emptied = v.Set.Len() == 0
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

// SMembers returns every member of key's set.
func (s *Shard) SMembers(key string) ([]string, error) {
	var result []string
	_, err := s.readValue(key, SetType, func(v *Value) {
		result = v.Set.GetMembers()
	})
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = []string{}
	}
	return result, nil
}

// SIsMember reports whether member is in key's set.
func (s *Shard) SIsMember(key, member string) (bool, error) {
	var isMember bool
	_, err := s.readValue(key, SetType, func(v *Value) {
		isMember = v.Set.IsMember(member)
	})
	if err != nil {
		return false, err
	}
	return isMember, nil
}

// SCard returns the number of members in key's set.
func (s *Shard) SCard(key string) (int, error) {
	var size int
	ok, err := s.readValue(key, SetType, func(v *Value) {
		size = v.Set.Len()
	})
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return size, nil
}

// SPop removes and returns up to count random members, deleting the key if
// it becomes empty.
func (s *Shard) SPop(key string, count int) ([]string, error) {
	if count < 1 {
		count = 1
	}
	var popped []string
	var emptied bool
	err := s.withValue(key, SetType, nil, func(v *Value) (bool, error) {
		for i := 0; i < count; i++ {
			m, ok := v.Set.Pop()
			if !ok {
				break
			}
			popped = append(popped, m)
		}
		emptied = v.Set.Len() == 0
		return len(popped) > 0, nil
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

// SRandMember returns count random members without removing them. A
// negative count samples with replacement; see Set.RandomMembers.
func (s *Shard) SRandMember(key string, count int) ([]string, error) {
	var result []string
	_, err := s.readValue(key, SetType, func(v *Value) {
		result = v.Set.RandomMembers(count)
	})
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = []string{}
	}
	return result, nil
}

// setAt loads key's set, returning an empty set if absent. Used by the
// multi-key SINTER/SUNION/SDIFF family below; every key is looked up in
// this one shard, never across shards.
func (s *Shard) setAt(key string) (*Set, error) {
	var set *Set
	ok, err := s.readValue(key, SetType, func(v *Value) {
		set = v.Set
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return NewSet(), nil
	}
	return set, nil
}

// SInter returns the intersection of key and the listed other keys.
func (s *Shard) SInter(key string, others ...string) ([]string, error) {
	result, err := s.setAt(key)
	if err != nil {
		return nil, err
	}
	for _, k := range others {
		other, err := s.setAt(k)
		if err != nil {
			return nil, err
		}
		result = result.Intersect(other)
	}
	return result.GetMembers(), nil
}

// SUnion returns the union of key and the listed other keys.
func (s *Shard) SUnion(key string, others ...string) ([]string, error) {
	result, err := s.setAt(key)
	if err != nil {
		return nil, err
	}
	result = result.Clone()
	for _, k := range others {
		other, err := s.setAt(k)
		if err != nil {
			return nil, err
		}
		result = result.Union(other)
	}
	return result.GetMembers(), nil
}

// SDiff returns the members of key not present in any of the other keys.
func (s *Shard) SDiff(key string, others ...string) ([]string, error) {
	result, err := s.setAt(key)
	if err != nil {
		return nil, err
	}
	for _, k := range others {
		other, err := s.setAt(k)
		if err != nil {
			return nil, err
		}
		result = result.Diff(other)
	}
	return result.GetMembers(), nil
}
