package storage

// LPush pushes values onto the head of key's list one at a time (so the
// last argument ends up closest to the head), creating the list if absent.
// Returns the resulting length.
func (s *Shard) LPush(key string, values ...string) (int, error) {
	var length int
	err := s.withValue(key, ListType, NewListValue, func(v *Value) (bool, error) {
		for _, val := range values {
			v.List.PushFront(val)
		}
		length = v.List.Len()
		return len(values) > 0, nil
	})
	return length, err
}

// RPush pushes values onto the tail of key's list, creating it if absent.
func (s *Shard) RPush(key string, values ...string) (int, error) {
	var length int
	err := s.withValue(key, ListType, NewListValue, func(v *Value) (bool, error) {
		for _, val := range values {
			v.List.PushBack(val)
		}
		length = v.List.Len()
		return len(values) > 0, nil
	})
	return length, err
}

// LPop removes and returns count elements from the head of key's list.
// The list is deleted once empty.
func (s *Shard) LPop(key string, count int) ([]string, error) {
	return s.listPop(key, count, true)
}

// RPop removes and returns count elements from the tail of key's list.
func (s *Shard) RPop(key string, count int) ([]string, error) {
	return s.listPop(key, count, false)
}

func (s *Shard) listPop(key string, count int, fromFront bool) ([]string, error) {
	if count < 1 {
		count = 1
	}
	var popped []string
	var emptied bool
	err := s.withValue(key, ListType, nil, func(v *Value) (bool, error) {
		for i := 0; i < count; i++ {
			var val string
			var ok bool
			if fromFront {
				val, ok = v.List.PopFront()
			} else {
				val, ok = v.List.PopBack()
			}
			if !ok {
				break
			}
			popped = append(popped, val)
		}
		emptied = v.List.Len() == 0
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

// LLen returns the length of key's list, 0 if absent.
func (s *Shard) LLen(key string) (int, error) {
	var length int
	ok, err := s.readValue(key, ListType, func(v *Value) {
		length = v.List.Len()
	})
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return length, nil
}

// LRange returns elements of key's list between start and stop (inclusive,
// Redis-style negative indices supported).
func (s *Shard) LRange(key string, start, stop int) ([]string, error) {
	var result []string
	ok, err := s.readValue(key, ListType, func(v *Value) {
		result = v.List.Range(start, stop)
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return []string{}, nil
	}
	return result, nil
}

// LIndex returns the element at index, or ok=false if out of range/absent.
func (s *Shard) LIndex(key string, index int) (value string, ok bool, err error) {
	found, err := s.readValue(key, ListType, func(v *Value) {
		value, ok = v.List.GetAt(index)
	})
	if err != nil {
		return "", false, err
	}
	if !found {
		return "", false, nil
	}
	return value, ok, nil
}

// LSet sets the element at index, returning ErrIndexOutOfRange if invalid.
func (s *Shard) LSet(key string, index int, value string) error {
	return s.withValue(key, ListType, nil, func(v *Value) (bool, error) {
		if !v.List.SetAt(index, value) {
			return false, ErrIndexOutOfRange
		}
		return true, nil
	})
}

// LRem removes up to count occurrences of value from key's list. count > 0
// walks head-to-tail, count < 0 walks tail-to-head, count == 0 removes all
// occurrences. Returns the number removed.
func (s *Shard) LRem(key string, count int, value string) (int, error) {
	var removed int
	var emptied bool
	err := s.withValue(key, ListType, nil, func(v *Value) (bool, error) {
		fromHead := count >= 0
		limit := count
		if limit < 0 {
			limit = -limit
		}
		for limit == 0 || removed < limit {
			node := v.List.FindNode(value, fromHead)
			if node == nil {
				break
			}
			v.List.RemoveNode(node)
			removed++
		}
		emptied = v.List.Len() == 0
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

// LTrim keeps only the elements between start and stop, deleting the key
// entirely if the result is empty.
func (s *Shard) LTrim(key string, start, stop int) error {
	var emptied bool
	err := s.withValue(key, ListType, nil, func(v *Value) (bool, error) {
		v.List.Trim(start, stop)
		emptied = v.List.Len() == 0
		return true, nil
	})
	if err == ErrNoSuchKey {
		return nil
	}
	if err != nil {
		return err
	}
	if emptied {
		s.Delete(key)
	}
	return nil
}

// LInsert inserts value before or after the first occurrence of pivot.
// Returns the new length, or -1 if pivot was not found, or 0 if key absent.
func (s *Shard) LInsert(key string, before bool, pivot, value string) (int, error) {
	var length int
	found := true
	err := s.withValue(key, ListType, nil, func(v *Value) (bool, error) {
		node := v.List.FindNode(pivot, true)
		if node == nil {
			found = false
			return false, nil
		}
		if before {
			v.List.InsertBefore(node, value)
		} else {
			v.List.InsertAfter(node, value)
		}
		length = v.List.Len()
		return true, nil
	})
	if err == ErrNoSuchKey {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if !found {
		return -1, nil
	}
	return length, nil
}
