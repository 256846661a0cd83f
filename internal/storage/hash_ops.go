package storage

import "strconv"

// HSet sets field to value in key's hash, creating the hash if absent.
// Returns true if field was newly created.
func (s *Shard) HSet(key, field, value string) (bool, error) {
	var created bool
	err := s.withValue(key, HashType, NewHashValue, func(v *Value) (bool, error) {
		created = v.Hash.Set(field, value)
		return true, nil
	})
	return created, err
}

// HGet returns the value of field in key's hash.
func (s *Shard) HGet(key, field string) (value string, ok bool, err error) {
	found, err := s.readValue(key, HashType, func(v *Value) {
		value, ok = v.Hash.Get(field)
	})
	if err != nil {
		return "", false, err
	}
	if !found {
		return "", false, nil
	}
	return value, ok, nil
}

// HDel removes fields from key's hash, deleting the key if it becomes
// empty. Returns the number of fields removed.
func (s *Shard) HDel(key string, fields ...string) (int, error) {
	var removed int
	var emptied bool
	err := s.withValue(key, HashType, nil, func(v *Value) (bool, error) {
		for _, f := range fields {
			if v.Hash.Delete(f) {
				removed++
			}
		}
		emptied = v.Hash.Len() == 0
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

// HExists reports whether field exists in key's hash.
func (s *Shard) HExists(key, field string) (bool, error) {
	var exists bool
	found, err := s.readValue(key, HashType, func(v *Value) {
		exists = v.Hash.Exists(field)
	})
	if err != nil {
		return false, err
	}
	return found && exists, nil
}

// HGetAll returns key's hash as alternating [field, value, field, value...].
func (s *Shard) HGetAll(key string) ([]string, error) {
	var result []string
	_, err := s.readValue(key, HashType, func(v *Value) {
		result = v.Hash.GetAll()
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// HKeys returns key's field names.
func (s *Shard) HKeys(key string) ([]string, error) {
	var result []string
	_, err := s.readValue(key, HashType, func(v *Value) {
		result = v.Hash.Keys()
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// HVals returns key's field values.
func (s *Shard) HVals(key string) ([]string, error) {
	var result []string
	_, err := s.readValue(key, HashType, func(v *Value) {
		result = v.Hash.Values()
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// HLen returns the number of fields in key's hash.
func (s *Shard) HLen(key string) (int, error) {
	var length int
	ok, err := s.readValue(key, HashType, func(v *Value) {
		length = v.Hash.Len()
	})
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return length, nil
}

// HMGet returns the values of fields in key's hash, with nil (absent=false)
// for any field that isn't set.
func (s *Shard) HMGet(key string, fields ...string) ([]string, []bool, error) {
	values := make([]string, len(fields))
	present := make([]bool, len(fields))
	_, err := s.readValue(key, HashType, func(v *Value) {
		for i, f := range fields {
			values[i], present[i] = v.Hash.Get(f)
		}
	})
	if err != nil {
		return nil, nil, err
	}
	return values, present, nil
}

// HMSet sets multiple fields in key's hash, creating it if absent.
func (s *Shard) HMSet(key string, fieldValues map[string]string) error {
	return s.withValue(key, HashType, NewHashValue, func(v *Value) (bool, error) {
		for f, val := range fieldValues {
			v.Hash.Set(f, val)
		}
		return len(fieldValues) > 0, nil
	})
}

// HSetNX sets field to value only if field doesn't already exist. Returns
// true if the field was set.
func (s *Shard) HSetNX(key, field, value string) (bool, error) {
	var set bool
	err := s.withValue(key, HashType, NewHashValue, func(v *Value) (bool, error) {
		set = v.Hash.SetNX(field, value)
		return set, nil
	})
	return set, err
}

// HIncrBy adds delta to the integer value of field in key's hash, creating
// both the hash and the field ("0") if absent. Returns the new value.
func (s *Shard) HIncrBy(key, field string, delta int64) (int64, error) {
	var result int64
	err := s.withValue(key, HashType, NewHashValue, func(v *Value) (bool, error) {
		current := int64(0)
		if existing, ok := v.Hash.Get(field); ok {
			parsed, err := strconv.ParseInt(existing, 10, 64)
			if err != nil {
				return false, ErrHashValueNotInteger
			}
			current = parsed
		}
		result = current + delta
		v.Hash.Set(field, strconv.FormatInt(result, 10))
		return true, nil
	})
	return result, err
}

// HIncrByFloat adds delta to the float value of field in key's hash.
func (s *Shard) HIncrByFloat(key, field string, delta float64) (float64, error) {
	var result float64
	err := s.withValue(key, HashType, NewHashValue, func(v *Value) (bool, error) {
		current := 0.0
		if existing, ok := v.Hash.Get(field); ok {
			parsed, err := strconv.ParseFloat(existing, 64)
			if err != nil {
				return false, ErrHashValueNotFloat
			}
			current = parsed
		}
		result = current + delta
		v.Hash.Set(field, strconv.FormatFloat(result, 'f', -1, 64))
		return true, nil
	})
	return result, err
}
