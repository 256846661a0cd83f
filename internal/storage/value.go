package storage

import "time"

// ValueType tags the payload shape held by a Value (§3: the data model is a
// closed union over exactly five variants — no sixth type may be added
// without revisiting every component that switches on this tag).
type ValueType int

const (
	StringType ValueType = iota
	ListType
	SetType
	HashType
	ZSetType
)

func (t ValueType) String() string {
	switch t {
	case StringType:
		return "string"
	case ListType:
		return "list"
	case SetType:
		return "set"
	case HashType:
		return "hash"
	case ZSetType:
		return "zset"
	default:
		return "none"
	}
}

// Value is the tagged value object (C1). Exactly one of Str/List/Set/Hash/
// ZSet is meaningful, selected by Type. CreatedAt is set when the value is
// constructed and AccessedAt is bumped by the shard on read; ExpiresAt is the
// absolute wall-clock instant after which the value is logically absent
// (nil means no expiration).
type Value struct {
	Type       ValueType
	Str        string
	List       *List
	Set        *Set
	Hash       *Hash
	ZSet       *ZSet
	CreatedAt  time.Time
	AccessedAt time.Time
	ExpiresAt  *time.Time
}

func newValue(t ValueType) *Value {
	now := time.Now()
	return &Value{Type: t, CreatedAt: now, AccessedAt: now}
}

// NewStringValue wraps a byte string for STRING-typed storage.
func NewStringValue(s string) *Value {
	v := newValue(StringType)
	v.Str = s
	return v
}

// NewListValue wraps an empty LIST value.
func NewListValue() *Value {
	v := newValue(ListType)
	v.List = NewList()
	return v
}

// NewSetValue wraps an empty SET value.
func NewSetValue() *Value {
	v := newValue(SetType)
	v.Set = NewSet()
	return v
}

// NewHashValue wraps an empty HASH value.
func NewHashValue() *Value {
	v := newValue(HashType)
	v.Hash = NewHash()
	return v
}

// NewZSetValue wraps an empty ZSET value.
func NewZSetValue() *Value {
	v := newValue(ZSetType)
	v.ZSet = NewZSet()
	return v
}

// expired reports whether v's expiration instant has passed as of now.
func (v *Value) expired(now time.Time) bool {
	return v.ExpiresAt != nil && now.After(*v.ExpiresAt)
}

// clone deep-copies the value's payload (used by the snapshot path so
// readers never observe a value mid-mutation).
func (v *Value) clone() *Value {
	cp := &Value{
		Type:       v.Type,
		Str:        v.Str,
		CreatedAt:  v.CreatedAt,
		AccessedAt: v.AccessedAt,
	}
	if v.ExpiresAt != nil {
		t := *v.ExpiresAt
		cp.ExpiresAt = &t
	}
	if v.List != nil {
		cp.List = v.List.Clone()
	}
	if v.Set != nil {
		cp.Set = v.Set.Clone()
	}
	if v.Hash != nil {
		cp.Hash = v.Hash.Clone()
	}
	if v.ZSet != nil {
		cp.ZSet = v.ZSet.Clone()
	}
	return cp
}
