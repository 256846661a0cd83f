package storage

// Hash is the payload for a HASH value: a field-value map that also
// remembers insertion order, so HKEYS/HVALS/HGETALL enumerate fields
// deterministically instead of in Go's randomized map order.
type Hash struct {
	fields map[string]string
	order  []string
}

// NewHash creates a new empty hash.
func NewHash() *Hash {
	return &Hash{fields: make(map[string]string)}
}

// Clone creates a deep copy of the hash (for copy-on-write).
func (h *Hash) Clone() *Hash {
	if h == nil || len(h.fields) == 0 {
		return NewHash()
	}

	cp := &Hash{
		fields: make(map[string]string, len(h.fields)),
		order:  append([]string(nil), h.order...),
	}
	for k, v := range h.fields {
		cp.fields[k] = v
	}
	return cp
}

// Set sets field to value, returning true if field is new.
func (h *Hash) Set(field, value string) bool {
	_, exists := h.fields[field]
	if !exists {
		h.order = append(h.order, field)
	}
	h.fields[field] = value
	return !exists
}

// Get returns the value of field.
func (h *Hash) Get(field string) (string, bool) {
	val, exists := h.fields[field]
	return val, exists
}

// Delete removes field, returning true if it existed.
func (h *Hash) Delete(field string) bool {
	if _, exists := h.fields[field]; !exists {
		return false
	}
	delete(h.fields, field)
	h.removeFromOrder(field)
	return true
}

func (h *Hash) removeFromOrder(field string) {
	for i, f := range h.order {
		if f == field {
			h.order = append(h.order[:i], h.order[i+1:]...)
			return
		}
	}
}

// Exists reports whether field exists.
func (h *Hash) Exists(field string) bool {
	_, exists := h.fields[field]
	return exists
}

// Len returns the number of fields.
func (h *Hash) Len() int {
	return len(h.fields)
}

// Keys returns field names in insertion order.
func (h *Hash) Keys() []string {
	keys := make([]string, len(h.order))
	copy(keys, h.order)
	return keys
}

// Values returns field values in insertion order.
func (h *Hash) Values() []string {
	vals := make([]string, 0, len(h.order))
	for _, f := range h.order {
		vals = append(vals, h.fields[f])
	}
	return vals
}

// GetAll returns fields and values as alternating
// [field1, val1, field2, val2, ...] in insertion order.
func (h *Hash) GetAll() []string {
	result := make([]string, 0, len(h.order)*2)
	for _, f := range h.order {
		result = append(result, f, h.fields[f])
	}
	return result
}

// SetNX sets field only if it doesn't already exist, returning true if set.
func (h *Hash) SetNX(field, value string) bool {
	if _, exists := h.fields[field]; exists {
		return false
	}
	h.order = append(h.order, field)
	h.fields[field] = value
	return true
}
