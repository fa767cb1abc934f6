package plist

import "iter"

// Entry is a single key/value pair of a Dict.
type Entry struct {
	Key   string
	Value *Value
}

// Dict is an insertion-ordered dictionary with unique string keys.
type Dict struct {
	entries []Entry
	index   map[string]int
}

// NewDict creates a Dict from entries. A repeated key replaces the earlier
// value and keeps the earlier position.
func NewDict(entries ...Entry) *Dict {
	d := &Dict{
		entries: make([]Entry, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		d.Set(e.Key, e.Value)
	}
	return d
}

// Len returns the number of entries.
func (d *Dict) Len() int {
	if d == nil {
		return 0
	}
	return len(d.entries)
}

// Get returns the value for key, or nil.
func (d *Dict) Get(key string) *Value {
	v, _ := d.Lookup(key)
	return v
}

// Lookup returns the value for key and whether it was present.
func (d *Dict) Lookup(key string) (*Value, bool) {
	if d == nil {
		return nil, false
	}
	i, ok := d.index[key]
	if !ok {
		return nil, false
	}
	return d.entries[i].Value, true
}

// Has reports whether key is present.
func (d *Dict) Has(key string) bool {
	_, ok := d.Lookup(key)
	return ok
}

// Set stores value under key. An existing key keeps its position.
func (d *Dict) Set(key string, value *Value) {
	if d.index == nil {
		d.index = make(map[string]int)
	}
	if i, ok := d.index[key]; ok {
		d.entries[i].Value = value
		return
	}
	d.index[key] = len(d.entries)
	d.entries = append(d.entries, Entry{Key: key, Value: value})
}

// Delete removes key and reports whether it was present.
func (d *Dict) Delete(key string) bool {
	if d == nil {
		return false
	}
	i, ok := d.index[key]
	if !ok {
		return false
	}
	d.entries = append(d.entries[:i], d.entries[i+1:]...)
	delete(d.index, key)
	for j := i; j < len(d.entries); j++ {
		d.index[d.entries[j].Key] = j
	}
	return true
}

// Keys returns the keys in order.
func (d *Dict) Keys() []string {
	if d == nil {
		return nil
	}
	keys := make([]string, len(d.entries))
	for i, e := range d.entries {
		keys[i] = e.Key
	}
	return keys
}

// Entries returns a copy of the entries in order.
func (d *Dict) Entries() []Entry {
	if d == nil {
		return nil
	}
	out := make([]Entry, len(d.entries))
	copy(out, d.entries)
	return out
}

// All iterates over the entries in order.
func (d *Dict) All() iter.Seq2[string, *Value] {
	return func(yield func(string, *Value) bool) {
		if d == nil {
			return
		}
		for _, e := range d.entries {
			if !yield(e.Key, e.Value) {
				return
			}
		}
	}
}
