package forms

// PresetMap is an insertion-ordered map from field id to a caller-supplied
// override value. It exists for exactly one render: entries are consumed by
// the transformer so that each preset is applied to at most one field.
type PresetMap struct {
	keys   []string
	values map[string]string
}

// NewPresetMap constructs an empty PresetMap.
func NewPresetMap() *PresetMap {
	return &PresetMap{values: make(map[string]string)}
}

// Set inserts or replaces a preset value.
func (p *PresetMap) Set(key, value string) {
	if _, exists := p.values[key]; !exists {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
}

// Get returns the value for a key and whether it is present.
func (p *PresetMap) Get(key string) (string, bool) {
	value, ok := p.values[key]
	return value, ok
}

// Remove consumes a preset so it cannot be applied twice.
func (p *PresetMap) Remove(key string) {
	if _, exists := p.values[key]; !exists {
		return
	}
	delete(p.values, key)
	for i, k := range p.keys {
		if k == key {
			p.keys = append(p.keys[:i], p.keys[i+1:]...)
			break
		}
	}
}

// Len returns the number of unconsumed presets.
func (p *PresetMap) Len() int {
	if p == nil {
		return 0
	}
	return len(p.keys)
}

// Keys returns the unconsumed keys in insertion order.
func (p *PresetMap) Keys() []string {
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

// Clone returns an independent copy.
func (p *PresetMap) Clone() *PresetMap {
	cpy := NewPresetMap()
	if p == nil {
		return cpy
	}
	for _, key := range p.keys {
		cpy.Set(key, p.values[key])
	}
	return cpy
}
