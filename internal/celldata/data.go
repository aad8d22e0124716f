// Package celldata is the per-cell named-scalar store through which the
// outer simulation and the SRN exchange values. Collaborators such as the
// mechanics or the neighbour-averaging step write items; the SRN reads its
// parameters from it and writes back its derived scalars.
package celldata

import (
	"sort"
)

type Store interface {
	Item(key string) (float64, bool)
}

type Writer interface {
	SetItem(key string, value float64)
}

// Data is a map-backed Store. The zero value is not usable; use New.
type Data struct {
	items map[string]float64
}

func New() *Data {
	return &Data{items: make(map[string]float64)}
}

func FromMap(m map[string]float64) *Data {
	d := New()
	for k, v := range m {
		d.items[k] = v
	}
	return d
}

func (d *Data) Item(key string) (float64, bool) {
	v, ok := d.items[key]
	return v, ok
}

func (d *Data) SetItem(key string, value float64) {
	d.items[key] = value
}

func (d *Data) Delete(key string) {
	delete(d.items, key)
}

func (d *Data) Keys() []string {
	keys := make([]string, 0, len(d.items))
	for k := range d.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (d *Data) Map() map[string]float64 {
	out := make(map[string]float64, len(d.items))
	for k, v := range d.items {
		out[k] = v
	}
	return out
}

// Clone copies every item, as happens to a cell's data at division.
func (d *Data) Clone() *Data {
	return FromMap(d.items)
}
