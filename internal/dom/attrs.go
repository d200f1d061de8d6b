package dom

import (
	"fmt"
	"strings"
)

// Attribute is one key/value pair. Key keeps the casing it was declared
// with; identity is case-insensitive.
type Attribute struct {
	Key string
	Val string
}

// AttrList is an ordered attribute bag with case-insensitive key identity.
// The type enforces the one-key-per-element invariant so mutators cannot
// produce duplicate attributes.
type AttrList struct {
	list []Attribute
}

func (a *AttrList) clone() AttrList {
	if len(a.list) == 0 {
		return AttrList{}
	}
	return AttrList{list: append([]Attribute(nil), a.list...)}
}

// Len returns the number of attributes.
func (a *AttrList) Len() int {
	return len(a.list)
}

// All returns a copy of the attributes in declaration order.
func (a *AttrList) All() []Attribute {
	return append([]Attribute(nil), a.list...)
}

func (a *AttrList) index(key string) int {
	for i, attr := range a.list {
		if strings.EqualFold(attr.Key, key) {
			return i
		}
	}
	return -1
}

// Has reports whether the key is present, ignoring case.
func (a *AttrList) Has(key string) bool {
	return a.index(key) >= 0
}

// Get returns the value for the key, ignoring case.
func (a *AttrList) Get(key string) (string, bool) {
	if i := a.index(key); i >= 0 {
		return a.list[i].Val, true
	}
	return "", false
}

// Set updates the value for the key if present, keeping the declared casing
// and position; otherwise it appends the attribute with the given casing.
func (a *AttrList) Set(key, val string) {
	if i := a.index(key); i >= 0 {
		a.list[i].Val = val
		return
	}
	a.list = append(a.list, Attribute{Key: key, Val: val})
}

// Del removes the key, ignoring case. Reports whether it was present.
func (a *AttrList) Del(key string) bool {
	if i := a.index(key); i >= 0 {
		a.list = append(a.list[:i], a.list[i+1:]...)
		return true
	}
	return false
}

// SetAll replaces the whole bag. It fails if two attributes collide under
// case-insensitive identity, so reorderings cannot corrupt the invariant.
func (a *AttrList) SetAll(attrs []Attribute) error {
	seen := make(map[string]bool, len(attrs))
	for _, attr := range attrs {
		k := strings.ToLower(attr.Key)
		if seen[k] {
			return fmt.Errorf("duplicate attribute %q", attr.Key)
		}
		seen[k] = true
	}
	a.list = append(a.list[:0], attrs...)
	return nil
}
