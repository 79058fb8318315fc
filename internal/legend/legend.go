// Package legend tracks which terms are in use across a pedigree, which
// nodes exhibit each term, and the display color assigned to each.
//
// A color is assigned when a term gets its first case and is held until the
// term's last case is removed. New colors come from a fixed palette in
// order; once the palette is used up, random colors are drawn, never white
// and never one already in use.
package legend

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"
)

const white = "#ffffff"

// Observer is told about color and name changes. ColorAssigned and
// ColorReleased run synchronously inside AddCase and RemoveCase, so they
// must not call back into the legend or wait on locks the caller holds.
// NameResolved runs on the name loader's goroutine.
type Observer interface {
	ColorAssigned(legend, key, color string)
	ColorReleased(legend, key string)
	NameResolved(legend, key, name string)
}

// Entry is one legend row.
type Entry struct {
	Key   string   `json:"key"`
	Name  string   `json:"name"`
	Color string   `json:"color"`
	Nodes []string `json:"nodes"`
}

// Legend is the color and case bookkeeping shared by every term category.
type Legend struct {
	mu       sync.Mutex
	name     string
	palette  []string
	random   func() uint32
	observer Observer

	colors map[string]string
	names  map[string]string
	cases  map[string]map[string]struct{}
	order  []string
}

// New returns an empty legend titled name that draws from palette.
func New(name string, palette []string) *Legend {
	return &Legend{
		name:    name,
		palette: slices.Clone(palette),
		random:  rand.Uint32,
		colors:  make(map[string]string),
		names:   make(map[string]string),
		cases:   make(map[string]map[string]struct{}),
	}
}

// SetObserver sets the observer notified on color and name changes.
func (l *Legend) SetObserver(o Observer) {
	l.mu.Lock()
	l.observer = o
	l.mu.Unlock()
}

// SetRandom replaces the source used once the palette is exhausted. Only
// the low 24 bits are used.
func (l *Legend) SetRandom(fn func() uint32) {
	l.mu.Lock()
	l.random = fn
	l.mu.Unlock()
}

// Name returns the legend title.
func (l *Legend) Name() string { return l.name }

// AddCase records that nodeID exhibits key. The first case of a key creates
// its entry and assigns a color. Adding the same pair again changes nothing.
// It reports whether the pair was new.
func (l *Legend) AddCase(key, name, nodeID string) bool {
	l.mu.Lock()
	nodes, ok := l.cases[key]
	if !ok {
		nodes = make(map[string]struct{})
		l.cases[key] = nodes
		l.names[key] = name
		l.order = append(l.order, key)
	}
	if _, dup := nodes[nodeID]; dup {
		l.mu.Unlock()
		return false
	}
	nodes[nodeID] = struct{}{}

	var assigned string
	if _, colored := l.colors[key]; !colored {
		assigned = l.nextColor()
		l.colors[key] = assigned
	}
	observer := l.observer
	l.mu.Unlock()

	if assigned != "" && observer != nil {
		observer.ColorAssigned(l.name, key, assigned)
	}
	return true
}

// RemoveCase drops nodeID from key. When no nodes remain the entry and its
// color are released. It reports whether the pair was registered.
func (l *Legend) RemoveCase(key, nodeID string) bool {
	l.mu.Lock()
	nodes, ok := l.cases[key]
	if !ok {
		l.mu.Unlock()
		return false
	}
	if _, has := nodes[nodeID]; !has {
		l.mu.Unlock()
		return false
	}
	delete(nodes, nodeID)

	released := len(nodes) == 0
	if released {
		delete(l.cases, key)
		delete(l.colors, key)
		delete(l.names, key)
		l.order = slices.DeleteFunc(l.order, func(k string) bool { return k == key })
	}
	observer := l.observer
	l.mu.Unlock()

	if released && observer != nil {
		observer.ColorReleased(l.name, key)
	}
	return true
}

// Color returns the color assigned to key.
func (l *Legend) Color(key string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.colors[key]
	return c, ok
}

// Count returns the number of nodes exhibiting key.
func (l *Legend) Count(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.cases[key])
}

// Cases returns the sorted node IDs exhibiting key.
func (l *Legend) Cases(key string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return sortedNodes(l.cases[key])
}

// Entries returns the legend rows in the order their terms first appeared.
func (l *Legend) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, 0, len(l.order))
	for _, key := range l.order {
		out = append(out, Entry{
			Key:   key,
			Name:  l.names[key],
			Color: l.colors[key],
			Nodes: sortedNodes(l.cases[key]),
		})
	}
	return out
}

// SetName updates the displayed name of key, typically once a placeholder
// name has been resolved.
func (l *Legend) SetName(key, name string) {
	l.mu.Lock()
	_, ok := l.names[key]
	if ok {
		l.names[key] = name
	}
	observer := l.observer
	l.mu.Unlock()

	if ok && observer != nil {
		observer.NameResolved(l.name, key, name)
	}
}

// nextColor picks the first unused palette color, then falls back to random
// colors. Callers hold l.mu.
func (l *Legend) nextColor() string {
	used := make(map[string]bool, len(l.colors))
	for _, c := range l.colors {
		used[c] = true
	}
	for _, c := range l.palette {
		if !used[c] {
			return c
		}
	}
	for {
		c := fmt.Sprintf("#%06x", l.random()&0xffffff)
		if c != white && !used[c] {
			return c
		}
	}
}

func sortedNodes(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}
