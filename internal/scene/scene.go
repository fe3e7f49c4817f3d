// Package scene is a minimal element tree standing in for a page: nodes
// with ids, class lists and a current transform, looked up by "#id" or
// ".class" selectors.
package scene

import (
	"sort"
	"strings"
	"sync"

	"github.com/Mr-Dark-debug/cubespin/internal/render"
)

// Element is one node. Methods are safe for concurrent use so views can
// read an element while the frame loop writes it.
type Element struct {
	ID string

	mu        sync.RWMutex
	parent    *Element
	children  []*Element
	classes   map[string]struct{}
	transform render.Transform
	applied   uint64
}

// ApplyTransform implements render.Target.
func (e *Element) ApplyTransform(t render.Transform) {
	e.mu.Lock()
	e.transform = t
	e.applied++
	e.mu.Unlock()
}

// AddClass implements render.Target.
func (e *Element) AddClass(name string) {
	e.mu.Lock()
	e.classes[name] = struct{}{}
	e.mu.Unlock()
}

// RemoveClass implements render.Target.
func (e *Element) RemoveClass(name string) {
	e.mu.Lock()
	delete(e.classes, name)
	e.mu.Unlock()
}

// HasClass reports whether the element carries name.
func (e *Element) HasClass(name string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.classes[name]
	return ok
}

// Classes returns the class list sorted.
func (e *Element) Classes() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, 0, len(e.classes))
	for c := range e.classes {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Transform returns the last applied transform.
func (e *Element) Transform() render.Transform {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.transform
}

// Applied counts ApplyTransform calls.
func (e *Element) Applied() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.applied
}

// Parent returns the parent element, nil for the root.
func (e *Element) Parent() *Element {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.parent
}

// Contains reports whether other is e or one of its descendants.
func (e *Element) Contains(other *Element) bool {
	for n := other; n != nil; n = n.Parent() {
		if n == e {
			return true
		}
	}
	return false
}

// Document owns the tree.
type Document struct {
	mu   sync.RWMutex
	root *Element
	byID map[string]*Element
}

// NewDocument returns a document with a single root element "body".
func NewDocument() *Document {
	root := newElement("body", nil)
	return &Document{root: root, byID: map[string]*Element{"body": root}}
}

func newElement(id string, parent *Element) *Element {
	return &Element{ID: id, parent: parent, classes: make(map[string]struct{})}
}

// Root returns the root element.
func (d *Document) Root() *Element { return d.root }

// Create adds an element under parent, or under the root if parent is nil.
// An existing element with the same id is returned unchanged.
func (d *Document) Create(id string, parent *Element, classes ...string) *Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	if e, ok := d.byID[id]; ok {
		return e
	}
	if parent == nil {
		parent = d.root
	}
	e := newElement(id, parent)
	for _, c := range classes {
		e.classes[c] = struct{}{}
	}
	parent.mu.Lock()
	parent.children = append(parent.children, e)
	parent.mu.Unlock()
	d.byID[id] = e
	return e
}

// Lookup returns the element with id.
func (d *Document) Lookup(id string) (*Element, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.byID[id]
	return e, ok
}

// Query returns the first element matching selector in tree order.
// Supported forms are "#id" and ".class".
func (d *Document) Query(selector string) (*Element, bool) {
	switch {
	case strings.HasPrefix(selector, "#"):
		return d.Lookup(selector[1:])
	case strings.HasPrefix(selector, "."):
		return d.root.find(selector[1:])
	}
	return nil, false
}

func (e *Element) find(class string) (*Element, bool) {
	if e.HasClass(class) {
		return e, true
	}
	e.mu.RLock()
	children := append([]*Element(nil), e.children...)
	e.mu.RUnlock()
	for _, c := range children {
		if found, ok := c.find(class); ok {
			return found, true
		}
	}
	return nil, false
}

// Resolve implements render.Resolver.
func (d *Document) Resolve(selector string) (render.Target, bool) {
	e, ok := d.Query(selector)
	if !ok {
		return nil, false
	}
	return e, true
}
