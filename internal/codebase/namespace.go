package codebase

import (
	"sort"
	"strings"

	"github.com/vibe-lang/vibe/internal/lang"
)

// Namespace is an in-memory tree view over a Store's bound names, grouping
// dotted identifiers (Math.Utils.fib) into nested folders. No CLI
// subcommand builds or prints it.
type Namespace struct {
	Name     string
	Children map[string]*Namespace
	Bound    *lang.Ident // non-nil at a leaf that is itself a bound name
}

// BuildNamespace walks every bound name in s and arranges it into a tree
// keyed by dotted segment.
func BuildNamespace(s *Store) *Namespace {
	root := &Namespace{Name: "", Children: map[string]*Namespace{}}
	for _, name := range s.Names() {
		segs := name.Segments()
		cur := root
		for i, seg := range segs {
			child, ok := cur.Children[seg]
			if !ok {
				child = &Namespace{Name: seg, Children: map[string]*Namespace{}}
				cur.Children[seg] = child
			}
			if i == len(segs)-1 {
				n := name
				child.Bound = &n
			}
			cur = child
		}
	}
	return root
}

// Walk visits every namespace node in sorted-name pre-order.
func (n *Namespace) Walk(fn func(path string, ns *Namespace)) {
	n.walk("", fn)
}

func (n *Namespace) walk(prefix string, fn func(string, *Namespace)) {
	path := prefix
	if n.Name != "" {
		if prefix != "" {
			path = prefix + "." + n.Name
		} else {
			path = n.Name
		}
	}
	if n.Name != "" {
		fn(path, n)
	}
	keys := make([]string, 0, len(n.Children))
	for k := range n.Children {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		n.Children[k].walk(path, fn)
	}
}

// String renders the tree indented by depth, one node per line.
func (n *Namespace) String() string {
	var b strings.Builder
	n.Walk(func(path string, ns *Namespace) {
		depth := strings.Count(path, ".")
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString(ns.Name)
		if ns.Bound != nil {
			b.WriteString(" = ")
			b.WriteString(string(*ns.Bound))
		}
		b.WriteString("\n")
	})
	return b.String()
}
