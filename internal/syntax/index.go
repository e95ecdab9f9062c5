package syntax

import (
	"fmt"
	"go/token"

	"github.com/sirkon/rbtree"
)

// Index maps positions to the innermost syntax node covering them.
// It is built per site and used to attach context to diagnostics.
type Index struct {
	tree *rbtree.Tree[*indexSpan]
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{tree: rbtree.New[*indexSpan]()}
}

// IndexSite builds an index over the item of the given site and its arguments.
func IndexSite(site *Site) *Index {
	idx := NewIndex()

	// Items go first: a package clause item covers its own directive.
	switch it := site.Item.(type) {
	case *StructItem:
		idx.Add(it, it.Span)
		idx.addTypeParams(it.TypeParams)
		for _, f := range it.Fields {
			idx.Add(f, f.Span)
			idx.addType(f.Type)
		}
	case *EnumItem:
		idx.Add(it, it.Span)
		idx.addTypeParams(it.TypeParams)
	case *FuncItem:
		idx.addFunc(it)
	case *PackageItem:
		idx.Add(it, it.Span)
		for _, fn := range it.Funcs {
			idx.addFunc(fn)
		}
	case *UnsupportedItem:
		idx.Add(it, it.Span)
	}

	for _, arg := range site.Args {
		idx.Add(arg, arg.Span)
		for _, v := range arg.Values {
			idx.Add(v, v.Span)
		}
	}

	return idx
}

// Describe renders a short reference to the node for diagnostic context,
// like "field Cache" or "argument skip".
func Describe(node Node) string {
	switch v := node.(type) {
	case *Field:
		if len(v.Names) > 0 {
			return "field " + v.Names[0].Name
		}
		return "field"
	case *TypeRef:
		return "type " + v.Text
	case *TypeParam:
		return "type parameter " + v.Name.Name
	case *Param:
		if v.Name.Name != "" {
			return "parameter " + v.Name.Name
		}
		return "parameter"
	case *Arg:
		return "argument " + v.Name.Name
	case *Value:
		return "value " + v.Text
	case Item:
		name := ItemName(v).Name
		if name == "" {
			return ItemKind(v)
		}
		return ItemKind(v) + " " + name
	default:
		return ""
	}
}

// Add registers a node with its span.
// Spans must either be disjoint or nested, which holds for spans taken from
// a single AST.
func (idx *Index) Add(node Node, s Span) {
	if !s.IsValid() {
		return
	}
	end := s.End
	if end > s.Pos {
		// Spans are half-open, the tree works with closed ones.
		end--
	}
	attachInto(idx.tree, &indexSpan{start: s.Pos, end: end, node: node})
}

// Enclosing returns the innermost node covering pos, or nil.
func (idx *Index) Enclosing(pos token.Pos) Node {
	probe := &indexSpan{start: pos, end: pos}
	res := idx.tree.Search(probe)
	if res == nil {
		return nil
	}
	return descendSearch(res, pos)
}

func (idx *Index) addFunc(fn *FuncItem) {
	idx.Add(fn, fn.Span)
	idx.addTypeParams(fn.TypeParams)
	for _, p := range fn.Params {
		idx.Add(p, p.Span)
	}
	for _, p := range fn.Results {
		idx.Add(p, p.Span)
	}
}

func (idx *Index) addTypeParams(tps []*TypeParam) {
	for _, tp := range tps {
		idx.Add(tp, tp.Span)
	}
}

func (idx *Index) addType(t *TypeRef) {
	if t == nil {
		return
	}
	idx.Add(t, t.Span)
}

// indexSpan stores a closed [start,end] span of a node and, if needed,
// a nested tree for child spans fully contained in this span.
type indexSpan struct {
	start token.Pos
	end   token.Pos

	node     Node
	children *rbtree.Tree[*indexSpan]
}

// Cmp orders spans as "disjoint by position": -1 when n is strictly before
// other, 1 when strictly after, 0 on any overlap.
func (n *indexSpan) Cmp(other *indexSpan) int {
	if n.end < other.start {
		return -1
	}
	if n.start > other.end {
		return 1
	}
	return 0
}

func contains(a, b *indexSpan) bool {
	return a.start <= b.start && a.end >= b.end
}

// attachInto inserts s into t keeping a strict containment hierarchy. Spans
// of one file's syntax nodes either nest or are disjoint, so an overlapping
// node r of t either lies within s (s takes its place and r becomes a child
// of s) or contains s (s goes down into the children of r).
func attachInto(t *rbtree.Tree[*indexSpan], s *indexSpan) {
	r := t.InsertReturn(s)
	switch {
	case r == s:
	case contains(s, r):
		old := *r
		*r = *s
		attachInto(r.childTree(), &old)
	case contains(r, s):
		attachInto(r.childTree(), s)
	default:
		panic(fmt.Sprintf("syntax nodes at [%d, %d) and [%d, %d) overlap without nesting", r.start, r.end, s.start, s.end))
	}
}

func (n *indexSpan) childTree() *rbtree.Tree[*indexSpan] {
	if n.children == nil {
		n.children = rbtree.New[*indexSpan]()
	}
	return n.children
}

func descendSearch(n *indexSpan, pos token.Pos) Node {
	if n == nil {
		return nil
	}
	if n.children == nil {
		return n.node
	}
	child := n.children.Search(&indexSpan{start: pos, end: pos})
	if child == nil {
		return n.node
	}
	if v := descendSearch(child, pos); v != nil {
		return v
	}
	return n.node
}
