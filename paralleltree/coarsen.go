package paralleltree

// Coarsen composes expand with itself k times (k<2 returns expand
// unchanged): every Node yielded by the coarsened function already
// represents k levels of the original tree, collapsing deep tight
// recursion into fewer, larger subtasks before a Node is ever handed off
// to a Compactor.
func Coarsen[S, L any](expand ExpandFunc[S, L], k int) ExpandFunc[S, L] {
	if k < 2 {
		return expand
	}
	return func(s S) ([]Child[S, L], error) {
		children, err := expand(s)
		if err != nil {
			return nil, err
		}
		return expandFurther(children, expand, k-1)
	}
}

// expandFurther replaces every Node child with the children produced by
// applying expand to it, repeated depth more times, flattening the
// result. Leaf children pass through unchanged.
func expandFurther[S, L any](children []Child[S, L], expand ExpandFunc[S, L], depth int) ([]Child[S, L], error) {
	if depth <= 0 {
		return children, nil
	}
	out := make([]Child[S, L], 0, len(children))
	for _, c := range children {
		if c.isLeaf {
			out = append(out, c)
			continue
		}
		grandchildren, err := expand(c.node)
		if err != nil {
			return nil, err
		}
		expanded, err := expandFurther(grandchildren, expand, depth-1)
		if err != nil {
			return nil, err
		}
		out = append(out, expanded...)
	}
	return out, nil
}
