package packager

import "slices"

// sortNodes computes the insertion order. A strict package keeps its order.
//
// Otherwise nodes are placed one at a time into a growing sequence:
// dependency nodes form a prefix in their given order; a value node goes
// right after the last placed node sharing its id; any other node goes
// after the last placed node it references, unless a placed node that
// references it comes earlier, in which case it goes after that one. This
// is a heuristic and can leave a reference pointing forward for unusual
// shapes.
func sortNodes(strict bool, nodes []*node) []*node {
	if strict {
		return slices.Clone(nodes)
	}

	sorted := make([]*node, 0, len(nodes))
	deps := 0
	for _, n := range nodes {
		var at int
		switch n.kind {
		case kindDependency:
			at = deps
			deps++
		case kindValue:
			at = len(sorted)
			for i := len(sorted) - 1; i >= 0; i-- {
				if sorted[i].id == n.id {
					at = i + 1
					break
				}
			}
		default:
			first := slices.IndexFunc(sorted, func(p *node) bool { return p.refs(n.id.ID) })
			last := -1
			for i, p := range sorted {
				if n.typ.isLocal(p.id.ID) || n.from.isLocal(p.id.ID) || n.to.isLocal(p.id.ID) {
					last = i
				}
			}
			idx := last
			if first != -1 && first < last {
				idx = first
			}
			at = max(idx+1, deps)
		}
		sorted = slices.Insert(sorted, at, n)
	}
	return sorted
}
