package ir

// DominatorTree is a function's immediate-dominator table, computed by the
// iterative Cooper-Harvey-Kennedy algorithm (spec.md §4.2's "compute
// immediate dominator" data-model operation, needed by the checker's
// dominance-of-definition-over-use rule in §4.4 and left as a core
// operation per the open question in §9: CFG/dominator-tree construction
// as a reusable external library is out of scope, but functions still need
// to answer "does A dominate B" internally).
type DominatorTree struct {
	entry int
	idom  map[int]int // block num -> immediate dominator block num; idom[entry] == entry
	rpo   map[int]int // block num -> reverse postorder index (lower = dominates-before, entry is lowest)
}

// Dominators computes f's dominator tree from its current CFG edges. Call
// RebuildEdges first if blocks or terminators changed since the last call.
func (f *Function) Dominators() *DominatorTree {
	entryBlock := f.EntryBlock()
	if entryBlock == nil {
		return &DominatorTree{idom: map[int]int{}, rpo: map[int]int{}}
	}

	postorder := make([]int, 0, len(f.Blocks))
	visited := make(map[int]bool)
	var visit func(num int)
	visit = func(num int) {
		if visited[num] {
			return
		}
		visited[num] = true
		b := f.blockByNum[num]
		if b != nil {
			for _, c := range b.Children {
				visit(c)
			}
		}
		postorder = append(postorder, num)
	}
	visit(entryBlock.Num)

	rpo := make(map[int]int, len(postorder))
	for i, num := range postorder {
		// Reverse postorder index: last in postorder (the entry) gets index
		// 0, the lowest, so "lower index" means "visited earlier".
		rpo[num] = len(postorder) - 1 - i
	}

	order := make([]int, len(postorder))
	for i, num := range postorder {
		order[len(postorder)-1-i] = num
	}

	idom := map[int]int{entryBlock.Num: entryBlock.Num}
	changed := true
	for changed {
		changed = false
		for _, num := range order {
			if num == entryBlock.Num {
				continue
			}
			b := f.blockByNum[num]
			if b == nil {
				continue
			}
			newIdom := -1
			for _, p := range b.Parents {
				if _, ok := idom[p]; !ok {
					continue
				}
				if newIdom < 0 {
					newIdom = p
					continue
				}
				newIdom = intersect(idom, rpo, newIdom, p)
			}
			if newIdom < 0 {
				continue
			}
			if prev, ok := idom[num]; !ok || prev != newIdom {
				idom[num] = newIdom
				changed = true
			}
		}
	}

	return &DominatorTree{entry: entryBlock.Num, idom: idom, rpo: rpo}
}

func intersect(idom map[int]int, rpo map[int]int, a, b int) int {
	for a != b {
		for rpo[a] > rpo[b] {
			a = idom[a]
		}
		for rpo[b] > rpo[a] {
			b = idom[b]
		}
	}
	return a
}

// ImmediateDominator returns the immediate dominator of block num, or -1 if
// num is unreachable from the entry (and so has no dominator relation).
func (dt *DominatorTree) ImmediateDominator(num int) int {
	idom, ok := dt.idom[num]
	if !ok {
		return -1
	}
	if idom == num && num != dt.entry {
		return -1
	}
	return idom
}

// Dominates reports whether block a dominates block b (a block always
// dominates itself). Returns false if either block is unreachable from the
// entry.
func (dt *DominatorTree) Dominates(a, b int) bool {
	if _, ok := dt.idom[a]; !ok {
		return false
	}
	cur := b
	for {
		if _, ok := dt.idom[cur]; !ok {
			return false
		}
		if cur == a {
			return true
		}
		if cur == dt.idom[cur] {
			return cur == a
		}
		cur = dt.idom[cur]
	}
}
