package order

import (
	"cmp"
	"slices"
)

// orderScale spaces the constraint order numbers of unconstrained items.
// Constrained items land at max(target orders)+1, so the gap between two
// consecutive unconstrained items bounds how many constrained items can
// slot between them before colliding with the next tier. 1000 is far
// beyond any plausible constraint fan-in; the exact value is a tunable,
// not part of the contract.
const orderScale = 1000

// sortItems orders items in place: ascending by group (default
// substituted), then by constraint order, then by original position.
func sortItems(items []Item, defaultGroup float64) {
	n := len(items)
	if n < 2 {
		return
	}

	// First and last position of every name. before edges attach to the
	// first occurrence of their target; after edges resolve against the
	// last, so "after X" means after every X.
	low := make(map[string]int, n)
	high := make(map[string]int, n)
	for i, item := range items {
		name := item.Name()
		if _, ok := low[name]; !ok {
			low[name] = i
		}
		high[name] = i
	}

	// Constraint edges per index, seeded from each item's own after list,
	// then extended by converting every before declaration into the
	// equivalent after edge on its target. Dangling targets are skipped:
	// a name that isn't present constrains nothing.
	after := make([][]string, n)
	for i, item := range items {
		after[i] = item.After()
	}
	for _, item := range items {
		for _, target := range item.Before() {
			if j, ok := low[target]; ok {
				after[j] = append(after[j], item.Name())
			}
		}
	}

	const (
		unset = iota
		provisional
		done
	)
	memo := make([]int, n)
	state := make([]int, n)

	// orderOf computes the constraint order number for index i. The
	// provisional value is written before recursing so a circular after
	// chain reads a finite number instead of recursing forever.
	var orderOf func(i int) int
	orderOf = func(i int) int {
		if state[i] != unset {
			return memo[i]
		}
		state[i] = provisional
		memo[i] = i * orderScale

		best := -1
		for _, target := range after[i] {
			if j, ok := high[target]; ok {
				if v := orderOf(j); v > best {
					best = v
				}
			}
		}
		if best >= 0 {
			memo[i] = best + 1
		}
		state[i] = done
		return memo[i]
	}

	type ranked struct {
		item  Item
		group float64
		order int
		index int
	}
	rankings := make([]ranked, n)
	for i, item := range items {
		group, ok := item.Group()
		if !ok {
			group = defaultGroup
		}
		rankings[i] = ranked{
			item:  item,
			group: group,
			order: orderOf(i),
			index: i,
		}
	}

	slices.SortFunc(rankings, func(a, b ranked) int {
		if c := cmp.Compare(a.group, b.group); c != 0 {
			return c
		}
		if c := cmp.Compare(a.order, b.order); c != 0 {
			return c
		}
		return cmp.Compare(a.index, b.index)
	})

	for i, r := range rankings {
		items[i] = r.item
	}
}
