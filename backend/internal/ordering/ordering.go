// Package ordering implements sibling reordering for categories and forums.
//
// The scheme is deliberately simple: load every sibling in the scope,
// renumber them 0..N-1 in their current order, then swap the target with
// its neighbour. The caller persists all N keys in one transaction, so the
// scope is contiguous after every call even if rows were inserted out of
// band with colliding or sparse keys.
package ordering

import (
	"sort"

	"github.com/itchan-dev/forum/shared/domain"
)

type Direction int

const (
	Up Direction = iota
	Down
)

func (d Direction) String() string {
	if d == Up {
		return "up"
	}
	return "down"
}

// Sibling is one element of an ordered scope.
type Sibling struct {
	Id      int64
	SortKey domain.SortKey
}

// Normalize orders siblings by (sortkey, id) and renumbers them 0..N-1.
// The input slice is not modified.
func Normalize(siblings []Sibling) []Sibling {
	out := make([]Sibling, len(siblings))
	copy(out, siblings)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SortKey != out[j].SortKey {
			return out[i].SortKey < out[j].SortKey
		}
		return out[i].Id < out[j].Id
	})
	for i := range out {
		out[i].SortKey = i
	}
	return out
}

// Move normalizes the scope and moves target one slot in the given
// direction. At a boundary the scope is only normalized and moved is false.
// found is false when target is not part of the scope.
func Move(siblings []Sibling, target int64, dir Direction) (result []Sibling, moved bool, found bool) {
	result = Normalize(siblings)

	idx := -1
	for i, s := range result {
		if s.Id == target {
			idx = i
			break
		}
	}
	if idx < 0 {
		return result, false, false
	}

	neighbour := idx - 1
	if dir == Down {
		neighbour = idx + 1
	}
	if neighbour < 0 || neighbour >= len(result) {
		return result, false, true
	}

	result[idx].SortKey, result[neighbour].SortKey = result[neighbour].SortKey, result[idx].SortKey
	result[idx], result[neighbour] = result[neighbour], result[idx]
	return result, true, true
}

// IsContiguous reports whether the keys are exactly {0..N-1}.
func IsContiguous(siblings []Sibling) bool {
	seen := make([]bool, len(siblings))
	for _, s := range siblings {
		if s.SortKey < 0 || s.SortKey >= len(siblings) || seen[s.SortKey] {
			return false
		}
		seen[s.SortKey] = true
	}
	return true
}
