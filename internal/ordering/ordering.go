// Package ordering implements dense manual ordering of IDs.
//
// Every function takes the current order of a partition (index = position)
// and returns the new order; the result is always a permutation whose
// positions are exactly 0..N-1. Callers persist the result and use Changes to
// write only the rows whose position moved.
package ordering

import (
	"slices"

	"github.com/google/uuid"

	"github.com/heartmarshall/board-planner/internal/domain"
)

// Append returns order with id added at the tail.
func Append(order []uuid.UUID, id uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(order)+1)
	out = append(out, order...)
	return append(out, id)
}

// InsertAt returns order with id inserted at index; rows at or after index
// shift by one. index must be within [0, len(order)].
func InsertAt(order []uuid.UUID, id uuid.UUID, index int) ([]uuid.UUID, error) {
	if index < 0 || index > len(order) {
		return nil, &domain.OutOfRangeError{Index: index, Max: len(order)}
	}
	out := make([]uuid.UUID, 0, len(order)+1)
	out = append(out, order[:index]...)
	out = append(out, id)
	return append(out, order[index:]...), nil
}

// Remove returns order without id and the index id was removed from.
// ok is false when id is not present.
func Remove(order []uuid.UUID, id uuid.UUID) (out []uuid.UUID, index int, ok bool) {
	index = slices.Index(order, id)
	if index < 0 {
		return order, -1, false
	}
	out = make([]uuid.UUID, 0, len(order)-1)
	out = append(out, order[:index]...)
	return append(out, order[index+1:]...), index, true
}

// Move returns order with id relocated to target. target must be within
// [0, len(order)-1]. moved is false when id already sits at target.
func Move(order []uuid.UUID, id uuid.UUID, target int) (out []uuid.UUID, moved bool, err error) {
	if target < 0 || target > len(order)-1 {
		return nil, false, &domain.OutOfRangeError{Index: target, Max: len(order) - 1}
	}
	current := slices.Index(order, id)
	if current < 0 {
		return nil, false, domain.ErrNotFound
	}
	if current == target {
		return order, false, nil
	}
	rest, _, _ := Remove(order, id)
	out, err = InsertAt(rest, id, target)
	if err != nil {
		return nil, false, err
	}
	return out, true, nil
}

// Replace validates that desired is exactly a permutation of current and
// returns it. Any difference (missing, extra, or repeated IDs) yields a
// *domain.PartitionMembershipMismatchError.
func Replace(current, desired []uuid.UUID) ([]uuid.UUID, error) {
	members := make(map[uuid.UUID]struct{}, len(current))
	for _, id := range current {
		members[id] = struct{}{}
	}

	seen := make(map[uuid.UUID]struct{}, len(desired))
	mismatch := &domain.PartitionMembershipMismatchError{}
	for _, id := range desired {
		if _, dup := seen[id]; dup {
			mismatch.Duplicates = append(mismatch.Duplicates, id)
			continue
		}
		seen[id] = struct{}{}
		if _, ok := members[id]; !ok {
			mismatch.Unexpected = append(mismatch.Unexpected, id)
		}
	}
	for _, id := range current {
		if _, ok := seen[id]; !ok {
			mismatch.Missing = append(mismatch.Missing, id)
		}
	}

	if len(mismatch.Missing)+len(mismatch.Unexpected)+len(mismatch.Duplicates) > 0 {
		return nil, mismatch
	}
	return slices.Clone(desired), nil
}

// Changes returns, for each ID in order whose index differs from its
// position in before, the new position. IDs absent from before are
// included. Result follows the order of the new sequence.
func Changes(before map[uuid.UUID]int, order []uuid.UUID) []Change {
	var out []Change
	for i, id := range order {
		if pos, ok := before[id]; ok && pos == i {
			continue
		}
		out = append(out, Change{ID: id, Position: i})
	}
	return out
}

// Change is a new position for an ID.
type Change struct {
	ID       uuid.UUID
	Position int
}

// Verify reports whether positions are exactly {0, ..., len-1}.
func Verify(positions []int) bool {
	seen := make([]bool, len(positions))
	for _, p := range positions {
		if p < 0 || p >= len(positions) || seen[p] {
			return false
		}
		seen[p] = true
	}
	return true
}
