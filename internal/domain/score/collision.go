package score

import (
	"github.com/okian/proflink/internal/domain/model"
	"github.com/okian/proflink/internal/domain/normalize"
)

// CollisionIndex counts how many instructors in one term snapshot share
// each normalized last name. It feeds the uniqueness signal and is
// immutable after construction, so workers may share it without locking.
type CollisionIndex struct {
	counts map[string]int
}

// NewCollisionIndex builds the surname-collision counts for a snapshot.
// Instructors whose names cannot be normalized simply contribute nothing.
func NewCollisionIndex(instructors []model.Instructor) *CollisionIndex {
	ci := &CollisionIndex{counts: make(map[string]int, len(instructors))}
	for _, inst := range instructors {
		if tok, err := normalize.Name(inst.DisplayName); err == nil {
			ci.counts[tok.Last]++
		}
	}
	return ci
}

// Others returns how many instructors besides inst share its normalized
// last name.
func (ci *CollisionIndex) Others(inst model.Instructor) int {
	tok, err := normalize.Name(inst.DisplayName)
	if err != nil {
		return 0
	}
	if n := ci.counts[tok.Last]; n > 0 {
		return n - 1
	}
	return 0
}
