package score

import (
	"github.com/okian/proflink/internal/domain/normalize"
)

// Name-signal scoring constants. Fixed rules, documented here so the scored
// values shown in the UI can be traced back to one of these cases.
const (
	nameExactFirst   = 1.0 // exact last name and exact first name
	nameInitialFirst = 0.9 // exact last name, first initials agree
	nameMissingFirst = 0.6 // exact last name, first name absent on a side
	nameWrongFirst   = 0.2 // exact last name, first names disagree
	middleMismatch   = 0.1 // penalty when both carry disjoint middle initials
)

// NameScore compares two normalized name tuples. A last-name mismatch
// short-circuits to 0 regardless of the other fields; blocking usually
// guarantees agreement, but the scorer is correct standalone.
func NameScore(inst, cand normalize.NameToken) float64 {
	if inst.Last == "" || inst.Last != cand.Last {
		return 0
	}

	var s float64
	switch {
	case inst.First == "" || cand.First == "":
		s = nameMissingFirst
	case inst.First == cand.First:
		s = nameExactFirst
	case inst.FirstInitial() == cand.FirstInitial():
		s = nameInitialFirst
	default:
		s = nameWrongFirst
	}

	if len(inst.MiddleInitials) > 0 && len(cand.MiddleInitials) > 0 && !shareInitial(inst.MiddleInitials, cand.MiddleInitials) {
		s -= middleMismatch
	}
	return clamp01(s)
}

func shareInitial(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

// SubjectScore compares the instructor's taught subject codes against the
// candidate's department string and, when supplied, its reviewed-course
// list. The subject signal is max(department, course overlap); both raw
// sub-scores are returned so the breakdown stays explainable.
func SubjectScore(subjectCodes []string, department string, reviewedCourses []string) (subject, dept, courseOverlap float64) {
	taught := make(map[string]struct{}, len(subjectCodes))
	for _, code := range subjectCodes {
		if n := normalize.Subject(code); n != "" {
			taught[n] = struct{}{}
		}
	}
	if len(taught) == 0 {
		return 0, 0, 0
	}

	for _, d := range normalize.SubjectSet(department) {
		if _, ok := taught[d]; ok {
			dept = 1.0
			break
		}
	}

	if len(reviewedCourses) > 0 {
		matched := 0
		for _, course := range reviewedCourses {
			if _, ok := taught[normalize.CoursePrefix(course)]; ok {
				matched++
			}
		}
		courseOverlap = float64(matched) / float64(len(reviewedCourses))
	}

	return clamp01(max(dept, courseOverlap)), dept, clamp01(courseOverlap)
}

// UniquenessScore penalizes ambiguous surnames: the more other instructors
// in the term snapshot share the candidate surname, the higher the collision
// risk and the lower the signal. 0 others -> 1.0, 5 others -> ~0.17.
func UniquenessScore(sameLastOthers int) float64 {
	if sameLastOthers < 0 {
		sameLastOthers = 0
	}
	return 1.0 / float64(1+sameLastOthers)
}

// defaultVolumePivot is the rating count at which the volume signal reaches
// 0.5; growth saturates past it.
const defaultVolumePivot = 8

// VolumeScore is a monotone, saturating function of the candidate's rating
// count: count / (count + pivot). Rewards statistically meaningful samples
// without letting very large counts dominate.
func VolumeScore(count, pivot int) float64 {
	if count <= 0 {
		return 0
	}
	if pivot <= 0 {
		pivot = defaultVolumePivot
	}
	return float64(count) / float64(count+pivot)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
