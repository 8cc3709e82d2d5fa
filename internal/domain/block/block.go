// Package block narrows the external-record search space per instructor so
// scoring never degrades into a full cross-product comparison.
package block

import (
	"iter"
	"sort"

	"github.com/okian/proflink/internal/domain/model"
	"github.com/okian/proflink/internal/domain/normalize"
)

// defaultFallbackScanCap bounds the worst-case full scan when both the
// last-name and department blocks are empty.
const defaultFallbackScanCap = 1000

type providerIndex struct {
	byLast map[string][]model.RatingRecord
	byDept map[string][]model.RatingRecord
	all    []model.RatingRecord
}

// Index partitions rating records into per-provider blocks keyed by
// normalized last name (primary) and normalized department code (fallback).
// An Index is immutable after New and safe for concurrent readers.
type Index struct {
	providers map[model.Provider]*providerIndex
	scanCap   int
}

// New builds an Index over records. Records whose names cannot be
// normalized still land in the department and full-scan blocks, so a
// malformed name never drops a record from consideration entirely.
func New(records []model.RatingRecord, opts ...Option) *Index {
	ix := &Index{
		providers: make(map[model.Provider]*providerIndex),
		scanCap:   defaultFallbackScanCap,
	}
	for _, opt := range opts {
		opt(ix)
	}

	for _, rec := range records {
		pi := ix.providers[rec.Provider]
		if pi == nil {
			pi = &providerIndex{
				byLast: make(map[string][]model.RatingRecord),
				byDept: make(map[string][]model.RatingRecord),
			}
			ix.providers[rec.Provider] = pi
		}
		pi.all = append(pi.all, rec)
		if tok, err := normalize.Name(rec.RawName); err == nil {
			pi.byLast[tok.Last] = append(pi.byLast[tok.Last], rec)
		}
		for _, dept := range normalize.SubjectSet(rec.Department) {
			pi.byDept[dept] = append(pi.byDept[dept], rec)
		}
	}

	// Blocks are sorted by record ID so iteration order is independent of
	// input order.
	for _, pi := range ix.providers {
		for _, blockRecs := range pi.byLast {
			sortByID(blockRecs)
		}
		for _, blockRecs := range pi.byDept {
			sortByID(blockRecs)
		}
		sortByID(pi.all)
	}
	return ix
}

func sortByID(recs []model.RatingRecord) {
	sort.Slice(recs, func(i, j int) bool { return recs[i].ID < recs[j].ID })
}

// Candidates returns the candidate records for one instructor and provider
// as a finite, restartable sequence. Resolution order: last-name block,
// then the union of the instructor's department blocks, then a capped full
// scan. The sequence never mutates shared state.
func (ix *Index) Candidates(inst model.Instructor, provider model.Provider) iter.Seq[model.RatingRecord] {
	pi := ix.providers[provider]
	if pi == nil {
		return func(yield func(model.RatingRecord) bool) {}
	}

	if tok, err := normalize.Name(inst.DisplayName); err == nil {
		if blockRecs := pi.byLast[tok.Last]; len(blockRecs) > 0 {
			return sliceSeq(blockRecs)
		}
	}

	if deptRecs := pi.deptUnion(inst.SubjectCodes); len(deptRecs) > 0 {
		return sliceSeq(deptRecs)
	}

	scan := pi.all
	if len(scan) > ix.scanCap {
		scan = scan[:ix.scanCap]
	}
	return sliceSeq(scan)
}

// deptUnion merges the department blocks for each taught subject code,
// deduplicated by record ID and sorted for determinism.
func (pi *providerIndex) deptUnion(subjectCodes []string) []model.RatingRecord {
	seen := make(map[string]struct{})
	var out []model.RatingRecord
	for _, code := range subjectCodes {
		for _, rec := range pi.byDept[normalize.Subject(code)] {
			if _, dup := seen[rec.ID]; dup {
				continue
			}
			seen[rec.ID] = struct{}{}
			out = append(out, rec)
		}
	}
	sortByID(out)
	return out
}

func sliceSeq(recs []model.RatingRecord) iter.Seq[model.RatingRecord] {
	return func(yield func(model.RatingRecord) bool) {
		for _, rec := range recs {
			if !yield(rec) {
				return
			}
		}
	}
}
