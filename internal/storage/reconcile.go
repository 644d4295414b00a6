package storage

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/thoughts/internal/recordstore"
	"github.com/mesh-intelligence/thoughts/pkg/types"
)

// Report counts the repairs made by Reconcile.
type Report struct {
	// DanglingEntries is the number of index entries dropped because their
	// record no longer exists.
	DanglingEntries int `json:"dangling_entries"`
	// MisindexedEntries is the number of index entries dropped because
	// their record holds a different ID.
	MisindexedEntries int `json:"misindexed_entries"`
	// Reindexed is the number of unindexed records given an index entry.
	Reindexed int `json:"reindexed"`
	// Duplicates is the number of unindexed records deleted because their
	// ID was already indexed to another record.
	Duplicates int `json:"duplicates"`
	// CountersRaised is the number of counters moved up to the highest
	// stored ID.
	CountersRaised int `json:"counters_raised"`
	// StrippedReferences is the number of thoughts rewritten to drop
	// references to areas of life that no longer exist.
	StrippedReferences int `json:"stripped_references"`
}

// Empty reports whether Reconcile changed nothing.
func (r Report) Empty() bool {
	return r == Report{}
}

func (r Report) fields() []zap.Field {
	return []zap.Field{
		zap.Int("dangling_entries", r.DanglingEntries),
		zap.Int("misindexed_entries", r.MisindexedEntries),
		zap.Int("reindexed", r.Reindexed),
		zap.Int("duplicates", r.Duplicates),
		zap.Int("counters_raised", r.CountersRaised),
		zap.Int("stripped_references", r.StrippedReferences),
	}
}

// reconcileTarget describes one entity kind for the repair pass.
type reconcileTarget struct {
	kind       string
	records    recordstore.Store
	index      handleIndex
	counterKey string
	recordID   func(json.RawMessage) (uint64, error)
}

// Reconcile repairs the inconsistencies a crash between the record write and
// the index write can leave behind, and finishes interrupted cascades:
//
//  1. index entries pointing at missing records, or at records holding a
//     different ID, are dropped;
//  2. records without an index entry are re-indexed by their embedded ID,
//     or deleted if that ID is already indexed elsewhere;
//  3. counters are raised to the highest stored ID so IDs are never reused;
//  4. thought references to missing areas of life are stripped.
//
// Open calls Reconcile; it is safe to call again at any time.
func (s *Storage) Reconcile() (Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var report Report
	if err := s.checkOpen(); err != nil {
		return report, err
	}

	targets := []reconcileTarget{
		{
			kind:       "thought",
			records:    s.thoughts,
			index:      s.thoughtIndex,
			counterKey: lastThoughtIDKey,
			recordID:   thoughtRecordID,
		},
		{
			kind:       "area of life",
			records:    s.areasOfLife,
			index:      s.areaOfLifeIndex,
			counterKey: lastAreaOfLifeIDKey,
			recordID:   areaOfLifeRecordID,
		},
	}
	for _, target := range targets {
		if err := s.reconcileTarget(target, &report); err != nil {
			return report, fmt.Errorf("reconcile %s: %w", target.kind, connectionError(err))
		}
	}

	stripped, err := s.stripStaleReferences()
	if err != nil {
		return report, fmt.Errorf("reconcile references: %w", err)
	}
	report.StrippedReferences = stripped
	return report, nil
}

// reconcileTarget runs steps 1 to 3 for one entity kind.
// The caller must hold s.mu for writing.
func (s *Storage) reconcileTarget(t reconcileTarget, report *Report) error {
	records, err := t.records.All()
	if err != nil {
		return err
	}
	entries, err := t.index.load()
	if err != nil {
		return err
	}
	changed := false

	claimed := make(map[string]bool, len(entries))
	for id, handle := range entries {
		body, ok := records[handle]
		if !ok {
			s.logger.Info("dropping dangling index entry",
				zap.String("kind", t.kind), zap.String("id", id), zap.String("handle", handle))
			delete(entries, id)
			report.DanglingEntries++
			changed = true
			continue
		}
		// An unreadable record keeps its entry; Get reports it.
		if embedded, err := t.recordID(body); err == nil && strconv.FormatUint(embedded, 10) != id {
			s.logger.Info("dropping misindexed entry",
				zap.String("kind", t.kind), zap.String("id", id), zap.String("handle", handle),
				zap.Uint64("record_id", embedded))
			delete(entries, id)
			report.MisindexedEntries++
			changed = true
			continue
		}
		claimed[handle] = true
	}

	// Handles are issued in increasing order: bolt sequences are decimal
	// numbers and UUID v7 strings share one length. Ordering by length then
	// value lets the oldest record win when two orphans share an ID.
	handles := make([]string, 0, len(records))
	for handle := range records {
		if !claimed[handle] {
			handles = append(handles, handle)
		}
	}
	slices.SortFunc(handles, func(a, b string) int {
		return cmp.Or(cmp.Compare(len(a), len(b)), strings.Compare(a, b))
	})

	for _, handle := range handles {
		id, err := t.recordID(records[handle])
		if err != nil {
			s.logger.Warn("leaving unreadable record unindexed",
				zap.String("kind", t.kind), zap.String("handle", handle), zap.Error(err))
			continue
		}
		key := strconv.FormatUint(id, 10)
		if _, ok := entries[key]; ok {
			s.logger.Info("deleting duplicate record",
				zap.String("kind", t.kind), zap.Uint64("id", id), zap.String("handle", handle))
			if err := t.records.Delete(handle); err != nil {
				return err
			}
			report.Duplicates++
			continue
		}
		s.logger.Info("re-indexing orphaned record",
			zap.String("kind", t.kind), zap.Uint64("id", id), zap.String("handle", handle))
		entries[key] = handle
		report.Reindexed++
		changed = true
	}

	if changed {
		if err := t.index.save(entries); err != nil {
			return err
		}
	}

	var highest uint64
	for key := range entries {
		id, err := strconv.ParseUint(key, 10, 64)
		if err != nil {
			continue
		}
		highest = max(highest, id)
	}
	raised, err := s.raiseCounter(t.counterKey, highest)
	if err != nil {
		return err
	}
	if raised {
		report.CountersRaised++
	}
	return nil
}

// stripStaleReferences rewrites thoughts that reference areas of life with
// no index entry. Returns the number of thoughts rewritten.
// The caller must hold s.mu for writing.
func (s *Storage) stripStaleReferences() (int, error) {
	entries, err := s.areaOfLifeIndex.load()
	if err != nil {
		return 0, connectionError(err)
	}
	thoughts, err := s.thoughtRepo.getAll()
	if err != nil {
		return 0, err
	}

	stripped := 0
	for _, t := range thoughts {
		live := make([]types.AreaOfLifeID, 0, len(t.AreasOfLife))
		for _, a := range t.AreasOfLife {
			if _, ok := entries[a.String()]; ok {
				live = append(live, a)
			}
		}
		if len(live) == len(t.AreasOfLife) {
			continue
		}
		s.logger.Info("stripping stale area of life references", zap.Stringer("thought_id", t.ID))
		if err := s.thoughtRepo.save(types.NewThought(t.ID, t.Title, live)); err != nil {
			return stripped, err
		}
		stripped++
	}
	return stripped, nil
}
