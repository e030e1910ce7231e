package edit

import (
	"sync"

	"github.com/latticeforge/kernel/internal/domain/atomic"
	"github.com/latticeforge/kernel/pkg/types"
)

// Editor is the persistent state of an AtomEdit node: a diff structure plus
// transient selection/tool state, following spec.md §4.6's single-diff
// design (no command stack — every edit mutates Diff directly).
type Editor struct {
	// Diff is the AtomicStructure diff (IsDiff == true): delete markers,
	// BondDeleted markers, and anchor positions record the edits made.
	Diff *atomic.AtomicStructure
	// OutputDiff, when true, makes Eval return the diff itself (for
	// visualization/debugging) instead of the diff applied to its input.
	OutputDiff bool
	// ShowAnchorArrows requests diff-view rendering of anchor positions.
	ShowAnchorArrows bool
	// IncludeBaseBondsInDiff enriches diff-view output with the base bonds
	// between matched diff atoms, via EnrichDiffWithBaseBonds.
	IncludeBaseBondsInDiff bool
	// Tolerance is the positional match radius used by ApplyDiff.
	Tolerance float64

	Selection  Selection
	ActiveTool Tool

	// LastStats records the most recent ApplyDiff outcome, for subtitle/
	// status display; nil until the first Eval.
	LastStats *DiffStats

	// cacheMu guards cachedInput, the node's input_cache (spec.md §4.1
	// "an input_cache on AtomEdit nodes that survives across invocations
	// and is explicitly invalidated by upstream edits", §5 "the per-node
	// cached_input in AtomEdit uses an internal mutex protecting an
	// Option<AtomicStructure>"). Unlike Diff/Selection/ActiveTool, this is
	// written by the evaluator (possibly from a different goroutine than
	// whatever last mutated the editor interactively), hence the lock
	// rather than a bare field.
	cacheMu     sync.Mutex
	cachedInput *atomic.AtomicStructure
}

// NewEditor returns an empty editor with the default tool and tolerance.
func NewEditor() *Editor {
	diff := atomic.New()
	diff.IsDiff = true
	return &Editor{
		Diff:                   diff,
		IncludeBaseBondsInDiff: true,
		Tolerance:              DefaultTolerance,
		Selection:              NewSelection(),
		ActiveTool:             NewDefaultTool(),
	}
}

// --- Input cache (spec.md §4.1, §4.6, §5) ---

// CachedInput returns the structure cached from this node's previous
// evaluation, and whether one is held. A miss (ok == false) means either
// the node has never been evaluated or ClearInputCache was called since —
// the caller must walk the upstream wire itself and repopulate the cache
// via SetCachedInput.
func (e *Editor) CachedInput() (s *atomic.AtomicStructure, ok bool) {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()
	return e.cachedInput, e.cachedInput != nil
}

// SetCachedInput stores s (which may be nil) as the node's input_cache,
// for reuse by the next evaluation that doesn't find the cache cleared.
func (e *Editor) SetCachedInput(s *atomic.AtomicStructure) {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()
	e.cachedInput = s
}

// ClearInputCache invalidates the input_cache. Per spec.md §4.6 "Cache
// invalidation", this must be called whenever any node upstream of this
// AtomEdit node is mutated, so the next evaluation re-fetches rather than
// reusing stale data.
func (e *Editor) ClearInputCache() {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()
	e.cachedInput = nil
}

// --- Direct diff mutation ---

// AddAtomToDiff adds a pure-addition atom to the diff and returns its id.
func (e *Editor) AddAtomToDiff(atomicNumber int16, position types.Vec3) uint32 {
	e.Selection.ClearBonds()
	return e.Diff.AddAtom(atomicNumber, position)
}

// MarkForDeletion adds a delete marker at matchPosition, which must equal
// the target base atom's match position (anchor-or-position) so ApplyDiff
// pairs them back up.
func (e *Editor) MarkForDeletion(matchPosition types.Vec3) uint32 {
	e.Selection.ClearBonds()
	return e.Diff.AddAtom(atomic.DeletedSiteAtomicNumber, matchPosition)
}

// ReplaceInDiff adds a new diff atom with newAtomicNumber at matchPosition;
// it does not look for or update an existing diff atom at that position.
func (e *Editor) ReplaceInDiff(matchPosition types.Vec3, newAtomicNumber int16) uint32 {
	e.Selection.ClearBonds()
	return e.Diff.AddAtom(newAtomicNumber, matchPosition)
}

// MoveInDiff relocates a diff atom, anchoring it to its first pre-move
// position so ApplyDiff still matches it to the correct base atom.
func (e *Editor) MoveInDiff(atomID uint32, newPosition types.Vec3) {
	e.Selection.ClearBonds()
	a := e.Diff.Get(atomID)
	if a == nil {
		return
	}
	if _, anchored := e.Diff.AnchorPositions[atomID]; !anchored {
		e.Diff.AnchorPositions[atomID] = a.Position
	}
	_ = e.Diff.SetAtomPosition(atomID, newPosition)
}

// AddBondInDiff records a bond addition in the diff.
func (e *Editor) AddBondInDiff(atomID1, atomID2 uint32, order atomic.BondOrder) {
	e.Selection.ClearBonds()
	_ = e.Diff.AddBondChecked(atomID1, atomID2, order)
}

// DeleteBondInDiff records a bond deletion in the diff.
func (e *Editor) DeleteBondInDiff(atomID1, atomID2 uint32) {
	e.Selection.ClearBonds()
	_ = e.Diff.AddBondChecked(atomID1, atomID2, atomic.BondDeleted)
}

// RemoveFromDiff deletes a diff atom outright (and its anchor, if any),
// reverting that entry to "no edit" rather than recording a deletion.
func (e *Editor) RemoveFromDiff(diffAtomID uint32) {
	e.Selection.ClearBonds()
	_ = e.Diff.DeleteAtom(diffAtomID)
	delete(e.Diff.AnchorPositions, diffAtomID)
}

// ConvertToDeleteMarker turns a matched-edit diff atom into a delete marker
// at the same match position, so it still pairs with its base atom.
func (e *Editor) ConvertToDeleteMarker(diffAtomID uint32) {
	matchPosition, ok := e.matchPositionOf(diffAtomID)
	if !ok {
		return
	}
	e.RemoveFromDiff(diffAtomID)
	e.MarkForDeletion(matchPosition)
}

func (e *Editor) matchPositionOf(diffAtomID uint32) (types.Vec3, bool) {
	if pos, ok := e.Diff.AnchorPositions[diffAtomID]; ok {
		return pos, true
	}
	a := e.Diff.Get(diffAtomID)
	if a == nil {
		return types.Vec3{}, false
	}
	return a.Position, true
}

// --- Tool management ---

func (e *Editor) SetActiveTool(kind ToolKind) {
	switch kind {
	case ToolAddAtom:
		e.ActiveTool = NewAddAtomTool()
	case ToolAddBond:
		e.ActiveTool = NewAddBondTool()
	default:
		e.ActiveTool = NewDefaultTool()
	}
}

func (e *Editor) SetDefaultToolAtomicNumber(atomicNumber int16) bool {
	if e.ActiveTool.Kind != ToolDefault {
		return false
	}
	e.ActiveTool.Default.ReplacementAtomicNumber = atomicNumber
	return true
}

func (e *Editor) SetAddAtomToolAtomicNumber(atomicNumber int16) bool {
	if e.ActiveTool.Kind != ToolAddAtom {
		return false
	}
	e.ActiveTool.AddAtom.AtomicNumber = atomicNumber
	return true
}

// BeginGuidedPlacement switches the AddAtom tool into guided mode, anchored
// on anchorDiffID under the given hybridization. Returns false if the tool
// isn't active or the anchor doesn't exist in the diff.
func (e *Editor) BeginGuidedPlacement(anchorDiffID uint32, hyb Hybridization) bool {
	if e.ActiveTool.Kind != ToolAddAtom || e.Diff.Get(anchorDiffID) == nil {
		return false
	}
	id := anchorDiffID
	e.ActiveTool.AddAtom.GuidedAnchor = &id
	e.ActiveTool.AddAtom.Hybridization = hyb
	return true
}

// EndGuidedPlacement returns the AddAtom tool to free-placement mode.
func (e *Editor) EndGuidedPlacement() {
	e.ActiveTool.AddAtom.GuidedAnchor = nil
}

// GuidedPlacementDots returns the current guide-dot directions for the
// AddAtom tool's active anchor, or nil if guided mode isn't active.
func (e *Editor) GuidedPlacementDots() []types.Vec3 {
	anchor := e.ActiveTool.AddAtom.GuidedAnchor
	if e.ActiveTool.Kind != ToolAddAtom || anchor == nil {
		return nil
	}
	return GuideDots(e.Diff, *anchor, e.ActiveTool.AddAtom.Hybridization)
}

// CommitGuidedPlacement places a new atom at anchor + direction * bond
// length (covalent-radii sum of anchor and new element), bonds it to the
// anchor, and leaves guided mode. Returns 0 if guided mode isn't active or
// the anchor no longer exists.
func (e *Editor) CommitGuidedPlacement(direction types.Vec3) uint32 {
	anchorID := e.ActiveTool.AddAtom.GuidedAnchor
	if e.ActiveTool.Kind != ToolAddAtom || anchorID == nil {
		return 0
	}
	anchor := e.Diff.Get(*anchorID)
	if anchor == nil {
		return 0
	}
	atomicNumber := e.ActiveTool.AddAtom.AtomicNumber
	bondLength := atomic.CovalentRadius(anchor.AtomicNumber) + atomic.CovalentRadius(atomicNumber)
	newID := e.PlaceGuided(anchor.Position, *anchorID, direction, atomicNumber, bondLength)
	e.EndGuidedPlacement()
	return newID
}

// AddBondToolClick drives the AddBond tool's two-click gesture: the first
// click records atomID as the pending endpoint, the second commits a bond
// between it and atomID and resets the gesture.
func (e *Editor) AddBondToolClick(atomID uint32) {
	if e.ActiveTool.Kind != ToolAddBond {
		return
	}
	if e.ActiveTool.AddBond.LastAtomID == nil {
		id := atomID
		e.ActiveTool.AddBond.LastAtomID = &id
		return
	}
	first := *e.ActiveTool.AddBond.LastAtomID
	e.ActiveTool.AddBond.LastAtomID = nil
	if first == atomID {
		return
	}
	e.AddBondInDiff(first, atomID, atomic.BondSingle)
}

// --- Evaluation ---

// EvalResult is what evaluating an AtomEdit node against an input produces.
type EvalResult struct {
	Structure  *atomic.AtomicStructure
	Provenance Provenance
	Stats      DiffStats
}

// Eval applies e's diff to input per spec.md §4.6, or — when OutputDiff is
// set — returns the diff itself (optionally enriched with base bonds) for
// visualization. decorate requests selection state be painted onto the
// returned structure's Decorator.
func (e *Editor) Eval(input *atomic.AtomicStructure, decorate bool) EvalResult {
	if e.OutputDiff {
		diffView := e.Diff.Clone()
		if e.IncludeBaseBondsInDiff {
			EnrichDiffWithBaseBonds(diffView, input, e.Tolerance)
		}
		diffView.Decorator.ShowAnchorArrows = e.ShowAnchorArrows
		if decorate {
			for diffID := range e.Selection.SelectedDiffAtoms {
				diffView.Select([]uint32{diffID}, nil, atomic.SelectExpand)
			}
			for ref := range e.Selection.SelectedBonds {
				diffView.Select(nil, []atomic.BondReference{ref}, atomic.SelectExpand)
			}
		}
		return EvalResult{Structure: diffView}
	}

	result, prov, stats := ApplyDiff(input, e.Diff, e.Tolerance)
	e.LastStats = &stats

	if decorate {
		e.Selection.ApplyToResult(result, prov)
	}
	return EvalResult{Structure: result, Provenance: prov, Stats: stats}
}
