package pipeline

import "sync"

// branchOutput pairs a fan-out branch's stage with the signal SplitComponent
// closes once its input has been fully drained. The branch's own work
// function blocks on this signal; the branch's own Stage.run then emits the
// end-of-stream marker exactly once, through the normal single code path.
type branchOutput[T any] struct {
	stage *Stage[T]
	done  chan struct{}
}

// SplitComponent fans a single input stream out to any number of
// independently-consumed branches, each seeing every value in production
// order (spec.md §4.2). It is itself a helper stage with a void output.
//
// Each createOutputComponent()-created branch is a plain child stage that
// shares the channel SplitComponent publishes to; there is no back-pointer
// from branch to owner (spec.md §9 design note).
type SplitComponent[T any] struct {
	*Stage[struct{}]

	input Component[T]

	mu       sync.Mutex
	branches []branchOutput[T]
}

// NewSplit wraps input so that CreateOutputComponent can be called any
// number of times, each call producing an independent consumer view of the
// same underlying stream. input is started at most once regardless of how
// many branches are created (spec.md §4.3 invariant 4).
func NewSplit[T any](input Component[T]) *SplitComponent[T] {
	sc := &SplitComponent[T]{input: input}

	st := New[struct{}]("SplitComponent", DefaultCapacity, sc.run)
	st.MarkInternalHelper()
	sc.Stage = st

	return sc
}

// CreateOutputComponent returns a new branch. The branch's output stream
// receives a copy of every value the input produces, in the order produced.
// The split itself is started lazily, the first time any branch's
// NextResult is called — not here — so that every branch created before
// consumption begins is registered before SplitComponent starts draining
// input.
func (sc *SplitComponent[T]) CreateOutputComponent() Component[T] {
	done := make(chan struct{})

	branch := New[T]("SplitOutputComponent", DefaultCapacity, func(_ func(T)) {
		sc.Start()
		<-done
	})
	branch.MarkInternalHelper()

	sc.mu.Lock()
	sc.branches = append(sc.branches, branchOutput[T]{stage: branch, done: done})
	sc.mu.Unlock()

	return branch
}

// run is SplitComponent's own work function: it drains the input to
// end-of-stream, publishing each value directly into every branch's queue
// (blocking per-branch on a saturated branch, so back-pressure is per
// branch, matching spec.md §4.2), then releases every branch so it can
// close on its own.
func (sc *SplitComponent[T]) run(_ func(struct{})) {
	for {
		v, ok := sc.input.NextResult()
		if !ok {
			break
		}

		for _, b := range sc.snapshotBranches() {
			b.stage.addResult(v)
		}
	}

	for _, b := range sc.snapshotBranches() {
		close(b.done)
	}
}

func (sc *SplitComponent[T]) snapshotBranches() []branchOutput[T] {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	out := make([]branchOutput[T], len(sc.branches))
	copy(out, sc.branches)

	return out
}
