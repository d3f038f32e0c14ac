package pipeline

import "sync"

// NewJoin builds a barrier stage that blocks until every input has reached
// end-of-stream, then itself finishes with an empty output (spec.md §4.2:
// "JoinComponent ... blocks until all N have reached end-of-stream, then
// itself finishes with an empty output"). Inputs are drained concurrently,
// so a slow branch does not stall the others' back-pressure.
func NewJoin[T any](inputs ...Component[T]) *Stage[struct{}] {
	st := New[struct{}]("JoinComponent", DefaultCapacity, func(_ func(struct{})) {
		var wg sync.WaitGroup

		for _, in := range inputs {
			wg.Add(1)

			go func(c Component[T]) {
				defer wg.Done()

				for {
					if _, ok := c.NextResult(); !ok {
						return
					}
				}
			}(in)
		}

		wg.Wait()
	})
	st.MarkInternalHelper()

	return st
}
