package executor

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/aescanero/autogent/pkg/domain"
)

// executeParallel runs independent ready nodes concurrently, at most
// opts.MaxParallel at a time. A node is dispatched only once all of its
// predecessors are terminal. All decisions and store writes happen on the
// calling goroutine; workers only invoke nodes.
//
// Under halt the first failure cancels in-flight siblings. Whatever they
// return afterwards is recorded as cancelled, so the failing node remains
// the only failure.
func (r *run) executeParallel(ctx context.Context) {
	runCtx, halt := context.WithCancel(ctx)
	defer halt()
	r.onHalt = halt

	pending := make(map[string]int, len(r.order))
	var ready []string
	for _, id := range r.order {
		pending[id] = len(r.g.Predecessors(id))
		if pending[id] == 0 {
			ready = append(ready, id)
		}
	}

	results := make(chan *outcome, len(r.order))
	var workers errgroup.Group
	workers.SetLimit(r.opts.MaxParallel)

	release := func(id string) {
		for _, s := range r.g.Successors(id) {
			pending[s]--
			if pending[s] == 0 {
				ready = append(ready, s)
			}
		}
	}

	inflight, resolved := 0, 0
	for resolved < len(r.order) {
		for len(ready) > 0 {
			id := ready[0]
			ready = ready[1:]

			inputs, o := r.prepare(ctx, id)
			if o != nil {
				r.record(o)
				resolved++
				release(id)
				continue
			}

			inflight++
			workers.Go(func() error {
				results <- r.invoke(runCtx, id, inputs)
				return nil
			})
		}

		if inflight == 0 {
			break
		}

		o := <-results
		inflight--
		resolved++
		r.discardIfHalted(o)
		r.record(o)
		release(o.id)
	}

	_ = workers.Wait()
}

// discardIfHalted turns a result that arrives after another node halted the
// run into a cancellation.
func (r *run) discardIfHalted(o *outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.halted {
		return
	}
	o.state = domain.NodeStateCancelled
	o.outputs = nil
	o.err = &domain.NodeError{
		Kind:     domain.KindCancelled,
		Message:  fmt.Sprintf("result discarded after %s halted the run", r.haltedBy),
		Upstream: r.haltedBy,
	}
}
