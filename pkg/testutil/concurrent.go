package testutil

import (
	"sync"
	"sync/atomic"

	dErrors "socialkyc/pkg/domain-errors"
)

// ConcurrentResult buckets the outcomes of RunConcurrent by domain code.
type ConcurrentResult struct {
	Successes   int32
	Conflicts   int32
	NotFounds   int32
	Forbiddens  int32
	BadRequests int32
	Errors      int32
}

// Total returns the number of calls that finished.
func (r *ConcurrentResult) Total() int32 {
	return r.Successes + r.Conflicts + r.NotFounds + r.Forbiddens + r.BadRequests + r.Errors
}

// RunConcurrent calls fn from n goroutines at once and waits for all of
// them. The goroutines are released together so calls overlap as much as
// the scheduler allows.
func RunConcurrent(n int, fn func(idx int) error) *ConcurrentResult {
	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
		ok, conflict, notFound, forbidden, badRequest, other atomic.Int32
	)
	for i := range n {
		wg.Go(func() {
			<-start
			err := fn(i)
			switch {
			case err == nil:
				ok.Add(1)
			case dErrors.HasCode(err, dErrors.CodeConflict):
				conflict.Add(1)
			case dErrors.HasCode(err, dErrors.CodeNotFound):
				notFound.Add(1)
			case dErrors.HasCode(err, dErrors.CodeForbidden):
				forbidden.Add(1)
			case dErrors.HasCode(err, dErrors.CodeBadRequest):
				badRequest.Add(1)
			default:
				other.Add(1)
			}
		})
	}
	close(start)
	wg.Wait()

	return &ConcurrentResult{
		Successes:   ok.Load(),
		Conflicts:   conflict.Load(),
		NotFounds:   notFound.Load(),
		Forbiddens:  forbidden.Load(),
		BadRequests: badRequest.Load(),
		Errors:      other.Load(),
	}
}
