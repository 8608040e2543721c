package pipe

import (
	"fmt"
	"sync"
)

type simpleStage[R any] struct {
	fn          func(r *R) ([]*R, error)
	concurrency int
	reportError func(err error)
	stopped     <-chan struct{}
}

type SimpleStageOption[R any] func(p *simpleStage[R])

func Concurrency[R any](concurrency int) SimpleStageOption[R] {
	return func(p *simpleStage[R]) {
		p.concurrency = concurrency
	}
}

func (s *simpleStage[R]) process(inCh <-chan *R, outCh chan<- *R) {
	defer close(outCh)

	wg := &sync.WaitGroup{}
	for i := 0; i < s.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := range inCh {
				outs, err := s.call(r)
				if err != nil {
					s.reportError(err)
					return
				}

				if !sendRecords(outs, outCh, s.stopped) {
					return
				}
			}
		}()
	}
	wg.Wait()
}

// call runs fn, turning a panic into an error so a bad record cannot take
// the process down from a worker goroutine.
func (s *simpleStage[R]) call(r *R) (outs []*R, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("pipe: stage panicked: %v", rec)
		}
	}()

	return s.fn(r)
}

func (s *simpleStage[R]) getBufSize() int {
	return 0
}
