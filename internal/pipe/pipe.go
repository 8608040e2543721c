package pipe

import (
	"context"
	"errors"
	"sync"
)

const defaultConcurrency = 5

// ErrTimeout is returned when the deadline passes before the pipe drained.
var ErrTimeout = errors.New("pipe: timed out")

type Pipe[R any] struct {
	source   Source[R]
	stages   []pipeStage[R]
	stopped  chan struct{}
	stopOnce sync.Once
	errCh    chan error
}

type Source[R any] func() ([]*R, error)
type Sink[R any] func(*R) error

type pipeStage[R any] interface {
	process(inCh <-chan *R, outCh chan<- *R)
	getBufSize() int
}

func New[R any](source Source[R]) *Pipe[R] {
	return &Pipe[R]{
		source:  source,
		errCh:   make(chan error, 1),
		stopped: make(chan struct{}),
	}
}

func (p *Pipe[R]) Map(fn func(r *R) (*R, error), opts ...SimpleStageOption[R]) {
	p.FanOut(func(in *R) ([]*R, error) {
		out, err := fn(in)
		if err != nil {
			return nil, err
		}

		return []*R{out}, nil
	}, opts...)
}

func (p *Pipe[R]) FanOut(fn func(r *R) ([]*R, error), opts ...SimpleStageOption[R]) {
	stage := &simpleStage[R]{
		fn:          fn,
		concurrency: defaultConcurrency,
		reportError: p.reportError,
		stopped:     p.stopped,
	}

	for _, opt := range opts {
		opt(stage)
	}

	p.stages = append(p.stages, stage)
}

func (p *Pipe[R]) Filter(fn func(r *R) bool, opts ...SimpleStageOption[R]) {
	p.FanOut(func(in *R) ([]*R, error) {
		ok := fn(in)
		if ok {
			return []*R{in}, nil
		}

		return nil, nil
	}, opts...)
}

// SinkContext runs the pipe and feeds every record reaching the end into
// sink. It returns the first error reported by a stage or the sink. When ctx
// ends before the pipe drained it stops the pipe and returns ErrTimeout for
// an expired deadline or ctx.Err() otherwise. Once the pipe is stopped no
// further sink calls are started.
func (p *Pipe[R]) SinkContext(ctx context.Context, sink Sink[R]) error {
	drained := make(chan struct{})
	p.startSink(sink, p.connect(), drained)

	select {
	case <-ctx.Done():
		p.Stop()
		select {
		case <-drained:
		default:
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return ErrTimeout
			}
			return ctx.Err()
		}
	case <-drained:
	}

	select {
	case err := <-p.errCh:
		return err
	default:
		return nil
	}
}

// connect starts the source and every stage and returns the channel leaving
// the last stage.
func (p *Pipe[R]) connect() <-chan *R {
	outCh := make(chan *R, p.getBufSize(0))
	go p.startSource(outCh)

	for i, stage := range p.stages {
		inCh := outCh
		outCh = make(chan *R, p.getBufSize(i+1))
		go stage.process(inCh, outCh)
	}

	return outCh
}

// Stop closes the pipe. It is safe to call more than once.
func (p *Pipe[R]) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopped)
	})
}

func (p *Pipe[R]) startSource(outCh chan<- *R) {
	defer close(outCh)
	records, err := p.source()
	if err != nil {
		p.reportError(err)
		return
	}

	sendRecords(records, outCh, p.stopped)
}

func (p *Pipe[R]) startSink(sink Sink[R], inCh <-chan *R, drained chan<- struct{}) {
	go func() {
		defer close(drained)
		for record := range inCh {
			select {
			case <-p.stopped:
				continue
			default:
			}

			err := sink(record)
			if err != nil {
				p.reportError(err)
			}
		}
		p.Stop()
	}()
}

func (p *Pipe[R]) reportError(err error) {
	select {
	case <-p.stopped:
	case p.errCh <- err:
		p.Stop()
	default:
	}
}

func (p *Pipe[R]) getBufSize(index int) int {
	if index >= len(p.stages) {
		return 0
	}

	return p.stages[index].getBufSize()
}
