package usecase

import (
	"context"
	"errors"
	"sync"

	"vault/domain/repository"
	"vault/infrastructure/logger"
)

// ErrControllerStopped is returned by Dispatch once Run has returned.
var ErrControllerStopped = errors.New("view controller stopped")

const defaultQueueSize = 16

type StateListener func(ViewState)

type envelope struct {
	event   Event
	applied chan struct{}
	done    chan struct{}
}

// ViewController owns one ViewState. Events are applied one at a time on the
// goroutine running Run. Backend calls requested by transitions run on a
// helper goroutine strictly one after another, and their results come back
// as events; the loop keeps applying events meanwhile, so a click arriving
// mid-submit sees the busy phase.
type ViewController struct {
	gateway repository.IVideoGateway

	queue   chan envelope
	stopped chan struct{}
	once    sync.Once

	mu        sync.RWMutex
	state     ViewState
	listeners []StateListener
}

type job struct {
	effect Effect
	done   chan struct{}
}

type result struct {
	event Event
	done  chan struct{}
}

func NewViewController(gateway repository.IVideoGateway) *ViewController {
	return &ViewController{
		gateway: gateway,
		queue:   make(chan envelope, defaultQueueSize),
		stopped: make(chan struct{}),
		state:   NewViewState(),
	}
}

// OnChange registers fn to be called with every new state.
func (c *ViewController) OnChange(fn StateListener) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// State returns the current snapshot. Callers must not modify Videos.
func (c *ViewController) State() ViewState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Dispatch queues e. The returned channel is closed after e and every
// follow-up event produced by its backend calls have been applied.
func (c *ViewController) Dispatch(ctx context.Context, e Event) (<-chan struct{}, error) {
	env, err := c.send(ctx, e)
	if err != nil {
		return nil, err
	}
	return env.done, nil
}

// Apply queues e and waits until e itself has been reduced, without waiting
// for the backend calls it triggers. The returned channel behaves as in Dispatch.
func (c *ViewController) Apply(ctx context.Context, e Event) (<-chan struct{}, error) {
	env, err := c.send(ctx, e)
	if err != nil {
		return nil, err
	}
	select {
	case <-env.applied:
		return env.done, nil
	case <-c.stopped:
		return nil, ErrControllerStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *ViewController) send(ctx context.Context, e Event) (envelope, error) {
	env := envelope{event: e, applied: make(chan struct{}), done: make(chan struct{})}
	select {
	case <-c.stopped:
		return envelope{}, ErrControllerStopped
	default:
	}
	select {
	case c.queue <- env:
		return env, nil
	case <-c.stopped:
		return envelope{}, ErrControllerStopped
	case <-ctx.Done():
		return envelope{}, ctx.Err()
	}
}

// DispatchAndWait queues e and blocks until it settles or ctx ends.
func (c *ViewController) DispatchAndWait(ctx context.Context, e Event) error {
	done, err := c.Dispatch(ctx, e)
	if err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-c.stopped:
		return ErrControllerStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes queued events until ctx is cancelled.
func (c *ViewController) Run(ctx context.Context) error {
	defer c.once.Do(func() { close(c.stopped) })

	results := make(chan result, 1)
	var pending []job
	busy := false

	for {
		if !busy && len(pending) > 0 {
			next := pending[0]
			pending = pending[1:]
			busy = true
			go func(j job) {
				results <- result{event: c.perform(ctx, j.effect), done: j.done}
			}(next)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case env := <-c.queue:
			j, ok := c.apply(env.event, env.done)
			close(env.applied)
			if ok {
				pending = append(pending, j)
			}
		case res := <-results:
			busy = false
			if j, ok := c.apply(res.event, res.done); ok {
				pending = append(pending, j)
			}
		}
	}
}

// apply reduces e and either hands back the backend call it asked for or,
// when the chain is finished, closes done.
func (c *ViewController) apply(e Event, done chan struct{}) (job, bool) {
	if e == nil {
		close(done)
		return job{}, false
	}
	next, effect := Reduce(c.State(), e)
	c.setState(next)
	if effect.Kind == EffectNone {
		close(done)
		return job{}, false
	}
	return job{effect: effect, done: done}, true
}

func (c *ViewController) perform(ctx context.Context, effect Effect) Event {
	switch effect.Kind {
	case EffectFetchList:
		videos, err := c.gateway.ListVideos(ctx)
		if err != nil {
			logger.GetLogger().WithField("error", err).Error("Error while fetching videos")
			return ListFailed{Err: err}
		}
		return ListLoaded{Videos: videos}
	case EffectTrack:
		if err := c.gateway.TrackVideo(ctx, effect.VideoID); err != nil {
			logger.GetLogger().WithField("video_id", effect.VideoID).WithField("error", err).Error("Error while submitting video")
			return TrackFailed{VideoID: effect.VideoID, Err: err}
		}
		return TrackSucceeded{VideoID: effect.VideoID}
	}
	return nil
}

func (c *ViewController) setState(s ViewState) {
	c.mu.Lock()
	c.state = s
	listeners := append([]StateListener(nil), c.listeners...)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(s)
	}
}
