package session

import (
	"context"
	"time"

	"github.com/Aulris16/space-invaders-alike/internal/game"
	"github.com/Aulris16/space-invaders-alike/internal/logger"
)

const (
	inboxSize    = 64
	leaveTimeout = 2 * time.Second
)

// Loop runs a Controller on a single goroutine. Frames are driven by a
// ticker; everything else reaches the controller through Do.
type Loop struct {
	ctrl     *Controller
	interval time.Duration
	input    func() game.Input
	render   func(View)

	inbox chan func(*Controller)
	done  chan struct{}
}

// NewLoop creates a loop ticking tickRate times per second. input is polled
// once per frame and render receives a view after every frame and command;
// either may be nil.
func NewLoop(ctrl *Controller, tickRate int, input func() game.Input, render func(View)) *Loop {
	if tickRate <= 0 {
		tickRate = 60
	}
	if input == nil {
		input = func() game.Input { return game.Input{} }
	}
	if render == nil {
		render = func(View) {}
	}
	return &Loop{
		ctrl:     ctrl,
		interval: time.Second / time.Duration(tickRate),
		input:    input,
		render:   render,
		inbox:    make(chan func(*Controller), inboxSize),
		done:     make(chan struct{}),
	}
}

// Do queues fn to run on the loop goroutine between frames. It returns false
// once the loop has stopped.
func (l *Loop) Do(fn func(*Controller)) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.inbox <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Done is closed after Run returns
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Run blocks until ctx is cancelled. On the way out it leaves any room so
// no store listener outlives the loop; no frame runs after Run returns.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	defer close(l.done)

	l.render(l.ctrl.View())
	for {
		select {
		case <-ctx.Done():
			leaveCtx, cancel := context.WithTimeout(context.Background(), leaveTimeout)
			l.ctrl.Shutdown(leaveCtx)
			cancel()
			logger.Log.Debug("game loop stopped")
			return ctx.Err()
		case fn := <-l.inbox:
			fn(l.ctrl)
			l.render(l.ctrl.View())
		case <-ticker.C:
			l.ctrl.Frame(ctx, l.input())
			l.render(l.ctrl.View())
		}
	}
}
