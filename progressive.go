// seehuhn.de/go/pdfsdk - a library for reading, writing and transforming PDF files
// Copyright (C) 2025  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package pdf

import "context"

// State describes the state of a progressive operation.
type State int

// These are the possible states of a progressive operation.
const (
	StateError State = iota
	StateToBeContinued
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateError:
		return "error"
	case StateToBeContinued:
		return "to be continued"
	case StateFinished:
		return "finished"
	}
	return "unknown"
}

// PauseCallback is consulted between the chunks of work of a progressive
// operation.
type PauseCallback interface {
	NeedToPauseNow() bool
}

// PauseFunc adapts a function to the PauseCallback interface.
type PauseFunc func() bool

// NeedToPauseNow implements the [PauseCallback] interface.
func (f PauseFunc) NeedToPauseNow() bool { return f() }

// A Step performs a bounded chunk of work.  A step which returns done ==
// false is called again on the next turn.
type Step func() (done bool, err error)

// Progressive is a long-running operation which is driven by the caller.
// Each call to Continue performs chunks of work until the operation
// finishes or the pause callback asks to stop.
type Progressive struct {
	steps []Step
	cur   int
	pause PauseCallback
	state State
	err   error
}

// NewProgressive creates a progressive operation which runs the given
// steps in order.  If pause is nil, Continue runs the operation to
// completion.
func NewProgressive(pause PauseCallback, steps ...Step) *Progressive {
	return &Progressive{
		steps: steps,
		pause: pause,
		state: StateToBeContinued,
	}
}

// Continue performs the next chunks of work.
func (p *Progressive) Continue() (State, error) {
	if p.state != StateToBeContinued {
		return p.state, p.err
	}
	for p.cur < len(p.steps) {
		done, err := p.steps[p.cur]()
		if err != nil {
			p.state = StateError
			p.err = err
			return p.state, err
		}
		if done {
			p.cur++
		}
		if p.cur < len(p.steps) && p.pause != nil && p.pause.NeedToPauseNow() {
			return StateToBeContinued, nil
		}
	}
	p.state = StateFinished
	return p.state, nil
}

// RateOfProgress returns the percentage of completed steps.
func (p *Progressive) RateOfProgress() int {
	if p.state == StateFinished || len(p.steps) == 0 {
		return 100
	}
	return 100 * p.cur / len(p.steps)
}

// Run drives the operation to completion.  The context is checked whenever
// Continue returns.
func (p *Progressive) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		state, err := p.Continue()
		switch state {
		case StateFinished:
			return nil
		case StateError:
			return err
		}
	}
}
