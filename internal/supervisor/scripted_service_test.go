// Domfi - Market Dominance Cache API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/domfi

package supervisor

import (
	"context"
	"sync"
)

// scriptedService stands in for a domfi layer service. Each Serve call
// returns the next scripted error; once the script is exhausted it blocks
// until canceled.
type scriptedService struct {
	name string

	mu      sync.Mutex
	script  []error
	started int
	stopped int
}

func newScriptedService(name string, script ...error) *scriptedService {
	return &scriptedService{name: name, script: script}
}

func (s *scriptedService) Serve(ctx context.Context) error {
	s.mu.Lock()
	s.started++
	var next error
	scripted := len(s.script) > 0
	if scripted {
		next, s.script = s.script[0], s.script[1:]
	}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.stopped++
		s.mu.Unlock()
	}()

	if scripted {
		return next
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *scriptedService) counts() (started, stopped int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started, s.stopped
}

func (s *scriptedService) startCount() int {
	started, _ := s.counts()
	return started
}

func (s *scriptedService) String() string {
	return s.name
}
