// Domfi - Market Dominance Cache API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/domfi

package services

import (
	"context"
	"fmt"
)

// StartStopper is satisfied by *loader.Loader.
type StartStopper interface {
	Start(ctx context.Context) error
	Stop() error
}

// LoaderService adapts the loader's Start/Stop lifecycle to suture. Stop
// blocks until the in-flight poll iteration finishes, so a snapshot is
// never half written at shutdown.
type LoaderService struct {
	loader StartStopper
	name   string
}

// NewLoaderService wraps l.
//
//	l := loader.New(cfg.Loader, db, bus)
//	tree.AddDataService(services.NewLoaderService(l))
func NewLoaderService(l StartStopper) *LoaderService {
	return &LoaderService{
		loader: l,
		name:   "snapshot-loader",
	}
}

// Serve implements suture.Service. A Start failure is returned so suture
// restarts the service with backoff.
func (s *LoaderService) Serve(ctx context.Context) error {
	if err := s.loader.Start(ctx); err != nil {
		return fmt.Errorf("loader start failed: %w", err)
	}

	<-ctx.Done()

	if err := s.loader.Stop(); err != nil {
		return fmt.Errorf("loader stop failed: %w", err)
	}
	return ctx.Err()
}

func (s *LoaderService) String() string {
	return s.name
}
