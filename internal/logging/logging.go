// Copyright 2026 The wallettrust Authors
//
// Licensed under the GNU Lesser General Public License, version 3 or
// (at your option) any later version. See LICENSE for details.

// Package logging constructs the process-wide structured logger. Every
// component asks for a module-scoped child logger rather than using a
// global, mirroring the teacher's one-logger-per-module convention.
package logging

import (
	"go.uber.org/zap"
)

// New builds a production zap logger. Callers keep the returned
// *zap.SugaredLogger for the life of the process and derive module
// loggers from it with Named.
func New() (*zap.SugaredLogger, error) {
	l, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

// Module returns a child logger scoped to one component, e.g.
// Module(log, "indexer.payment").
func Module(l *zap.SugaredLogger, name string) *zap.SugaredLogger {
	return l.Named(name)
}
