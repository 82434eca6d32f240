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

import (
	"errors"
	"log/slog"
)

// Module identifies an optional part of the library which must be
// enabled explicitly.
type Module uint

// These are the optional modules.
const (
	ModuleRMS Module = 1 << iota
	ModuleCompliance
	ModuleTagging
)

// Config holds the settings used to initialize the library.
type Config struct {
	// Logger receives diagnostic messages.  If this is nil,
	// slog.Default() is used.
	Logger *slog.Logger

	// Modules lists the optional modules which may be used.
	Modules Module
}

// A Library is an explicit handle for the optional modules and the shared
// settings of the library.  There is no global state: every operation
// which needs a module takes the Library as an argument.
type Library struct {
	logger  *slog.Logger
	modules Module
	closed  bool
}

var errLibraryClosed = errors.New("library has been closed")

// Initialize creates a new library handle.
func Initialize(cfg Config) (*Library, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Modules&^(ModuleRMS|ModuleCompliance|ModuleTagging) != 0 {
		return nil, ErrUnknown
	}
	logger.Debug("library initialized", slog.Uint64("modules", uint64(cfg.Modules)))
	return &Library{logger: logger, modules: cfg.Modules}, nil
}

// Close releases the library handle.  After Close, no modules are
// available.
func (l *Library) Close() error {
	if l.closed {
		return errLibraryClosed
	}
	l.closed = true
	return nil
}

// HasModule reports whether the given module is enabled.
func (l *Library) HasModule(m Module) bool {
	return l != nil && !l.closed && l.modules&m == m
}

// Require returns [ErrNoRMSModuleRight] if the RMS module is requested but
// not available, and [ErrUnsupported] for other missing modules.
func (l *Library) Require(m Module) error {
	if l.HasModule(m) {
		return nil
	}
	if m&ModuleRMS != 0 {
		return ErrNoRMSModuleRight
	}
	return ErrUnsupported
}

// Logger returns the logger of the library.
func (l *Library) Logger() *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l.logger
}
