// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates a concurrent modification conflict (optimistic locking).
var ErrConflict = errors.New("conflict: resource was modified by another request")

// ErrValidation indicates a request failed domain validation.
var ErrValidation = errors.New("validation failed")

// ErrUpstream indicates an external provider (agent or speech service) failed.
var ErrUpstream = errors.New("upstream provider error")

// ErrTimeout indicates an external provider did not respond in time.
var ErrTimeout = errors.New("upstream provider timeout")
