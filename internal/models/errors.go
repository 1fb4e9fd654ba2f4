package models

import (
	"errors"
)

// Authentication errors
var (
	// ErrNotLoggedIn is returned when no auth token is stored
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrInvalidCredentials is returned when login input fails validation
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Project errors
var (
	// ErrProjectNotFound is returned when a project reference matches nothing
	ErrProjectNotFound = errors.New("project not found")

	// ErrAmbiguousProject is returned when a reference matches several projects
	ErrAmbiguousProject = errors.New("project reference is ambiguous")
)
