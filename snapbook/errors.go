package snapbook

import "errors"

// ErrNotFound is returned when a book, snapshot, or schedule is absent.
var ErrNotFound = errors.New("snapbook: not found")

// ErrProtected is returned when deleting a snapshot whose protection flag is set.
var ErrProtected = errors.New("snapbook: snapshot is protected")

// ErrInvalidInput is returned when a request fails validation.
var ErrInvalidInput = errors.New("snapbook: invalid input")
