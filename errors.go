package diorama

import "errors"

var (
	// ErrInvalidContainer is returned by New when the container is nil.
	ErrInvalidContainer = errors.New("diorama: invalid container")

	// ErrNilLayer is returned when a nil layer is added.
	ErrNilLayer = errors.New("diorama: nil layer")

	// ErrDuplicateLayer is returned when a layer is added twice.
	ErrDuplicateLayer = errors.New("diorama: layer already added")

	// ErrLayerLoad wraps every layer load failure.
	ErrLayerLoad = errors.New("diorama: layer load failed")
)
