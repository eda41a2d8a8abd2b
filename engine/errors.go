package engine

import "errors"

// Resource creation failures, classified with errors.Is.
var (
	// ErrWindowCreation means the window or its graphics context could not be created.
	ErrWindowCreation = errors.New("window creation failed")

	// ErrProgramCreation means the shader program could not be compiled or linked.
	ErrProgramCreation = errors.New("shader program creation failed")

	// ErrResourceCreation means a backend or GPU buffer could not be created.
	ErrResourceCreation = errors.New("resource creation failed")
)
