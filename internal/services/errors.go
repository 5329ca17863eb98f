package services

import "errors"

// Scoring service errors
var (
	ErrNoInputs       = errors.New("no input files given")
	ErrNotInitialized = errors.New("service not initialized")
)
