package domain

import "errors"

var (
	ErrUnknownKey      = errors.New("unknown value key")
	ErrInvalidBinding  = errors.New("invalid measurement binding")
	ErrNotFound        = errors.New("not found")
	ErrSupplierRead    = errors.New("measurement supplier read failed")
	ErrRecording       = errors.New("recording failed")
	ErrUnknownMode     = errors.New("unknown mode")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidConfig   = errors.New("invalid configuration")
	ErrNoReading       = errors.New("no reading available yet")
)
