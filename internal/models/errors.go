package models

import "errors"

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrConflict            = errors.New("ticket id already exists")
	ErrNotFound            = errors.New("not found")
	ErrStoreUnavailable    = errors.New("ticket store unavailable")
	ErrNotificationFailure = errors.New("notification delivery failed")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidSignature    = errors.New("invalid signature")
)
