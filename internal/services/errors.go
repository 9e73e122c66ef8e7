package services

import "errors"

var (
	ErrForbidden      = errors.New("forbidden")
	ErrInvalidInput   = errors.New("invalid input")
	ErrDoctorNotFound = errors.New("doctor not found")
)
