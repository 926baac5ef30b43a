package render

import "errors"

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrBusy            = errors.New("a load or export is already in progress")
	ErrWrongState      = errors.New("not allowed in the current state")
)
