package domain

import "errors"

// ErrBlankName is returned when a command node is created with a blank name.
var ErrBlankName = errors.New("command name must not be blank")

// ErrUnknownCaller is returned when a transport cannot resolve the caller of a request.
var ErrUnknownCaller = errors.New("unknown caller")

// ErrRateLimited is returned when a caller exceeds its dispatch budget.
var ErrRateLimited = errors.New("rate limited")

// ErrUnknownCommand is returned when no root command answers to a label.
var ErrUnknownCommand = errors.New("unknown command")

// ErrDuplicateCommand is returned when a root command name or alias is already taken.
var ErrDuplicateCommand = errors.New("command already registered")
