package core

import (
	"errors"
)

var (
	ErrNoParserFound  = errors.New("no parser found for asset")
	ErrInvalidRequest = errors.New("invalid asset request")
	ErrTransformLoop  = errors.New("transform chain did not settle")
	ErrOffline        = errors.New("cannot load asset while offline")
)
