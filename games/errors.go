/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package games

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrForbidden    = errors.New("only the host can do that")
	ErrNoCandidates = errors.New("no games to choose from")
)
