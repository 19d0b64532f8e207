package handlers

import "errors"

var (
	errNoColumns = errors.New("columns must not be empty")
	errNoIssues  = errors.New("issues must not be empty")
	errBadMode   = errors.New("mode must be one of preview, export, commit")
)
