package config

import "errors"

var (
	ErrFileDoesNotExist  = errors.New("config: file does not exist")
	ErrReadConfigFail    = errors.New("config: cannot read file")
	ErrConfigParsingFail = errors.New("config: cannot parse file")
	ErrInvalidConfig     = errors.New("config: invalid value")
)
