package domain

import "errors"

var (
	ErrJobNotFound = errors.New("job: not found")
	ErrKeyNotFound = errors.New("file: key not found")
)
