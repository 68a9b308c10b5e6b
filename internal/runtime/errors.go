package runtime

import "errors"

var (
	ErrRuntime = errors.New("runtime error")
	ErrPull    = errors.New("image pull failed")
)
