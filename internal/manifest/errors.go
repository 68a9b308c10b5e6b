package manifest

import "errors"

var (
	ErrManifest       = errors.New("invalid build manifest")
	ErrEmpty          = errors.New("manifest is empty")
	ErrMissingInclude = errors.New("'include' node is required")
	ErrMissingField   = errors.New("both 'board' and 'shield' are required in 'include' entries")
)
