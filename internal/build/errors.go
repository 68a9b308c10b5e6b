package build

import "errors"

var (
	ErrBuild               = errors.New("build failed")
	ErrMissingDirectory    = errors.New("required project directory not found")
	ErrToolchain           = errors.New("toolchain command failed")
	ErrArtifactMissing     = errors.New("uf2 not found")
	ErrCMakeArgs           = errors.New("unsupported cmake-args")
	ErrFileSystemOperation = errors.New("file system operation failed")
)
