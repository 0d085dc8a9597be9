package domain

import "errors"

// Exported error variables allow callers to use errors.Is() for error checking.
var (
	ErrNotFound            = errors.New("not found")
	ErrMalformedData       = errors.New("malformed interpreter table")
	ErrUnrecognizedProduct = errors.New("unrecognized IDE product")
	ErrProcessRunning      = errors.New("IDE process is running")
	ErrPartialSwap         = errors.New("configuration swap was interrupted")
	ErrInconsistentPair    = errors.New("both .test and .prod configurations exist")

	ErrConfigDirEmpty        = errors.New("config directory cannot be empty")
	ErrConfigDirDot          = errors.New("config directory name cannot be '.' or '..'")
	ErrConfigDirNullByte     = errors.New("config directory contains null byte")
	ErrConfigDirNonPrintable = errors.New("config directory contains non-printable characters")
	ErrConfigDirParked       = errors.New("config directory is a parked .test/.prod copy")
	ErrConfigDirNotDir       = errors.New("config directory is not a directory")
	ErrConfigDirSymlink      = errors.New("config directory is a symlink")
)
