package repository

import "errors"

// ErrLoad wraps every source-level failure surfaced by Load.
var ErrLoad = errors.New("load medal records")
