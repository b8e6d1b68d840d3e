package operator

import "errors"

var (
	ErrNoActiveBackend   = errors.New("no active backend on network")
	ErrDanglingAccount   = errors.New("account refers to a deleted root key")
	ErrBackendNotPinger  = errors.New("backend doesn't support health checks")
	ErrInvalidWordsCount = errors.New("words count must be one of 12, 15, 18, 21, 24")
)
