package replication

import "errors"

// Error taxonomy kind 5 (design §7): replication connect/read/protocol
// failures. None of these are surfaced to clients; they are logged and
// drive the puller's retry/backoff bookkeeping.
var (
	ErrConnectFailed  = errors.New("replication: connect to master failed")
	ErrPullInProgress = errors.New("replication: pull already in progress")
	ErrBadResponse    = errors.New("replication: malformed response from master")
)
