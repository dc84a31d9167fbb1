package daemon

import "errors"

// ErrAlreadyRunning is returned by Acquire when another process holds the
// lock for the same state file.
var ErrAlreadyRunning = errors.New("another docwatch process is using this state file")
