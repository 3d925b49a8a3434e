package types

import "github.com/m-mizutani/goerr/v2"

// Error tags classify failures so callers can decide whether a run can go on.
var (
	// ErrTagTransport marks network failures and non-2xx responses
	ErrTagTransport = goerr.NewTag("transport")

	// ErrTagProtocol marks response bodies that do not have the expected shape
	ErrTagProtocol = goerr.NewTag("protocol")

	// ErrTagFileSystem marks local write failures
	ErrTagFileSystem = goerr.NewTag("filesystem")

	// ErrTagConfig marks invalid configuration
	ErrTagConfig = goerr.NewTag("config")
)
