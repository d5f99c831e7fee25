package scan

import "errors"

var (
	errScanInProgress = errors.New("a scan is already in progress")
	errNotADirectory  = errors.New("path is not a directory")
)
