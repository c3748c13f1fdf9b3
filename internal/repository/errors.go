// Package repository holds the adapters over the remote ticket sheet and the
// remote file store, plus the snapshot cache that mediates reads of the
// sheet.  The sentinel values below let higher layers tell malformed
// requests from infrastructure failures.
package repository

import "github.com/cockroachdb/errors"

// ErrInvalidRange is returned when an A1 range cannot be parsed or points
// outside the sheet.
var ErrInvalidRange = errors.New("invalid range")

// ErrNoSnapshot is returned by the record cache when the remote fetch
// failed and there is no earlier snapshot to fall back to.
var ErrNoSnapshot = errors.New("no snapshot available")
