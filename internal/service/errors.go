// Package service implements ticket allocation, fulfillment and check-in on
// top of the remote ticket sheet.  Failures leaving this package carry one
// of the kinds below; test for them with errors.Is.
package service

import "github.com/cockroachdb/errors"

var (
	// ErrFormat means the caller's input is malformed.  Not retryable until
	// the input is fixed.
	ErrFormat = errors.New("malformed input")

	// ErrInsufficientCapacity means there are fewer empty slots than rows to
	// import.  Nothing was written.
	ErrInsufficientCapacity = errors.New("insufficient ticket capacity")

	// ErrRender means a ticket image could not be produced.  The batch was
	// aborted before any write and can be resubmitted as is.
	ErrRender = errors.New("ticket render failed")

	// ErrUpload means a ticket image could not be uploaded.  The batch was
	// aborted before any write and can be resubmitted as is.
	ErrUpload = errors.New("ticket upload failed")

	// ErrWrite means the batch write to the sheet failed or timed out after
	// all artifacts were ready.  The final state of the sheet is unknown and
	// an operator must inspect it before resubmitting.
	ErrWrite = errors.New("ticket sheet write failed")

	// ErrNotFound means no ticket carries the requested code.
	ErrNotFound = errors.New("ticket not found")

	// ErrDispatch marks a single notification job that failed after its
	// retry budget.  It is reported in the run counts, never returned.
	ErrDispatch = errors.New("ticket mail dispatch failed")

	// ErrDispatchInProgress means another notification run is active in
	// this process.
	ErrDispatchInProgress = errors.New("notification run already in progress")
)
