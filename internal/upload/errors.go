package upload

import (
	"fmt"
	"strings"
)

// PresignError means the broker issued no slot for a file.
type PresignError struct {
	Filename string
	Err      error
}

func (e *PresignError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("presign %s: no upload slot returned", e.Filename)
	}
	return fmt.Sprintf("presign %s: %v", e.Filename, e.Err)
}

func (e *PresignError) Unwrap() error { return e.Err }

// TransferError means the PUT to the presigned URL failed.
type TransferError struct {
	Filename   string
	StatusCode int
	Err        error
}

func (e *TransferError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upload %s: %v", e.Filename, e.Err)
	}
	return fmt.Sprintf("upload %s: failed to upload image: %d", e.Filename, e.StatusCode)
}

func (e *TransferError) Unwrap() error { return e.Err }

// PublishError means the uploaded object could not be made public.
// The object stays in storage unpublished.
type PublishError struct {
	Key    string
	Reason string
	Err    error
}

func (e *PublishError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("publish %s: %v", e.Key, e.Err)
	}
	return fmt.Sprintf("publish %s: %s", e.Key, e.Reason)
}

func (e *PublishError) Unwrap() error { return e.Err }

// BatchError aggregates the failures of a batch upload. Index i of Errs
// matches input i; successful files have a nil entry.
type BatchError struct {
	Errs []error
}

// Failed returns the number of failed files.
func (e *BatchError) Failed() int {
	n := 0
	for _, err := range e.Errs {
		if err != nil {
			n++
		}
	}
	return n
}

func (e *BatchError) Error() string {
	var msgs []string
	for _, err := range e.Errs {
		if err != nil {
			msgs = append(msgs, err.Error())
		}
	}
	return fmt.Sprintf("%d of %d uploads failed: %s", len(msgs), len(e.Errs), strings.Join(msgs, "; "))
}

func (e *BatchError) Unwrap() []error {
	var out []error
	for _, err := range e.Errs {
		if err != nil {
			out = append(out, err)
		}
	}
	return out
}
