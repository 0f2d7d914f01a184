package core

import (
	"errors"
	"fmt"
)

// ErrMissingGUID marks an input record without the required identifier.
var ErrMissingGUID = errors.New("missing GUID")

// ErrStoreNotEmpty is returned by the load path when the target store
// already holds loaded nodes and clearing was not requested. Loading uses
// unconditional CREATE, so proceeding would duplicate nodes.
var ErrStoreNotEmpty = errors.New("store already contains loaded nodes, re-run with --clear")

// MissingEndpointError marks an import payload edge that lacks one or both
// endpoint GUIDs. This is a payload-integrity failure and aborts the import
// before any write, unlike the loader's tolerant skip of endpoints absent
// from the store.
type MissingEndpointError struct {
	EdgeGUID string
}

func (e *MissingEndpointError) Error() string {
	return fmt.Sprintf("edge %s missing endpoint GUIDs", e.EdgeGUID)
}

// BatchError wraps a store failure for one batch, identifying the stage and
// batch number. Batches already committed stay committed; the remaining
// batches of the run are not submitted.
type BatchError struct {
	Stage string
	Batch int
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("%s batch %d failed: %v", e.Stage, e.Batch, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}
