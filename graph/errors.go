package graph

import "errors"

var (
	ErrVertexNotFound   = errors.New("vertex not found")
	ErrEdgeNotFound     = errors.New("edge not found")
	ErrDuplicateID      = errors.New("element id already in use")
	ErrInvalidID        = errors.New("invalid element id")
	ErrInvalidProperty  = errors.New("invalid property")
	ErrNoTransaction    = errors.New("no active transaction and auto-start is disabled")
	ErrTxDone           = errors.New("transaction already finished")
	ErrRollbackOnly     = errors.New("transaction marked rollback-only")
	ErrGraphClosed      = errors.New("graph handle is closed")
	ErrNoSuchElement    = errors.New("traversal has no more elements")
	ErrInvalidTraversal = errors.New("invalid traversal step")
)
