package nn

import "errors"

var (
	// ErrInvalidArgument reports a call whose arguments do not fit the graph,
	// such as an input vector whose length differs from the layer size.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrDuplicateTopology reports a projection between two layers that are
	// already fully connected.
	ErrDuplicateTopology = errors.New("layers already connected")
	// ErrUnsupported reports an operation this engine deliberately does not
	// implement.
	ErrUnsupported = errors.New("unsupported operation")
	// ErrInvalidState reports a graph-mutating call on an optimized network.
	ErrInvalidState = errors.New("invalid network state")
)
