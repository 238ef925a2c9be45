package emberdb

// Segment is a locally attached view of a server-exported memory segment.
// Its lifetime is strictly scoped to one decode: the resolver detaches it on
// every exit path.
type Segment interface {
	// Bytes returns the segment contents, sized exactly to the descriptor's
	// declared byte size.
	Bytes() []byte
	// Detach releases the local attachment. The segment bytes must not be
	// used afterwards.
	Detach() error
}

// SegmentAttacher attaches memory segments exported by the server. The CPU
// implementation uses SysV shared memory; a GPU implementation must be
// supplied through Config by callers that fetch into GPU memory.
type SegmentAttacher interface {
	Attach(key int64, size int64) (Segment, error)
}
