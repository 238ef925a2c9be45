//go:build linux || darwin

package emberdb

import (
	"golang.org/x/sys/unix"
)

// sysvAttacher attaches SysV shared memory segments exported by a server on
// the same machine. The segment key is the identifier the server reports in
// the result descriptor.
type sysvAttacher struct{}

var _ SegmentAttacher = sysvAttacher{}

func (sysvAttacher) Attach(key int64, size int64) (Segment, error) {
	id, err := unix.SysvShmGet(int(key), int(size), 0)
	if err != nil {
		return nil, wrapError(KindTransportFailure, err, "shmget")
	}
	data, err := unix.SysvShmAttach(id, 0, unix.SHM_RDONLY)
	if err != nil {
		return nil, wrapError(KindTransportFailure, err, "shmat")
	}
	if int64(len(data)) > size {
		data = data[:size]
	}
	return &sysvSegment{data: data}, nil
}

type sysvSegment struct {
	data []byte
}

func (s *sysvSegment) Bytes() []byte {
	return s.data
}

func (s *sysvSegment) Detach() error {
	return unix.SysvShmDetach(s.data)
}

func defaultSharedMemoryAttacher() SegmentAttacher {
	return sysvAttacher{}
}
