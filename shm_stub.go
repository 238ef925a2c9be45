//go:build !linux && !darwin

package emberdb

// SysV shared memory is unavailable on this platform; fetching with the
// shared segment transport requires an attacher supplied through Config.
func defaultSharedMemoryAttacher() SegmentAttacher {
	return nil
}
