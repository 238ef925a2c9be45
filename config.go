package emberdb

import "go.uber.org/zap"

// Config defines the configuration for the connection.
type Config struct {
	// Endpoint is the URL of the EmberDB server.
	Endpoint string `json:"endpoint"`
	// User and Password authenticate the session. Both may be empty when the
	// server allows anonymous sessions.
	User     string `json:"user"`
	Password string `json:"-"`
	// Database is the database to bind the session to.
	Database string `json:"database"`

	// Logger receives SDK diagnostics. Defaults to a no-op logger.
	Logger *zap.Logger

	// SharedMemoryAttacher overrides how CPU shared-memory result segments
	// are attached. Defaults to the platform's SysV shared memory calls.
	SharedMemoryAttacher SegmentAttacher
	// GPUMemoryAttacher attaches GPU result segments. There is no default;
	// fetching with the GPU transport fails with an unsupported transport
	// error until one is supplied.
	GPUMemoryAttacher SegmentAttacher
}
