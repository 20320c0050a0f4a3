package telemetry

import (
	"fmt"
	"runtime"

	"github.com/grafana/pyroscope-go"
)

// ProfilingConfig describes a Pyroscope connection for continuous profiling.
type ProfilingConfig struct {
	// Enabled turns continuous profiling on.
	Enabled bool

	// ServiceName labels the uploaded profiles; ServiceVersion rides
	// along as a tag.
	ServiceName    string
	ServiceVersion string

	// Endpoint is the Pyroscope server base URL, e.g. http://localhost:4040.
	Endpoint string

	// ProfileTypes selects what to collect. The keys of profileTypes
	// list the accepted names.
	ProfileTypes []string
}

// Accepted profile type names and their Pyroscope equivalents.
var profileTypes = map[string]pyroscope.ProfileType{
	"cpu":            pyroscope.ProfileCPU,
	"alloc_objects":  pyroscope.ProfileAllocObjects,
	"alloc_space":    pyroscope.ProfileAllocSpace,
	"inuse_objects":  pyroscope.ProfileInuseObjects,
	"inuse_space":    pyroscope.ProfileInuseSpace,
	"goroutines":     pyroscope.ProfileGoroutines,
	"mutex_count":    pyroscope.ProfileMutexCount,
	"mutex_duration": pyroscope.ProfileMutexDuration,
	"block_count":    pyroscope.ProfileBlockCount,
	"block_duration": pyroscope.ProfileBlockDuration,
}

var profilingEnabled bool

// InitProfiling connects to Pyroscope and begins uploading the configured
// profiles. The returned function stops the profiler and flushes whatever
// it has buffered; with Enabled false nothing starts and the returned
// function does nothing.
func InitProfiling(cfg ProfilingConfig) (func() error, error) {
	if !cfg.Enabled {
		profilingEnabled = false
		return func() error { return nil }, nil
	}

	types := make([]pyroscope.ProfileType, 0, len(cfg.ProfileTypes))
	var wantMutex, wantBlock bool
	for _, name := range cfg.ProfileTypes {
		pt, ok := profileTypes[name]
		if !ok {
			return nil, fmt.Errorf("unknown profile type %q", name)
		}
		types = append(types, pt)
		switch pt {
		case pyroscope.ProfileMutexCount, pyroscope.ProfileMutexDuration:
			wantMutex = true
		case pyroscope.ProfileBlockCount, pyroscope.ProfileBlockDuration:
			wantBlock = true
		}
	}

	// The mutex and block profiles sample nothing until their runtime
	// collection rates are raised from the zero default. Do that only
	// once every requested name has validated.
	if wantMutex {
		runtime.SetMutexProfileFraction(5)
	}
	if wantBlock {
		runtime.SetBlockProfileRate(5)
	}

	p, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: cfg.ServiceName,
		ServerAddress:   cfg.Endpoint,
		Tags:            map[string]string{"version": cfg.ServiceVersion},
		ProfileTypes:    types,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start profiler: %w", err)
	}

	profilingEnabled = true
	return p.Stop, nil
}

// IsProfilingEnabled reports whether InitProfiling brought a profiler up.
func IsProfilingEnabled() bool {
	return profilingEnabled
}
