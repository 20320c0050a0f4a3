package telemetry

// Config holds the OpenTelemetry tracing settings.
type Config struct {
	// Enabled switches span export on. When false, Init installs a no-op
	// provider and the span helpers cost nothing.
	Enabled bool

	// ServiceName and ServiceVersion identify this process in the trace
	// backend.
	ServiceName    string
	ServiceVersion string

	// Endpoint is the OTLP gRPC target, host:port.
	Endpoint string

	// Insecure disables TLS on the exporter connection.
	Insecure bool

	// SampleRate is the fraction of traces to sample, 0.0 to 1.0.
	SampleRate float64
}

// DefaultConfig returns the settings used when the configuration has no
// telemetry section: tracing off, local collector, full sampling.
func DefaultConfig() Config {
	return Config{
		ServiceName:    "blobpool",
		ServiceVersion: "dev",
		Endpoint:       "localhost:4317",
		Insecure:       true,
		SampleRate:     1.0,
	}
}
