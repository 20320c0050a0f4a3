package apiclient

// HealthResponse represents the liveness payload returned by the API.
type HealthResponse struct {
	Service string `json:"service"`
}

// ReadyResponse represents the readiness payload returned by the API.
type ReadyResponse struct {
	Records int `json:"records"`
	Blobs   int `json:"blobs"`
}

// Health returns the server's liveness payload.
func (c *Client) Health() (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.get("/health", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Ready returns the server's readiness payload. A non-nil error with
// IsUnavailable() set means the store is not serving yet.
func (c *Client) Ready() (*ReadyResponse, error) {
	var resp ReadyResponse
	if err := c.get("/health/ready", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
