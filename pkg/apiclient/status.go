package apiclient

import "time"

// StatusResponse represents the store statistics returned by the API.
type StatusResponse struct {
	StoreID     string    `json:"store_id"`
	CreatedAt   time.Time `json:"created_at"`
	Records     int       `json:"records"`
	Blobs       int       `json:"blobs"`
	SealedBlobs int       `json:"sealed_blobs"`
	TotalBytes  uint64    `json:"total_bytes"`
	MaxBlobSize uint64    `json:"max_blob_size"`
	MaxBlobs    int       `json:"max_blobs"`
	Uptime      string    `json:"uptime"`
	UptimeSec   int64     `json:"uptime_sec"`
}

// Status returns the store statistics.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.get("/v1/status", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
