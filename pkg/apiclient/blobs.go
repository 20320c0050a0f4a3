package apiclient

// BlobStatus represents one blob's allocation state as returned by the API.
type BlobStatus struct {
	ID          int    `json:"id"`
	Locked      bool   `json:"locked"`
	WriteOffset uint64 `json:"write_offset"`
	Sealed      bool   `json:"sealed"`
	Archived    bool   `json:"archived"`
}

// BlobsResponse represents the blob listing returned by the API.
type BlobsResponse struct {
	Blobs []BlobStatus `json:"blobs"`
	Count int          `json:"count"`
}

// Blobs returns the per-blob allocation state.
func (c *Client) Blobs() (*BlobsResponse, error) {
	var resp BlobsResponse
	if err := c.get("/v1/blobs", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
