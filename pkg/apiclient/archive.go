package apiclient

// ArchiveResponse represents the result of an archive run.
type ArchiveResponse struct {
	Uploaded []int `json:"uploaded"`
	Skipped  int   `json:"skipped"`
}

// Archive triggers a synchronous archive run on the server and returns
// what it uploaded. Use WithTimeout first: the run can take minutes on
// large stores.
func (c *Client) Archive() (*ArchiveResponse, error) {
	var resp ArchiveResponse
	if err := c.post("/v1/archive", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
