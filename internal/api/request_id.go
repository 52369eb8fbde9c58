package api

import "encoding/json"

// peekRequestID extracts request_id from a raw body on a best-effort basis
// so error responses can echo it even when the pipeline rejects the payload.
func peekRequestID(raw []byte) string {
	var probe struct {
		RequestID string `json:"request_id"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return ""
	}
	return probe.RequestID
}
