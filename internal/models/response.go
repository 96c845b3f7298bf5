package models

// DisplayUpdate is one unit of text that replaces the currently shown response
type DisplayUpdate struct {
	Text string
}

// ChatReply is the buffered JSON reply shape: {"reply": "..."}
type ChatReply struct {
	Reply string `json:"reply"`
}

// HealthStatus is the body returned by the health endpoint
type HealthStatus struct {
	Status string `json:"status"`
}

// OK reports whether the backend declared itself healthy
func (h *HealthStatus) OK() bool {
	return h != nil && h.Status == "ok"
}
