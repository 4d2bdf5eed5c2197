package dto

// ImageEvent is the inbound camera message published on the image
// subject.
type ImageEvent struct {
	Camera      string `json:"camera"`
	ImageBase64 string `json:"image_base64"`
}

// ApproveRequest is the body of the approval callback. The gateway may
// send JSON or a form, so both tags are present.
type ApproveRequest struct {
	ID     string `json:"id" form:"id"`
	Action string `json:"action" form:"action"`
}

// ApproveResponse mirrors the original callback contract:
// {"status":"ok"} or {"status":"error","msg":...}.
type ApproveResponse struct {
	Status string `json:"status"`
	Msg    string `json:"msg,omitempty"`
}

// PendingResponse describes one outstanding approval.
type PendingResponse struct {
	ID        string `json:"id"`
	CameraID  string `json:"camera_id"`
	CreatedAt string `json:"created_at"`
	ImageURL  string `json:"image_url,omitempty"`
}

type PendingListResponse struct {
	Pending []PendingResponse `json:"pending"`
	Total   int               `json:"total"`
}

// EventResponse is one access-event audit entry.
type EventResponse struct {
	ID           string `json:"id"`
	CameraID     string `json:"camera_id"`
	Decision     string `json:"decision"`
	IdentityName string `json:"identity_name,omitempty"`
	PendingID    string `json:"pending_id,omitempty"`
	Action       string `json:"action,omitempty"`
	SnapshotURL  string `json:"snapshot_url,omitempty"`
	CreatedAt    string `json:"created_at"`
}

type EventListResponse struct {
	Events []EventResponse `json:"events"`
	Total  int             `json:"total"`
}

// WSEvent is the envelope broadcast to WebSocket clients.
type WSEvent struct {
	Type   string `json:"type"`
	Camera string `json:"camera,omitempty"`
	Data   any    `json:"data,omitempty"`
}
