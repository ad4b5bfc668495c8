package dto

// SendMessageRequest is the body of POST /communication/send. Mode selects which target
// field is read.
type SendMessageRequest struct {
	Subject       string `json:"subject" validate:"required"`
	Body          string `json:"body" validate:"required"`
	Mode          string `json:"mode" validate:"required,oneof=role class user"`
	TargetRole    string `json:"targetRole"`
	TargetClassID string `json:"targetClassId"`
	TargetUserID  string `json:"targetUserId"`
}
