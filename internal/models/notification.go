package models

// Notification is a workflow event addressed to one user. The notification worker turns
// it into a Message of kind notification.
type Notification struct {
	RecipientID string `json:"recipientId"`
	Subject     string `json:"subject"`
	Body        string `json:"body"`
	Resource    string `json:"resource"`
	ResourceID  string `json:"resourceId"`
}
