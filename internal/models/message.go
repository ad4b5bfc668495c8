package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MessageTargetType selects how a message is addressed.
type MessageTargetType string

const (
	MessageTargetUser  MessageTargetType = "user"
	MessageTargetRole  MessageTargetType = "role"
	MessageTargetClass MessageTargetType = "class"
)

// MessageKind separates person-to-person mail from workflow notifications.
type MessageKind string

const (
	MessageKindDirect       MessageKind = "direct"
	MessageKindNotification MessageKind = "notification"
)

// Message is stored as a document in the messages collection.
type Message struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Kind        MessageKind        `bson:"kind" json:"kind"`
	SenderID    string             `bson:"senderId" json:"senderId"`
	SenderName  string             `bson:"senderName,omitempty" json:"from,omitempty"`
	SenderRole  Role               `bson:"senderRole" json:"role"`
	TargetType  MessageTargetType  `bson:"targetType" json:"targetType"`
	TargetUser  string             `bson:"targetUser,omitempty" json:"targetUser,omitempty"`
	TargetRole  Role               `bson:"targetRole,omitempty" json:"targetRole,omitempty"`
	TargetClass string             `bson:"targetClass,omitempty" json:"targetClass,omitempty"`
	Subject     string             `bson:"subject" json:"subject"`
	Body        string             `bson:"body" json:"body"`
	ReadBy      []string           `bson:"readBy" json:"-"`
	Resource    string             `bson:"resource,omitempty" json:"resource,omitempty"`
	ResourceID  string             `bson:"resourceId,omitempty" json:"resourceId,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}

// MessageView is the inbox/sent representation with a preview and read flag.
type MessageView struct {
	Message
	Preview string `json:"preview"`
	Read    bool   `json:"read"`
}

// InboxScope is everything that makes a message visible to a reader.
type InboxScope struct {
	UserID   string
	Role     Role
	ClassIDs []string
}

// NewMessageView builds the listing view for reader.
func NewMessageView(m Message, readerID string) MessageView {
	preview := m.Body
	if runes := []rune(preview); len(runes) > 100 {
		preview = string(runes[:100]) + "..."
	}
	read := false
	for _, id := range m.ReadBy {
		if id == readerID {
			read = true
			break
		}
	}
	return MessageView{Message: m, Preview: preview, Read: read}
}
