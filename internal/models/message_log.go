package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message kinds
const (
	MessageKindRegistration = "REGISTRATION"
	MessageKindCommand      = "COMMAND"
	MessageKindLesson       = "LESSON"
	MessageKindReport       = "REPORT"
	MessageKindAward        = "AWARD"
	MessageKindBroadcast    = "BROADCAST"
)

// Message statuses
const (
	MessageStatusSent   = "SENT"
	MessageStatusFailed = "FAILED"
)

// MessageLog is an audit record of one outbound WhatsApp message.
type MessageLog struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	PhoneNumber string             `bson:"phoneNumber" json:"phoneNumber"`
	Body        string             `bson:"body" json:"body"`
	Kind        string             `bson:"kind" json:"kind"`
	Status      string             `bson:"status" json:"status"`
	MessageID   string             `bson:"messageId,omitempty" json:"messageId,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}
