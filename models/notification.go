package models

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationInvitationReceived  NotificationType = "invitation_received"
	NotificationInvitationAccepted  NotificationType = "invitation_accepted"
	NotificationInvitationRejected  NotificationType = "invitation_rejected"
	NotificationInvitationCancelled NotificationType = "invitation_cancelled"
	NotificationJoinRequestReceived NotificationType = "join_request_received"
	NotificationJoinRequestApproved NotificationType = "join_request_approved"
	NotificationJoinRequestRejected NotificationType = "join_request_rejected"
	NotificationMemberRemoved       NotificationType = "member_removed"
	NotificationTeamDisbanded       NotificationType = "team_disbanded"
)

// Notification is pushed to a single user's realtime channel.
type Notification struct {
	Type      NotificationType `json:"type"`
	TeamID    uuid.UUID        `json:"team_id"`
	TeamName  string           `json:"team_name,omitempty"`
	Message   string           `json:"message"`
	Payload   any              `json:"payload,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}
