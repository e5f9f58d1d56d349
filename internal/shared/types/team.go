package types

import "time"

// Team is the REST representation of a project team.
type Team struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	Domain            string    `json:"domain,omitempty"`
	Skills            []string  `json:"skills,omitempty"`
	MaxMembers        int       `json:"max_members,omitempty"`
	MemberCount       int       `json:"member_count"`
	CreatorID         string    `json:"creator_id"`
	CreatorName       string    `json:"creator_name,omitempty"`
	LookingForMembers bool      `json:"looking_for_members"`
	CreatedAt         time.Time `json:"created_at"`
}

// InvitationStatus is the lifecycle state of a team invitation.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "PENDING"
	InvitationAccepted InvitationStatus = "ACCEPTED"
	InvitationDeclined InvitationStatus = "DECLINED"
)

// Invitation is the REST representation of a team invitation.
type Invitation struct {
	ID          string           `json:"id"`
	TeamID      string           `json:"team_id"`
	TeamName    string           `json:"team_name,omitempty"`
	InviterID   string           `json:"inviter_id"`
	InviterName string           `json:"inviter_name,omitempty"`
	InviteeID   string           `json:"invitee_id"`
	Message     string           `json:"message,omitempty"`
	Status      InvitationStatus `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
}
