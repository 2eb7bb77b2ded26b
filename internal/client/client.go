package client

import "context"

type MemberStatus string

const (
	MemberStatusCreator       MemberStatus = "creator"
	MemberStatusAdministrator MemberStatus = "administrator"
	MemberStatusMember        MemberStatus = "member"
	MemberStatusRestricted    MemberStatus = "restricted"
	MemberStatusLeft          MemberStatus = "left"
	MemberStatusKicked        MemberStatus = "kicked"
)

// Joined reports whether the status counts as group membership for
// eligibility purposes.
func (s MemberStatus) Joined() bool {
	switch s {
	case MemberStatusCreator, MemberStatusAdministrator, MemberStatusMember:
		return true
	default:
		return false
	}
}

// ChatClient is the messaging collaborator the engine verifies memberships
// and delivers notifications through. Implementations must bound every call
// with a timeout.
type ChatClient interface {
	GetMemberStatus(ctx context.Context, chatID, userID int64) (MemberStatus, error)
	GetChatTitle(ctx context.Context, chatID int64) (string, error)
	SendMessage(ctx context.Context, chatID int64, text string) error
}
