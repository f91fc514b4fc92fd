package chat

import "context"

// MembershipGate answers whether a user belongs to a tour. The session
// protocol consults it once per join handshake; membership is not re-checked
// per message. The tour store satisfies this interface.
type MembershipGate interface {
	IsMember(ctx context.Context, tourID, userID string) (bool, error)
}
