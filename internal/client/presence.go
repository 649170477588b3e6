package client

// PresenceSet tracks the users currently in the lobby, in arrival order. It is
// built purely from arrival/departure frames; the server guarantees no initial
// snapshot, so the set converges rather than starting authoritative.
type PresenceSet struct {
	users []string
}

// Apply folds one presence change into the set. Arrivals of present users and
// departures of absent users are tolerated no-ops.
func (p *PresenceSet) Apply(action PresenceAction, user string) {
	switch action {
	case PresenceArrived:
		if !p.Contains(user) {
			p.users = append(p.users, user)
		}
	case PresenceDeparted:
		for i, u := range p.users {
			if u == user {
				p.users = append(p.users[:i], p.users[i+1:]...)
				return
			}
		}
	}
}

// Contains reports whether user is currently present.
func (p *PresenceSet) Contains(user string) bool {
	for _, u := range p.users {
		if u == user {
			return true
		}
	}
	return false
}

// Len returns the number of present users.
func (p *PresenceSet) Len() int { return len(p.users) }

// Users returns a snapshot copy in arrival order.
func (p *PresenceSet) Users() []string {
	out := make([]string, len(p.users))
	copy(out, p.users)
	return out
}
