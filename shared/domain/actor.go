package domain

import "time"

// Capabilities are the role checks supplied by the identity provider.
// Administrator implies Moderator, Moderator implies Authenticated.
type Capabilities struct {
	Authenticated bool
	Moderator     bool
	Administrator bool
}

// Actor is the identity performing an operation. It is always passed
// explicitly; nothing in the core reads identity from ambient state.
type Actor struct {
	Id   ActorId
	Name string
	IP   string
	Caps Capabilities
}

func (a Actor) IsAnonymous() bool {
	return !a.IsAuthenticated()
}

func (a Actor) IsAuthenticated() bool {
	return a.Caps.Authenticated || a.Caps.Moderator || a.Caps.Administrator
}

func (a Actor) IsModerator() bool {
	return a.Caps.Moderator || a.Caps.Administrator
}

func (a Actor) IsAdministrator() bool {
	return a.Caps.Administrator
}

// Signature is the (actor, ip, timestamp) triple stored for added, edited,
// posted and last-post metadata.
type Signature struct {
	Actor ActorId
	IP    string
	At    time.Time
}

// Sign stamps the actor at the given moment.
func (a Actor) Sign(at time.Time) Signature {
	return Signature{Actor: a.Id, IP: a.IP, At: at}
}
