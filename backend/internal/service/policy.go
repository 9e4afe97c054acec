package service

import (
	"github.com/itchan-dev/forum/shared/config"
	"github.com/itchan-dev/forum/shared/domain"
)

// Role checks for every moderation transition. Thread state itself lives in
// storage; these only decide who may trigger a transition.

func canAdminister(actor domain.Actor) bool {
	return actor.IsAdministrator()
}

func canModerate(actor domain.Actor) bool {
	return actor.IsModerator()
}

// canPost gates AddThread and AddReply before any thread or forum state is
// looked at.
func canPost(actor domain.Actor, cfg *config.Public) bool {
	return !actor.IsAnonymous() || cfg.AllowAnonymous
}

// canStartThread additionally reserves announcement forums for moderators.
func canStartThread(actor domain.Actor, forum domain.Forum, cfg *config.Public) bool {
	if !canPost(actor, cfg) {
		return false
	}
	return !forum.IsAnnouncement || canModerate(actor)
}

// canEditPost: the author while the thread is open, or any moderator.
// Anonymous posts share one actor id, so anonymous actors never edit.
func canEditPost(actor domain.Actor, author domain.ActorId, threadClosed bool) bool {
	if actor.IsAnonymous() {
		return false
	}
	if canModerate(actor) {
		return true
	}
	return actor.Id == author && !threadClosed
}

func canDeletePost(actor domain.Actor, author domain.ActorId) bool {
	if actor.IsAnonymous() {
		return false
	}
	return canModerate(actor) || actor.Id == author
}
