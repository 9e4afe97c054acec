package domain

import (
	"time"
)

// to iterate thru layers: handler -> service -> storage
type ThreadCreationData struct {
	ForumId ForumId
	Title   ThreadTitle
	Text    PostText
	Posted  Signature
	// Rows by the same actor with the same text in the same forum posted
	// after this moment make the insert a double post. Zero disables the check.
	DuplicateSince time.Time
}

type PostEditData struct {
	Title  ThreadTitle // ignored for replies
	Text   PostText
	Edited Signature
	// RequireOpen makes storage reject the edit if the thread is closed
	// when the row is written.
	RequireOpen bool
}

type Thread struct {
	Id         ThreadId
	ForumId    ForumId
	Title      ThreadTitle
	Text       PostText
	IsSticky   bool
	ClosedAt   *time.Time
	ClosedBy   *ActorId
	ReplyCount int
	ViewCount  int
	Posted     Signature
	Edited     *Signature
	LastPost   Signature
}

func (t *Thread) IsClosed() bool {
	return t.ClosedAt != nil
}

type ThreadWithReplies struct {
	Thread
	Replies []Reply
	Page    PageInfo
}

// ThreadSortColumn is the secondary sort applied after sticky-first.
type ThreadSortColumn string

const (
	SortByLastPost ThreadSortColumn = "last"
	SortByReplies  ThreadSortColumn = "replies"
	SortByViews    ThreadSortColumn = "views"
	SortByTitle    ThreadSortColumn = "title"
)

type ThreadSort struct {
	Column ThreadSortColumn
	Desc   bool
}

// DefaultThreadSort lists the most recently active threads first.
var DefaultThreadSort = ThreadSort{Column: SortByLastPost, Desc: true}

// ParseThreadSortColumn falls back to SortByLastPost for anything unknown.
func ParseThreadSortColumn(s string) ThreadSortColumn {
	switch ThreadSortColumn(s) {
	case SortByReplies, SortByViews, SortByTitle:
		return ThreadSortColumn(s)
	default:
		return SortByLastPost
	}
}
