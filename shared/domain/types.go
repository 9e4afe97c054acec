package domain

type (
	ActorId = int64

	CategoryId   = int64
	CategoryName = string

	ForumId   = int64
	ForumName = string

	ThreadId    = int64
	ThreadTitle = string

	ReplyId = int64

	PostText = string
	SortKey  = int
)
