package domain

// to iterate thru layers: handler -> service -> storage
type ForumCreationData struct {
	CategoryId     CategoryId
	Name           ForumName
	Description    string
	IsAnnouncement bool
	Added          Signature
}

type ForumEditData struct {
	Name           ForumName
	Description    string
	IsAnnouncement bool
	Edited         Signature
}

type Forum struct {
	Id             ForumId
	CategoryId     CategoryId
	Name           ForumName
	Description    string
	IsAnnouncement bool
	SortKey        SortKey
	ThreadCount    int
	ReplyCount     int
	LastPost       *Signature // nil when the forum has no threads
	Added          Signature
	Edited         *Signature
}

type ForumWithThreads struct {
	Forum
	Threads []Thread
	Page    PageInfo
}
