package domain

import "time"

// to iterate thru layers: handler -> service -> storage
type ReplyCreationData struct {
	ThreadId       ThreadId
	Text           PostText
	Posted         Signature
	DuplicateSince time.Time
}

type Reply struct {
	Id       ReplyId
	ThreadId ThreadId
	Text     PostText
	Posted   Signature
	Edited   *Signature
}
