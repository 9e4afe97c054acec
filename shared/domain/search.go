package domain

type SearchHitKind string

const (
	HitThread SearchHitKind = "thread"
	HitReply  SearchHitKind = "reply"
)

// SearchHit is either a matching thread or a matching reply. ThreadId
// always points at the thread to open; ReplyId is set for reply hits.
type SearchHit struct {
	Kind        SearchHitKind
	ThreadId    ThreadId
	ThreadTitle ThreadTitle
	ReplyId     ReplyId
	Text        PostText
	Posted      Signature
}
