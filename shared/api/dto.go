package api

import (
	"time"

	"github.com/itchan-dev/forum/shared/domain"
)

// Request DTOs

type CreateCategoryRequest struct {
	Name string `json:"name" validate:"required"`
}

type EditCategoryRequest = CreateCategoryRequest

type CreateForumRequest struct {
	CategoryId     int64  `json:"category_id" validate:"required,gt=0"`
	Name           string `json:"name" validate:"required"`
	Description    string `json:"description"`
	IsAnnouncement bool   `json:"is_announcement"`
}

type EditForumRequest struct {
	Name           string `json:"name" validate:"required"`
	Description    string `json:"description"`
	IsAnnouncement bool   `json:"is_announcement"`
}

type CreateThreadRequest struct {
	Title   string `json:"title" validate:"required"`
	Text    string `json:"text" validate:"required"`
	Captcha string `json:"captcha,omitempty"`
}

type EditThreadRequest struct {
	Title string `json:"title" validate:"required"`
	Text  string `json:"text" validate:"required"`
}

type CreateReplyRequest struct {
	Text    string `json:"text" validate:"required"`
	Captcha string `json:"captcha,omitempty"`
}

type EditReplyRequest struct {
	Text string `json:"text" validate:"required"`
}

type MoveThreadRequest struct {
	ForumId int64 `json:"forum_id" validate:"required,gt=0"`
}

type StickyRequest struct {
	Sticky bool `json:"sticky"`
}

type SortRequest struct {
	Direction string `json:"direction" validate:"required,oneof=up down"`
}

// Response DTOs

type CreatedResponse struct {
	Id int64 `json:"id"`
}

type SignatureResponse struct {
	ActorId int64     `json:"actor_id"`
	At      time.Time `json:"at"`
}

func NewSignature(s domain.Signature) SignatureResponse {
	return SignatureResponse{ActorId: s.Actor, At: s.At}
}

func newSignaturePtr(s *domain.Signature) *SignatureResponse {
	if s == nil {
		return nil
	}
	r := NewSignature(*s)
	return &r
}

type PageResponse struct {
	Page       int `json:"page"`
	TotalPages int `json:"total_pages"`
	Total      int `json:"total"`
}

func NewPage(p domain.PageInfo) PageResponse {
	return PageResponse{Page: p.Page, TotalPages: p.TotalPages(), Total: p.Total}
}

type ForumResponse struct {
	Id             int64              `json:"id"`
	CategoryId     int64              `json:"category_id"`
	Name           string             `json:"name"`
	Description    string             `json:"description"`
	IsAnnouncement bool               `json:"is_announcement"`
	SortKey        int                `json:"sort_key"`
	ThreadCount    int                `json:"thread_count"`
	ReplyCount     int                `json:"reply_count"`
	LastPost       *SignatureResponse `json:"last_post,omitempty"`
}

func NewForum(f domain.Forum) ForumResponse {
	return ForumResponse{
		Id:             f.Id,
		CategoryId:     f.CategoryId,
		Name:           f.Name,
		Description:    f.Description,
		IsAnnouncement: f.IsAnnouncement,
		SortKey:        f.SortKey,
		ThreadCount:    f.ThreadCount,
		ReplyCount:     f.ReplyCount,
		LastPost:       newSignaturePtr(f.LastPost),
	}
}

type CategoryResponse struct {
	Id      int64           `json:"id"`
	Name    string          `json:"name"`
	SortKey int             `json:"sort_key"`
	Forums  []ForumResponse `json:"forums"`
}

func NewCategory(c domain.CategoryWithForums) CategoryResponse {
	forums := make([]ForumResponse, len(c.Forums))
	for i, f := range c.Forums {
		forums[i] = NewForum(f)
	}
	return CategoryResponse{Id: c.Id, Name: c.Name, SortKey: c.SortKey, Forums: forums}
}

type IndexResponse struct {
	Categories []CategoryResponse `json:"categories"`
}

type ThreadSummaryResponse struct {
	Id         int64             `json:"id"`
	ForumId    int64             `json:"forum_id"`
	Title      string            `json:"title"`
	IsSticky   bool              `json:"is_sticky"`
	IsClosed   bool              `json:"is_closed"`
	ReplyCount int               `json:"reply_count"`
	ViewCount  int               `json:"view_count"`
	Posted     SignatureResponse `json:"posted"`
	LastPost   SignatureResponse `json:"last_post"`
}

func NewThreadSummary(t domain.Thread) ThreadSummaryResponse {
	return ThreadSummaryResponse{
		Id:         t.Id,
		ForumId:    t.ForumId,
		Title:      t.Title,
		IsSticky:   t.IsSticky,
		IsClosed:   t.IsClosed(),
		ReplyCount: t.ReplyCount,
		ViewCount:  t.ViewCount,
		Posted:     NewSignature(t.Posted),
		LastPost:   NewSignature(t.LastPost),
	}
}

type ForumPageResponse struct {
	ForumResponse
	Threads []ThreadSummaryResponse `json:"threads"`
	Page    PageResponse            `json:"page"`
}

// PostResponse carries both the stored body and its rendered HTML.
type PostResponse struct {
	Id     int64              `json:"id"`
	Text   string             `json:"text"`
	Html   string             `json:"html"`
	Posted SignatureResponse  `json:"posted"`
	Edited *SignatureResponse `json:"edited,omitempty"`
}

func NewPost(id int64, text, html string, posted domain.Signature, edited *domain.Signature) PostResponse {
	return PostResponse{Id: id, Text: text, Html: html, Posted: NewSignature(posted), Edited: newSignaturePtr(edited)}
}

type ThreadPageResponse struct {
	ThreadSummaryResponse
	Post     PostResponse   `json:"post"`
	ClosedAt *time.Time     `json:"closed_at,omitempty"`
	ClosedBy *int64         `json:"closed_by,omitempty"`
	Replies  []PostResponse `json:"replies"`
	Page     PageResponse   `json:"page"`
}

type ThreadListResponse struct {
	Threads []ThreadSummaryResponse `json:"threads"`
}

type SearchHitResponse struct {
	Kind        string            `json:"kind"`
	ThreadId    int64             `json:"thread_id"`
	ThreadTitle string            `json:"thread_title"`
	ReplyId     int64             `json:"reply_id,omitempty"`
	Text        string            `json:"text"`
	Posted      SignatureResponse `json:"posted"`
}

func NewSearchHit(h domain.SearchHit) SearchHitResponse {
	return SearchHitResponse{
		Kind:        string(h.Kind),
		ThreadId:    h.ThreadId,
		ThreadTitle: h.ThreadTitle,
		ReplyId:     h.ReplyId,
		Text:        h.Text,
		Posted:      NewSignature(h.Posted),
	}
}

type SearchResponse struct {
	Hits []SearchHitResponse `json:"hits"`
}

type CaptchaResponse struct {
	Id       string `json:"id"`
	Question string `json:"question"`
}
