package domain

import "time"

type AuditAction string

const (
	ActionAddCategory    AuditAction = "add-category"
	ActionEditCategory   AuditAction = "edit-category"
	ActionDeleteCategory AuditAction = "delete-category"
	ActionSortCategory   AuditAction = "sort-category"
	ActionAddForum       AuditAction = "add-forum"
	ActionEditForum      AuditAction = "edit-forum"
	ActionDeleteForum    AuditAction = "delete-forum"
	ActionSortForum      AuditAction = "sort-forum"
	ActionAddThread      AuditAction = "add-thread"
	ActionEditThread     AuditAction = "edit-thread"
	ActionDeleteThread   AuditAction = "delete-thread"
	ActionCloseThread    AuditAction = "close-thread"
	ActionReopenThread   AuditAction = "reopen-thread"
	ActionStickyThread   AuditAction = "sticky-thread"
	ActionUnstickyThread AuditAction = "unsticky-thread"
	ActionMoveThread     AuditAction = "move-thread"
	ActionAddReply       AuditAction = "add-reply"
	ActionEditReply      AuditAction = "edit-reply"
	ActionDeleteReply    AuditAction = "delete-reply"
)

// AuditEvent is handed to the external audit sink after a successful mutation.
type AuditEvent struct {
	Id      string
	Action  AuditAction
	Actor   Actor
	Target  string
	Summary string
	At      time.Time
}
