package model

import "time"

// Comment types.
const (
	CommentInternal = "internal"
	CommentApproved = "approved"
)

// CommentKind distinguishes root comments from replies. Threading is one level
// deep: replies never have replies of their own.
type CommentKind int

const (
	CommentRoot CommentKind = iota
	CommentReply
)

// Comment belongs to a request.
type Comment struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	RequestID      uint       `gorm:"index;not null" json:"request_id"`
	AuthorID       uint       `gorm:"not null" json:"author_id"`
	Content        string     `gorm:"not null" json:"content"`
	Type           string     `gorm:"default:internal" json:"type"`
	ParentID       *uint      `gorm:"index" json:"parent_id,omitempty"`
	ApprovedBy     *uint      `json:"approved_by,omitempty"`
	ApprovedAt     *time.Time `json:"approved_at,omitempty"`
	SentToCustomer bool       `gorm:"default:false" json:"sent_to_customer"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	FromCustomer   bool       `gorm:"default:false" json:"from_customer"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Kind reports whether the comment is a root or a reply.
func (c Comment) Kind() CommentKind {
	if c.ParentID != nil {
		return CommentReply
	}
	return CommentRoot
}

// Thread is a root comment with its direct replies.
type Thread struct {
	Comment
	Replies []Comment `json:"replies"`
}
