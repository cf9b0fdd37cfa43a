package content

import "time"

// Type discriminates the two kinds of content the site publishes.
type Type string

const (
	TypeBlog    Type = "blog"
	TypeJournal Type = "journal"
)

// Valid reports whether t is one of the supported content types.
func (t Type) Valid() bool {
	return t == TypeBlog || t == TypeJournal
}

// Status tracks where an item sits in the draft/publish lifecycle. The transition is
// one-directional: draft rows become published rows by insertion of a new row, and
// published rows only ever leave by deletion.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// Item is the sole persisted entity: one table holds drafts and published rows for both
// content types, discriminated by the Type and Status columns. Filename is only set for
// published blog rows. There is deliberately no soft-delete column; deletion is permanent.
type Item struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:255" json:"title"`
	Content   string    `gorm:"type:text" json:"content"`
	Type      Type      `gorm:"size:16;not null;default:blog;index:idx_content_pool" json:"type"`
	Status    Status    `gorm:"size:16;not null;default:draft;index:idx_content_pool" json:"status"`
	Filename  *string   `gorm:"size:255" json:"filename"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName defines the table name for the Item model.
func (Item) TableName() string {
	return "content_items"
}
