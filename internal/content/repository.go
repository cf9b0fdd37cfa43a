package content

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Repository is the single point of translation between lifecycle intents and row storage.
// Every filter is conjunctive and applied in SQL so the draft and published pools stay
// disjoint per type regardless of caller behaviour.
//
// Mutating operations accept the caller's bearer token. A direct database connection does
// not evaluate it, but it is threaded onto the statement so deployments enforcing row-level
// authorization at the store can.
type Repository interface {
	SaveDraft(ctx context.Context, token, title, body string, itemType Type) (uint, error)
	GetDrafts(ctx context.Context, token string, itemType Type) ([]Item, error)
	UpdateDraft(ctx context.Context, token string, id uint, title, body string, itemType Type) error
	DeleteDraft(ctx context.Context, token string, id uint) error
	PublishBlogPost(ctx context.Context, token, title, body, filename string) (uint, error)
	PublishJournal(ctx context.Context, token, title, body string) (uint, error)
	GetAllPublished(ctx context.Context, itemType Type) ([]Item, error)
	GetByID(ctx context.Context, id uint, itemType Type) (*Item, error)
	GetBlogPostByFilename(ctx context.Context, filename string) (*Item, error)
	DeletePublished(ctx context.Context, token string, id uint, itemType Type) error
}

// GormRepository persists content items using a Gorm database connection.
type GormRepository struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewRepository constructs a Gorm-backed repository implementation.
func NewRepository(conn *gorm.DB, logger *logrus.Logger) (*GormRepository, error) {
	if conn == nil {
		return nil, eris.New("gorm DB is required")
	}

	return &GormRepository{db: conn, logger: logger}, nil
}

var _ Repository = (*GormRepository)(nil)

// credentialKey names the per-statement setting carrying the caller's bearer token for
// storage plugins that enforce row-level authorization.
const credentialKey = "content:access_token"

func (r *GormRepository) session(ctx context.Context, token string) *gorm.DB {
	tx := r.db.WithContext(ctx)
	if token != "" {
		tx = tx.Set(credentialKey, token)
	}
	return tx
}

// SaveDraft inserts a new draft row and returns its server-generated id.
func (r *GormRepository) SaveDraft(ctx context.Context, token, title, body string, itemType Type) (uint, error) {
	if itemType == "" {
		itemType = TypeBlog
	}
	if !itemType.Valid() {
		return 0, eris.Errorf("invalid content type: %s", itemType)
	}

	item := Item{Title: title, Content: body, Type: itemType, Status: StatusDraft}
	if err := r.session(ctx, token).Create(&item).Error; err != nil {
		r.logError(logrus.Fields{"type": itemType}, err, "saving draft")
		return 0, eris.Wrap(err, "saving draft")
	}

	return item.ID, nil
}

// GetDrafts returns all draft rows, optionally filtered by type, most recently touched
// first. The ordering is load-bearing: the writer UI opens the last draft worked on.
func (r *GormRepository) GetDrafts(ctx context.Context, token string, itemType Type) ([]Item, error) {
	query := r.session(ctx, token).Where("status = ?", StatusDraft)
	if itemType != "" {
		query = query.Where("type = ?", itemType)
	}

	var items []Item
	if err := query.Order("updated_at DESC").Find(&items).Error; err != nil {
		r.logError(logrus.Fields{"type": itemType}, err, "listing drafts")
		return nil, eris.Wrap(err, "listing drafts")
	}

	return items, nil
}

// UpdateDraft updates only rows matching id AND status=draft. Updating a published row
// through this path is a silent no-op so live content cannot be edited by accident.
func (r *GormRepository) UpdateDraft(ctx context.Context, token string, id uint, title, body string, itemType Type) error {
	if itemType == "" {
		itemType = TypeBlog
	}
	if !itemType.Valid() {
		return eris.Errorf("invalid content type: %s", itemType)
	}

	err := r.session(ctx, token).
		Model(&Item{}).
		Where("id = ? AND status = ?", id, StatusDraft).
		Updates(map[string]interface{}{"title": title, "content": body, "type": itemType}).
		Error
	if err != nil {
		r.logError(logrus.Fields{"id": id}, err, "updating draft")
		return eris.Wrapf(err, "updating draft %d", id)
	}

	return nil
}

// DeleteDraft deletes only rows matching id AND status=draft. A missing or already
// published id is a silent no-op.
func (r *GormRepository) DeleteDraft(ctx context.Context, token string, id uint) error {
	err := r.session(ctx, token).
		Where("id = ? AND status = ?", id, StatusDraft).
		Delete(&Item{}).
		Error
	if err != nil {
		r.logError(logrus.Fields{"id": id}, err, "deleting draft")
		return eris.Wrapf(err, "deleting draft %d", id)
	}

	return nil
}

// PublishBlogPost inserts a published blog row carrying the derived filename.
func (r *GormRepository) PublishBlogPost(ctx context.Context, token, title, body, filename string) (uint, error) {
	item := Item{Title: title, Content: body, Type: TypeBlog, Status: StatusPublished, Filename: &filename}
	if err := r.session(ctx, token).Create(&item).Error; err != nil {
		r.logError(logrus.Fields{"filename": filename}, err, "publishing blog post")
		return 0, eris.Wrap(err, "publishing blog post")
	}

	return item.ID, nil
}

// PublishJournal inserts a published journal row. Journals carry no filename.
func (r *GormRepository) PublishJournal(ctx context.Context, token, title, body string) (uint, error) {
	item := Item{Title: title, Content: body, Type: TypeJournal, Status: StatusPublished}
	if err := r.session(ctx, token).Create(&item).Error; err != nil {
		r.logError(nil, err, "publishing journal")
		return 0, eris.Wrap(err, "publishing journal")
	}

	return item.ID, nil
}

// GetAllPublished returns published rows of the given type, newest first.
func (r *GormRepository) GetAllPublished(ctx context.Context, itemType Type) ([]Item, error) {
	if !itemType.Valid() {
		return nil, eris.Errorf("invalid content type: %s", itemType)
	}

	var items []Item
	err := r.db.WithContext(ctx).
		Where("status = ? AND type = ?", StatusPublished, itemType).
		Order("created_at DESC").
		Find(&items).
		Error
	if err != nil {
		r.logError(logrus.Fields{"type": itemType}, err, "listing published content")
		return nil, eris.Wrapf(err, "listing published %s content", itemType)
	}

	return items, nil
}

// GetByID fetches exactly one row matching id and type, status unconstrained. Zero matches
// return nil without error; more than one means the primary key invariant is broken in the
// store and surfaces as an error.
func (r *GormRepository) GetByID(ctx context.Context, id uint, itemType Type) (*Item, error) {
	if !itemType.Valid() {
		return nil, eris.Errorf("invalid content type: %s", itemType)
	}

	query := r.db.WithContext(ctx).Where("id = ? AND type = ?", id, itemType)
	item, err := takeSingle(query)
	if err != nil {
		r.logError(logrus.Fields{"id": id, "type": itemType}, err, "fetching content by id")
		return nil, eris.Wrapf(err, "fetching %s %d", itemType, id)
	}

	return item, nil
}

// GetBlogPostByFilename fetches the unique published blog row for a logical filename key.
// The key is stored with its ".html" suffix; callers pass the bare name.
func (r *GormRepository) GetBlogPostByFilename(ctx context.Context, filename string) (*Item, error) {
	if filename == "" {
		return nil, eris.New("filename is required")
	}

	query := r.db.WithContext(ctx).
		Where("filename = ? AND type = ? AND status = ?", filename+".html", TypeBlog, StatusPublished)
	item, err := takeSingle(query)
	if err != nil {
		r.logError(logrus.Fields{"filename": filename}, err, "fetching blog post by filename")
		return nil, eris.Wrapf(err, "fetching blog post by filename: %s", filename)
	}

	return item, nil
}

// DeletePublished deletes only rows matching id, type, and status=published. A missing id
// is a silent no-op.
func (r *GormRepository) DeletePublished(ctx context.Context, token string, id uint, itemType Type) error {
	if !itemType.Valid() {
		return eris.Errorf("invalid content type: %s", itemType)
	}

	err := r.session(ctx, token).
		Where("id = ? AND type = ? AND status = ?", id, itemType, StatusPublished).
		Delete(&Item{}).
		Error
	if err != nil {
		r.logError(logrus.Fields{"id": id, "type": itemType}, err, "deleting published content")
		return eris.Wrapf(err, "deleting published %s %d", itemType, id)
	}

	return nil
}

// takeSingle resolves a one-or-zero-match query, failing loudly when the store returns
// more rows than the filters permit.
func takeSingle(query *gorm.DB) (*Item, error) {
	var items []Item
	if err := query.Limit(2).Find(&items).Error; err != nil {
		return nil, err
	}

	switch len(items) {
	case 0:
		return nil, nil
	case 1:
		return &items[0], nil
	default:
		return nil, eris.New("query matched more than one row")
	}
}

func (r *GormRepository) logError(fields logrus.Fields, err error, message string) {
	if r.logger == nil {
		return
	}

	entry := r.logger.WithField("error", err.Error())
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(message)
}
