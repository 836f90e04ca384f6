package content

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/kontenhub/cms/internal/models"
	"github.com/kontenhub/cms/internal/modules/auth/access"
	"github.com/kontenhub/cms/internal/modules/builder/field"
	"github.com/kontenhub/cms/internal/modules/builder/model"
	"github.com/kontenhub/cms/internal/pkg/apperr"
	"github.com/kontenhub/cms/internal/pkg/document"
	"github.com/kontenhub/cms/internal/pkg/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type sentNotice struct {
	recipient, title, kind string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotice
}

func (n *recordingNotifier) Notify(_ context.Context, recipient, title, _ string, kind string, _ any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotice{recipient: recipient, title: title, kind: kind})
	return nil
}

type fixture struct {
	db       *gorm.DB
	svc      *Service
	notifier *recordingNotifier
	model    *models.ContentModel
	admin    access.Principal
	alice    access.Principal // owns model
	bob      access.Principal // unrelated editor
	viewer   access.Principal
}

func principal(u *models.UserModel) access.Principal {
	return access.Principal{ID: u.ID, Email: u.Email, Role: u.Role}
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := testdb.Open(t)
	admin := testdb.User(t, db, "root@x.io", models.RoleAdmin)
	alice := testdb.User(t, db, "alice@x.io", models.RoleEditor)
	testdb.Owner(t, db, alice)
	bob := testdb.User(t, db, "bob@x.io", models.RoleEditor)
	testdb.Owner(t, db, bob)
	viewer := testdb.User(t, db, "viewer@x.io", models.RoleViewer)

	policy := access.NewPolicy(db)
	registry := model.NewService(db, policy, nil)
	fields := field.NewService(db, registry, nil)
	notifier := &recordingNotifier{}

	return fixture{
		db:       db,
		svc:      NewService(db, registry, fields, policy, nil, WithNotifier(notifier)),
		notifier: notifier,
		model:    testdb.Model(t, db, "Blog Post", "blog-post", alice.Email),
		admin:    principal(admin),
		alice:    principal(alice),
		bob:      principal(bob),
		viewer:   principal(viewer),
	}
}

func TestGetBySlugWithoutContent(t *testing.T) {
	f := newFixture(t)
	view, err := f.svc.GetBySlug(context.Background(), "blog-post")
	require.NoError(t, err)
	assert.Equal(t, f.model.ID, view.Model.ID)
	assert.NotNil(t, view.Fields)
	assert.Nil(t, view.Content)

	_, err = f.svc.GetBySlug(context.Background(), "missing")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestCreateThenGetRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := WriteInput{Fields: document.Document{
		"title": "Hello",
		"tags":  []any{"a", "b"},
		"meta":  map[string]any{"n": float64(3)},
	}}
	doc, err := f.svc.Create(ctx, f.alice, "blog-post", in)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, doc.Status)
	assert.Equal(t, "alice@x.io", doc.EditorEmail)

	view, err := f.svc.GetBySlug(ctx, "blog-post")
	require.NoError(t, err)
	require.NotNil(t, view.Content)
	assert.Equal(t, doc.ID, view.Content.ID)
	assert.Equal(t, in.Fields, view.Content.Data)
}

func TestCreateAlwaysInsertsAndHighestIDWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, f.alice, "blog-post", WriteInput{Fields: document.Document{"v": "1"}})
	require.NoError(t, err)
	second, err := f.svc.Create(ctx, f.alice, "blog-post", WriteInput{Fields: document.Document{"v": "2"}})
	require.NoError(t, err)
	assert.Greater(t, second.ID, first.ID)

	var n int64
	f.db.Model(&models.Content{}).Where("model_id = ?", f.model.ID).Count(&n)
	assert.EqualValues(t, 2, n)

	view, err := f.svc.GetBySlug(ctx, "blog-post")
	require.NoError(t, err)
	assert.Equal(t, "2", view.Content.Data["v"])
}

func TestCreateAttachesUploads(t *testing.T) {
	f := newFixture(t)
	doc, err := f.svc.Create(context.Background(), f.alice, "blog-post", WriteInput{
		Fields:  document.Document{"hero_image": "/uploads/a.png"},
		Uploads: map[string][]string{"hero_image": {"/uploads/b.png"}},
		Status:  models.StatusDraft,
	})
	require.NoError(t, err)
	assert.Equal(t, []any{"/uploads/a.png", "/uploads/b.png"}, doc.Data["hero_image"])
}

func TestCreateRejectsUnknownStatus(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), f.alice, "blog-post", WriteInput{Status: "archived"})
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestUpdateMergesDisjointKeys(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Update(ctx, f.alice, "blog-post", WriteInput{Fields: document.Document{"title": "T"}})
	require.NoError(t, err)
	_, err = f.svc.Update(ctx, f.admin, "blog-post", WriteInput{Fields: document.Document{"body": "B"}})
	require.NoError(t, err)
	doc, err := f.svc.Update(ctx, f.alice, "blog-post", WriteInput{Fields: document.Document{"title": "T2"}})
	require.NoError(t, err)

	assert.Equal(t, document.Document{"title": "T2", "body": "B"}, doc.Data)

	var n int64
	f.db.Model(&models.Content{}).Where("model_id = ?", f.model.ID).Count(&n)
	assert.EqualValues(t, 1, n, "update reuses the selected row")
}

func TestUpdateWithoutFilesIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := WriteInput{Fields: document.Document{"title": "same"}}

	first, err := f.svc.Update(ctx, f.alice, "blog-post", in)
	require.NoError(t, err)
	second, err := f.svc.Update(ctx, f.alice, "blog-post", in)
	require.NoError(t, err)
	assert.Equal(t, first.Data, second.Data)
	assert.Equal(t, first.ID, second.ID)
}

func TestUpdateKeepsStatusWhenUnset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.alice, "blog-post", WriteInput{Status: models.StatusPublished})
	require.NoError(t, err)
	doc, err := f.svc.Update(ctx, f.alice, "blog-post", WriteInput{Fields: document.Document{"x": 1}})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPublished, doc.Status)
}

func TestUpdateAppendsUploadsToExistingValue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.alice, "blog-post", WriteInput{Fields: document.Document{"gallery": []any{"/uploads/1.png"}}})
	require.NoError(t, err)
	doc, err := f.svc.Update(ctx, f.alice, "blog-post", WriteInput{Uploads: map[string][]string{"gallery": {"/uploads/2.png"}}})
	require.NoError(t, err)
	assert.Equal(t, []any{"/uploads/1.png", "/uploads/2.png"}, doc.Data["gallery"])
}

func TestWritePermissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := WriteInput{Fields: document.Document{"a": 1}}

	_, err := f.svc.Create(ctx, access.Anonymous, "blog-post", in)
	assert.True(t, errors.Is(err, apperr.ErrUnauthenticated))

	_, err = f.svc.Create(ctx, f.viewer, "blog-post", in)
	assert.True(t, errors.Is(err, apperr.ErrPermissionDenied))

	_, err = f.svc.Update(ctx, f.bob, "blog-post", in)
	assert.True(t, errors.Is(err, apperr.ErrPermissionDenied))

	_, err = f.svc.Create(ctx, f.alice, "nope", in)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	testdb.Collaborate(t, f.db, "alice@x.io", f.bob.Email, models.CollaboratorActive, f.model.ID)
	_, err = f.svc.Update(ctx, f.bob, "blog-post", in)
	assert.NoError(t, err)
}

func TestEditorOfRecordFallsBackToWriter(t *testing.T) {
	f := newFixture(t)
	testdb.Model(t, f.db, "Orphan", "orphan", "")
	doc, err := f.svc.Create(context.Background(), f.admin, "orphan", WriteInput{})
	require.NoError(t, err)
	assert.Equal(t, "root@x.io", doc.EditorEmail)

	doc, err = f.svc.Create(context.Background(), f.admin, "blog-post", WriteInput{})
	require.NoError(t, err)
	assert.Equal(t, "alice@x.io", doc.EditorEmail)
}

func TestCorruptPayloadReadsAsEmpty(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Create(&models.Content{
		ModelID: f.model.ID,
		Slug:    "blog-post",
		Data:    datatypes.JSON(`[1,2,3]`),
		Status:  models.StatusDraft,
	}).Error)

	view, err := f.svc.GetBySlug(context.Background(), "blog-post")
	require.NoError(t, err)
	require.NotNil(t, view.Content)
	assert.Equal(t, document.Document{}, view.Content.Data)

	doc, err := f.svc.Update(context.Background(), f.alice, "blog-post", WriteInput{Fields: document.Document{"fixed": true}})
	require.NoError(t, err)
	assert.Equal(t, document.Document{"fixed": true}, doc.Data)
}

func TestListAllAppliesAccessFilter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bobs := testdb.Model(t, f.db, "Bob Page", "bob-page", "bob@x.io")
	shared := testdb.Model(t, f.db, "Shared", "shared", "root@x.io")
	testdb.Model(t, f.db, "Hidden", "hidden", "root@x.io")

	_, err := f.svc.Create(ctx, f.alice, "blog-post", WriteInput{Fields: document.Document{"a": 1}})
	require.NoError(t, err)
	testdb.Collaborate(t, f.db, "root@x.io", "alice@x.io", models.CollaboratorActive, shared.ID)

	all, err := f.svc.ListAll(ctx, f.admin)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	mine, err := f.svc.ListAll(ctx, f.alice)
	require.NoError(t, err)
	slugs := []string{}
	for _, row := range mine {
		slugs = append(slugs, row.ModelSlug)
		assert.NotEqual(t, bobs.ID, row.ModelID)
	}
	assert.ElementsMatch(t, []string{"blog-post", "shared"}, slugs)

	for _, row := range mine {
		if row.ModelSlug == "blog-post" {
			require.NotNil(t, row.ContentID)
			require.NotNil(t, row.Status)
			assert.Equal(t, models.StatusDraft, *row.Status)
		} else {
			assert.Nil(t, row.ContentID)
		}
	}

	// every listed row must pass the filter on its own
	grants, err := access.NewPolicy(f.db).For(ctx, f.alice)
	require.NoError(t, err)
	for _, row := range mine {
		assert.True(t, grants.CanAccess(f.alice, row.Resource()))
	}
}

func TestPublishNotifiesOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.alice, "blog-post", WriteInput{Status: models.StatusPublished})
	require.NoError(t, err)
	assert.Empty(t, f.notifier.sent, "owner publishing their own content")

	_, err = f.svc.Update(ctx, f.admin, "blog-post", WriteInput{Status: models.StatusDraft})
	require.NoError(t, err)
	_, err = f.svc.Update(ctx, f.admin, "blog-post", WriteInput{Status: models.StatusPublished})
	require.NoError(t, err)
	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, "alice@x.io", f.notifier.sent[0].recipient)

	_, err = f.svc.Update(ctx, f.admin, "blog-post", WriteInput{Fields: document.Document{"x": 1}})
	require.NoError(t, err)
	assert.Len(t, f.notifier.sent, 1, "already published")
}

func TestUpdateDraftToPublishedNotifiesOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.alice, "blog-post", WriteInput{Status: models.StatusDraft})
	require.NoError(t, err)

	view, err := f.svc.Update(ctx, f.admin, "blog-post", WriteInput{Status: models.StatusPublished})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPublished, view.Status)
	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, "alice@x.io", f.notifier.sent[0].recipient)
}

func TestRenderRichText(t *testing.T) {
	view := &View{
		Fields: []models.ContentField{
			{FieldKey: "body", FieldType: models.FieldTypeRichText},
			{FieldKey: "title", FieldType: models.FieldTypeText},
			{FieldKey: "blocks", FieldType: models.FieldTypeRichText},
		},
		Content: &DocumentView{Data: document.Document{
			"body":   "**bold**",
			"title":  "# not rendered",
			"blocks": []any{"x"},
		}},
	}
	Render(view)
	require.Contains(t, view.Rendered, "body")
	assert.Contains(t, view.Rendered["body"], "<strong>bold</strong>")
	assert.NotContains(t, view.Rendered, "title")
	assert.NotContains(t, view.Rendered, "blocks")

	empty := &View{}
	Render(empty)
	assert.Nil(t, empty.Rendered)
}
