// Package testdb opens throwaway SQLite databases carrying the production
// schema, for service and handler tests.
package testdb

import (
	"testing"

	"github.com/kontenhub/cms/internal/database"
	"github.com/kontenhub/cms/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns a migrated in-memory database that is closed when t ends.
// The pool holds a single connection so every query sees the same database.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// User inserts a user with the given role and returns it.
func User(t testing.TB, db *gorm.DB, email, role string) *models.UserModel {
	t.Helper()
	u := &models.UserModel{Name: email, Email: email, Password: "x", Role: role}
	require.NoError(t, db.Create(u).Error)
	return u
}

// Owner inserts an Owner/Active collaborator record for u.
func Owner(t testing.TB, db *gorm.DB, u *models.UserModel) {
	t.Helper()
	id := u.ID
	require.NoError(t, db.Create(&models.CollaboratorModel{
		OwnerEmail: u.Email,
		Email:      u.Email,
		UserID:     &id,
		Position:   models.PositionOwner,
		Status:     models.CollaboratorActive,
	}).Error)
}

// Model inserts a content model owned by ownerEmail ("" for none).
func Model(t testing.TB, db *gorm.DB, name, slug, ownerEmail string) *models.ContentModel {
	t.Helper()
	m := &models.ContentModel{
		Name:        name,
		Slug:        slug,
		Type:        models.ModelTypeSinglePage,
		APIEndpoint: "/api/content/" + slug,
	}
	if ownerEmail != "" {
		m.EditorEmail = &ownerEmail
	}
	require.NoError(t, db.Create(m).Error)
	return m
}

// Collaborate grants email an Active collaborator record on the given models.
func Collaborate(t testing.TB, db *gorm.DB, ownerEmail, email, status string, modelIDs ...uint) *models.CollaboratorModel {
	t.Helper()
	c := &models.CollaboratorModel{
		OwnerEmail: ownerEmail,
		Email:      email,
		Position:   models.PositionCollaborator,
		Status:     status,
	}
	require.NoError(t, db.Create(c).Error)
	for _, id := range modelIDs {
		require.NoError(t, db.Create(&models.ModelCollaborator{CollaboratorID: c.ID, ModelID: id}).Error)
	}
	return c
}
