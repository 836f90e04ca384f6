// Package access decides who may see and change content models and their
// documents.
package access

import (
	"context"
	"errors"
	"strings"

	"github.com/kontenhub/cms/internal/models"
	"gorm.io/gorm"
)

// Principal is the authenticated caller, taken from bearer token claims.
type Principal struct {
	ID    uint
	Email string
	Role  string
}

// Anonymous is the zero principal.
var Anonymous = Principal{}

func (p Principal) Authenticated() bool { return p.ID != 0 }
func (p Principal) IsAdmin() bool       { return p.Role == models.RoleAdmin }
func (p Principal) IsEditor() bool      { return p.Role == models.RoleEditor }

// CanMutate reports whether the role is allowed on mutation endpoints at all.
// Viewer and seo are read-only.
func (p Principal) CanMutate() bool {
	return p.Authenticated() && (p.IsAdmin() || p.IsEditor())
}

// Resource is what the filter judges: one content model, with the editor of
// its most recent document.
type Resource struct {
	ModelID           uint
	OwnerEmail        string
	LatestEditorEmail string
}

// Filter answers whether a principal may access a resource.
type Filter interface {
	CanAccess(p Principal, r Resource) bool
}

// Grants is a Filter with the principal's Active collaborator grants loaded.
// It only honours grants for the principal it was built for.
type Grants struct {
	principal Principal
	modelIDs  map[uint]struct{}
}

// NewGrants builds a filter for p with the given granted model ids.
func NewGrants(p Principal, modelIDs ...uint) *Grants {
	g := &Grants{principal: p, modelIDs: make(map[uint]struct{}, len(modelIDs))}
	for _, id := range modelIDs {
		g.modelIDs[id] = struct{}{}
	}
	return g
}

func (g *Grants) CanAccess(p Principal, r Resource) bool {
	switch {
	case !p.Authenticated():
		return false
	case p.IsAdmin():
		return true
	case !p.IsEditor():
		return false
	}
	if sameEmail(p.Email, r.OwnerEmail) || sameEmail(p.Email, r.LatestEditorEmail) {
		return true
	}
	if g == nil || g.principal.ID != p.ID {
		return false
	}
	_, ok := g.modelIDs[r.ModelID]
	return ok
}

// Policy loads collaborator records to build filters.
type Policy struct {
	db *gorm.DB
}

func NewPolicy(db *gorm.DB) *Policy { return &Policy{db: db} }

// For returns the filter for p. Admins and non-editors need no lookup.
func (pol *Policy) For(ctx context.Context, p Principal) (*Grants, error) {
	if !p.IsEditor() {
		return NewGrants(p), nil
	}
	ids, err := pol.ActiveModelIDs(ctx, p)
	if err != nil {
		return nil, err
	}
	return NewGrants(p, ids...), nil
}

// ActiveModelIDs lists the models p collaborates on through an Active record.
func (pol *Policy) ActiveModelIDs(ctx context.Context, p Principal) ([]uint, error) {
	var ids []uint
	err := pol.db.WithContext(ctx).
		Table("model_collaborators").
		Joins("JOIN collaborators ON collaborators.id = model_collaborators.collaborator_id").
		Where("collaborators.status = ?", models.CollaboratorActive).
		Where(pol.db.Where("collaborators.user_id = ?", p.ID).Or("collaborators.email = ?", p.Email)).
		Distinct().
		Pluck("model_collaborators.model_id", &ids).Error
	return ids, err
}

// CanAccess checks a single resource, loading grants only when needed.
func (pol *Policy) CanAccess(ctx context.Context, p Principal, r Resource) (bool, error) {
	if NewGrants(p).CanAccess(p, r) {
		return true, nil
	}
	if !p.IsEditor() {
		return false, nil
	}
	g, err := pol.For(ctx, p)
	if err != nil {
		return false, err
	}
	return g.CanAccess(p, r), nil
}

// CanManageContent reports whether p may create or change content models:
// admins always, editors only with an Owner collaborator record.
func (pol *Policy) CanManageContent(ctx context.Context, p Principal) (bool, error) {
	switch {
	case !p.Authenticated():
		return false, nil
	case p.IsAdmin():
		return true, nil
	case !p.IsEditor():
		return false, nil
	}

	var c models.CollaboratorModel
	err := pol.db.WithContext(ctx).
		Where(pol.db.Where("user_id = ?", p.ID).Or("email = ?", p.Email)).
		Where("position = ?", models.PositionOwner).
		Take(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func sameEmail(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	return a != "" && strings.EqualFold(a, b)
}
