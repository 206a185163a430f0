package authz

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/sajib9090/restaurant-management-backend/internal/apperr"
	"github.com/sajib9090/restaurant-management-backend/internal/model"
	"github.com/sajib9090/restaurant-management-backend/prometheus"
)

// Authorizer decides whether an operation is permitted for a
// principal. Scope derivation and role checks live here so the
// resource handlers cannot re-implement tenant isolation
// inconsistently.
type Authorizer struct {
	db *gorm.DB
}

// NewAuthorizer creates an authorizer over the given database.
func NewAuthorizer(db *gorm.DB) *Authorizer {
	return &Authorizer{db: db}
}

// Authorize checks the principal against the policy table. The
// revocation list is consulted first, unconditionally: a revoked user
// is denied even for operations their role would permit.
func (a *Authorizer) Authorize(ctx context.Context, p *Principal, op Operation) error {
	if p == nil || p.UserID == "" {
		return apperr.Unauthenticated("Authentication required")
	}

	revoked, err := a.IsRevoked(ctx, p.UserID)
	if err != nil {
		return apperr.Internal(err)
	}
	if revoked {
		prometheus.RevokedAccessCounter.Inc()
		return apperr.Forbidden("Access revoked")
	}

	if !allowed(op, p.Role) {
		return apperr.Forbidden("You do not have permission to perform this action")
	}

	return nil
}

// IsRevoked reports whether the user id appears on the revocation
// list.
func (a *Authorizer) IsRevoked(ctx context.Context, userID string) (bool, error) {
	var count int64
	err := a.db.WithContext(ctx).
		Model(&model.RemovedUser{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CanModifyUser applies the seniority rule for authority-driven user
// mutations: the actor must strictly outrank the target, so an admin
// can never modify a chairman and peers cannot modify each other.
func CanModifyUser(actor *Principal, targetRole Role) bool {
	if actor == nil {
		return false
	}
	return actor.Role.Outranks(targetRole)
}

// ListScope returns a gorm scope enforcing tenant isolation for list
// queries.
//
// super_admin: a search term selects globally across the searchable
// columns and any brand filter is ignored; otherwise a brand filter
// narrows to that brand; with neither, the scope is unrestricted.
//
// Every other role is always confined to the principal's own brand. A
// client-supplied brand filter is ignored, not validated, so a hostile
// filter can never widen the scope. A search term is ANDed inside the
// brand.
func ListScope(p *Principal, brandFilter, search string, searchable ...string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if p.Role == RoleSuperAdmin {
			if search != "" {
				return applySearch(db, search, searchable)
			}
			if brandFilter != "" {
				return db.Where("brand_id = ?", brandFilter)
			}
			return db
		}

		db = db.Where("brand_id = ?", p.BrandID)
		if search != "" {
			db = applySearch(db, search, searchable)
		}
		return db
	}
}

// applySearch ORs a case-insensitive substring match over the
// searchable columns.
func applySearch(db *gorm.DB, search string, columns []string) *gorm.DB {
	if len(columns) == 0 {
		return db
	}

	pattern := "%" + strings.ToLower(strings.TrimSpace(search)) + "%"
	conds := make([]string, 0, len(columns))
	args := make([]interface{}, 0, len(columns))
	for _, col := range columns {
		conds = append(conds, "LOWER("+col+") LIKE ?")
		args = append(args, pattern)
	}
	return db.Where(strings.Join(conds, " OR "), args...)
}
