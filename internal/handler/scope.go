package handler

import (
	"gorm.io/gorm"

	"github.com/sajib9090/restaurant-management-backend/internal/apperr"
	"github.com/sajib9090/restaurant-management-backend/internal/authz"
)

// brandScope confines a query to the principal's brand. super_admin is
// unrestricted.
func brandScope(p *authz.Principal) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if p.Role == authz.RoleSuperAdmin {
			return db
		}
		return db.Where("brand_id = ?", p.BrandID)
	}
}

// actingBrand returns the brand id a tenant write applies to. The
// brand-less super_admin cannot create tenant entities.
func actingBrand(p *authz.Principal) (string, error) {
	if p.BrandID == "" {
		return "", apperr.BadRequest("A brand is required for this operation")
	}
	return p.BrandID, nil
}
