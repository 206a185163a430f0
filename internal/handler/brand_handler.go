package handler

import (
	"io"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sajib9090/restaurant-management-backend/internal/apperr"
	"github.com/sajib9090/restaurant-management-backend/internal/authz"
	"github.com/sajib9090/restaurant-management-backend/internal/middleware"
	"github.com/sajib9090/restaurant-management-backend/internal/model"
	"github.com/sajib9090/restaurant-management-backend/pkg/database"
	"github.com/sajib9090/restaurant-management-backend/pkg/logger"
	"github.com/sajib9090/restaurant-management-backend/prometheus"
)

// GetCurrentBrand returns the principal's own brand.
func GetCurrentBrand(c echo.Context) error {
	p := middleware.PrincipalFromEcho(c)
	ctx := c.Request().Context()

	if err := authorizer.Authorize(ctx, p, authz.OpEntityRead); err != nil {
		return err
	}
	brandID, err := actingBrand(p)
	if err != nil {
		return err
	}

	var brand model.Brand
	err = database.GetDB().WithContext(ctx).
		Where("brand_id = ?", brandID).
		First(&brand).Error
	if err != nil {
		return apperr.NotFound("Brand not found")
	}

	return ok(c, "Brand retrieved successfully", brand)
}

// GetBrands lists all brands globally. super_admin only.
func GetBrands(c echo.Context) error {
	p := middleware.PrincipalFromEcho(c)
	ctx := c.Request().Context()

	if err := authorizer.Authorize(ctx, p, authz.OpBrandListGlobal); err != nil {
		return err
	}

	params := parseListParams(c)
	db := database.GetDB().WithContext(ctx).Model(&model.Brand{})

	if params.Search != "" {
		pattern := "%" + strings.ToLower(strings.TrimSpace(params.Search)) + "%"
		db = db.Where("LOWER(name) LIKE ?", pattern)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return apperr.Internal(err)
	}

	query := db.Order("name ASC")
	if params.Limit > 0 {
		query = query.Offset(params.offset()).Limit(params.Limit)
	}

	var brands []model.Brand
	if err := query.Find(&brands).Error; err != nil {
		return apperr.Internal(err)
	}

	prometheus.RecordResourceOp("brand", "list")
	return listResponse(c, "Brands retrieved successfully", total, params, brands)
}

// UpdateBrandInfo applies a sparse update to the brand's name, address
// and contact numbers. Chairman or admin only.
func UpdateBrandInfo(c echo.Context) error {
	p := middleware.PrincipalFromEcho(c)
	ctx := c.Request().Context()

	if err := authorizer.Authorize(ctx, p, authz.OpBrandEdit); err != nil {
		return err
	}
	brandID, err := actingBrand(p)
	if err != nil {
		return err
	}

	var req struct {
		Name        *string `json:"brand_name"`
		Location    *string `json:"location"`
		SubDistrict *string `json:"sub_district"`
		District    *string `json:"district"`
		Mobile1     *string `json:"mobile1"`
		Mobile2     *string `json:"mobile2"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequest("Invalid request body")
	}

	db := database.GetDB()
	var brand model.Brand
	if err := db.WithContext(ctx).Where("brand_id = ?", brandID).First(&brand).Error; err != nil {
		return apperr.NotFound("Brand not found")
	}

	changes := map[string]interface{}{}
	if req.Name != nil {
		name, err := validateName("Brand name", *req.Name, 2, 100)
		if err != nil {
			return err
		}
		name = normalizeName(name)
		if name != brand.Name {
			changes["name"] = name
		}
	}
	if req.Location != nil {
		location := strings.TrimSpace(*req.Location)
		if location != brand.Address.Location {
			changes["address_location"] = location
		}
	}
	if req.SubDistrict != nil {
		sub := strings.TrimSpace(*req.SubDistrict)
		if sub != brand.Address.SubDistrict {
			changes["address_sub_district"] = sub
		}
	}
	if req.District != nil {
		district := strings.TrimSpace(*req.District)
		if district != brand.Address.District {
			changes["address_district"] = district
		}
	}
	if req.Mobile1 != nil {
		mobile, err := validateMobile(*req.Mobile1)
		if err != nil {
			return err
		}
		if mobile != brand.Contact.Mobile1 {
			changes["contact_mobile1"] = mobile
		}
	}
	if req.Mobile2 != nil {
		mobile, err := validateMobile(*req.Mobile2)
		if err != nil {
			return err
		}
		if mobile != brand.Contact.Mobile2 {
			changes["contact_mobile2"] = mobile
		}
	}

	if len(changes) == 0 {
		return apperr.BadRequest("No fields to update")
	}

	if err := db.WithContext(ctx).Model(&brand).Updates(changes).Error; err != nil {
		return apperr.Internal(err)
	}

	prometheus.RecordResourceOp("brand", "update")
	return ok(c, "Brand updated successfully", brand)
}

// UpdateBrandLogo replaces the brand logo through the asset store. The
// previous logo is deleted from the store on success.
func UpdateBrandLogo(c echo.Context) error {
	log := logger.FromEcho(c)
	p := middleware.PrincipalFromEcho(c)
	ctx := c.Request().Context()

	if err := authorizer.Authorize(ctx, p, authz.OpBrandEdit); err != nil {
		return err
	}
	brandID, err := actingBrand(p)
	if err != nil {
		return err
	}

	file, err := c.FormFile("logo")
	if err != nil {
		return apperr.BadRequest("Logo file is required")
	}
	src, err := file.Open()
	if err != nil {
		return apperr.Internal(err)
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		return apperr.Internal(err)
	}

	db := database.GetDB()
	var brand model.Brand
	if err := db.WithContext(ctx).Where("brand_id = ?", brandID).First(&brand).Error; err != nil {
		return apperr.NotFound("Brand not found")
	}

	asset, err := assetStore.Upload(ctx, data)
	if err != nil {
		log.Error("Logo upload failed", zap.Error(err))
		return apperr.Internal(err)
	}

	oldLogoID := brand.BrandLogo.ID
	changes := map[string]interface{}{
		"logo_id":  asset.PublicID,
		"logo_url": asset.URL,
	}
	if err := db.WithContext(ctx).Model(&brand).Updates(changes).Error; err != nil {
		return apperr.Internal(err)
	}
	brand.BrandLogo = model.BrandLogo{ID: asset.PublicID, URL: asset.URL}

	if oldLogoID != "" {
		if _, err := assetStore.Delete(ctx, oldLogoID); err != nil {
			log.Warn("Failed to delete previous logo", zap.Error(err))
		}
	}

	prometheus.RecordResourceOp("brand", "logo_update")
	return ok(c, "Brand logo updated successfully", brand.BrandLogo)
}
