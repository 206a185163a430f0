package handler

import (
	"fmt"
	"time"

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

// CreateCategory adds a menu category to the principal's brand.
func CreateCategory(c echo.Context) error {
	log := logger.FromEcho(c)
	p := middleware.PrincipalFromEcho(c)
	ctx := c.Request().Context()

	if err := authorizer.Authorize(ctx, p, authz.OpEntityWrite); err != nil {
		return err
	}
	brandID, err := actingBrand(p)
	if err != nil {
		return err
	}

	var req struct {
		Name string `json:"category"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequest("Invalid request body")
	}

	name, err := validateName("Category", req.Name, 3, 30)
	if err != nil {
		return err
	}
	name = normalizeName(name)

	db := database.GetDB()
	defer prometheus.TrackDBOperation("category_create")(time.Now())

	var dup int64
	if err := db.WithContext(ctx).Model(&model.Category{}).
		Where("brand_id = ? AND name = ?", brandID, name).
		Count(&dup).Error; err != nil {
		return apperr.Internal(err)
	}
	if dup > 0 {
		return apperr.Conflict("Category already exists")
	}

	var count int64
	if err := db.WithContext(ctx).Model(&model.Category{}).Count(&count).Error; err != nil {
		return apperr.Internal(err)
	}

	category := model.Category{
		CategoryID: model.NewEntityID(count),
		BrandID:    brandID,
		Name:       name,
		CreatedBy:  p.UserID,
	}
	if err := db.WithContext(ctx).Create(&category).Error; err != nil {
		log.Error("Failed to create category", zap.Error(err))
		return apperr.Internal(err)
	}

	prometheus.RecordResourceOp("category", "create")
	return created(c, "Category created successfully", category)
}

// GetCategories lists categories within the authorization scope.
func GetCategories(c echo.Context) error {
	p := middleware.PrincipalFromEcho(c)
	ctx := c.Request().Context()

	if err := authorizer.Authorize(ctx, p, authz.OpEntityRead); err != nil {
		return err
	}

	params := parseListParams(c)
	db := database.GetDB().WithContext(ctx).Model(&model.Category{}).
		Scopes(authz.ListScope(p, params.Brand, params.Search, "name"))

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return apperr.Internal(err)
	}

	query := db.Order("name ASC")
	if params.Limit > 0 {
		query = query.Offset(params.offset()).Limit(params.Limit)
	}

	var categories []model.Category
	if err := query.Find(&categories).Error; err != nil {
		return apperr.Internal(err)
	}

	prometheus.RecordResourceOp("category", "list")
	return listResponse(c, "Categories retrieved successfully", total, params, categories)
}

// UpdateCategory renames a category.
func UpdateCategory(c echo.Context) error {
	p := middleware.PrincipalFromEcho(c)
	ctx := c.Request().Context()

	if err := authorizer.Authorize(ctx, p, authz.OpEntityWrite); err != nil {
		return err
	}

	var req struct {
		Name *string `json:"category"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequest("Invalid request body")
	}

	db := database.GetDB()
	var category model.Category
	err := db.WithContext(ctx).Scopes(brandScope(p)).
		Where("category_id = ?", c.Param("id")).
		First(&category).Error
	if err != nil {
		return apperr.NotFound("Category not found")
	}

	changes := map[string]interface{}{}
	if req.Name != nil {
		name, err := validateName("Category", *req.Name, 3, 30)
		if err != nil {
			return err
		}
		name = normalizeName(name)
		if name != category.Name {
			var dup int64
			if err := db.WithContext(ctx).Model(&model.Category{}).
				Where("brand_id = ? AND name = ? AND id <> ?", category.BrandID, name, category.ID).
				Count(&dup).Error; err != nil {
				return apperr.Internal(err)
			}
			if dup > 0 {
				return apperr.Conflict("Category already exists")
			}
			changes["name"] = name
		}
	}

	if len(changes) == 0 {
		return apperr.BadRequest("No fields to update")
	}
	changes["updated_by"] = p.UserID

	if err := db.WithContext(ctx).Model(&category).Updates(changes).Error; err != nil {
		return apperr.Internal(err)
	}

	prometheus.RecordResourceOp("category", "update")
	return ok(c, "Category updated successfully", category)
}

// DeleteCategories removes a batch of categories by external id.
func DeleteCategories(c echo.Context) error {
	p := middleware.PrincipalFromEcho(c)
	ctx := c.Request().Context()

	if err := authorizer.Authorize(ctx, p, authz.OpEntityWrite); err != nil {
		return err
	}

	ids, err := bindIDs(c)
	if err != nil {
		return err
	}

	res := database.GetDB().WithContext(ctx).Scopes(brandScope(p)).
		Where("category_id IN ?", ids).
		Unscoped().Delete(&model.Category{})
	if res.Error != nil {
		return apperr.Internal(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("No categories found to delete")
	}

	prometheus.RecordResourceOp("category", "delete")
	return ok(c, fmt.Sprintf("%d category(ies) deleted successfully", res.RowsAffected), nil)
}
