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

// categoryExists checks that a category name is registered within the
// brand.
func categoryExists(c echo.Context, brandID, name string) error {
	var count int64
	err := database.GetDB().WithContext(c.Request().Context()).
		Model(&model.Category{}).
		Where("brand_id = ? AND name = ?", brandID, name).
		Count(&count).Error
	if err != nil {
		return apperr.Internal(err)
	}
	if count == 0 {
		return apperr.BadRequest("Category does not exist")
	}
	return nil
}

// CreateMenuItem adds a menu item to the principal's brand. The item's
// category must already exist within the brand.
func CreateMenuItem(c echo.Context) error {
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
		Name     string  `json:"item_name"`
		Category string  `json:"category"`
		Price    float64 `json:"item_price"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequest("Invalid request body")
	}

	name, err := validateName("Item name", req.Name, 3, 100)
	if err != nil {
		return err
	}
	name = normalizeName(name)

	category, err := validateName("Category", req.Category, 3, 30)
	if err != nil {
		return err
	}
	category = normalizeName(category)
	if err := categoryExists(c, brandID, category); err != nil {
		return err
	}

	if err := validatePrice(req.Price); err != nil {
		return err
	}

	db := database.GetDB()
	defer prometheus.TrackDBOperation("menu_item_create")(time.Now())

	var dup int64
	if err := db.WithContext(ctx).Model(&model.MenuItem{}).
		Where("brand_id = ? AND name = ?", brandID, name).
		Count(&dup).Error; err != nil {
		return apperr.Internal(err)
	}
	if dup > 0 {
		return apperr.Conflict("Menu item already exists")
	}

	var count int64
	if err := db.WithContext(ctx).Model(&model.MenuItem{}).Count(&count).Error; err != nil {
		return apperr.Internal(err)
	}

	item := model.MenuItem{
		ItemID:    model.NewEntityID(count),
		BrandID:   brandID,
		Name:      name,
		Category:  category,
		Price:     req.Price,
		Discount:  true,
		CreatedBy: p.UserID,
	}
	if err := db.WithContext(ctx).Create(&item).Error; err != nil {
		log.Error("Failed to create menu item", zap.Error(err))
		return apperr.Internal(err)
	}

	prometheus.RecordResourceOp("menu_item", "create")
	return created(c, "Menu item created successfully", item)
}

// GetMenuItems lists menu items within the authorization scope with
// optional category filter and price or discount ordering.
func GetMenuItems(c echo.Context) error {
	p := middleware.PrincipalFromEcho(c)
	ctx := c.Request().Context()

	if err := authorizer.Authorize(ctx, p, authz.OpEntityRead); err != nil {
		return err
	}

	params := parseListParams(c)
	db := database.GetDB().WithContext(ctx).Model(&model.MenuItem{}).
		Scopes(authz.ListScope(p, params.Brand, params.Search, "name", "category"))

	if category := c.QueryParam("category"); category != "" {
		db = db.Where("category = ?", normalizeName(category))
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return apperr.Internal(err)
	}

	order := "name ASC"
	switch c.QueryParam("sort") {
	case "price_asc":
		order = "price ASC"
	case "price_desc":
		order = "price DESC"
	case "discount":
		order = "discount DESC, name ASC"
	}

	query := db.Order(order)
	if params.Limit > 0 {
		query = query.Offset(params.offset()).Limit(params.Limit)
	}

	var items []model.MenuItem
	if err := query.Find(&items).Error; err != nil {
		return apperr.Internal(err)
	}

	prometheus.RecordResourceOp("menu_item", "list")
	return listResponse(c, "Menu items retrieved successfully", total, params, items)
}

// UpdateMenuItem applies a sparse update to a menu item.
func UpdateMenuItem(c echo.Context) error {
	p := middleware.PrincipalFromEcho(c)
	ctx := c.Request().Context()

	if err := authorizer.Authorize(ctx, p, authz.OpEntityWrite); err != nil {
		return err
	}

	var req struct {
		Name     *string  `json:"item_name"`
		Category *string  `json:"category"`
		Price    *float64 `json:"item_price"`
		Discount *bool    `json:"discount"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequest("Invalid request body")
	}

	db := database.GetDB()
	var item model.MenuItem
	err := db.WithContext(ctx).Scopes(brandScope(p)).
		Where("item_id = ?", c.Param("id")).
		First(&item).Error
	if err != nil {
		return apperr.NotFound("Menu item not found")
	}

	changes := map[string]interface{}{}
	if req.Name != nil {
		name, err := validateName("Item name", *req.Name, 3, 100)
		if err != nil {
			return err
		}
		name = normalizeName(name)
		if name != item.Name {
			var dup int64
			if err := db.WithContext(ctx).Model(&model.MenuItem{}).
				Where("brand_id = ? AND name = ? AND id <> ?", item.BrandID, name, item.ID).
				Count(&dup).Error; err != nil {
				return apperr.Internal(err)
			}
			if dup > 0 {
				return apperr.Conflict("Menu item already exists")
			}
			changes["name"] = name
		}
	}
	if req.Category != nil {
		category, err := validateName("Category", *req.Category, 3, 30)
		if err != nil {
			return err
		}
		category = normalizeName(category)
		if category != item.Category {
			if err := categoryExists(c, item.BrandID, category); err != nil {
				return err
			}
			changes["category"] = category
		}
	}
	if req.Price != nil {
		if err := validatePrice(*req.Price); err != nil {
			return err
		}
		if *req.Price != item.Price {
			changes["price"] = *req.Price
		}
	}
	if req.Discount != nil && *req.Discount != item.Discount {
		changes["discount"] = *req.Discount
	}

	if len(changes) == 0 {
		return apperr.BadRequest("No fields to update")
	}
	changes["updated_by"] = p.UserID

	if err := db.WithContext(ctx).Model(&item).Updates(changes).Error; err != nil {
		return apperr.Internal(err)
	}

	prometheus.RecordResourceOp("menu_item", "update")
	return ok(c, "Menu item updated successfully", item)
}

// DeleteMenuItems removes a batch of menu items by external id.
func DeleteMenuItems(c echo.Context) error {
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
		Where("item_id IN ?", ids).
		Unscoped().Delete(&model.MenuItem{})
	if res.Error != nil {
		return apperr.Internal(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("No menu items found to delete")
	}

	prometheus.RecordResourceOp("menu_item", "delete")
	return ok(c, fmt.Sprintf("%d menu item(s) deleted successfully", res.RowsAffected), nil)
}
