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

// CreateTable adds a dining table to the principal's brand.
func CreateTable(c echo.Context) error {
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
		Name string `json:"table_name"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequest("Invalid request body")
	}

	name, err := validateName("Table name", req.Name, 2, 30)
	if err != nil {
		return err
	}
	name = normalizeName(name)

	db := database.GetDB()
	defer prometheus.TrackDBOperation("table_create")(time.Now())

	var dup int64
	if err := db.WithContext(ctx).Model(&model.Table{}).
		Where("brand_id = ? AND name = ?", brandID, name).
		Count(&dup).Error; err != nil {
		return apperr.Internal(err)
	}
	if dup > 0 {
		return apperr.Conflict("Table already exists")
	}

	var count int64
	if err := db.WithContext(ctx).Model(&model.Table{}).Count(&count).Error; err != nil {
		return apperr.Internal(err)
	}

	table := model.Table{
		TableID:   model.NewEntityID(count),
		BrandID:   brandID,
		Name:      name,
		CreatedBy: p.UserID,
	}
	if err := db.WithContext(ctx).Create(&table).Error; err != nil {
		log.Error("Failed to create table", zap.Error(err))
		return apperr.Internal(err)
	}

	prometheus.RecordResourceOp("table", "create")
	return created(c, "Table created successfully", table)
}

// GetTables lists tables within the authorization scope.
func GetTables(c echo.Context) error {
	p := middleware.PrincipalFromEcho(c)
	ctx := c.Request().Context()

	if err := authorizer.Authorize(ctx, p, authz.OpEntityRead); err != nil {
		return err
	}

	params := parseListParams(c)
	db := database.GetDB().WithContext(ctx).Model(&model.Table{}).
		Scopes(authz.ListScope(p, params.Brand, params.Search, "name"))

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return apperr.Internal(err)
	}

	query := db.Order("name ASC")
	if params.Limit > 0 {
		query = query.Offset(params.offset()).Limit(params.Limit)
	}

	var tables []model.Table
	if err := query.Find(&tables).Error; err != nil {
		return apperr.Internal(err)
	}

	prometheus.RecordResourceOp("table", "list")
	return listResponse(c, "Tables retrieved successfully", total, params, tables)
}

// UpdateTable renames a table. Only changed fields are written; an
// unchanged payload is rejected.
func UpdateTable(c echo.Context) error {
	p := middleware.PrincipalFromEcho(c)
	ctx := c.Request().Context()

	if err := authorizer.Authorize(ctx, p, authz.OpEntityWrite); err != nil {
		return err
	}

	var req struct {
		Name *string `json:"table_name"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequest("Invalid request body")
	}

	db := database.GetDB()
	var table model.Table
	err := db.WithContext(ctx).Scopes(brandScope(p)).
		Where("table_id = ?", c.Param("id")).
		First(&table).Error
	if err != nil {
		return apperr.NotFound("Table not found")
	}

	changes := map[string]interface{}{}
	if req.Name != nil {
		name, err := validateName("Table name", *req.Name, 2, 30)
		if err != nil {
			return err
		}
		name = normalizeName(name)
		if name != table.Name {
			var dup int64
			if err := db.WithContext(ctx).Model(&model.Table{}).
				Where("brand_id = ? AND name = ? AND id <> ?", table.BrandID, name, table.ID).
				Count(&dup).Error; err != nil {
				return apperr.Internal(err)
			}
			if dup > 0 {
				return apperr.Conflict("Table already exists")
			}
			changes["name"] = name
		}
	}

	if len(changes) == 0 {
		return apperr.BadRequest("No fields to update")
	}
	changes["updated_by"] = p.UserID

	if err := db.WithContext(ctx).Model(&table).Updates(changes).Error; err != nil {
		return apperr.Internal(err)
	}

	prometheus.RecordResourceOp("table", "update")
	return ok(c, "Table updated successfully", table)
}

// DeleteTables removes a batch of tables by external id. Zero matches
// is a not-found; a partial match deletes the matching subset.
func DeleteTables(c echo.Context) error {
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
		Where("table_id IN ?", ids).
		Unscoped().Delete(&model.Table{})
	if res.Error != nil {
		return apperr.Internal(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("No tables found to delete")
	}

	prometheus.RecordResourceOp("table", "delete")
	return ok(c, fmt.Sprintf("%d table(s) deleted successfully", res.RowsAffected), nil)
}
