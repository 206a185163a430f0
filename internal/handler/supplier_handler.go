package handler

import (
	"fmt"
	"strings"
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

// CreateSupplier adds a supplier to the principal's brand.
func CreateSupplier(c echo.Context) error {
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
		Name    string `json:"supplier_name"`
		Mobile  string `json:"mobile"`
		Address string `json:"address"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequest("Invalid request body")
	}

	name, err := validateName("Supplier name", req.Name, 3, 100)
	if err != nil {
		return err
	}
	name = normalizeName(name)

	mobile := strings.TrimSpace(req.Mobile)
	if mobile != "" {
		if mobile, err = validateMobile(mobile); err != nil {
			return err
		}
	}

	db := database.GetDB()
	defer prometheus.TrackDBOperation("supplier_create")(time.Now())

	var dup int64
	if err := db.WithContext(ctx).Model(&model.Supplier{}).
		Where("brand_id = ? AND name = ?", brandID, name).
		Count(&dup).Error; err != nil {
		return apperr.Internal(err)
	}
	if dup > 0 {
		return apperr.Conflict("Supplier already exists")
	}

	supplier := model.Supplier{
		SupplierID: model.NewBareID(),
		BrandID:    brandID,
		Name:       name,
		Mobile:     mobile,
		Address:    strings.TrimSpace(req.Address),
		CreatedBy:  p.UserID,
	}
	if err := db.WithContext(ctx).Create(&supplier).Error; err != nil {
		log.Error("Failed to create supplier", zap.Error(err))
		return apperr.Internal(err)
	}

	prometheus.RecordResourceOp("supplier", "create")
	return created(c, "Supplier created successfully", supplier)
}

// GetSuppliers lists suppliers within the authorization scope.
func GetSuppliers(c echo.Context) error {
	p := middleware.PrincipalFromEcho(c)
	ctx := c.Request().Context()

	if err := authorizer.Authorize(ctx, p, authz.OpEntityRead); err != nil {
		return err
	}

	params := parseListParams(c)
	db := database.GetDB().WithContext(ctx).Model(&model.Supplier{}).
		Scopes(authz.ListScope(p, params.Brand, params.Search, "name", "address"))

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return apperr.Internal(err)
	}

	query := db.Order("name ASC")
	if params.Limit > 0 {
		query = query.Offset(params.offset()).Limit(params.Limit)
	}

	var suppliers []model.Supplier
	if err := query.Find(&suppliers).Error; err != nil {
		return apperr.Internal(err)
	}

	prometheus.RecordResourceOp("supplier", "list")
	return listResponse(c, "Suppliers retrieved successfully", total, params, suppliers)
}

// UpdateSupplier applies a sparse update to a supplier.
func UpdateSupplier(c echo.Context) error {
	p := middleware.PrincipalFromEcho(c)
	ctx := c.Request().Context()

	if err := authorizer.Authorize(ctx, p, authz.OpEntityWrite); err != nil {
		return err
	}

	var req struct {
		Name    *string `json:"supplier_name"`
		Mobile  *string `json:"mobile"`
		Address *string `json:"address"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequest("Invalid request body")
	}

	db := database.GetDB()
	var supplier model.Supplier
	err := db.WithContext(ctx).Scopes(brandScope(p)).
		Where("supplier_id = ?", c.Param("id")).
		First(&supplier).Error
	if err != nil {
		return apperr.NotFound("Supplier not found")
	}

	changes := map[string]interface{}{}
	if req.Name != nil {
		name, err := validateName("Supplier name", *req.Name, 3, 100)
		if err != nil {
			return err
		}
		name = normalizeName(name)
		if name != supplier.Name {
			var dup int64
			if err := db.WithContext(ctx).Model(&model.Supplier{}).
				Where("brand_id = ? AND name = ? AND id <> ?", supplier.BrandID, name, supplier.ID).
				Count(&dup).Error; err != nil {
				return apperr.Internal(err)
			}
			if dup > 0 {
				return apperr.Conflict("Supplier already exists")
			}
			changes["name"] = name
		}
	}
	if req.Mobile != nil {
		mobile, err := validateMobile(*req.Mobile)
		if err != nil {
			return err
		}
		if mobile != supplier.Mobile {
			changes["mobile"] = mobile
		}
	}
	if req.Address != nil {
		address := strings.TrimSpace(*req.Address)
		if address != supplier.Address {
			changes["address"] = address
		}
	}

	if len(changes) == 0 {
		return apperr.BadRequest("No fields to update")
	}
	changes["updated_by"] = p.UserID

	if err := db.WithContext(ctx).Model(&supplier).Updates(changes).Error; err != nil {
		return apperr.Internal(err)
	}

	prometheus.RecordResourceOp("supplier", "update")
	return ok(c, "Supplier updated successfully", supplier)
}

// DeleteSuppliers removes a batch of suppliers by external id.
func DeleteSuppliers(c echo.Context) error {
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
		Where("supplier_id IN ?", ids).
		Unscoped().Delete(&model.Supplier{})
	if res.Error != nil {
		return apperr.Internal(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("No suppliers found to delete")
	}

	prometheus.RecordResourceOp("supplier", "delete")
	return ok(c, fmt.Sprintf("%d supplier(s) deleted successfully", res.RowsAffected), nil)
}
