package handler

import (
	"fmt"
	"net/http"
	"regexp"
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

var monthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// CreateStaff adds a serving staff member to the principal's brand.
func CreateStaff(c echo.Context) error {
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
		Name string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequest("Invalid request body")
	}

	name, err := validateName("Staff name", req.Name, 3, 30)
	if err != nil {
		return err
	}
	name = normalizeName(name)

	db := database.GetDB()
	defer prometheus.TrackDBOperation("staff_create")(time.Now())

	var dup int64
	if err := db.WithContext(ctx).Model(&model.Staff{}).
		Where("brand_id = ? AND name = ?", brandID, name).
		Count(&dup).Error; err != nil {
		return apperr.Internal(err)
	}
	if dup > 0 {
		return apperr.Conflict("Staff already exists")
	}

	var count int64
	if err := db.WithContext(ctx).Model(&model.Staff{}).Count(&count).Error; err != nil {
		return apperr.Internal(err)
	}

	staff := model.Staff{
		StaffID:   model.NewEntityID(count),
		BrandID:   brandID,
		Name:      name,
		CreatedBy: p.UserID,
	}
	if err := db.WithContext(ctx).Create(&staff).Error; err != nil {
		log.Error("Failed to create staff", zap.Error(err))
		return apperr.Internal(err)
	}

	prometheus.RecordResourceOp("staff", "create")
	return created(c, "Staff created successfully", staff)
}

// GetStaffs lists staff within the authorization scope.
func GetStaffs(c echo.Context) error {
	p := middleware.PrincipalFromEcho(c)
	ctx := c.Request().Context()

	if err := authorizer.Authorize(ctx, p, authz.OpEntityRead); err != nil {
		return err
	}

	params := parseListParams(c)
	db := database.GetDB().WithContext(ctx).Model(&model.Staff{}).
		Scopes(authz.ListScope(p, params.Brand, params.Search, "name"))

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return apperr.Internal(err)
	}

	query := db.Order("name ASC")
	if params.Limit > 0 {
		query = query.Offset(params.offset()).Limit(params.Limit)
	}

	var staffs []model.Staff
	if err := query.Find(&staffs).Error; err != nil {
		return apperr.Internal(err)
	}

	prometheus.RecordResourceOp("staff", "list")
	return listResponse(c, "Staffs retrieved successfully", total, params, staffs)
}

// UpdateStaff renames a staff member.
func UpdateStaff(c echo.Context) error {
	p := middleware.PrincipalFromEcho(c)
	ctx := c.Request().Context()

	if err := authorizer.Authorize(ctx, p, authz.OpEntityWrite); err != nil {
		return err
	}

	var req struct {
		Name *string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequest("Invalid request body")
	}

	db := database.GetDB()
	var staff model.Staff
	err := db.WithContext(ctx).Scopes(brandScope(p)).
		Where("staff_id = ?", c.Param("id")).
		First(&staff).Error
	if err != nil {
		return apperr.NotFound("Staff not found")
	}

	changes := map[string]interface{}{}
	if req.Name != nil {
		name, err := validateName("Staff name", *req.Name, 3, 30)
		if err != nil {
			return err
		}
		name = normalizeName(name)
		if name != staff.Name {
			var dup int64
			if err := db.WithContext(ctx).Model(&model.Staff{}).
				Where("brand_id = ? AND name = ? AND id <> ?", staff.BrandID, name, staff.ID).
				Count(&dup).Error; err != nil {
				return apperr.Internal(err)
			}
			if dup > 0 {
				return apperr.Conflict("Staff already exists")
			}
			changes["name"] = name
		}
	}

	if len(changes) == 0 {
		return apperr.BadRequest("No fields to update")
	}
	changes["updated_by"] = p.UserID

	if err := db.WithContext(ctx).Model(&staff).Updates(changes).Error; err != nil {
		return apperr.Internal(err)
	}

	prometheus.RecordResourceOp("staff", "update")
	return ok(c, "Staff updated successfully", staff)
}

// DeleteStaffs removes a batch of staff by external id.
func DeleteStaffs(c echo.Context) error {
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
		Where("staff_id IN ?", ids).
		Unscoped().Delete(&model.Staff{})
	if res.Error != nil {
		return apperr.Internal(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("No staffs found to delete")
	}

	prometheus.RecordResourceOp("staff", "delete")
	return ok(c, fmt.Sprintf("%d staff(s) deleted successfully", res.RowsAffected), nil)
}

// GetStaffSellRecord reports a staff member's sales for one month,
// summed per day from the brand's sold invoices.
func GetStaffSellRecord(c echo.Context) error {
	p := middleware.PrincipalFromEcho(c)
	ctx := c.Request().Context()

	if err := authorizer.Authorize(ctx, p, authz.OpEntityRead); err != nil {
		return err
	}
	brandID, err := actingBrand(p)
	if err != nil {
		return err
	}

	month := c.QueryParam("month")
	if !monthPattern.MatchString(month) {
		return apperr.BadRequest("Month must be in YYYY-MM format")
	}

	db := database.GetDB()
	var staff model.Staff
	err = db.WithContext(ctx).
		Where("brand_id = ? AND staff_id = ?", brandID, c.Param("id")).
		First(&staff).Error
	if err != nil {
		return apperr.NotFound("Staff not found")
	}

	start, err := time.Parse("2006-01", month)
	if err != nil {
		return apperr.BadRequest("Month must be in YYYY-MM format")
	}
	end := start.AddDate(0, 1, 0)

	var invoices []model.SoldInvoice
	err = db.WithContext(ctx).
		Where("brand_id = ? AND served_by = ? AND created_at >= ? AND created_at < ?",
			brandID, staff.Name, start, end).
		Order("created_at ASC").
		Find(&invoices).Error
	if err != nil {
		return apperr.Internal(err)
	}

	type dailySell struct {
		Date      string  `json:"date"`
		TotalSell float64 `json:"total_sell"`
		Invoices  int     `json:"invoices"`
	}

	byDay := map[string]*dailySell{}
	order := []string{}
	for _, inv := range invoices {
		day := inv.CreatedAt.Format("2006-01-02")
		entry, found := byDay[day]
		if !found {
			entry = &dailySell{Date: day}
			byDay[day] = entry
			order = append(order, day)
		}
		entry.TotalSell += inv.TotalBill
		entry.Invoices++
	}

	record := make([]dailySell, 0, len(order))
	var monthTotal float64
	for _, day := range order {
		record = append(record, *byDay[day])
		monthTotal += byDay[day].TotalSell
	}

	prometheus.RecordResourceOp("staff", "sell_record")
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Sell record retrieved successfully",
		"data": echo.Map{
			"staff":       staff.Name,
			"month":       month,
			"month_total": monthTotal,
			"record":      record,
		},
	})
}
