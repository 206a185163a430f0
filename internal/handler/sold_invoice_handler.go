package handler

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sajib9090/restaurant-management-backend/internal/apperr"
	"github.com/sajib9090/restaurant-management-backend/internal/authz"
	"github.com/sajib9090/restaurant-management-backend/internal/middleware"
	"github.com/sajib9090/restaurant-management-backend/internal/model"
	"github.com/sajib9090/restaurant-management-backend/pkg/database"
	"github.com/sajib9090/restaurant-management-backend/pkg/logger"
	"github.com/sajib9090/restaurant-management-backend/prometheus"
)

// AddSoldInvoice records a finalized sale. When a member mobile is
// attached, the member's lifetime totals are updated in the same
// transaction as the invoice insert.
func AddSoldInvoice(c echo.Context) error {
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
		ServedBy      string              `json:"served_by"`
		Items         []model.InvoiceItem `json:"items"`
		TotalDiscount float64             `json:"total_discount"`
		MemberMobile  string              `json:"member"`
		TableName     string              `json:"table_name"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequest("Invalid request body")
	}

	servedBy, err := validateName("Served by", req.ServedBy, 3, 30)
	if err != nil {
		return err
	}
	servedBy = normalizeName(servedBy)

	if len(req.Items) == 0 {
		return apperr.BadRequest("Invoice must contain at least one item")
	}
	var subtotal float64
	for _, item := range req.Items {
		if item.ItemName == "" {
			return apperr.BadRequest("Item name is required")
		}
		if item.ItemPrice <= 0 {
			return apperr.BadRequest("Item price must be a positive number")
		}
		if item.Quantity <= 0 {
			return apperr.BadRequest("Item quantity must be a positive number")
		}
		subtotal += item.ItemPrice * float64(item.Quantity)
	}
	if req.TotalDiscount < 0 || req.TotalDiscount > subtotal {
		return apperr.BadRequest("Invalid discount amount")
	}
	totalBill := subtotal - req.TotalDiscount

	db := database.GetDB()

	var staffCount int64
	if err := db.WithContext(ctx).Model(&model.Staff{}).
		Where("brand_id = ? AND name = ?", brandID, servedBy).
		Count(&staffCount).Error; err != nil {
		return apperr.Internal(err)
	}
	if staffCount == 0 {
		return apperr.BadRequest("Serving staff does not exist")
	}

	var count int64
	if err := db.WithContext(ctx).Model(&model.SoldInvoice{}).Count(&count).Error; err != nil {
		return apperr.Internal(err)
	}

	invoice := model.SoldInvoice{
		InvoiceID:     model.NewEntityID(count),
		BrandID:       brandID,
		ServedBy:      servedBy,
		Items:         req.Items,
		TotalBill:     totalBill,
		TotalDiscount: req.TotalDiscount,
		TableName:     normalizeName(req.TableName),
		CreatedBy:     p.UserID,
	}

	defer prometheus.TrackDBOperation("invoice_create")(time.Now())

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if req.MemberMobile != "" {
			mobile, err := validateMobile(req.MemberMobile)
			if err != nil {
				return err
			}

			var member model.Member
			if err := tx.Where("brand_id = ? AND mobile = ?", brandID, mobile).
				First(&member).Error; err != nil {
				return apperr.NotFound("Member not found")
			}

			invoice.MemberMobile = mobile
			updates := map[string]interface{}{
				"total_spent":    gorm.Expr("total_spent + ?", totalBill),
				"total_discount": gorm.Expr("total_discount + ?", req.TotalDiscount),
			}
			if err := tx.Model(&member).Updates(updates).Error; err != nil {
				return err
			}
		}

		return tx.Create(&invoice).Error
	})
	if err != nil {
		if apperr.Status(err) < 500 {
			return err
		}
		log.Error("Failed to record invoice", zap.Error(err))
		return apperr.Internal(err)
	}

	prometheus.RecordResourceOp("invoice", "create")
	return created(c, "Invoice recorded successfully", invoice)
}

// GetSoldInvoice fetches a single invoice by external id within the
// brand scope.
func GetSoldInvoice(c echo.Context) error {
	p := middleware.PrincipalFromEcho(c)
	ctx := c.Request().Context()

	if err := authorizer.Authorize(ctx, p, authz.OpEntityRead); err != nil {
		return err
	}

	var invoice model.SoldInvoice
	err := database.GetDB().WithContext(ctx).Scopes(brandScope(p)).
		Where("invoice_id = ?", c.Param("id")).
		First(&invoice).Error
	if err != nil {
		return apperr.NotFound("Invoice not found")
	}

	prometheus.RecordResourceOp("invoice", "get")
	return ok(c, "Invoice retrieved successfully", invoice)
}

// GetSoldInvoices lists invoices within the authorization scope,
// newest first, with optional day filter.
func GetSoldInvoices(c echo.Context) error {
	p := middleware.PrincipalFromEcho(c)
	ctx := c.Request().Context()

	if err := authorizer.Authorize(ctx, p, authz.OpEntityRead); err != nil {
		return err
	}

	params := parseListParams(c)
	db := database.GetDB().WithContext(ctx).Model(&model.SoldInvoice{}).
		Scopes(authz.ListScope(p, params.Brand, params.Search, "served_by", "table_name"))

	if date := c.QueryParam("date"); date != "" {
		day, err := time.Parse("2006-01-02", date)
		if err != nil {
			return apperr.BadRequest("Date must be in YYYY-MM-DD format")
		}
		db = db.Where("created_at >= ? AND created_at < ?", day, day.AddDate(0, 0, 1))
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return apperr.Internal(err)
	}

	query := db.Order("created_at DESC")
	if params.Limit > 0 {
		query = query.Offset(params.offset()).Limit(params.Limit)
	}

	var invoices []model.SoldInvoice
	if err := query.Find(&invoices).Error; err != nil {
		return apperr.Internal(err)
	}

	prometheus.RecordResourceOp("invoice", "list")
	return listResponse(c, "Invoices retrieved successfully", total, params, invoices)
}
