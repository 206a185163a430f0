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

// CreateMember enrolls a loyalty member. The mobile number is the
// natural key, unique within the brand.
func CreateMember(c echo.Context) error {
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
		Name          string   `json:"name"`
		Mobile        string   `json:"mobile"`
		DiscountValue *float64 `json:"discount_value"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequest("Invalid request body")
	}

	name, err := validateName("Member name", req.Name, 3, 30)
	if err != nil {
		return err
	}
	name = normalizeName(name)

	mobile, err := validateMobile(req.Mobile)
	if err != nil {
		return err
	}

	discountValue := 10.0
	if req.DiscountValue != nil {
		if *req.DiscountValue < 0 || *req.DiscountValue > 100 {
			return apperr.BadRequest("Discount value must be between 0 and 100")
		}
		discountValue = *req.DiscountValue
	}

	db := database.GetDB()
	defer prometheus.TrackDBOperation("member_create")(time.Now())

	var dup int64
	if err := db.WithContext(ctx).Model(&model.Member{}).
		Where("brand_id = ? AND mobile = ?", brandID, mobile).
		Count(&dup).Error; err != nil {
		return apperr.Internal(err)
	}
	if dup > 0 {
		return apperr.Conflict("Member already exists with this mobile number")
	}

	var count int64
	if err := db.WithContext(ctx).Model(&model.Member{}).Count(&count).Error; err != nil {
		return apperr.Internal(err)
	}

	member := model.Member{
		MemberID:      model.NewEntityID(count),
		BrandID:       brandID,
		Name:          name,
		Mobile:        mobile,
		DiscountValue: discountValue,
		CreatedBy:     p.UserID,
	}
	if err := db.WithContext(ctx).Create(&member).Error; err != nil {
		log.Error("Failed to create member", zap.Error(err))
		return apperr.Internal(err)
	}

	prometheus.RecordResourceOp("member", "create")
	return created(c, "Member created successfully", member)
}

// GetMembers lists members within the authorization scope, optionally
// ordered by lifetime spend or accumulated discount.
func GetMembers(c echo.Context) error {
	p := middleware.PrincipalFromEcho(c)
	ctx := c.Request().Context()

	if err := authorizer.Authorize(ctx, p, authz.OpEntityRead); err != nil {
		return err
	}

	params := parseListParams(c)
	db := database.GetDB().WithContext(ctx).Model(&model.Member{}).
		Scopes(authz.ListScope(p, params.Brand, params.Search, "name", "mobile"))

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return apperr.Internal(err)
	}

	order := "name ASC"
	switch c.QueryParam("sort") {
	case "spent":
		order = "total_spent DESC"
	case "discount":
		order = "total_discount DESC"
	}

	query := db.Order(order)
	if params.Limit > 0 {
		query = query.Offset(params.offset()).Limit(params.Limit)
	}

	var members []model.Member
	if err := query.Find(&members).Error; err != nil {
		return apperr.Internal(err)
	}

	prometheus.RecordResourceOp("member", "list")
	return listResponse(c, "Members retrieved successfully", total, params, members)
}

// GetMemberByMobile looks up a single member of the principal's brand
// by mobile number.
func GetMemberByMobile(c echo.Context) error {
	p := middleware.PrincipalFromEcho(c)
	ctx := c.Request().Context()

	if err := authorizer.Authorize(ctx, p, authz.OpEntityRead); err != nil {
		return err
	}
	brandID, err := actingBrand(p)
	if err != nil {
		return err
	}

	mobile, err := validateMobile(c.Param("mobile"))
	if err != nil {
		return err
	}

	var member model.Member
	err = database.GetDB().WithContext(ctx).
		Where("brand_id = ? AND mobile = ?", brandID, mobile).
		First(&member).Error
	if err != nil {
		return apperr.NotFound("Member not found")
	}

	prometheus.RecordResourceOp("member", "get")
	return ok(c, "Member retrieved successfully", member)
}

// UpdateMember applies a sparse update to a member.
func UpdateMember(c echo.Context) error {
	p := middleware.PrincipalFromEcho(c)
	ctx := c.Request().Context()

	if err := authorizer.Authorize(ctx, p, authz.OpEntityWrite); err != nil {
		return err
	}

	var req struct {
		Name          *string  `json:"name"`
		Mobile        *string  `json:"mobile"`
		DiscountValue *float64 `json:"discount_value"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequest("Invalid request body")
	}

	db := database.GetDB()
	var member model.Member
	err := db.WithContext(ctx).Scopes(brandScope(p)).
		Where("member_id = ?", c.Param("id")).
		First(&member).Error
	if err != nil {
		return apperr.NotFound("Member not found")
	}

	changes := map[string]interface{}{}
	if req.Name != nil {
		name, err := validateName("Member name", *req.Name, 3, 30)
		if err != nil {
			return err
		}
		name = normalizeName(name)
		if name != member.Name {
			changes["name"] = name
		}
	}
	if req.Mobile != nil {
		mobile, err := validateMobile(*req.Mobile)
		if err != nil {
			return err
		}
		if mobile != member.Mobile {
			var dup int64
			if err := db.WithContext(ctx).Model(&model.Member{}).
				Where("brand_id = ? AND mobile = ? AND id <> ?", member.BrandID, mobile, member.ID).
				Count(&dup).Error; err != nil {
				return apperr.Internal(err)
			}
			if dup > 0 {
				return apperr.Conflict("Member already exists with this mobile number")
			}
			changes["mobile"] = mobile
		}
	}
	if req.DiscountValue != nil {
		if *req.DiscountValue < 0 || *req.DiscountValue > 100 {
			return apperr.BadRequest("Discount value must be between 0 and 100")
		}
		if *req.DiscountValue != member.DiscountValue {
			changes["discount_value"] = *req.DiscountValue
		}
	}

	if len(changes) == 0 {
		return apperr.BadRequest("No fields to update")
	}
	changes["updated_by"] = p.UserID

	if err := db.WithContext(ctx).Model(&member).Updates(changes).Error; err != nil {
		return apperr.Internal(err)
	}

	prometheus.RecordResourceOp("member", "update")
	return ok(c, "Member updated successfully", member)
}

// DeleteMembers removes a batch of members by external id.
func DeleteMembers(c echo.Context) error {
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
		Where("member_id IN ?", ids).
		Unscoped().Delete(&model.Member{})
	if res.Error != nil {
		return apperr.Internal(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("No members found to delete")
	}

	prometheus.RecordResourceOp("member", "delete")
	return ok(c, fmt.Sprintf("%d member(s) deleted successfully", res.RowsAffected), nil)
}
