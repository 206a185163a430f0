package handler

import (
	"net/http"
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

// subscriptionDays is the lifetime granted by a plan purchase.
const subscriptionDays = 30

// CreatePlan registers a new global subscription plan.
func CreatePlan(c echo.Context) error {
	log := logger.FromEcho(c)
	p := middleware.PrincipalFromEcho(c)
	ctx := c.Request().Context()

	if err := authorizer.Authorize(ctx, p, authz.OpPlanCreate); err != nil {
		return err
	}

	var req struct {
		Name        string   `json:"plan_name"`
		Price       float64  `json:"price"`
		UserLimit   int      `json:"user_limit"`
		Description string   `json:"description"`
		Features    []string `json:"features"`
		Limitations []string `json:"limitations"`
		Terms       []string `json:"terms"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequest("Invalid request body")
	}

	name, err := validateName("Plan name", req.Name, 3, 30)
	if err != nil {
		return err
	}
	name = normalizeName(name)
	if err := validatePrice(req.Price); err != nil {
		return err
	}
	if req.UserLimit <= 0 {
		return apperr.BadRequest("User limit must be a positive number")
	}

	db := database.GetDB()
	var dup int64
	if err := db.WithContext(ctx).Model(&model.Plan{}).
		Where("name = ?", name).
		Count(&dup).Error; err != nil {
		return apperr.Internal(err)
	}
	if dup > 0 {
		return apperr.Conflict("Plan already exists")
	}

	plan := model.Plan{
		PlanID:      model.NewBareID(),
		Name:        name,
		Price:       req.Price,
		UserLimit:   req.UserLimit,
		Duration:    "monthly",
		Currency:    "BDT",
		Description: req.Description,
		Features:    req.Features,
		Limitations: req.Limitations,
		Terms:       req.Terms,
		CreatedBy:   p.UserID,
	}
	if err := db.WithContext(ctx).Create(&plan).Error; err != nil {
		log.Error("Failed to create plan", zap.Error(err))
		return apperr.Internal(err)
	}

	prometheus.RecordResourceOp("plan", "create")
	return created(c, "Plan created successfully", plan)
}

// GetPlans lists all plans, cheapest first. Public.
func GetPlans(c echo.Context) error {
	ctx := c.Request().Context()

	var plans []model.Plan
	err := database.GetDB().WithContext(ctx).
		Order("price ASC").
		Find(&plans).Error
	if err != nil {
		return apperr.Internal(err)
	}

	prometheus.RecordResourceOp("plan", "list")
	return c.JSON(http.StatusOK, echo.Map{
		"success":    true,
		"message":    "Plans retrieved successfully",
		"data_found": len(plans),
		"data":       plans,
	})
}

// GetPlan fetches a single plan by external id. Public.
func GetPlan(c echo.Context) error {
	ctx := c.Request().Context()

	var plan model.Plan
	err := database.GetDB().WithContext(ctx).
		Where("plan_id = ?", c.Param("id")).
		First(&plan).Error
	if err != nil {
		return apperr.NotFound("Plan not found")
	}

	prometheus.RecordResourceOp("plan", "get")
	return ok(c, "Plan retrieved successfully", plan)
}

// PurchasePlan subscribes the principal's brand to a plan for thirty
// days. The purchase is journaled and the brand's subscription fields
// are updated in one transaction.
func PurchasePlan(c echo.Context) error {
	log := logger.FromEcho(c)
	p := middleware.PrincipalFromEcho(c)
	ctx := c.Request().Context()

	if err := authorizer.Authorize(ctx, p, authz.OpPlanPurchase); err != nil {
		return err
	}
	brandID, err := actingBrand(p)
	if err != nil {
		return err
	}

	var req struct {
		PlanID string  `json:"plan_id"`
		Amount float64 `json:"amount"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequest("Invalid request body")
	}
	if req.PlanID == "" {
		return apperr.BadRequest("Plan id is required")
	}

	db := database.GetDB()

	var plan model.Plan
	if err := db.WithContext(ctx).Where("plan_id = ?", req.PlanID).First(&plan).Error; err != nil {
		return apperr.NotFound("Plan not found")
	}
	if req.Amount < plan.Price {
		return apperr.BadRequest("Amount is less than the plan price")
	}

	now := time.Now()
	endTime := now.AddDate(0, 0, subscriptionDays)

	defer prometheus.TrackDBOperation("plan_purchase")(time.Now())

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		purchase := model.PlanPurchase{
			UserID:  p.UserID,
			BrandID: brandID,
			Amount:  req.Amount,
		}
		if err := tx.Create(&purchase).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{
			"plan_id":                     plan.PlanID,
			"plan_name":                   plan.Name,
			"sub_status":                  true,
			"sub_previous_payment_amount": req.Amount,
			"sub_previous_payment_time":   now,
			"sub_end_time":                endTime,
		}
		res := tx.Model(&model.Brand{}).Where("brand_id = ?", brandID).Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("Brand not found")
		}
		return nil
	})
	if err != nil {
		if apperr.Status(err) < 500 {
			return err
		}
		log.Error("Failed to purchase plan", zap.Error(err))
		return apperr.Internal(err)
	}

	prometheus.RecordResourceOp("plan", "purchase")
	return ok(c, "Plan purchased successfully", echo.Map{
		"selected_plan": model.SelectedPlan{ID: plan.PlanID, Name: plan.Name},
		"subscription_info": model.SubscriptionInfo{
			Status:                true,
			PreviousPaymentAmount: req.Amount,
			PreviousPaymentTime:   &now,
			EndTime:               &endTime,
		},
	})
}
