package handler

import (
	"fmt"
	"io"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/sajib9090/restaurant-management-backend/internal/apperr"
	"github.com/sajib9090/restaurant-management-backend/internal/authz"
	"github.com/sajib9090/restaurant-management-backend/internal/middleware"
	"github.com/sajib9090/restaurant-management-backend/internal/model"
	"github.com/sajib9090/restaurant-management-backend/pkg/database"
	"github.com/sajib9090/restaurant-management-backend/pkg/logger"
	"github.com/sajib9090/restaurant-management-backend/prometheus"
)

// passwordHistorySize is how many previous hashes are kept and
// checked against reuse.
const passwordHistorySize = 3

// GetCurrentUser returns the authenticated user with their brand.
func GetCurrentUser(c echo.Context) error {
	p := middleware.PrincipalFromEcho(c)
	ctx := c.Request().Context()

	if err := authorizer.Authorize(ctx, p, authz.OpEntityRead); err != nil {
		return err
	}

	db := database.GetDB()
	var user model.User
	if err := db.WithContext(ctx).Where("user_id = ?", p.UserID).First(&user).Error; err != nil {
		return apperr.NotFound("User not found")
	}

	resp := echo.Map{"user": user}
	if user.BrandID != "" {
		var brand model.Brand
		if err := db.WithContext(ctx).Where("brand_id = ?", user.BrandID).First(&brand).Error; err == nil {
			resp["brand"] = brand
		}
	}

	return ok(c, "User retrieved successfully", resp)
}

// GetUsers lists users within the authorization scope. Authority
// roles only; super_admin sees all brands.
func GetUsers(c echo.Context) error {
	p := middleware.PrincipalFromEcho(c)
	ctx := c.Request().Context()

	if err := authorizer.Authorize(ctx, p, authz.OpUserList); err != nil {
		return err
	}

	params := parseListParams(c)
	db := database.GetDB().WithContext(ctx).Model(&model.User{}).
		Scopes(authz.ListScope(p, params.Brand, params.Search, "name", "username", "email", "mobile"))

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return apperr.Internal(err)
	}

	query := db.Order("name ASC")
	if params.Limit > 0 {
		query = query.Offset(params.offset()).Limit(params.Limit)
	}

	var users []model.User
	if err := query.Find(&users).Error; err != nil {
		return apperr.Internal(err)
	}

	prometheus.RecordResourceOp("user", "list")
	return listResponse(c, "Users retrieved successfully", total, params, users)
}

// GetUser fetches a single user by external id within the brand
// scope. Authority roles only.
func GetUser(c echo.Context) error {
	p := middleware.PrincipalFromEcho(c)
	ctx := c.Request().Context()

	if err := authorizer.Authorize(ctx, p, authz.OpUserList); err != nil {
		return err
	}

	var user model.User
	err := database.GetDB().WithContext(ctx).Scopes(brandScope(p)).
		Where("user_id = ?", c.Param("id")).
		First(&user).Error
	if err != nil {
		return apperr.NotFound("User not found")
	}

	prometheus.RecordResourceOp("user", "get")
	return ok(c, "User retrieved successfully", user)
}

// CreateUser adds a staff user to the principal's brand, bounded by
// the selected plan's user limit. Only admin and regular roles can be
// granted.
func CreateUser(c echo.Context) error {
	log := logger.FromEcho(c)
	p := middleware.PrincipalFromEcho(c)
	ctx := c.Request().Context()

	if err := authorizer.Authorize(ctx, p, authz.OpUserCreate); err != nil {
		return err
	}
	brandID, err := actingBrand(p)
	if err != nil {
		return err
	}

	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Mobile   string `json:"mobile"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequest("Invalid request body")
	}

	name, err := validateName("Name", req.Name, 3, 30)
	if err != nil {
		return err
	}
	name = normalizeName(name)
	email, err := validateEmail(req.Email)
	if err != nil {
		return err
	}
	mobile, err := validateMobile(req.Mobile)
	if err != nil {
		return err
	}
	password, err := validatePassword(req.Password)
	if err != nil {
		return err
	}
	role, err := authz.ParseRole(req.Role)
	if err != nil || !authz.Assignable(role) {
		return apperr.BadRequest("Role must be admin or regular")
	}

	db := database.GetDB()

	var brand model.Brand
	if err := db.WithContext(ctx).Where("brand_id = ?", brandID).First(&brand).Error; err != nil {
		return apperr.NotFound("Brand not found")
	}
	if brand.SelectedPlan.ID != "" {
		var plan model.Plan
		if err := db.WithContext(ctx).Where("plan_id = ?", brand.SelectedPlan.ID).First(&plan).Error; err == nil {
			var existing int64
			if err := db.WithContext(ctx).Model(&model.User{}).
				Where("brand_id = ?", brandID).
				Count(&existing).Error; err != nil {
				return apperr.Internal(err)
			}
			if existing >= int64(plan.UserLimit) {
				return apperr.BadRequest("User limit reached for your plan")
			}
		}
	}

	username := strings.ToLower(strings.Split(email, "@")[0])
	var dup int64
	err = db.WithContext(ctx).Model(&model.User{}).
		Where("email = ? OR username = ? OR mobile = ?", email, username, mobile).
		Count(&dup).Error
	if err != nil {
		return apperr.Internal(err)
	}
	if dup > 0 {
		return apperr.Conflict("User already exists with this email, username or mobile")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return apperr.Internal(err)
	}

	var count int64
	if err := db.WithContext(ctx).Model(&model.User{}).Count(&count).Error; err != nil {
		return apperr.Internal(err)
	}

	user := model.User{
		UserID:          model.NewUserID(count),
		Name:            name,
		BrandID:         brandID,
		Email:           email,
		Username:        username,
		Mobile:          mobile,
		Password:        string(hash),
		PasswordHistory: []string{string(hash)},
		Role:            string(role),
		EmailVerified:   true,
		CreatedBy:       p.UserID,
	}
	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		log.Error("Failed to create user", zap.Error(err))
		return apperr.Internal(err)
	}

	prometheus.UserRegistrationCounter.Inc()
	prometheus.RecordResourceOp("user", "create")
	return created(c, "User created successfully", user)
}

// UpdateCurrentUser lets a user change their own name, username or
// mobile.
func UpdateCurrentUser(c echo.Context) error {
	p := middleware.PrincipalFromEcho(c)
	ctx := c.Request().Context()

	if err := authorizer.Authorize(ctx, p, authz.OpEntityWrite); err != nil {
		return err
	}

	var req struct {
		Name     *string `json:"name"`
		Username *string `json:"username"`
		Mobile   *string `json:"mobile"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequest("Invalid request body")
	}

	db := database.GetDB()
	var user model.User
	if err := db.WithContext(ctx).Where("user_id = ?", p.UserID).First(&user).Error; err != nil {
		return apperr.NotFound("User not found")
	}

	changes := map[string]interface{}{}
	if req.Name != nil {
		name, err := validateName("Name", *req.Name, 3, 30)
		if err != nil {
			return err
		}
		name = normalizeName(name)
		if name != user.Name {
			changes["name"] = name
		}
	}
	if req.Username != nil {
		username, err := validateName("Username", *req.Username, 3, 30)
		if err != nil {
			return err
		}
		username = strings.ToLower(username)
		if strings.ContainsAny(username, " \t") {
			return apperr.BadRequest("Username must not contain spaces")
		}
		if username != user.Username {
			var dup int64
			if err := db.WithContext(ctx).Model(&model.User{}).
				Where("username = ? AND id <> ?", username, user.ID).
				Count(&dup).Error; err != nil {
				return apperr.Internal(err)
			}
			if dup > 0 {
				return apperr.Conflict("Username is already taken")
			}
			changes["username"] = username
		}
	}
	if req.Mobile != nil {
		mobile, err := validateMobile(*req.Mobile)
		if err != nil {
			return err
		}
		if mobile != user.Mobile {
			var dup int64
			if err := db.WithContext(ctx).Model(&model.User{}).
				Where("mobile = ? AND id <> ?", mobile, user.ID).
				Count(&dup).Error; err != nil {
				return apperr.Internal(err)
			}
			if dup > 0 {
				return apperr.Conflict("Mobile number is already taken")
			}
			changes["mobile"] = mobile
		}
	}

	if len(changes) == 0 {
		return apperr.BadRequest("No fields to update")
	}

	if err := db.WithContext(ctx).Model(&user).Updates(changes).Error; err != nil {
		return apperr.Internal(err)
	}

	prometheus.RecordResourceOp("user", "update")
	return ok(c, "User updated successfully", user)
}

// ChangePassword lets a user rotate their own password. The last
// three hashes are kept and reuse of any of them is rejected.
func ChangePassword(c echo.Context) error {
	p := middleware.PrincipalFromEcho(c)
	ctx := c.Request().Context()

	if err := authorizer.Authorize(ctx, p, authz.OpEntityWrite); err != nil {
		return err
	}

	var req struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequest("Invalid request body")
	}

	newPassword, err := validatePassword(req.NewPassword)
	if err != nil {
		return err
	}

	db := database.GetDB()
	var user model.User
	if err := db.WithContext(ctx).Where("user_id = ?", p.UserID).First(&user).Error; err != nil {
		return apperr.NotFound("User not found")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.OldPassword)); err != nil {
		return apperr.Unauthenticated("Old password is incorrect")
	}

	for _, previous := range user.PasswordHistory {
		if bcrypt.CompareHashAndPassword([]byte(previous), []byte(newPassword)) == nil {
			return apperr.BadRequest("New password must differ from your last three passwords")
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperr.Internal(err)
	}

	history := append([]string{string(hash)}, user.PasswordHistory...)
	if len(history) > passwordHistorySize {
		history = history[:passwordHistorySize]
	}

	user.Password = string(hash)
	user.PasswordHistory = history
	if err := db.WithContext(ctx).Save(&user).Error; err != nil {
		return apperr.Internal(err)
	}

	prometheus.RecordResourceOp("user", "password_change")
	return ok(c, "Password changed successfully", nil)
}

// UpdateUserCredentials lets an authority change a brand user's role
// or reset their password. The actor must strictly outrank the
// target.
func UpdateUserCredentials(c echo.Context) error {
	p := middleware.PrincipalFromEcho(c)
	ctx := c.Request().Context()

	if err := authorizer.Authorize(ctx, p, authz.OpUserCredentials); err != nil {
		return err
	}

	var req struct {
		Role     *string `json:"role"`
		Password *string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return apperr.BadRequest("Invalid request body")
	}

	db := database.GetDB()
	var user model.User
	err := db.WithContext(ctx).Scopes(brandScope(p)).
		Where("user_id = ?", c.Param("id")).
		First(&user).Error
	if err != nil {
		return apperr.NotFound("User not found")
	}

	targetRole, err := authz.ParseRole(user.Role)
	if err != nil {
		return apperr.Internal(err)
	}
	if !authz.CanModifyUser(p, targetRole) {
		return apperr.Forbidden("You cannot modify a user of equal or higher rank")
	}

	changed := false
	if req.Role != nil {
		role, err := authz.ParseRole(*req.Role)
		if err != nil || !authz.Assignable(role) {
			return apperr.BadRequest("Role must be admin or regular")
		}
		if string(role) != user.Role {
			user.Role = string(role)
			changed = true
		}
	}
	if req.Password != nil {
		password, err := validatePassword(*req.Password)
		if err != nil {
			return err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return apperr.Internal(err)
		}
		history := append([]string{string(hash)}, user.PasswordHistory...)
		if len(history) > passwordHistorySize {
			history = history[:passwordHistorySize]
		}
		user.Password = string(hash)
		user.PasswordHistory = history
		changed = true
	}

	if !changed {
		return apperr.BadRequest("No fields to update")
	}

	if err := db.WithContext(ctx).Save(&user).Error; err != nil {
		return apperr.Internal(err)
	}

	prometheus.RecordResourceOp("user", "credentials_change")
	return ok(c, "User credentials updated successfully", user)
}

// DeleteUsers removes a batch of brand users and journals each
// removal so outstanding tokens are revoked immediately. Seniority is
// enforced per user; the principal cannot delete themself.
func DeleteUsers(c echo.Context) error {
	log := logger.FromEcho(c)
	p := middleware.PrincipalFromEcho(c)
	ctx := c.Request().Context()

	if err := authorizer.Authorize(ctx, p, authz.OpUserDelete); err != nil {
		return err
	}

	ids, err := bindIDs(c)
	if err != nil {
		return err
	}

	db := database.GetDB()
	var targets []model.User
	err = db.WithContext(ctx).Scopes(brandScope(p)).
		Where("user_id IN ?", ids).
		Find(&targets).Error
	if err != nil {
		return apperr.Internal(err)
	}
	if len(targets) == 0 {
		return apperr.NotFound("No users found to delete")
	}

	for _, target := range targets {
		if target.UserID == p.UserID {
			return apperr.BadRequest("You cannot delete your own account")
		}
		targetRole, err := authz.ParseRole(target.Role)
		if err != nil {
			return apperr.Internal(err)
		}
		if !authz.CanModifyUser(p, targetRole) {
			return apperr.Forbidden("You cannot delete a user of equal or higher rank")
		}
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, target := range targets {
			marker := model.RemovedUser{
				UserID:    target.UserID,
				BrandID:   target.BrandID,
				CreatedBy: p.UserID,
			}
			if err := tx.Create(&marker).Error; err != nil {
				return err
			}
			if err := tx.Unscoped().Delete(&model.User{}, target.ID).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Error("Failed to delete users", zap.Error(err))
		return apperr.Internal(err)
	}

	prometheus.RecordResourceOp("user", "delete")
	return ok(c, fmt.Sprintf("%d user(s) deleted successfully", len(targets)), nil)
}

// UpdateAvatar replaces the user's avatar through the asset store.
func UpdateAvatar(c echo.Context) error {
	log := logger.FromEcho(c)
	p := middleware.PrincipalFromEcho(c)
	ctx := c.Request().Context()

	if err := authorizer.Authorize(ctx, p, authz.OpEntityWrite); err != nil {
		return err
	}

	file, err := c.FormFile("avatar")
	if err != nil {
		return apperr.BadRequest("Avatar file is required")
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
	var user model.User
	if err := db.WithContext(ctx).Where("user_id = ?", p.UserID).First(&user).Error; err != nil {
		return apperr.NotFound("User not found")
	}

	asset, err := assetStore.Upload(ctx, data)
	if err != nil {
		log.Error("Avatar upload failed", zap.Error(err))
		return apperr.Internal(err)
	}

	oldAvatarID := user.Avatar.ID
	changes := map[string]interface{}{
		"avatar_id":  asset.PublicID,
		"avatar_url": asset.URL,
	}
	if err := db.WithContext(ctx).Model(&user).Updates(changes).Error; err != nil {
		return apperr.Internal(err)
	}
	user.Avatar = model.Avatar{ID: asset.PublicID, URL: asset.URL}

	if oldAvatarID != "" {
		if _, err := assetStore.Delete(ctx, oldAvatarID); err != nil {
			log.Warn("Failed to delete previous avatar", zap.Error(err))
		}
	}

	prometheus.RecordResourceOp("user", "avatar_update")
	return ok(c, "Avatar updated successfully", user.Avatar)
}
