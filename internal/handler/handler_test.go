package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/sajib9090/restaurant-management-backend/internal/apperr"
	"github.com/sajib9090/restaurant-management-backend/internal/authz"
	"github.com/sajib9090/restaurant-management-backend/internal/middleware"
	"github.com/sajib9090/restaurant-management-backend/internal/model"
	"github.com/sajib9090/restaurant-management-backend/pkg/assets"
	"github.com/sajib9090/restaurant-management-backend/pkg/config"
	"github.com/sajib9090/restaurant-management-backend/pkg/database"
	"github.com/sajib9090/restaurant-management-backend/pkg/jwtutil"
	"github.com/sajib9090/restaurant-management-backend/pkg/mailer"
	"github.com/sajib9090/restaurant-management-backend/prometheus"
)

var metricsOnce sync.Once

// countingMailer records sent mail instead of delivering it.
type countingMailer struct {
	mu   sync.Mutex
	sent []mailer.Email
}

func (m *countingMailer) Send(email mailer.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, email)
	return nil
}

func (m *countingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// setup points the handler package at an in-memory database and stub
// collaborators. Returns the mailer for assertions.
func setup(t *testing.T) *countingMailer {
	t.Helper()

	metricsOnce.Do(func() {
		prometheus.InitMetrics(&config.Config{
			Metrics: config.MetricsConfig{Prefix: "test"},
		})
	})

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&model.User{}, &model.Brand{}, &model.Table{}, &model.Category{},
		&model.MenuItem{}, &model.Member{}, &model.Staff{}, &model.Supplier{},
		&model.Plan{}, &model.PlanPurchase{}, &model.SoldInvoice{}, &model.RemovedUser{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	database.SetDB(db)

	jwtutil.Initialize(&jwtutil.JWTConfig{
		AccessSecret:  "test-access",
		RefreshSecret: "test-refresh",
		VerifySecret:  "test-verify",
		AccessTTL:     10 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		VerifyTTL:     5 * time.Minute,
	})

	mail := &countingMailer{}
	testCfg := &config.Config{
		URLs: config.URLConfig{
			ClientURL:   "http://api.test",
			FrontendURL: "http://app.test",
		},
	}
	Init(testCfg, authz.NewAuthorizer(db), mail, assets.Disabled{})
	return mail
}

// request builds an echo context for a handler call.
func request(method, target string, body interface{}, p *authz.Principal) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()

	var reader *bytes.Reader
	if body != nil {
		buf, _ := json.Marshal(body)
		reader = bytes.NewReader(buf)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if p != nil {
		middleware.SetPrincipal(c, p)
	}
	return c, rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func seedBrand(t *testing.T, brandID string, active bool) {
	t.Helper()
	end := time.Now().Add(24 * time.Hour)
	brand := model.Brand{
		BrandID: brandID,
		Name:    brandID,
		SubscriptionInfo: model.SubscriptionInfo{
			Status:  active,
			EndTime: &end,
		},
	}
	if err := database.GetDB().Create(&brand).Error; err != nil {
		t.Fatalf("seed brand: %v", err)
	}
}

func principal(userID, brandID string, role authz.Role) *authz.Principal {
	return &authz.Principal{UserID: userID, BrandID: brandID, Role: role}
}

func TestCreateTableStampsAndLists(t *testing.T) {
	setup(t)
	seedBrand(t, "brand-a", true)
	p := principal("u1", "brand-a", authz.RoleAdmin)

	c, rec := request(http.MethodPost, "/api/v2/tables", map[string]string{"table_name": "Window Side"}, p)
	if err := CreateTable(c); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var stored model.Table
	if err := database.GetDB().First(&stored).Error; err != nil {
		t.Fatalf("load table: %v", err)
	}
	if stored.Name != "window side" {
		t.Fatalf("expected normalized name, got %q", stored.Name)
	}
	if stored.BrandID != "brand-a" {
		t.Fatalf("expected brand stamp, got %q", stored.BrandID)
	}
	if stored.CreatedBy != "u1" {
		t.Fatalf("expected created_by stamp, got %q", stored.CreatedBy)
	}
	if stored.TableID == "" {
		t.Fatal("expected generated external id")
	}

	c, rec = request(http.MethodGet, "/api/v2/tables", nil, p)
	if err := GetTables(c); err != nil {
		t.Fatalf("list tables: %v", err)
	}
	body := decodeBody(t, rec)
	if body["data_found"].(float64) != 1 {
		t.Fatalf("expected 1 table, got %v", body["data_found"])
	}
	if body["pagination"] != nil {
		t.Fatalf("expected null pagination without limit, got %v", body["pagination"])
	}
}

func TestTenantIsolationUnderHostileFilter(t *testing.T) {
	setup(t)
	db := database.GetDB()
	for _, row := range []model.Table{
		{TableID: "1-a", BrandID: "brand-a", Name: "alpha"},
		{TableID: "2-b", BrandID: "brand-b", Name: "beta"},
	} {
		if err := db.Create(&row).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	p := principal("u1", "brand-a", authz.RoleRegular)
	c, rec := request(http.MethodGet, "/api/v2/tables?brand=brand-b", nil, p)
	if err := GetTables(c); err != nil {
		t.Fatalf("list: %v", err)
	}

	body := decodeBody(t, rec)
	if body["data_found"].(float64) != 1 {
		t.Fatalf("expected only own brand's table, got %v", body["data_found"])
	}
	data := body["data"].([]interface{})
	row := data[0].(map[string]interface{})
	if row["brand_id"] != "brand-a" {
		t.Fatalf("cross-tenant leak: %v", row["brand_id"])
	}
}

func TestBatchDeleteSemantics(t *testing.T) {
	setup(t)
	db := database.GetDB()
	for _, row := range []model.Table{
		{TableID: "t1", BrandID: "brand-a", Name: "one"},
		{TableID: "t2", BrandID: "brand-a", Name: "two"},
	} {
		if err := db.Create(&row).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	p := principal("u1", "brand-a", authz.RoleAdmin)

	// Zero matches is a NotFound.
	c, _ := request(http.MethodDelete, "/api/v2/tables", map[string][]string{"ids": {"missing"}}, p)
	err := DeleteTables(c)
	if err == nil || apperr.Status(err) != http.StatusNotFound {
		t.Fatalf("expected 404 for zero matches, got %v", err)
	}

	// Partial match deletes the matching subset and succeeds.
	c, _ = request(http.MethodDelete, "/api/v2/tables", map[string][]string{"ids": {"t1", "missing"}}, p)
	if err := DeleteTables(c); err != nil {
		t.Fatalf("partial delete: %v", err)
	}

	var remaining int64
	if err := db.Model(&model.Table{}).Count(&remaining).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if remaining != 1 {
		t.Fatalf("expected 1 remaining table, got %d", remaining)
	}
}

func TestUpdateNoOpRejected(t *testing.T) {
	setup(t)
	db := database.GetDB()
	row := model.Table{TableID: "t1", BrandID: "brand-a", Name: "corner"}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	p := principal("u1", "brand-a", authz.RoleAdmin)

	c, _ := request(http.MethodPatch, "/api/v2/tables/t1", map[string]string{"table_name": "corner"}, p)
	c.SetParamNames("id")
	c.SetParamValues("t1")

	err := UpdateTable(c)
	if err == nil || apperr.Status(err) != http.StatusBadRequest {
		t.Fatalf("expected 400 NoOp, got %v", err)
	}

	// A real change passes and stamps updated_by.
	c, _ = request(http.MethodPatch, "/api/v2/tables/t1", map[string]string{"table_name": "garden"}, p)
	c.SetParamNames("id")
	c.SetParamValues("t1")
	if err := UpdateTable(c); err != nil {
		t.Fatalf("update: %v", err)
	}

	var updated model.Table
	if err := db.First(&updated, row.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if updated.Name != "garden" || updated.UpdatedBy != "u1" {
		t.Fatalf("unexpected row after update: %+v", updated)
	}
}

func TestPaginationEnvelope(t *testing.T) {
	setup(t)
	db := database.GetDB()
	names := []string{"alpha", "bravo", "charlie", "delta", "echo"}
	for i, name := range names {
		row := model.Table{TableID: name, BrandID: "brand-a", Name: name}
		if err := db.Create(&row).Error; err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}
	p := principal("u1", "brand-a", authz.RoleAdmin)

	c, rec := request(http.MethodGet, "/api/v2/tables?page=2&limit=2", nil, p)
	if err := GetTables(c); err != nil {
		t.Fatalf("list: %v", err)
	}

	body := decodeBody(t, rec)
	if body["data_found"].(float64) != 5 {
		t.Fatalf("expected total 5, got %v", body["data_found"])
	}
	pagination := body["pagination"].(map[string]interface{})
	if pagination["totalPages"].(float64) != 3 {
		t.Fatalf("expected 3 pages, got %v", pagination["totalPages"])
	}
	if pagination["currentPage"].(float64) != 2 {
		t.Fatalf("expected current page 2, got %v", pagination["currentPage"])
	}
	if pagination["previousPage"].(float64) != 1 {
		t.Fatalf("expected previous page 1, got %v", pagination["previousPage"])
	}
	if pagination["nextPage"].(float64) != 3 {
		t.Fatalf("expected next page 3, got %v", pagination["nextPage"])
	}
	if len(body["data"].([]interface{})) != 2 {
		t.Fatalf("expected 2 rows on page 2")
	}

	// Boundary page: nextPage is null.
	c, rec = request(http.MethodGet, "/api/v2/tables?page=3&limit=2", nil, p)
	if err := GetTables(c); err != nil {
		t.Fatalf("list: %v", err)
	}
	pagination = decodeBody(t, rec)["pagination"].(map[string]interface{})
	if pagination["nextPage"] != nil {
		t.Fatalf("expected null nextPage at boundary, got %v", pagination["nextPage"])
	}
}

func TestRevokedUserDeniedOnHandlers(t *testing.T) {
	setup(t)
	db := database.GetDB()
	if err := db.Create(&model.RemovedUser{UserID: "ghost", BrandID: "brand-a"}).Error; err != nil {
		t.Fatalf("seed marker: %v", err)
	}
	p := principal("ghost", "brand-a", authz.RoleChairman)

	c, _ := request(http.MethodGet, "/api/v2/tables", nil, p)
	err := GetTables(c)
	if err == nil || apperr.Status(err) != http.StatusForbidden {
		t.Fatalf("expected 403 for revoked user, got %v", err)
	}
}

func TestMenuItemRequiresExistingCategory(t *testing.T) {
	setup(t)
	p := principal("u1", "brand-a", authz.RoleAdmin)

	body := map[string]interface{}{
		"item_name":  "chicken biryani",
		"category":   "rice dishes",
		"item_price": 240.0,
	}
	c, _ := request(http.MethodPost, "/api/v2/menu-items", body, p)
	err := CreateMenuItem(c)
	if err == nil || apperr.Status(err) != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing category, got %v", err)
	}

	if err := database.GetDB().Create(&model.Category{
		CategoryID: "c1", BrandID: "brand-a", Name: "rice dishes",
	}).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}

	c, rec := request(http.MethodPost, "/api/v2/menu-items", body, p)
	if err := CreateMenuItem(c); err != nil {
		t.Fatalf("create item: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
}

func TestInvoiceUpdatesMemberTotals(t *testing.T) {
	setup(t)
	db := database.GetDB()
	if err := db.Create(&model.Staff{StaffID: "s1", BrandID: "brand-a", Name: "karim"}).Error; err != nil {
		t.Fatalf("seed staff: %v", err)
	}
	if err := db.Create(&model.Member{
		MemberID: "m1", BrandID: "brand-a", Name: "rahim",
		Mobile: "01711111111", DiscountValue: 10,
	}).Error; err != nil {
		t.Fatalf("seed member: %v", err)
	}
	p := principal("u1", "brand-a", authz.RoleRegular)

	body := map[string]interface{}{
		"served_by": "karim",
		"items": []map[string]interface{}{
			{"item_name": "kacchi", "item_price": 300.0, "item_quantity": 2},
		},
		"total_discount": 60.0,
		"member":         "01711111111",
		"table_name":     "corner",
	}
	c, rec := request(http.MethodPost, "/api/v2/sold-invoices", body, p)
	if err := AddSoldInvoice(c); err != nil {
		t.Fatalf("add invoice: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var member model.Member
	if err := db.Where("member_id = ?", "m1").First(&member).Error; err != nil {
		t.Fatalf("reload member: %v", err)
	}
	if member.TotalSpent != 540 {
		t.Fatalf("expected total_spent 540, got %v", member.TotalSpent)
	}
	if member.TotalDiscount != 60 {
		t.Fatalf("expected total_discount 60, got %v", member.TotalDiscount)
	}

	// Unknown member mobile rolls the whole invoice back.
	body["member"] = "01799999999"
	c, _ = request(http.MethodPost, "/api/v2/sold-invoices", body, p)
	err := AddSoldInvoice(c)
	if err == nil || apperr.Status(err) != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown member, got %v", err)
	}
	var invoices int64
	if err := db.Model(&model.SoldInvoice{}).Count(&invoices).Error; err != nil {
		t.Fatalf("count invoices: %v", err)
	}
	if invoices != 1 {
		t.Fatalf("expected rollback to keep 1 invoice, got %d", invoices)
	}
}

func TestPlanPurchaseActivatesSubscription(t *testing.T) {
	setup(t)
	db := database.GetDB()
	seedBrand(t, "brand-a", false)
	if err := db.Create(&model.Plan{
		PlanID: "p1", Name: "standard", Price: 1000, UserLimit: 10,
	}).Error; err != nil {
		t.Fatalf("seed plan: %v", err)
	}
	p := principal("u1", "brand-a", authz.RoleChairman)

	// Underpayment is rejected.
	c, _ := request(http.MethodPost, "/api/v2/plans/purchase",
		map[string]interface{}{"plan_id": "p1", "amount": 500.0}, p)
	err := PurchasePlan(c)
	if err == nil || apperr.Status(err) != http.StatusBadRequest {
		t.Fatalf("expected 400 for underpayment, got %v", err)
	}

	c, _ = request(http.MethodPost, "/api/v2/plans/purchase",
		map[string]interface{}{"plan_id": "p1", "amount": 1000.0}, p)
	if err := PurchasePlan(c); err != nil {
		t.Fatalf("purchase: %v", err)
	}

	var brand model.Brand
	if err := db.Where("brand_id = ?", "brand-a").First(&brand).Error; err != nil {
		t.Fatalf("reload brand: %v", err)
	}
	if !brand.SubscriptionInfo.Status {
		t.Fatal("expected active subscription after purchase")
	}
	if brand.SelectedPlan.ID != "p1" || brand.SelectedPlan.Name != "standard" {
		t.Fatalf("unexpected selected plan: %+v", brand.SelectedPlan)
	}
	if brand.SubscriptionInfo.EndTime == nil {
		t.Fatal("expected end time to be set")
	}
	days := time.Until(*brand.SubscriptionInfo.EndTime).Hours() / 24
	if days < 29 || days > 30.1 {
		t.Fatalf("expected ~30 day subscription, got %.2f days", days)
	}

	var journal int64
	if err := db.Model(&model.PlanPurchase{}).Count(&journal).Error; err != nil {
		t.Fatalf("count journal: %v", err)
	}
	if journal != 1 {
		t.Fatalf("expected 1 journaled purchase, got %d", journal)
	}
}

func TestSuperAdminGlobalSearch(t *testing.T) {
	setup(t)
	db := database.GetDB()
	for _, row := range []model.Table{
		{TableID: "1", BrandID: "brand-a", Name: "rooftop"},
		{TableID: "2", BrandID: "brand-b", Name: "rooftop deluxe"},
		{TableID: "3", BrandID: "brand-b", Name: "basement"},
	} {
		if err := db.Create(&row).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	root := &authz.Principal{UserID: "root", Role: authz.RoleSuperAdmin}

	// Search is global and ignores the brand filter.
	c, rec := request(http.MethodGet, "/api/v2/tables?search=rooftop&brand=brand-a", nil, root)
	if err := GetTables(c); err != nil {
		t.Fatalf("list: %v", err)
	}
	if got := decodeBody(t, rec)["data_found"].(float64); got != 2 {
		t.Fatalf("expected 2 rooftop tables globally, got %v", got)
	}
}
