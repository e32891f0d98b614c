package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"momo/internal/config"
	"momo/internal/middleware"
	"momo/internal/models"
	"momo/internal/repositories/cache"
	"momo/internal/testutil"
	"momo/internal/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

type apiFixture struct {
	app *fiber.App
	db  *gorm.DB
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()

	db := testutil.NewDB(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cacheService := cache.NewCacheService(client, time.Hour)

	ledger := config.DefaultLedger()
	ledger.MaxRetries = 50

	app := fiber.New()
	SetupRoutes(app, db, cacheService, BuildServices(db, cacheService, ledger), testSecret)
	return &apiFixture{app: app, db: db}
}

func token(t *testing.T, user *models.User, role string) string {
	t.Helper()
	tok, err := utils.GenerateToken(testSecret, &models.UserClaims{
		UserID: user.ID,
		Phone:  user.Phone,
		Role:   role,
	}, time.Hour)
	require.NoError(t, err)
	return tok
}

type call struct {
	method string
	path   string
	token  string
	body   interface{}
	header map[string]string
}

func (f *apiFixture) do(t *testing.T, c call) (*http.Response, map[string]interface{}) {
	t.Helper()

	var body io.Reader
	if c.body != nil {
		raw, err := json.Marshal(c.body)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(c.method, c.path, body)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range c.header {
		req.Header.Set(k, v)
	}

	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]interface{}{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp, out
}

func (f *apiFixture) setPin(t *testing.T, tok, pin string) {
	t.Helper()
	resp, body := f.do(t, call{method: "POST", path: "/api/wallet/pin", token: tok, body: fiber.Map{"new_pin": pin}})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
}

func TestAPI_RequiresBearerToken(t *testing.T) {
	f := newAPI(t)

	resp, _ := f.do(t, call{method: "GET", path: "/api/wallet"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = f.do(t, call{method: "GET", path: "/api/wallet", token: "not-a-jwt"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_HealthCheck(t *testing.T) {
	f := newAPI(t)

	resp, body := f.do(t, call{method: "GET", path: "/health"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestAPI_TransferFlow(t *testing.T) {
	f := newAPI(t)
	alice, aliceWallet := testutil.SeedUser(t, f.db, "+237670000001", "CM", models.KYCTier1, 10_000)
	_, bobWallet := testutil.SeedUser(t, f.db, "+237670000002", "CM", models.KYCTier1, 0)
	tok := token(t, alice, models.RoleUser)
	f.setPin(t, tok, "2468")

	resp, body := f.do(t, call{
		method: "POST", path: "/api/wallet/transfer", token: tok,
		body: fiber.Map{"phone": "+237670000002", "amount": 1000, "pin": "2468"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.EqualValues(t, 8_990, body["new_balance"])

	record := body["transaction"].(map[string]interface{})
	assert.Equal(t, "SUCCESS", record["status"])
	assert.EqualValues(t, 10, record["fee"])

	assert.EqualValues(t, 8_990, testutil.Wallet(t, f.db, aliceWallet.ID).Balance)
	assert.EqualValues(t, 1_000, testutil.Wallet(t, f.db, bobWallet.ID).Balance)

	// The record is visible to its sender by reference.
	ref := record["reference"].(string)
	resp, body = f.do(t, call{method: "GET", path: "/api/transactions/" + ref, token: tok})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	resp, body = f.do(t, call{method: "GET", path: "/api/wallet/transactions?limit=5", token: tok})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Len(t, body["data"], 1)
}

func TestAPI_NetworkDeposit(t *testing.T) {
	f := newAPI(t)
	alice, aliceWallet := testutil.SeedUser(t, f.db, "+237670000081", "CM", models.KYCTier1, 0)
	gateway, _ := testutil.SeedUser(t, f.db, "+237600000001", "CM", models.KYCTier3, 0)
	admin, _ := testutil.SeedUser(t, f.db, "+237670000089", "CM", models.KYCTier3, 0)
	payload := fiber.Map{"phone": "+237670000081", "amount": 5000, "source": "MTN cash-in"}

	// Wallet owners and administrators cannot credit wallets.
	for _, tok := range []string{token(t, alice, models.RoleUser), token(t, admin, models.RoleAdmin)} {
		resp, _ := f.do(t, call{method: "POST", path: "/api/network/deposits", token: tok, body: payload})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	}
	assert.EqualValues(t, 0, testutil.Wallet(t, f.db, aliceWallet.ID).Balance)

	gatewayTok := token(t, gateway, models.RoleNetwork)
	resp, body := f.do(t, call{method: "POST", path: "/api/network/deposits", token: gatewayTok, body: payload})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.EqualValues(t, 5_000, body["new_balance"])
	record := body["transaction"].(map[string]interface{})
	assert.Equal(t, "DEPOSIT", record["type"])
	assert.EqualValues(t, 5_000, testutil.Wallet(t, f.db, aliceWallet.ID).Balance)

	resp, body = f.do(t, call{
		method: "POST", path: "/api/network/deposits", token: gatewayTok,
		body: fiber.Map{"phone": "+237679999999", "amount": 5000, "source": "MTN cash-in"},
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "ACCOUNT_NOT_FOUND", body["code"])
}

func TestAPI_DomainErrors(t *testing.T) {
	f := newAPI(t)
	alice, _ := testutil.SeedUser(t, f.db, "+237670000011", "CM", models.KYCTier1, 500)
	testutil.SeedUser(t, f.db, "+237670000012", "CM", models.KYCTier1, 0)
	tok := token(t, alice, models.RoleUser)
	f.setPin(t, tok, "2468")

	tests := []struct {
		name   string
		body   fiber.Map
		status int
		code   string
	}{
		{"insufficient balance", fiber.Map{"phone": "+237670000012", "amount": 1000, "pin": "2468"}, http.StatusBadRequest, "INSUFFICIENT_BALANCE"},
		{"unknown counterpart", fiber.Map{"phone": "+237679999999", "amount": 100, "pin": "2468"}, http.StatusNotFound, "ACCOUNT_NOT_FOUND"},
		{"malformed phone", fiber.Map{"phone": "abc", "amount": 100, "pin": "2468"}, http.StatusBadRequest, "INVALID_REQUEST"},
		{"wrong pin", fiber.Map{"phone": "+237670000012", "amount": 100, "pin": "1111"}, http.StatusUnauthorized, "INCORRECT_PIN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := f.do(t, call{method: "POST", path: "/api/wallet/transfer", token: tok, body: tt.body})
			assert.Equal(t, tt.status, resp.StatusCode, body)
			assert.Equal(t, tt.code, body["code"])
		})
	}
}

func TestAPI_LockoutAndAdminUnlock(t *testing.T) {
	f := newAPI(t)
	alice, aliceWallet := testutil.SeedUser(t, f.db, "+237670000021", "CM", models.KYCTier1, 5_000)
	admin, _ := testutil.SeedUser(t, f.db, "+237670000029", "CM", models.KYCTier3, 0)
	tok := token(t, alice, models.RoleUser)
	f.setPin(t, tok, "2468")

	withdraw := func(pin string) (*http.Response, map[string]interface{}) {
		return f.do(t, call{
			method: "POST", path: "/api/wallet/withdraw", token: tok,
			body: fiber.Map{"amount": 1000, "pin": pin, "destination": "agent 42"},
		})
	}
	walletView := func() map[string]interface{} {
		resp, body := f.do(t, call{method: "GET", path: "/api/wallet", token: tok})
		require.Equal(t, http.StatusOK, resp.StatusCode, body)
		return body["wallet"].(map[string]interface{})
	}
	// Prime the cached snapshot before the lockout.
	assert.EqualValues(t, 0, walletView()["lock_escalation_level"])

	for i := 0; i < 3; i++ {
		resp, _ := withdraw("0000")
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}

	view := walletView()
	assert.EqualValues(t, 1, view["lock_escalation_level"])
	assert.NotEmpty(t, view["lock_until"])

	resp, body := withdraw("2468")
	require.Equal(t, http.StatusForbidden, resp.StatusCode, body)
	assert.Equal(t, "WALLET_LOCKED", body["code"])
	assert.Greater(t, body["retry_after_seconds"].(float64), float64(0))

	unlockPath := "/api/admin/wallets/" + itoa(aliceWallet.ID) + "/unlock"
	resp, _ = f.do(t, call{method: "POST", path: unlockPath, token: tok})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body = f.do(t, call{method: "POST", path: unlockPath, token: token(t, admin, models.RoleAdmin)})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	view = walletView()
	assert.EqualValues(t, 0, view["lock_escalation_level"])
	assert.Nil(t, view["lock_until"])

	resp, body = withdraw("2468")
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.EqualValues(t, 3_900, body["new_balance"])
}

func TestAPI_IdempotentRetry(t *testing.T) {
	f := newAPI(t)
	alice, aliceWallet := testutil.SeedUser(t, f.db, "+237670000031", "CM", models.KYCTier1, 10_000)
	tok := token(t, alice, models.RoleUser)
	f.setPin(t, tok, "2468")

	payload := fiber.Map{"amount": 1000, "pin": "2468"}
	key := map[string]string{middleware.IdempotencyHeader: "withdraw-1"}

	first, firstBody := f.do(t, call{method: "POST", path: "/api/wallet/withdraw", token: tok, body: payload, header: key})
	require.Equal(t, http.StatusOK, first.StatusCode, firstBody)

	second, secondBody := f.do(t, call{method: "POST", path: "/api/wallet/withdraw", token: tok, body: payload, header: key})
	require.Equal(t, http.StatusOK, second.StatusCode)
	assert.Equal(t, "true", second.Header.Get(middleware.ReplayedHeader))
	assert.Equal(t, firstBody, secondBody)

	assert.EqualValues(t, 8_900, testutil.Wallet(t, f.db, aliceWallet.ID).Balance)
	assert.EqualValues(t, 1, testutil.CountTransactions(t, f.db))

	other := fiber.Map{"amount": 2000, "pin": "2468"}
	resp, _ := f.do(t, call{method: "POST", path: "/api/wallet/withdraw", token: tok, body: other, header: key})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestAPI_PinResetFlow(t *testing.T) {
	f := newAPI(t)
	alice, _ := testutil.SeedUser(t, f.db, "+237670000041", "CM", models.KYCTier1, 0)
	tok := token(t, alice, models.RoleUser)
	f.setPin(t, tok, "2468")

	resp, ticket := f.do(t, call{method: "POST", path: "/api/wallet/pin/reset", token: tok})
	require.Equal(t, http.StatusCreated, resp.StatusCode, ticket)
	require.NotEmpty(t, ticket["code"])

	resp, body := f.do(t, call{
		method: "POST", path: "/api/wallet/pin/reset/confirm", token: tok,
		body: fiber.Map{"nonce": ticket["nonce"], "code": ticket["code"], "new_pin": "135790"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	// The old PIN no longer authorizes a change; the new one does.
	resp, _ = f.do(t, call{method: "POST", path: "/api/wallet/pin", token: tok, body: fiber.Map{"new_pin": "1234", "old_pin": "2468"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp, _ = f.do(t, call{method: "POST", path: "/api/wallet/pin", token: tok, body: fiber.Map{"new_pin": "1234", "old_pin": "135790"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPI_SavingsGoal(t *testing.T) {
	f := newAPI(t)
	alice, aliceWallet := testutil.SeedUser(t, f.db, "+237670000051", "CM", models.KYCTier1, 5_000)
	tok := token(t, alice, models.RoleUser)
	f.setPin(t, tok, "2468")

	resp, body := f.do(t, call{method: "POST", path: "/api/savings", token: tok, body: fiber.Map{"name": "school fees", "target_amount": 3000}})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	goal := body["goal"].(map[string]interface{})
	goalPath := "/api/savings/" + itoa(uint(goal["id"].(float64)))

	resp, body = f.do(t, call{method: "POST", path: goalPath + "/deposit", token: tok, body: fiber.Map{"amount": 3000, "pin": "2468"}})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.EqualValues(t, 2_000, body["new_balance"])

	resp, body = f.do(t, call{method: "GET", path: "/api/savings", token: tok})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	goals := body["goals"].([]interface{})
	require.Len(t, goals, 1)
	assert.Equal(t, models.SavingsStatusCompleted, goals[0].(map[string]interface{})["status"])
	assert.EqualValues(t, 2_000, testutil.Wallet(t, f.db, aliceWallet.ID).Balance)

	resp, _ = f.do(t, call{method: "POST", path: "/api/savings/abc/deposit", token: tok, body: fiber.Map{"amount": 100, "pin": "2468"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_MerchantPayment(t *testing.T) {
	f := newAPI(t)
	alice, aliceWallet := testutil.SeedUser(t, f.db, "+237670000071", "CM", models.KYCTier1, 10_000)
	shop, shopWallet := testutil.SeedUser(t, f.db, "+237670000072", "CM", models.KYCTier2, 0)
	admin, _ := testutil.SeedUser(t, f.db, "+237670000079", "CM", models.KYCTier3, 0)
	adminTok := token(t, admin, models.RoleAdmin)
	tok := token(t, alice, models.RoleUser)
	f.setPin(t, tok, "2468")

	resp, body := f.do(t, call{
		method: "POST", path: "/api/admin/merchants", token: adminTok,
		body: fiber.Map{"user_id": shop.ID, "code": "kiosk9", "business_name": "Kiosk"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)

	pay := call{method: "POST", path: "/api/wallet/pay", token: tok, body: fiber.Map{"merchant_code": "KIOSK9", "amount": 2000, "pin": "2468"}}
	resp, body = f.do(t, pay)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.EqualValues(t, 7_990, testutil.Wallet(t, f.db, aliceWallet.ID).Balance)
	assert.EqualValues(t, 2_000, testutil.Wallet(t, f.db, shopWallet.ID).Balance)

	resp, _ = f.do(t, call{method: "POST", path: "/api/admin/merchants/KIOSK9/deactivate", token: adminTok})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = f.do(t, pay)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "MERCHANT_INACTIVE", body["code"])
}

func TestAPI_AdminReconcile(t *testing.T) {
	f := newAPI(t)
	admin, _ := testutil.SeedUser(t, f.db, "+237670000061", "CM", models.KYCTier3, 0)
	adminTok := token(t, admin, models.RoleAdmin)

	for _, path := range []string{"/api/admin/reconcile", "/api/admin/reconcile?older_than=10m"} {
		resp, body := f.do(t, call{method: "POST", path: path, token: adminTok})
		require.Equal(t, http.StatusOK, resp.StatusCode, body)
		report := body["report"].(map[string]interface{})
		assert.EqualValues(t, 0, report["scanned"])
	}

	// A sweep may not reach records that could still be in flight.
	for _, age := range []string{"0s", "1m"} {
		resp, body := f.do(t, call{method: "POST", path: "/api/admin/reconcile?older_than=" + age, token: adminTok})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, age)
		assert.Equal(t, "RECONCILE_TOO_RECENT", body["code"], age)
	}

	resp, _ := f.do(t, call{method: "POST", path: "/api/admin/reconcile?older_than=soon", token: adminTok})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
