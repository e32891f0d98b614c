// Command admin_seed creates the administrator account and, optionally, a demo
// data set: two funded customers and a merchant.
package main

import (
	"context"
	"errors"
	"fmt"
	"time"
	_ "time/tzdata"

	"momo/internal/config"
	apperrors "momo/internal/errors"
	"momo/internal/logger"
	"momo/internal/models"
	"momo/internal/repositories"
	"momo/internal/routes"
	"momo/internal/services/merchant"
	"momo/internal/utils"

	"go.uber.org/zap"
)

type seedUser struct {
	phone   string
	name    string
	country string
	tier    models.KYCTier
	role    string
	deposit int64
}

func main() {
	config.LoadEnv()
	logger.Init(config.IsProduction())
	defer logger.Sync()

	adminPhone := config.GetEnv("ADMIN_PHONE", "")
	if adminPhone == "" {
		logger.Log.Fatal("ADMIN_PHONE must be set in environment")
	}

	ledgerCfg, err := config.LoadLedger(config.GetEnv("LEDGER_CONFIG", "configs/ledger.yaml"))
	if err != nil {
		logger.Log.Fatal("invalid ledger configuration", zap.Error(err))
	}
	if err := repositories.InitDB(); err != nil {
		logger.Log.Fatal("failed to initialise storage", zap.Error(err))
	}
	defer repositories.Close()

	ctx := context.Background()
	services := routes.BuildServices(repositories.DB, repositories.CacheService, ledgerCfg)

	users := []seedUser{{
		phone:   adminPhone,
		name:    "Administrator",
		country: config.GetEnv("ADMIN_COUNTRY", "CM"),
		tier:    models.KYCTier3,
		role:    models.RoleAdmin,
	}}
	if config.GetBoolEnv("SEED_DEMO", false) {
		users = append(users,
			seedUser{phone: "+237670000001", name: "Demo Customer", country: "CM", tier: models.KYCTier1, role: models.RoleUser, deposit: 50_000},
			seedUser{phone: "+241060000001", name: "Demo Customer GA", country: "GA", tier: models.KYCTier2, role: models.RoleUser, deposit: 50_000},
			seedUser{phone: "+237670000099", name: "Demo Shop", country: "CM", tier: models.KYCTier2, role: models.RoleUser},
			seedUser{phone: "+237600000000", name: "Network Gateway", country: "CM", tier: models.KYCTier3, role: models.RoleNetwork},
		)
	}

	created := make(map[string]*models.User, len(users))
	for _, su := range users {
		user, err := ensureUser(ctx, services, su)
		if err != nil {
			logger.Log.Fatal("failed to seed user", zap.String("phone", su.phone), zap.Error(err))
		}
		created[su.phone] = user
	}

	if shop, ok := created["+237670000099"]; ok {
		if err := ensureMerchant(ctx, services, shop, "SHOP01", "Demo Shop"); err != nil {
			logger.Log.Fatal("failed to seed merchant", zap.Error(err))
		}
	}

	if secret := config.GetEnv("JWT_SECRET", ""); secret != "" && !config.IsProduction() {
		for _, su := range users {
			u := created[su.phone]
			tok, err := utils.GenerateToken(secret, &models.UserClaims{UserID: u.ID, Phone: u.Phone, Role: su.role}, 24*time.Hour)
			if err != nil {
				logger.Log.Fatal("failed to sign token", zap.Error(err))
			}
			fmt.Printf("%s\t%s\n", u.Phone, tok)
		}
	}

	logger.Log.Info("seed complete", zap.Int("users", len(users)))
}

// ensureUser creates the user and wallet once; a fresh wallet receives the demo deposit.
func ensureUser(ctx context.Context, services *routes.Services, su seedUser) (*models.User, error) {
	user, err := services.Users.GetByPhone(ctx, su.phone)
	switch {
	case err == nil:
		logger.Log.Info("user already exists", zap.String("phone", su.phone))
		return user, nil
	case !errors.Is(err, repositories.ErrUserNotFound):
		return nil, err
	}

	user = &models.User{
		Phone:   su.phone,
		Name:    su.name,
		Country: su.country,
		KYCTier: su.tier,
		Role:    su.role,
	}
	if err := services.Users.Create(ctx, user); err != nil {
		return nil, err
	}
	if _, err := services.Wallets.OpenWallet(ctx, user.ID); err != nil {
		return nil, err
	}
	if su.deposit > 0 {
		if _, err := services.Ledger.Deposit(ctx, user.ID, su.deposit, "seed"); err != nil {
			return nil, err
		}
	}
	logger.Log.Info("user created", zap.String("phone", su.phone), zap.Int64("deposit", su.deposit))
	return user, nil
}

func ensureMerchant(ctx context.Context, services *routes.Services, owner *models.User, code, name string) error {
	_, err := services.Registry.Register(ctx, merchant.RegisterInput{
		UserID:       owner.ID,
		Code:         code,
		BusinessName: name,
		BusinessType: "retail",
	})
	if errors.Is(err, apperrors.ErrMerchantExists) {
		logger.Log.Info("merchant already exists", zap.String("code", code))
		return nil
	}
	return err
}
