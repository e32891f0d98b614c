package transaction

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	apperrors "momo/internal/errors"
	"momo/internal/models"
	"momo/internal/repositories"
	"momo/internal/services/fee"
	"momo/internal/services/limits"
	"momo/internal/services/pin"
	"momo/internal/services/reference"
	"momo/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testPin = "2468"

type fixture struct {
	db     *gorm.DB
	engine *Engine
}

type fixtureOptions struct {
	fees      models.FeeSchedule
	atomic    bool
	wrapStore func(repositories.LedgerStore) repositories.LedgerStore
}

func newFixture(t *testing.T, opts fixtureOptions) *fixture {
	t.Helper()
	db := testutil.NewDB(t)

	var store repositories.LedgerStore = repositories.NewLedgerStore(db, opts.atomic)
	if opts.wrapStore != nil {
		store = opts.wrapStore(store)
	}

	pinCfg := pin.DefaultConfig()
	pinCfg.BcryptCost = bcrypt.MinCost
	pinCfg.MaxRetries = 50

	engine := NewEngine(Dependencies{
		Store:      store,
		Users:      repositories.NewUserRepository(db),
		Merchants:  repositories.NewMerchantRepository(db),
		Pins:       pin.NewGuard(repositories.NewWalletRepository(db), nil, pinCfg),
		Limits:     limits.NewChecker(models.DefaultLimitTables(), repositories.NewTransactionRepository(db), time.UTC),
		Fees:       fee.NewCalculator(opts.fees, nil),
		References: reference.NewGenerator(),
	}, Config{MaxRetries: 50})

	return &fixture{db: db, engine: engine}
}

func defaultOptions() fixtureOptions {
	return fixtureOptions{fees: models.DefaultFeeSchedule(), atomic: true}
}

// seed creates a user with a wallet holding balance and the test PIN set.
func (f *fixture) seed(t *testing.T, phone, country string, tier models.KYCTier, balance int64) (*models.User, *models.Wallet) {
	t.Helper()
	user, wallet := testutil.SeedUser(t, f.db, phone, country, tier, balance)
	require.NoError(t, f.engine.SetPin(context.Background(), user.ID, testPin, ""))
	return user, wallet
}

func (f *fixture) balance(t *testing.T, walletID uint) int64 {
	return testutil.Wallet(t, f.db, walletID).Balance
}

func TestEngine_WithdrawWithoutFee(t *testing.T) {
	f := newFixture(t, fixtureOptions{fees: models.FeeSchedule{}, atomic: true})
	user, wallet := f.seed(t, "+237650000001", "CM", models.KYCTier2, 5_000)

	res, err := f.engine.Withdraw(context.Background(), user.ID, 1_000, testPin, "MTN MoMo")
	require.NoError(t, err)

	assert.Equal(t, int64(4_000), res.NewBalance)
	assert.Equal(t, int64(4_000), f.balance(t, wallet.ID))
	assert.Equal(t, models.TransactionStatusSuccess, res.Record.Status)
	assert.Equal(t, int64(1_000), res.Record.Amount)
	assert.Equal(t, int64(0), res.Record.Fee)
	assert.Equal(t, int64(1), testutil.CountTransactions(t, f.db))
}

func TestEngine_TransferInsufficientBalance(t *testing.T) {
	f := newFixture(t, defaultOptions())
	sender, senderWallet := f.seed(t, "+237650000001", "CM", models.KYCTier2, 500)
	_, recipientWallet := f.seed(t, "+237650000002", "CM", models.KYCTier2, 0)

	_, err := f.engine.Transfer(context.Background(), sender.ID, "+237650000002", 1_000, testPin)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientBalance)
	assert.Equal(t, apperrors.KindInsufficientBalance, apperrors.KindOf(err))

	assert.Equal(t, int64(0), testutil.CountTransactions(t, f.db))
	assert.Equal(t, int64(500), f.balance(t, senderWallet.ID))
	assert.Equal(t, int64(0), f.balance(t, recipientWallet.ID))
}

func TestEngine_TransferWithFee(t *testing.T) {
	f := newFixture(t, defaultOptions())
	sender, senderWallet := f.seed(t, "+237650000001", "CM", models.KYCTier2, 5_000)
	_, recipientWallet := f.seed(t, "+237650000002", "CM", models.KYCTier1, 0)

	res, err := f.engine.Transfer(context.Background(), sender.ID, "+237650000002", 1_000, testPin)
	require.NoError(t, err)

	rec := res.Record
	assert.Equal(t, models.TransactionTypeTransfer, rec.Type)
	assert.Equal(t, int64(10), rec.Fee)
	assert.Equal(t, int64(3_990), res.NewBalance)
	assert.Equal(t, int64(3_990), f.balance(t, senderWallet.ID))
	assert.Equal(t, int64(1_000), f.balance(t, recipientWallet.ID))

	stored, err := repositories.NewTransactionRepository(f.db).GetByReference(context.Background(), rec.Reference)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusSuccess, stored.Status)
	require.NotNil(t, stored.BalanceBeforeSource)
	require.NotNil(t, stored.BalanceAfterDest)
	assert.Equal(t, int64(5_000), *stored.BalanceBeforeSource)
	assert.Equal(t, int64(3_990), *stored.BalanceAfterSource)
	assert.Equal(t, int64(0), *stored.BalanceBeforeDest)
	assert.Equal(t, int64(1_000), *stored.BalanceAfterDest)
	assert.Equal(t, senderWallet.ID, *stored.SourceWalletID)
	assert.Equal(t, recipientWallet.ID, *stored.DestWalletID)
	assert.NotNil(t, stored.ProcessedAt)
	assert.Regexp(t, `^TXN-[0-9A-Z]+-[0-9A-Z]{5}$`, stored.Reference)
}

type MockPins struct {
	mock.Mock
}

func (m *MockPins) Verify(ctx context.Context, walletID uint, pin string) error {
	return m.Called(ctx, walletID, pin).Error(0)
}

func (m *MockPins) SetPin(ctx context.Context, walletID uint, newPin, oldPin string) error {
	return m.Called(ctx, walletID, newPin, oldPin).Error(0)
}

type MockLimits struct {
	mock.Mock
}

func (m *MockLimits) CheckLimits(ctx context.Context, req limits.LimitRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *MockLimits) MaxBalance(tier models.KYCTier, country string) int64 {
	return m.Called(tier, country).Get(0).(int64)
}

func TestEngine_SelfTransferRejectedBeforeAuthorization(t *testing.T) {
	db := testutil.NewDB(t)
	user, wallet := testutil.SeedUser(t, db, "+237650000001", "CM", models.KYCTier2, 5_000)

	pins := new(MockPins)
	lim := new(MockLimits)
	engine := NewEngine(Dependencies{
		Store:      repositories.NewLedgerStore(db, true),
		Users:      repositories.NewUserRepository(db),
		Merchants:  repositories.NewMerchantRepository(db),
		Pins:       pins,
		Limits:     lim,
		Fees:       fee.NewCalculator(models.DefaultFeeSchedule(), nil),
		References: reference.NewGenerator(),
	}, Config{})

	_, err := engine.Transfer(context.Background(), user.ID, "+237650000001", 1_000, testPin)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrSelfTransfer)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	pins.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything, mock.Anything)
	lim.AssertNotCalled(t, "CheckLimits", mock.Anything, mock.Anything)
	assert.Equal(t, int64(0), testutil.CountTransactions(t, db))
	assert.Equal(t, int64(5_000), testutil.Wallet(t, db, wallet.ID).Balance)
}

func TestEngine_SavingsDepositCompletesGoal(t *testing.T) {
	f := newFixture(t, defaultOptions())
	ctx := context.Background()
	user, wallet := f.seed(t, "+237650000001", "CM", models.KYCTier2, 5_000)

	goals := repositories.NewSavingsRepository(f.db)
	goal := &models.SavingsGoal{UserID: user.ID, WalletID: wallet.ID, Name: "School fees", TargetAmount: 2_000}
	require.NoError(t, goals.Create(ctx, goal))

	res, err := f.engine.SavingsDeposit(ctx, user.ID, goal.ID, 1_500, testPin)
	require.NoError(t, err)
	assert.Equal(t, int64(3_500), res.NewBalance)

	stored, err := goals.GetByID(ctx, goal.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SavingsStatusActive, stored.Status)

	_, err = f.engine.SavingsDeposit(ctx, user.ID, goal.ID, 500, testPin)
	require.NoError(t, err)

	stored, err = goals.GetByID(ctx, goal.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2_000), stored.Balance)
	assert.Equal(t, models.SavingsStatusCompleted, stored.Status)
	assert.NotNil(t, stored.CompletedAt)
	assert.Equal(t, int64(3_000), f.balance(t, wallet.ID))

	_, err = f.engine.SavingsDeposit(ctx, user.ID, goal.ID, 500, testPin)
	assert.ErrorIs(t, err, apperrors.ErrGoalClosed)

	res, err = f.engine.SavingsWithdraw(ctx, user.ID, goal.ID, 1_200, testPin)
	require.NoError(t, err)
	assert.Equal(t, int64(4_200), res.NewBalance)
	assert.Equal(t, models.TransactionTypeSavingsOut, res.Record.Type)

	_, err = f.engine.SavingsWithdraw(ctx, user.ID, goal.ID, 1_000, testPin)
	assert.ErrorIs(t, err, apperrors.ErrGoalInsufficient)
}

func TestEngine_SavingsGoalOfAnotherUser(t *testing.T) {
	f := newFixture(t, defaultOptions())
	ctx := context.Background()
	owner, ownerWallet := f.seed(t, "+237650000001", "CM", models.KYCTier2, 5_000)
	other, _ := f.seed(t, "+237650000002", "CM", models.KYCTier2, 5_000)

	goal := &models.SavingsGoal{UserID: owner.ID, WalletID: ownerWallet.ID, Name: "Roof", TargetAmount: 10_000}
	require.NoError(t, repositories.NewSavingsRepository(f.db).Create(ctx, goal))

	_, err := f.engine.SavingsDeposit(ctx, other.ID, goal.ID, 1_000, testPin)
	assert.ErrorIs(t, err, apperrors.ErrGoalNotFound)
}

func TestEngine_Rejections(t *testing.T) {
	f := newFixture(t, defaultOptions())
	ctx := context.Background()
	sender, senderWallet := f.seed(t, "+237650000001", "CM", models.KYCTier2, 50_000)
	f.seed(t, "+237650000002", "CM", models.KYCTier2, 0)

	tests := []struct {
		name string
		call func() error
		want error
		kind apperrors.Kind
	}{
		{
			name: "zero amount",
			call: func() error {
				_, err := f.engine.Transfer(ctx, sender.ID, "+237650000002", 0, testPin)
				return err
			},
			want: apperrors.ErrInvalidAmount,
			kind: apperrors.KindValidation,
		},
		{
			name: "unknown counterpart",
			call: func() error {
				_, err := f.engine.Transfer(ctx, sender.ID, "+237699999999", 1_000, testPin)
				return err
			},
			want: apperrors.ErrCounterpartNotFound,
			kind: apperrors.KindNotFound,
		},
		{
			name: "wrong pin",
			call: func() error {
				_, err := f.engine.Transfer(ctx, sender.ID, "+237650000002", 1_000, "1357")
				return err
			},
			want: apperrors.ErrIncorrectPin,
			kind: apperrors.KindUnauthorized,
		},
		{
			name: "malformed pin",
			call: func() error {
				_, err := f.engine.Withdraw(ctx, sender.ID, 1_000, "12", "")
				return err
			},
			want: apperrors.ErrInvalidPinFormat,
			kind: apperrors.KindValidation,
		},
		{
			name: "below minimum",
			call: func() error {
				_, err := f.engine.Withdraw(ctx, sender.ID, 50, testPin, "")
				return err
			},
			want: apperrors.ErrAmountBelowMinimum,
			kind: apperrors.KindValidation,
		},
		{
			name: "unknown merchant",
			call: func() error {
				_, err := f.engine.MerchantPayment(ctx, sender.ID, "NOPE", 1_000, testPin)
				return err
			},
			want: apperrors.ErrMerchantNotFound,
			kind: apperrors.KindNotFound,
		},
		{
			name: "unknown user",
			call: func() error {
				_, err := f.engine.Deposit(ctx, 4242, 1_000, "")
				return err
			},
			want: apperrors.ErrAccountNotFound,
			kind: apperrors.KindNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.kind, apperrors.KindOf(err))
		})
	}

	assert.Equal(t, int64(0), testutil.CountTransactions(t, f.db))
	assert.Equal(t, int64(50_000), f.balance(t, senderWallet.ID))
}

func TestEngine_CrossBorderTransfer(t *testing.T) {
	f := newFixture(t, defaultOptions())
	sender, senderWallet := f.seed(t, "+237650000001", "CM", models.KYCTier2, 5_000)
	_, recipientWallet := f.seed(t, "+234800000001", "NG", models.KYCTier2, 0)

	res, err := f.engine.Transfer(context.Background(), sender.ID, "+234800000001", 1_000, testPin)
	require.NoError(t, err)

	assert.Equal(t, models.TransactionTypeCrossBorder, res.Record.Type)
	assert.Equal(t, int64(200), res.Record.Fee)
	assert.Equal(t, int64(3_800), f.balance(t, senderWallet.ID))
	assert.Equal(t, int64(1_000), f.balance(t, recipientWallet.ID))
}

func TestEngine_MerchantPayment(t *testing.T) {
	f := newFixture(t, defaultOptions())
	ctx := context.Background()
	payer, payerWallet := f.seed(t, "+237650000001", "CM", models.KYCTier2, 10_000)
	shopOwner, shopWallet := f.seed(t, "+237650000002", "CM", models.KYCTier3, 0)

	merchant := &models.Merchant{UserID: shopOwner.ID, Code: " shop01 ", BusinessName: "Chez Mama"}
	require.NoError(t, repositories.NewMerchantRepository(f.db).Create(ctx, merchant))

	res, err := f.engine.MerchantPayment(ctx, payer.ID, "SHOP01", 2_000, testPin)
	require.NoError(t, err)

	assert.Equal(t, models.TransactionTypeMerchantPayment, res.Record.Type)
	assert.Equal(t, int64(10), res.Record.Fee)
	require.NotNil(t, res.Record.MerchantID)
	assert.Equal(t, merchant.ID, *res.Record.MerchantID)
	assert.Equal(t, int64(7_990), f.balance(t, payerWallet.ID))
	assert.Equal(t, int64(2_000), f.balance(t, shopWallet.ID))

	_, err = f.engine.MerchantPayment(ctx, shopOwner.ID, "SHOP01", 500, testPin)
	assert.ErrorIs(t, err, apperrors.ErrSelfTransfer)
}

func TestEngine_DepositRespectsMaxBalance(t *testing.T) {
	f := newFixture(t, defaultOptions())
	ctx := context.Background()
	user, wallet := f.seed(t, "+237650000001", "CM", models.KYCTier0, 90_000)

	_, err := f.engine.Deposit(ctx, user.ID, 20_000, "Orange Money")
	assert.ErrorIs(t, err, apperrors.ErrMaxBalanceExceeded)
	assert.Equal(t, apperrors.KindLimitExceeded, apperrors.KindOf(err))

	res, err := f.engine.Deposit(ctx, user.ID, 10_000, "Orange Money")
	require.NoError(t, err)
	assert.Equal(t, int64(100_000), res.NewBalance)
	assert.Equal(t, int64(0), res.Record.Fee)
	assert.Equal(t, "Orange Money", res.Record.SourceLabel)
	assert.Nil(t, res.Record.SourceWalletID)
	assert.Equal(t, wallet.ID, *res.Record.DestWalletID)
}

func TestEngine_DailyLimitCountsSettledTransfers(t *testing.T) {
	f := newFixture(t, fixtureOptions{fees: models.FeeSchedule{}, atomic: true})
	ctx := context.Background()
	sender, _ := f.seed(t, "+237650000001", "CM", models.KYCTier0, 90_000)
	f.seed(t, "+237650000002", "CM", models.KYCTier3, 0)

	for i := 0; i < 2; i++ {
		_, err := f.engine.Transfer(ctx, sender.ID, "+237650000002", 25_000, testPin)
		require.NoError(t, err)
	}
	_, err := f.engine.Transfer(ctx, sender.ID, "+237650000002", 1_000, testPin)
	assert.ErrorIs(t, err, apperrors.ErrDailyLimitExceeded)
}

func TestEngine_SequentialFallback(t *testing.T) {
	opts := defaultOptions()
	opts.atomic = false
	f := newFixture(t, opts)
	sender, senderWallet := f.seed(t, "+237650000001", "CM", models.KYCTier2, 5_000)
	_, recipientWallet := f.seed(t, "+237650000002", "CM", models.KYCTier2, 0)

	res, err := f.engine.Transfer(context.Background(), sender.ID, "+237650000002", 1_000, testPin)
	require.NoError(t, err)
	assert.Equal(t, int64(3_990), res.NewBalance)

	stored, err := repositories.NewTransactionRepository(f.db).GetByReference(context.Background(), res.Record.Reference)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusSuccess, stored.Status)
	assert.True(t, stored.SourceApplied)
	assert.True(t, stored.DestApplied)
	assert.Equal(t, int64(5_000)-int64(3_990), *stored.BalanceBeforeSource-*stored.BalanceAfterSource)
	assert.Equal(t, int64(3_990), f.balance(t, senderWallet.ID))
	assert.Equal(t, int64(1_000), f.balance(t, recipientWallet.ID))
}

type failingCredits struct {
	repositories.WalletRepository
}

func (w failingCredits) ApplyBalance(ctx context.Context, wallet *models.Wallet, delta, maxBalance int64) error {
	if delta > 0 {
		return errors.New("connection reset by peer")
	}
	return w.WalletRepository.ApplyBalance(ctx, wallet, delta, maxBalance)
}

type failingCreditStore struct {
	repositories.LedgerStore
}

func (s failingCreditStore) Wallets() repositories.WalletRepository {
	return failingCredits{s.LedgerStore.Wallets()}
}

func TestEngine_SequentialFailureAfterDebit(t *testing.T) {
	opts := defaultOptions()
	opts.atomic = false
	opts.wrapStore = func(s repositories.LedgerStore) repositories.LedgerStore {
		return failingCreditStore{s}
	}
	f := newFixture(t, opts)
	sender, senderWallet := f.seed(t, "+237650000001", "CM", models.KYCTier2, 5_000)
	_, recipientWallet := f.seed(t, "+237650000002", "CM", models.KYCTier2, 0)

	_, err := f.engine.Transfer(context.Background(), sender.ID, "+237650000002", 1_000, testPin)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrPendingReconciliation)
	assert.Equal(t, apperrors.KindInternal, apperrors.KindOf(err))

	// The debit stays applied; the record documents the gap.
	assert.Equal(t, int64(3_990), f.balance(t, senderWallet.ID))
	assert.Equal(t, int64(0), f.balance(t, recipientWallet.ID))

	var records []models.Transaction
	require.NoError(t, f.db.Find(&records).Error)
	require.Len(t, records, 1)
	assert.Equal(t, models.TransactionStatusFailed, records[0].Status)
	assert.Contains(t, records[0].ErrorMessage, "connection reset")
	assert.True(t, records[0].SourceApplied)
	assert.False(t, records[0].DestApplied)
}

func TestEngine_AtomicFailureRollsBack(t *testing.T) {
	opts := defaultOptions()
	opts.wrapStore = func(s repositories.LedgerStore) repositories.LedgerStore {
		return failingAtomicStore{s}
	}
	f := newFixture(t, opts)
	sender, senderWallet := f.seed(t, "+237650000001", "CM", models.KYCTier2, 5_000)
	f.seed(t, "+237650000002", "CM", models.KYCTier2, 0)

	_, err := f.engine.Transfer(context.Background(), sender.ID, "+237650000002", 1_000, testPin)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindInternal, apperrors.KindOf(err))

	assert.Equal(t, int64(5_000), f.balance(t, senderWallet.ID))
	assert.Equal(t, int64(0), testutil.CountTransactions(t, f.db))
}

// failingAtomicStore hands the unit a store whose credits fail, so the debit
// made earlier in the same unit must roll back.
type failingAtomicStore struct {
	repositories.LedgerStore
}

func (s failingAtomicStore) ExecuteInTransaction(ctx context.Context, fn func(repositories.LedgerStore) error) error {
	return s.LedgerStore.ExecuteInTransaction(ctx, func(tx repositories.LedgerStore) error {
		return fn(failingCreditStore{tx})
	})
}

func TestEngine_Reconcile(t *testing.T) {
	f := newFixture(t, defaultOptions())
	ctx := context.Background()
	_, a := f.seed(t, "+237650000001", "CM", models.KYCTier2, 0)
	_, b := f.seed(t, "+237650000002", "CM", models.KYCTier2, 0)

	old := time.Now().Add(-time.Hour)
	pending := func(ref string, typ models.TransactionType, src, dst bool, createdAt time.Time) {
		rec := &models.Transaction{
			Reference:      ref,
			Type:           typ,
			Amount:         1_000,
			Currency:       "XAF",
			Status:         models.TransactionStatusPending,
			SourceWalletID: &a.ID,
			DestWalletID:   &b.ID,
			SourceApplied:  src,
			DestApplied:    dst,
			CreatedAt:      createdAt,
		}
		require.NoError(t, f.db.Create(rec).Error)
	}
	pending("TXN-NOLEGS", models.TransactionTypeTransfer, false, false, old)
	pending("TXN-BOTH", models.TransactionTypeTransfer, true, true, old)
	pending("TXN-HALF", models.TransactionTypeTransfer, true, false, old)
	pending("TXN-WITHDRAW", models.TransactionTypeWithdraw, true, false, old)
	pending("TXN-FRESH", models.TransactionTypeTransfer, false, false, time.Now())

	report, err := f.engine.Reconcile(ctx, 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, &ReconcileReport{Scanned: 4, Completed: 2, Cancelled: 1, Failed: 1}, report)

	txs := repositories.NewTransactionRepository(f.db)
	want := map[string]models.TransactionStatus{
		"TXN-NOLEGS":   models.TransactionStatusCancelled,
		"TXN-BOTH":     models.TransactionStatusSuccess,
		"TXN-HALF":     models.TransactionStatusFailed,
		"TXN-WITHDRAW": models.TransactionStatusSuccess,
		"TXN-FRESH":    models.TransactionStatusPending,
	}
	for ref, status := range want {
		rec, err := txs.GetByReference(ctx, ref)
		require.NoError(t, err)
		assert.Equal(t, status, rec.Status, ref)
	}
}

// debitHook runs hook right after every debit the store applies.
type debitHook struct {
	repositories.WalletRepository
	hook func()
}

func (w debitHook) ApplyBalance(ctx context.Context, wallet *models.Wallet, delta, maxBalance int64) error {
	if err := w.WalletRepository.ApplyBalance(ctx, wallet, delta, maxBalance); err != nil {
		return err
	}
	if delta < 0 {
		w.hook()
	}
	return nil
}

type debitHookStore struct {
	repositories.LedgerStore
	hook func()
}

func (s debitHookStore) Wallets() repositories.WalletRepository {
	return debitHook{s.LedgerStore.Wallets(), s.hook}
}

func TestEngine_ReconcileRefusesInFlightAge(t *testing.T) {
	var (
		f        *fixture
		sweepErr error
		sweeps   int
	)
	opts := defaultOptions()
	opts.atomic = false
	opts.wrapStore = func(s repositories.LedgerStore) repositories.LedgerStore {
		return debitHookStore{s, func() {
			sweeps++
			_, sweepErr = f.engine.Reconcile(context.Background(), 0)
		}}
	}
	f = newFixture(t, opts)
	sender, senderWallet := f.seed(t, "+237650000001", "CM", models.KYCTier2, 5_000)
	_, recipientWallet := f.seed(t, "+237650000002", "CM", models.KYCTier2, 0)

	res, err := f.engine.Transfer(context.Background(), sender.ID, "+237650000002", 1_000, testPin)
	require.NoError(t, err)
	require.Equal(t, 1, sweeps)
	assert.ErrorIs(t, sweepErr, apperrors.ErrReconcileTooRecent)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(sweepErr))

	stored, err := repositories.NewTransactionRepository(f.db).GetByReference(context.Background(), res.Record.Reference)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusSuccess, stored.Status)
	assert.Equal(t, int64(3_990), f.balance(t, senderWallet.ID))
	assert.Equal(t, int64(1_000), f.balance(t, recipientWallet.ID))

	_, err = f.engine.Reconcile(context.Background(), DefaultMinReconcileAge-time.Second)
	assert.ErrorIs(t, err, apperrors.ErrReconcileTooRecent)
}

func TestEngine_SequentialDebitUnderSettledRecord(t *testing.T) {
	var f *fixture
	opts := defaultOptions()
	opts.atomic = false
	opts.wrapStore = func(s repositories.LedgerStore) repositories.LedgerStore {
		return debitHookStore{s, func() {
			// Another process settles the record between the debit and its leg mark.
			require.NoError(t, f.db.Model(&models.Transaction{}).
				Where("status = ?", models.TransactionStatusPending).
				Update("status", models.TransactionStatusCancelled).Error)
		}}
	}
	f = newFixture(t, opts)
	sender, senderWallet := f.seed(t, "+237650000001", "CM", models.KYCTier2, 5_000)
	_, recipientWallet := f.seed(t, "+237650000002", "CM", models.KYCTier2, 0)

	_, err := f.engine.Transfer(context.Background(), sender.ID, "+237650000002", 1_000, testPin)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrLedgerInconsistent)
	assert.Equal(t, apperrors.KindInternal, apperrors.KindOf(err))

	assert.Equal(t, int64(3_990), f.balance(t, senderWallet.ID))
	assert.Equal(t, int64(0), f.balance(t, recipientWallet.ID))
}

func TestNewEngine_SequentialTimeoutStaysBelowReconcileAge(t *testing.T) {
	f := newFixture(t, defaultOptions())
	cfg := Config{MinReconcileAge: time.Minute, SequentialTimeout: 2 * time.Minute}
	e := NewEngine(Dependencies{
		Store:      f.engine.store,
		Users:      f.engine.users,
		Merchants:  f.engine.merchants,
		Pins:       f.engine.pins,
		Limits:     f.engine.limits,
		Fees:       f.engine.fees,
		References: f.engine.refs,
	}, cfg)

	assert.Equal(t, time.Minute, e.MinReconcileAge())
	assert.Equal(t, 30*time.Second, e.config.SequentialTimeout)
	assert.Equal(t, DefaultMinReconcileAge, f.engine.MinReconcileAge())
	assert.Equal(t, DefaultSequentialTimeout, f.engine.config.SequentialTimeout)
}

func TestEngine_ConcurrentTransfersNeverOverdraw(t *testing.T) {
	f := newFixture(t, defaultOptions())
	ctx := context.Background()
	sender, senderWallet := f.seed(t, "+237650000001", "CM", models.KYCTier2, 5_000)
	_, recipientWallet := f.seed(t, "+237650000002", "CM", models.KYCTier2, 0)

	const workers = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		failures  []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.engine.Transfer(ctx, sender.ID, "+237650000002", 1_000, testPin)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, err)
				return
			}
			succeeded++
		}()
	}
	wg.Wait()

	assert.Equal(t, 4, succeeded)
	for _, err := range failures {
		assert.ErrorIs(t, err, apperrors.ErrInsufficientBalance)
	}
	assert.Equal(t, int64(5_000-4*1_010), f.balance(t, senderWallet.ID))
	assert.Equal(t, int64(4_000), f.balance(t, recipientWallet.ID))

	var records []models.Transaction
	require.NoError(t, f.db.Where("status = ?", models.TransactionStatusSuccess).Find(&records).Error)
	require.Len(t, records, 4)
	for _, rec := range records {
		assert.Equal(t, rec.Amount+rec.Fee, *rec.BalanceBeforeSource-*rec.BalanceAfterSource)
		assert.Equal(t, rec.Amount, *rec.BalanceAfterDest-*rec.BalanceBeforeDest)
		assert.GreaterOrEqual(t, *rec.BalanceAfterSource, int64(0))
	}
}
