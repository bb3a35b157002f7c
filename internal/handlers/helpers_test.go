package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"wallet/internal/auth"
	"wallet/internal/config"
	"wallet/internal/services"
	"wallet/internal/store"
	"wallet/internal/websocket"

	"github.com/jmoiron/sqlx"
)

const testJWTSecret = "secret"

type fakeTxRunner struct {
	withTxFn func(ctx context.Context, fn func(*sqlx.Tx) error) error
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.withTxFn != nil {
		return f.withTxFn(ctx, fn)
	}
	return fn(nil)
}

type stubReconcileDB struct {
	selectFn func(ctx context.Context, dest any, query string, args ...any) error
}

func (s stubReconcileDB) SelectContext(ctx context.Context, dest any, query string, args ...any) error {
	if s.selectFn == nil {
		return nil
	}
	return s.selectFn(ctx, dest, query, args...)
}

type stubUserStore struct {
	createFn        func(ctx context.Context, tx store.Execer, id, username, email, passwordHash, role string) error
	getByEmailFn    func(ctx context.Context, email string) (map[string]any, error)
	getByUsernameFn func(ctx context.Context, username string) (map[string]any, error)
	getByIDFn       func(ctx context.Context, userID string) (map[string]any, error)
	getAccessFn     func(ctx context.Context, userID string) (string, bool, error)
	hasAnyAdminFn   func(ctx context.Context) (bool, error)
	listAllFn       func(ctx context.Context, limit, offset int) ([]map[string]any, error)
}

func (s stubUserStore) Create(ctx context.Context, tx store.Execer, id, username, email, passwordHash, role string) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, id, username, email, passwordHash, role)
}

func (s stubUserStore) GetByEmail(ctx context.Context, email string) (map[string]any, error) {
	if s.getByEmailFn == nil {
		return nil, nil
	}
	return s.getByEmailFn(ctx, email)
}

func (s stubUserStore) GetByUsername(ctx context.Context, username string) (map[string]any, error) {
	if s.getByUsernameFn == nil {
		return nil, nil
	}
	return s.getByUsernameFn(ctx, username)
}

func (s stubUserStore) GetByID(ctx context.Context, userID string) (map[string]any, error) {
	if s.getByIDFn == nil {
		return nil, nil
	}
	return s.getByIDFn(ctx, userID)
}

func (s stubUserStore) GetAccess(ctx context.Context, userID string) (string, bool, error) {
	if s.getAccessFn == nil {
		return auth.RoleNormal, false, nil
	}
	return s.getAccessFn(ctx, userID)
}

func (s stubUserStore) HasAnyAdmin(ctx context.Context) (bool, error) {
	if s.hasAnyAdminFn == nil {
		return true, nil
	}
	return s.hasAnyAdminFn(ctx)
}

func (s stubUserStore) ListAll(ctx context.Context, limit, offset int) ([]map[string]any, error) {
	if s.listAllFn == nil {
		return nil, nil
	}
	return s.listAllFn(ctx, limit, offset)
}

type stubWalletStore struct {
	getByUserFn func(ctx context.Context, userID string) (store.Wallet, error)
}

func (s stubWalletStore) GetByUser(ctx context.Context, userID string) (store.Wallet, error) {
	if s.getByUserFn == nil {
		return store.Wallet{}, nil
	}
	return s.getByUserFn(ctx, userID)
}

type stubDepositStore struct {
	createFn       func(ctx context.Context, tx store.Execer, input store.DepositInput) error
	listByUserFn   func(ctx context.Context, userID string, limit, offset int) ([]map[string]any, error)
	listByStatusFn func(ctx context.Context, status string, limit, offset int) ([]map[string]any, error)
}

func (s stubDepositStore) Create(ctx context.Context, tx store.Execer, input store.DepositInput) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, input)
}

func (s stubDepositStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]map[string]any, error) {
	if s.listByUserFn == nil {
		return nil, nil
	}
	return s.listByUserFn(ctx, userID, limit, offset)
}

func (s stubDepositStore) ListByStatus(ctx context.Context, status string, limit, offset int) ([]map[string]any, error) {
	if s.listByStatusFn == nil {
		return nil, nil
	}
	return s.listByStatusFn(ctx, status, limit, offset)
}

type stubWithdrawalStore struct {
	createFn       func(ctx context.Context, tx store.Execer, input store.WithdrawalInput) error
	listByUserFn   func(ctx context.Context, userID string, limit, offset int) ([]map[string]any, error)
	listByStatusFn func(ctx context.Context, status string, limit, offset int) ([]map[string]any, error)
}

func (s stubWithdrawalStore) Create(ctx context.Context, tx store.Execer, input store.WithdrawalInput) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, input)
}

func (s stubWithdrawalStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]map[string]any, error) {
	if s.listByUserFn == nil {
		return nil, nil
	}
	return s.listByUserFn(ctx, userID, limit, offset)
}

func (s stubWithdrawalStore) ListByStatus(ctx context.Context, status string, limit, offset int) ([]map[string]any, error) {
	if s.listByStatusFn == nil {
		return nil, nil
	}
	return s.listByStatusFn(ctx, status, limit, offset)
}

type stubTransactionStore struct {
	listByUserFn  func(ctx context.Context, userID, txType string, limit, offset int) ([]map[string]any, error)
	listAllFn     func(ctx context.Context, limit, offset int) ([]map[string]any, error)
	sumByWalletFn func(ctx context.Context, walletID string) (int64, error)
}

func (s stubTransactionStore) ListByUser(ctx context.Context, userID, txType string, limit, offset int) ([]map[string]any, error) {
	if s.listByUserFn == nil {
		return nil, nil
	}
	return s.listByUserFn(ctx, userID, txType, limit, offset)
}

func (s stubTransactionStore) ListAll(ctx context.Context, limit, offset int) ([]map[string]any, error) {
	if s.listAllFn == nil {
		return nil, nil
	}
	return s.listAllFn(ctx, limit, offset)
}

func (s stubTransactionStore) SumByWallet(ctx context.Context, walletID string) (int64, error) {
	if s.sumByWalletFn == nil {
		return 0, nil
	}
	return s.sumByWalletFn(ctx, walletID)
}

type stubActivityStore struct {
	listFn func(ctx context.Context, limit, offset int) ([]map[string]any, error)
}

func (s stubActivityStore) List(ctx context.Context, limit, offset int) ([]map[string]any, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, limit, offset)
}

type stubApprovalService struct {
	approveDepositFn    func(ctx context.Context, depositID string, req services.ReviewRequest) (store.Deposit, error)
	rejectDepositFn     func(ctx context.Context, depositID string, req services.ReviewRequest) (store.Deposit, error)
	approveWithdrawalFn func(ctx context.Context, withdrawalID string, req services.ReviewRequest) (store.Withdrawal, error)
	rejectWithdrawalFn  func(ctx context.Context, withdrawalID string, req services.ReviewRequest) (store.Withdrawal, error)
}

func (s stubApprovalService) ApproveDeposit(ctx context.Context, depositID string, req services.ReviewRequest) (store.Deposit, error) {
	if s.approveDepositFn == nil {
		return store.Deposit{}, nil
	}
	return s.approveDepositFn(ctx, depositID, req)
}

func (s stubApprovalService) RejectDeposit(ctx context.Context, depositID string, req services.ReviewRequest) (store.Deposit, error) {
	if s.rejectDepositFn == nil {
		return store.Deposit{}, nil
	}
	return s.rejectDepositFn(ctx, depositID, req)
}

func (s stubApprovalService) ApproveWithdrawal(ctx context.Context, withdrawalID string, req services.ReviewRequest) (store.Withdrawal, error) {
	if s.approveWithdrawalFn == nil {
		return store.Withdrawal{}, nil
	}
	return s.approveWithdrawalFn(ctx, withdrawalID, req)
}

func (s stubApprovalService) RejectWithdrawal(ctx context.Context, withdrawalID string, req services.ReviewRequest) (store.Withdrawal, error) {
	if s.rejectWithdrawalFn == nil {
		return store.Withdrawal{}, nil
	}
	return s.rejectWithdrawalFn(ctx, withdrawalID, req)
}

type stubTransferService struct {
	transferFn func(ctx context.Context, req services.TransferRequest) (string, error)
	purchaseFn func(ctx context.Context, req services.PurchaseRequest) (string, error)
	giftFn     func(ctx context.Context, req services.GiftRequest) (string, error)
}

func (s stubTransferService) Transfer(ctx context.Context, req services.TransferRequest) (string, error) {
	if s.transferFn == nil {
		return "", nil
	}
	return s.transferFn(ctx, req)
}

func (s stubTransferService) Purchase(ctx context.Context, req services.PurchaseRequest) (string, error) {
	if s.purchaseFn == nil {
		return "", nil
	}
	return s.purchaseFn(ctx, req)
}

func (s stubTransferService) Gift(ctx context.Context, req services.GiftRequest) (string, error) {
	if s.giftFn == nil {
		return "", nil
	}
	return s.giftFn(ctx, req)
}

type stubUserService struct {
	blockFn   func(ctx context.Context, userID string, req services.BlockRequest) error
	unblockFn func(ctx context.Context, userID string, req services.BlockRequest) error
}

func (s stubUserService) BlockUser(ctx context.Context, userID string, req services.BlockRequest) error {
	if s.blockFn == nil {
		return nil
	}
	return s.blockFn(ctx, userID, req)
}

func (s stubUserService) UnblockUser(ctx context.Context, userID string, req services.BlockRequest) error {
	if s.unblockFn == nil {
		return nil
	}
	return s.unblockFn(ctx, userID, req)
}

type stubBalanceCache struct {
	getFn func(ctx context.Context, userID string) (int64, bool)
	setFn func(ctx context.Context, userID string, balance int64)
}

func (s stubBalanceCache) GetBalance(ctx context.Context, userID string) (int64, bool) {
	if s.getFn == nil {
		return 0, false
	}
	return s.getFn(ctx, userID)
}

func (s stubBalanceCache) SetBalance(ctx context.Context, userID string, balance int64) {
	if s.setFn != nil {
		s.setFn(ctx, userID, balance)
	}
}

type handlerDeps struct {
	reconcileDB  store.Selecter
	txRunner     fakeTxRunner
	users        UserStore
	wallets      WalletStore
	deposits     DepositStore
	withdrawals  WithdrawalStore
	transactions TransactionStore
	activity     ActivityStore
	approvals    ApprovalService
	transfers    TransferService
	userService  UserService
	cache        BalanceCache
}

func newTestHandler(deps handlerDeps) *Handler {
	cfg := config.Config{
		AppEnv:         "test",
		Port:           "0",
		JWTSecret:      testJWTSecret,
		TokenTTL:       time.Minute,
		AllowedOrigins: "*",
	}
	if deps.reconcileDB == nil {
		deps.reconcileDB = stubReconcileDB{}
	}
	if deps.users == nil {
		deps.users = stubUserStore{}
	}
	if deps.wallets == nil {
		deps.wallets = stubWalletStore{}
	}
	if deps.deposits == nil {
		deps.deposits = stubDepositStore{}
	}
	if deps.withdrawals == nil {
		deps.withdrawals = stubWithdrawalStore{}
	}
	if deps.transactions == nil {
		deps.transactions = stubTransactionStore{}
	}
	if deps.activity == nil {
		deps.activity = stubActivityStore{}
	}
	if deps.approvals == nil {
		deps.approvals = stubApprovalService{}
	}
	if deps.transfers == nil {
		deps.transfers = stubTransferService{}
	}
	if deps.userService == nil {
		deps.userService = stubUserService{}
	}
	if deps.cache == nil {
		deps.cache = stubBalanceCache{}
	}
	return New(deps.reconcileDB, deps.txRunner, cfg, deps.users, deps.wallets, deps.deposits, deps.withdrawals, deps.transactions, deps.activity, deps.approvals, deps.transfers, deps.userService, deps.cache, websocket.NewHub())
}

func tokenFor(t *testing.T, userID, role string) string {
	t.Helper()
	token, err := auth.GenerateToken(testJWTSecret, userID, role, time.Minute)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	return token
}

// doRequest pushes a request through the full router so that auth and
// admin middleware run exactly as in production.
func doRequest(t *testing.T, h *Handler, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.Routes().ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response %q: %v", rr.Body.String(), err)
	}
	return payload
}

func stringPtr(value string) *string {
	return &value
}
