package handlers

import (
	"net/http"

	"wallet/internal/config"
	"wallet/internal/db"
	"wallet/internal/middleware"
	"wallet/internal/store"
	"wallet/internal/websocket"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Handler struct {
	reconcileDB  store.Selecter
	txRunner     db.TxRunner
	cfg          config.Config
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
	hub          *websocket.Hub
}

func New(reconcileDB store.Selecter, txRunner db.TxRunner, cfg config.Config, users UserStore, wallets WalletStore, deposits DepositStore, withdrawals WithdrawalStore, transactions TransactionStore, activity ActivityStore, approvals ApprovalService, transfers TransferService, userService UserService, cache BalanceCache, hub *websocket.Hub) *Handler {
	return &Handler{
		reconcileDB:  reconcileDB,
		txRunner:     txRunner,
		cfg:          cfg,
		users:        users,
		wallets:      wallets,
		deposits:     deposits,
		withdrawals:  withdrawals,
		transactions: transactions,
		activity:     activity,
		approvals:    approvals,
		transfers:    transfers,
		userService:  userService,
		cache:        cache,
		hub:          hub,
	}
}

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.Logger)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{h.cfg.AllowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	authn := middleware.Auth(h.cfg.JWTSecret)

	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.With(authn).Get("/me", h.Me)
	})
	router.With(authn).Get("/wallet", h.GetWallet)
	router.With(authn).Get("/wallet/transactions", h.ListTransactions)
	router.With(authn).Post("/deposits", h.CreateDeposit)
	router.With(authn).Get("/deposits", h.ListDeposits)
	router.With(authn).Post("/withdrawals", h.CreateWithdrawal)
	router.With(authn).Get("/withdrawals", h.ListWithdrawals)
	router.With(authn).Post("/transfers", h.Transfer)
	router.With(authn).Post("/purchases", h.Purchase)
	router.Get("/ws/balance", h.WSBalance)

	router.Route("/admin", func(r chi.Router) {
		r.Use(authn)
		r.Use(middleware.RequireAdmin(h.users))
		r.Get("/users", h.AdminListUsers)
		r.Put("/users/{id}/block", h.BlockUser)
		r.Put("/users/{id}/unblock", h.UnblockUser)
		r.Get("/deposits", h.AdminListDeposits)
		r.Put("/deposits/{id}/approve", h.ApproveDeposit)
		r.Put("/deposits/{id}/reject", h.RejectDeposit)
		r.Get("/withdrawals", h.AdminListWithdrawals)
		r.Put("/withdrawals/{id}/approve", h.ApproveWithdrawal)
		r.Put("/withdrawals/{id}/reject", h.RejectWithdrawal)
		r.Post("/gifts", h.Gift)
		r.Get("/transactions", h.AdminListTransactions)
		r.Get("/activity", h.ListActivity)
		r.Get("/reconcile", h.Reconcile)
		r.Get("/wallets/{userID}", h.AuditWallet)
	})

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return router
}
