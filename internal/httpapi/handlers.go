package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"voicecredit-platform/internal/accounts"
	"voicecredit-platform/internal/audit"
	"voicecredit-platform/internal/auth"
	"voicecredit-platform/internal/calls"
	"voicecredit-platform/internal/ledger"
	"voicecredit-platform/internal/payments"
	"voicecredit-platform/internal/reporting"
	"voicecredit-platform/internal/verify"
	"voicecredit-platform/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Narrow dependency contracts so handlers stay testable without a database.

type AccountStore interface {
	Create(ctx context.Context, req accounts.CreateRequest) (accounts.Account, error)
	GetByID(ctx context.Context, id string) (accounts.Account, error)
	FindByEmail(ctx context.Context, email string) (accounts.Account, error)
	BindAgent(ctx context.Context, accountID, agentID string) (accounts.Account, error)
	UnbindAgent(ctx context.Context, accountID string) (accounts.Account, error)
	SetStatus(ctx context.Context, accountID string, status accounts.Status) (accounts.Account, error)
	List(ctx context.Context, limit, offset int) ([]accounts.Account, error)
}

type CreditLedger interface {
	GetBalance(ctx context.Context, accountID string) (ledger.Balance, error)
	Grant(ctx context.Context, accountID string, credits int64) (ledger.Balance, error)
	SetTotal(ctx context.Context, accountID string, credits int64) (ledger.Balance, error)
}

type CallLister interface {
	ListByAccount(ctx context.Context, accountID string, from, to time.Time, limit int) ([]calls.Record, error)
}

type CodeVerifier interface {
	Issue(ctx context.Context, email string) (string, error)
	Check(ctx context.Context, email, code string) error
}

type PurchaseLister interface {
	History(ctx context.Context, accountID string, limit int) ([]payments.Event, error)
}

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Auth     *auth.Manager
	Accounts AccountStore
	Ledger   CreditLedger
	Calls    CallLister
	Verify   CodeVerifier
	Payments PurchaseLister
	Reports  *reporting.Service
	Audit    *audit.Service
}

/* ===================== AUTH ===================== */

type requestCodeRequest struct {
	Email string `json:"email"`
}

// RequestCode issues a login code for the email. The code is delivered out of
// band; the response never echoes it.
func (h Handlers) RequestCode(c *gin.Context) {
	var req requestCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.Email == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "email required"})
		return
	}

	// Same response whether or not the email is registered; unknown addresses
	// must not be probeable here.
	if _, err := h.Accounts.FindByEmail(c.Request.Context(), req.Email); err != nil {
		if errors.Is(err, accounts.ErrNotFound) {
			c.JSON(http.StatusOK, gin.H{"sent": true})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}

	if _, err := h.Verify.Issue(c.Request.Context(), req.Email); err != nil {
		if errors.Is(err, verify.ErrTooManyRequests) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		logger.FromGin(c).Error("code issuance failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "code issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sent": true})
}

type loginRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// Login exchanges an email + verification code for a JWT pair.
func (h Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.Email == "" || req.Code == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "email and code required"})
		return
	}

	if err := h.Verify.Check(c.Request.Context(), req.Email, req.Code); err != nil {
		if errors.Is(err, verify.ErrInvalidCode) || errors.Is(err, verify.ErrInvalidArgument) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid code"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "verification failed"})
		return
	}

	a, err := h.Accounts.FindByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, accounts.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid code"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}

	pair, err := h.Auth.IssuePair(time.Now(), a.ID, a.Role)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh exchanges a refresh token for a fresh pair. The role is re-read
// from the account so a role change takes effect on rotation.
func (h Handlers) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "refresh_token required"})
		return
	}

	claims, err := h.Auth.Verify(req.RefreshToken, auth.TokenTypeRefresh, time.Now())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}

	a, err := h.Accounts.GetByID(c.Request.Context(), claims.AccountID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}

	pair, err := h.Auth.IssuePair(time.Now(), a.ID, a.Role)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

/* ===================== ACCOUNT SELF-SERVICE ===================== */

func (h Handlers) Me(c *gin.Context) {
	accountID, err := auth.AccountID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	a, err := h.Accounts.GetByID(c.Request.Context(), accountID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h Handlers) GetBalance(c *gin.Context) {
	accountID, err := auth.AccountID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	bal, err := h.Ledger.GetBalance(c.Request.Context(), accountID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "balance lookup failed"})
		return
	}
	c.JSON(http.StatusOK, bal)
}

func (h Handlers) ListCalls(c *gin.Context) {
	accountID, err := auth.AccountID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	from, to, ok := parseRange(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	recs, err := h.Calls.ListByAccount(c.Request.Context(), accountID, from, to, limit)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "call listing failed"})
		return
	}
	if recs == nil {
		recs = []calls.Record{}
	}
	c.JSON(http.StatusOK, gin.H{"calls": recs})
}

func (h Handlers) UsageSummary(c *gin.Context) {
	accountID, err := auth.AccountID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	from, to, ok := parseRange(c)
	if !ok {
		return
	}

	sum, err := h.Reports.UsageSummary(c.Request.Context(), reporting.UsageSummaryRequest{
		AccountID: accountID,
		Range:     reporting.TimeRange{From: from, To: to},
	})
	if err != nil {
		if errors.Is(err, reporting.ErrInvalidRequest) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid range"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "summary failed"})
		return
	}
	c.JSON(http.StatusOK, sum)
}

// ListPurchases returns the account's processed payment events, newest first.
func (h Handlers) ListPurchases(c *gin.Context) {
	accountID, err := auth.AccountID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	evs, err := h.Payments.History(c.Request.Context(), accountID, limit)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "purchase listing failed"})
		return
	}
	if evs == nil {
		evs = []payments.Event{}
	}
	c.JSON(http.StatusOK, gin.H{"purchases": evs})
}

func (h Handlers) PurchaseSummary(c *gin.Context) {
	accountID, err := auth.AccountID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	from, to, ok := parseRange(c)
	if !ok {
		return
	}

	sum, err := h.Reports.PurchaseSummary(c.Request.Context(), reporting.PurchaseSummaryRequest{
		AccountID: accountID,
		Range:     reporting.TimeRange{From: from, To: to},
	})
	if err != nil {
		if errors.Is(err, reporting.ErrInvalidRequest) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid range"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "summary failed"})
		return
	}
	c.JSON(http.StatusOK, sum)
}

/* ===================== ADMIN ===================== */

func (h Handlers) AdminCreateAccount(c *gin.Context) {
	var req accounts.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	a, err := h.Accounts.Create(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, accounts.ErrEmailTaken) {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "email already registered"})
			return
		}
		if errors.Is(err, accounts.ErrInvalidArgument) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid account"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	h.logAdmin(c, a.ID, "account created")
	c.JSON(http.StatusCreated, a)
}

func (h Handlers) AdminListAccounts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	list, err := h.Accounts.List(c.Request.Context(), limit, offset)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "listing failed"})
		return
	}
	if list == nil {
		list = []accounts.Account{}
	}
	c.JSON(http.StatusOK, gin.H{"accounts": list})
}

type creditsRequest struct {
	Credits int64 `json:"credits"`
}

// AdminGrantCredits adds credits to an account's total.
func (h Handlers) AdminGrantCredits(c *gin.Context) {
	accountID := c.Param("id")
	var req creditsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	bal, err := h.Ledger.Grant(c.Request.Context(), accountID, req.Credits)
	if err != nil {
		if errors.Is(err, ledger.ErrInvalidArgument) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "credits must be positive"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "grant failed"})
		return
	}
	h.logCreditChange(c, accountID, "granted credits")
	c.JSON(http.StatusOK, bal)
}

// AdminSetTotalCredits overwrites the granted total (plan change). Downgrades
// below used credits are allowed; usage is never reconciled.
func (h Handlers) AdminSetTotalCredits(c *gin.Context) {
	accountID := c.Param("id")
	var req creditsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	bal, err := h.Ledger.SetTotal(c.Request.Context(), accountID, req.Credits)
	if err != nil {
		if errors.Is(err, ledger.ErrInvalidArgument) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "credits must be >= 0"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	h.logCreditChange(c, accountID, "set total credits")
	c.JSON(http.StatusOK, bal)
}

type bindAgentRequest struct {
	AgentID string `json:"agent_id"`
}

// AdminBindAgent binds a voice agent id to the account. A conflicting binding
// answers 409.
func (h Handlers) AdminBindAgent(c *gin.Context) {
	accountID := c.Param("id")
	var req bindAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.AgentID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "agent_id required"})
		return
	}

	a, err := h.Accounts.BindAgent(c.Request.Context(), accountID, req.AgentID)
	if err != nil {
		if errors.Is(err, accounts.ErrAgentTaken) {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "agent already bound to another account"})
			return
		}
		if errors.Is(err, accounts.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "account not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "binding failed"})
		return
	}
	h.logAgentBinding(c, accountID, "agent bound: "+req.AgentID)
	c.JSON(http.StatusOK, a)
}

func (h Handlers) AdminUnbindAgent(c *gin.Context) {
	accountID := c.Param("id")

	a, err := h.Accounts.UnbindAgent(c.Request.Context(), accountID)
	if err != nil {
		if errors.Is(err, accounts.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "account not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "unbinding failed"})
		return
	}
	h.logAgentBinding(c, accountID, "agent unbound")
	c.JSON(http.StatusOK, a)
}

type setStatusRequest struct {
	Status string `json:"status"`
}

func (h Handlers) AdminSetStatus(c *gin.Context) {
	accountID := c.Param("id")
	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	a, err := h.Accounts.SetStatus(c.Request.Context(), accountID, accounts.Status(req.Status))
	if err != nil {
		if errors.Is(err, accounts.ErrInvalidArgument) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
		if errors.Is(err, accounts.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "account not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	h.logAdmin(c, accountID, "status set: "+req.Status)
	c.JSON(http.StatusOK, a)
}

/* ===================== HELPERS ===================== */

// parseRange reads from/to query params (RFC3339), defaulting to the last 30
// days. Writes the error response itself when parsing fails.
func parseRange(c *gin.Context) (time.Time, time.Time, bool) {
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -30)

	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid from"})
			return time.Time{}, time.Time{}, false
		}
		from = t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid to"})
			return time.Time{}, time.Time{}, false
		}
		to = t
	}
	return from, to, true
}

// Audit logging is best-effort; a failed append must never fail the request.

func (h Handlers) logAdmin(c *gin.Context, targetID, message string) {
	h.appendAudit(c, func(actorID, role string) error {
		return h.Audit.LogAdminAction(c.Request.Context(), actorID, role, c.ClientIP(), targetID, message, "")
	})
}

func (h Handlers) logCreditChange(c *gin.Context, targetID, message string) {
	h.appendAudit(c, func(actorID, role string) error {
		return h.Audit.LogCreditChange(c.Request.Context(), actorID, role, c.ClientIP(), targetID, message, "")
	})
}

func (h Handlers) logAgentBinding(c *gin.Context, targetID, message string) {
	h.appendAudit(c, func(actorID, role string) error {
		return h.Audit.LogAgentBinding(c.Request.Context(), actorID, role, c.ClientIP(), targetID, message)
	})
}

func (h Handlers) appendAudit(c *gin.Context, log func(actorID, role string) error) {
	if h.Audit == nil {
		return
	}
	actorID, _ := auth.AccountID(c.Request.Context())
	role, _ := auth.Role(c.Request.Context())
	if err := log(actorID, role); err != nil {
		logger.FromGin(c).Warn("audit append failed", "err", err)
	}
}
