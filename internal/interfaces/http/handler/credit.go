package handler

import (
	creditapp "github.com/erp/credit/internal/application/credit"
	"github.com/erp/credit/internal/domain/shared"
	"github.com/erp/credit/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// CreditHandler serves the credit management API
type CreditHandler struct {
	BaseHandler
	creditService *creditapp.CreditService
}

// NewCreditHandler creates a new CreditHandler
func NewCreditHandler(creditService *creditapp.CreditService) *CreditHandler {
	return &CreditHandler{
		creditService: creditService,
	}
}

// CheckCredit evaluates an order amount against the customer's credit.
// A BLOCKED result is a normal 200 response, not an error.
//
//	POST /credit/check
func (h *CreditHandler) CheckCredit(c *gin.Context) {
	var req creditapp.CheckCreditRequest
	if !h.bindJSON(c, &req) {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	resp, err := h.creditService.CheckCredit(c.Request.Context(), req, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// CreateProfile returns the customer's profile, creating it on first call
//
//	POST /credit/profiles
func (h *CreditHandler) CreateProfile(c *gin.Context) {
	var req creditapp.CreateProfileRequest
	if !h.bindJSON(c, &req) {
		return
	}

	profile, err := h.creditService.GetOrCreateProfile(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, profile)
}

// GetProfile returns a single profile
//
//	GET /credit/profiles/:customer_id
func (h *CreditHandler) GetProfile(c *gin.Context) {
	customerID, ok := h.customerID(c)
	if !ok {
		return
	}

	profile, err := h.creditService.GetProfile(c.Request.Context(), customerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if profile == nil {
		h.NotFound(c, "Credit profile not found")
		return
	}
	h.Success(c, profile)
}

// ListProfiles returns one page of profiles
//
//	GET /credit/profiles?page=1&page_size=20
func (h *CreditHandler) ListProfiles(c *gin.Context) {
	var req dto.PageRequest
	if !h.bindQuery(c, &req) {
		return
	}

	page, err := h.creditService.ListProfiles(c.Request.Context(), shared.Pagination{Page: req.Page, PageSize: req.PageSize})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// ListOnHold returns profiles of customers with an active hold
//
//	GET /credit/profiles/on-hold
func (h *CreditHandler) ListOnHold(c *gin.Context) {
	profiles, err := h.creditService.ListOnHold(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, profiles)
}

// ListHighRisk returns profiles at HIGH or CRITICAL risk
//
//	GET /credit/profiles/high-risk
func (h *CreditHandler) ListHighRisk(c *gin.Context) {
	profiles, err := h.creditService.ListHighRisk(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, profiles)
}

// UpdateLimit changes the customer's credit limit
//
//	PUT /credit/profiles/:customer_id/limit
func (h *CreditHandler) UpdateLimit(c *gin.Context) {
	customerID, ok := h.customerID(c)
	if !ok {
		return
	}
	var req creditapp.UpdateCreditLimitRequest
	if !h.bindJSON(c, &req) {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	profile, err := h.creditService.UpdateCreditLimit(c.Request.Context(), customerID, req, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, profile)
}

// SetHoldPolicy sets the auto-hold switch and warning threshold
//
//	PUT /credit/profiles/:customer_id/hold-policy
func (h *CreditHandler) SetHoldPolicy(c *gin.Context) {
	customerID, ok := h.customerID(c)
	if !ok {
		return
	}
	var req creditapp.HoldPolicyRequest
	if !h.bindJSON(c, &req) {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	profile, err := h.creditService.SetHoldPolicy(c.Request.Context(), customerID, req, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, profile)
}

// Activate re-enables a deactivated profile
//
//	POST /credit/profiles/:customer_id/activate
func (h *CreditHandler) Activate(c *gin.Context) {
	customerID, ok := h.customerID(c)
	if !ok {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	profile, err := h.creditService.ActivateProfile(c.Request.Context(), customerID, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, profile)
}

// Deactivate stops all credit movements on a profile
//
//	POST /credit/profiles/:customer_id/deactivate
func (h *CreditHandler) Deactivate(c *gin.Context) {
	customerID, ok := h.customerID(c)
	if !ok {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	profile, err := h.creditService.DeactivateProfile(c.Request.Context(), customerID, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, profile)
}

// PlaceHold places a manual or review hold
//
//	POST /credit/profiles/:customer_id/holds
func (h *CreditHandler) PlaceHold(c *gin.Context) {
	customerID, ok := h.customerID(c)
	if !ok {
		return
	}
	var req creditapp.PlaceHoldRequest
	if !h.bindJSON(c, &req) {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	hold, err := h.creditService.PlaceHold(c.Request.Context(), customerID, req, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, hold)
}

// ReleaseHold releases the customer's active hold
//
//	POST /credit/profiles/:customer_id/holds/release
func (h *CreditHandler) ReleaseHold(c *gin.Context) {
	customerID, ok := h.customerID(c)
	if !ok {
		return
	}
	var req creditapp.ReleaseHoldRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	hold, err := h.creditService.ReleaseHold(c.Request.Context(), customerID, req, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, hold)
}

// ListHolds returns the customer's hold history
//
//	GET /credit/profiles/:customer_id/holds
func (h *CreditHandler) ListHolds(c *gin.Context) {
	customerID, ok := h.customerID(c)
	if !ok {
		return
	}

	holds, err := h.creditService.ListHolds(c.Request.Context(), customerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, holds)
}

// ListTransactions returns the customer's latest ledger entries
//
//	GET /credit/profiles/:customer_id/transactions?limit=50
func (h *CreditHandler) ListTransactions(c *gin.Context) {
	customerID, ok := h.customerID(c)
	if !ok {
		return
	}
	var req dto.LimitRequest
	if !h.bindQuery(c, &req) {
		return
	}

	entries, err := h.creditService.ListTransactions(c.Request.Context(), customerID, req.Limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entries)
}

// ListLimitChanges returns the customer's limit audit trail
//
//	GET /credit/profiles/:customer_id/limit-changes
func (h *CreditHandler) ListLimitChanges(c *gin.Context) {
	customerID, ok := h.customerID(c)
	if !ok {
		return
	}

	changes, err := h.creditService.ListLimitChanges(c.Request.Context(), customerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, changes)
}

// ListCustomerAlerts returns the customer's alerts
//
//	GET /credit/profiles/:customer_id/alerts
func (h *CreditHandler) ListCustomerAlerts(c *gin.Context) {
	customerID, ok := h.customerID(c)
	if !ok {
		return
	}

	alerts, err := h.creditService.ListAlerts(c.Request.Context(), customerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, alerts)
}

// VerifyLedger replays the customer's ledger against the stored profile
//
//	GET /credit/profiles/:customer_id/ledger/verify
func (h *CreditHandler) VerifyLedger(c *gin.Context) {
	customerID, ok := h.customerID(c)
	if !ok {
		return
	}

	report, err := h.creditService.VerifyLedger(c.Request.Context(), customerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// ListUnreadAlerts returns every unread alert
//
//	GET /credit/alerts/unread
func (h *CreditHandler) ListUnreadAlerts(c *gin.Context) {
	alerts, err := h.creditService.ListUnreadAlerts(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, alerts)
}

// AcknowledgeAlert marks an alert read
//
//	POST /credit/alerts/:id/acknowledge
func (h *CreditHandler) AcknowledgeAlert(c *gin.Context) {
	alertID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	alert, err := h.creditService.AcknowledgeAlert(c.Request.Context(), alertID, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, alert)
}

// SummaryRequest selects the currency of the portfolio summary
type SummaryRequest struct {
	Currency string `form:"currency" binding:"omitempty,len=3"`
}

// GetSummary aggregates the portfolio in one currency
//
//	GET /credit/summary?currency=USD
func (h *CreditHandler) GetSummary(c *gin.Context) {
	var req SummaryRequest
	if !h.bindQuery(c, &req) {
		return
	}

	summary, err := h.creditService.GetSummary(c.Request.Context(), req.Currency)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}
