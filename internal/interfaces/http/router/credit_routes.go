package router

import (
	"net/http"

	"github.com/erp/credit/internal/interfaces/http/handler"
)

// NewCreditRoutes builds the /credit route group
func NewCreditRoutes(credit *handler.CreditHandler, intake *handler.IntakeHandler) *DomainGroup {
	g := NewDomainGroup("credit", "/credit")

	g.Handle(http.MethodPost, "/check", "Evaluate an order against available credit", credit.CheckCredit)
	g.Handle(http.MethodGet, "/summary", "Portfolio summary in one currency", credit.GetSummary)

	profiles := g.Group("profiles", "/profiles")
	profiles.Handle(http.MethodPost, "", "Create a profile or return the existing one", credit.CreateProfile)
	profiles.Handle(http.MethodGet, "", "List profiles", credit.ListProfiles)
	profiles.Handle(http.MethodGet, "/on-hold", "Profiles with an active hold", credit.ListOnHold)
	profiles.Handle(http.MethodGet, "/high-risk", "Profiles at HIGH or CRITICAL risk", credit.ListHighRisk)
	profiles.Handle(http.MethodGet, "/:customer_id", "Get a profile", credit.GetProfile)
	profiles.Handle(http.MethodPut, "/:customer_id/limit", "Change the credit limit", credit.UpdateLimit)
	profiles.Handle(http.MethodPut, "/:customer_id/hold-policy", "Set auto-hold and threshold", credit.SetHoldPolicy)
	profiles.Handle(http.MethodPost, "/:customer_id/activate", "Reactivate a profile", credit.Activate)
	profiles.Handle(http.MethodPost, "/:customer_id/deactivate", "Deactivate a profile", credit.Deactivate)
	profiles.Handle(http.MethodPost, "/:customer_id/holds", "Place a hold", credit.PlaceHold)
	profiles.Handle(http.MethodPost, "/:customer_id/holds/release", "Release the active hold", credit.ReleaseHold)
	profiles.Handle(http.MethodGet, "/:customer_id/holds", "Hold history", credit.ListHolds)
	profiles.Handle(http.MethodGet, "/:customer_id/transactions", "Latest ledger entries", credit.ListTransactions)
	profiles.Handle(http.MethodGet, "/:customer_id/limit-changes", "Limit audit trail", credit.ListLimitChanges)
	profiles.Handle(http.MethodGet, "/:customer_id/alerts", "Customer alerts", credit.ListCustomerAlerts)
	profiles.Handle(http.MethodGet, "/:customer_id/ledger/verify", "Replay the ledger", credit.VerifyLedger)

	alerts := g.Group("alerts", "/alerts")
	alerts.Handle(http.MethodGet, "/unread", "Unread alerts", credit.ListUnreadAlerts)
	alerts.Handle(http.MethodPost, "/:id/acknowledge", "Mark an alert read", credit.AcknowledgeAlert)

	in := g.Group("intake", "/intake")
	in.Handle(http.MethodPost, "/invoices", "Invoice issued", intake.InvoiceCreated)
	in.Handle(http.MethodPost, "/payments", "Payment received", intake.PaymentReceived)
	in.Handle(http.MethodPost, "/orders", "Order confirmed", intake.OrderPlaced)
	in.Handle(http.MethodPost, "/returns", "Sales return credited", intake.ReturnCredited)
	in.Handle(http.MethodPost, "/overdue", "Overdue totals recomputed", intake.InvoiceOverdue)

	g.Handle(http.MethodPost, "/events/:event_type", "Ingest an integration event", intake.IngestEvent)

	return g
}

// NewSystemRoutes builds the /system route group
func NewSystemRoutes(system *handler.SystemHandler) *DomainGroup {
	g := NewDomainGroup("system", "/system")
	g.Handle(http.MethodGet, "/info", "Build and uptime", system.GetSystemInfo)
	g.Handle(http.MethodGet, "/health", "Database readiness", system.Health)
	return g
}
