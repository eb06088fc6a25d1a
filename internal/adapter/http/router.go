package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Routes struct {
	Health       *Handler
	Loans        *LoanHandler
	Applications *ApplicationHandler
	Documents    *DocumentHandler
	Metrics      http.Handler
}

// Register mounts every endpoint on e. Static segments are registered next to
// :id routes; Echo's router prefers the static match.
func Register(e *echo.Echo, r Routes) {
	e.GET("/health", r.Health.Health)
	if r.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(r.Metrics))
	}

	loans := e.Group("/api/loans")
	loans.POST("", r.Loans.CreateLoan)
	loans.GET("/health", r.Loans.Health)
	loans.GET("/delinquent", r.Loans.Delinquent)
	loans.GET("/defaulted", r.Loans.Defaulted)
	loans.GET("/upcoming-payments", r.Loans.UpcomingPayments)
	loans.GET("/maturing", r.Loans.Maturing)
	loans.GET("/portfolio-statistics", r.Loans.PortfolioStatistics)
	loans.GET("/number/:loanNumber", r.Loans.GetByNumber)
	loans.GET("/customer/:customerId", r.Loans.ListByCustomer)
	loans.GET("/customer/:customerId/active", r.Loans.ActiveByCustomer)
	loans.GET("/customer/:customerId/total-balance", r.Loans.TotalBalance)
	loans.GET("/:id", r.Loans.GetLoan)
	loans.GET("/:id/schedule", r.Loans.Schedule)
	loans.PUT("/:id/disburse", r.Loans.Disburse)
	loans.POST("/:id/payments", r.Loans.ProcessPayment)
	loans.PUT("/:id/delinquent", r.Loans.MarkDelinquent)
	loans.PUT("/:id/close", r.Loans.Close)

	if r.Documents != nil {
		loans.POST("/:id/documents", r.Documents.Upload)
		loans.GET("/:id/documents", r.Documents.List)
		loans.PUT("/:id/documents/:documentId/verify", r.Documents.Verify)
	}

	if r.Applications != nil {
		apps := e.Group("/api/loan-applications")
		apps.POST("", r.Applications.Submit)
		apps.GET("/:id", r.Applications.Get)
		apps.PUT("/:id/review", r.Applications.StartReview)
		apps.PUT("/:id/approve", r.Applications.Approve)
		apps.PUT("/:id/reject", r.Applications.Reject)
	}
}
