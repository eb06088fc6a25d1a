package http

import (
	"net/http"

	domain "loan-service/internal/domain/loan"
	"loan-service/internal/usecase/loan"

	"github.com/labstack/echo/v4"
)

type LoanHandler struct{ uc *loan.Usecase }

func NewLoanHandler(uc *loan.Usecase) *LoanHandler { return &LoanHandler{uc: uc} }

func (h *LoanHandler) CreateLoan(c echo.Context) error {
	var req loan.CreateLoanInput
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	dto, err := h.uc.Create(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *LoanHandler) GetLoan(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid loan id")
	}
	dto, err := h.uc.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) GetByNumber(c echo.Context) error {
	dto, err := h.uc.GetByNumber(c.Request().Context(), c.Param("loanNumber"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) ListByCustomer(c echo.Context) error {
	customerID, ok := pathID(c, "customerId")
	if !ok {
		return badRequest(c, "invalid customer id")
	}
	page, okPage := queryInt(c, "page", 0)
	size, okSize := queryInt(c, "size", domain.DefaultPageSize)
	if !okPage || !okSize {
		return badRequest(c, "page and size must be integers")
	}
	out, err := h.uc.ListByCustomer(c.Request().Context(), customerID, domain.Page{Number: page, Size: size})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *LoanHandler) ActiveByCustomer(c echo.Context) error {
	customerID, ok := pathID(c, "customerId")
	if !ok {
		return badRequest(c, "invalid customer id")
	}
	out, err := h.uc.ActiveForCustomer(c.Request().Context(), customerID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *LoanHandler) TotalBalance(c echo.Context) error {
	customerID, ok := pathID(c, "customerId")
	if !ok {
		return badRequest(c, "invalid customer id")
	}
	total, err := h.uc.TotalBalance(c.Request().Context(), customerID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, total)
}

func (h *LoanHandler) Disburse(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid loan id")
	}
	dto, err := h.uc.Disburse(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) ProcessPayment(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid loan id")
	}
	var req loan.PaymentInput
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	dto, err := h.uc.ProcessPayment(c.Request().Context(), id, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) MarkDelinquent(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid loan id")
	}
	if c.QueryParam("daysOverdue") == "" {
		return badRequest(c, "daysOverdue is required")
	}
	days, ok := queryInt(c, "daysOverdue", 0)
	if !ok || days < 0 {
		return badRequest(c, "daysOverdue must be a non-negative integer")
	}
	dto, err := h.uc.MarkDelinquent(c.Request().Context(), id, days)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) Close(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid loan id")
	}
	dto, err := h.uc.Close(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) Delinquent(c echo.Context) error {
	out, err := h.uc.Delinquent(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *LoanHandler) Defaulted(c echo.Context) error {
	out, err := h.uc.Defaulted(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *LoanHandler) UpcomingPayments(c echo.Context) error {
	days, ok := queryInt(c, "withinDays", loan.DefaultUpcomingDays)
	if !ok || days < 0 {
		return badRequest(c, "withinDays must be a non-negative integer")
	}
	out, err := h.uc.UpcomingPayments(c.Request().Context(), days)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *LoanHandler) Maturing(c echo.Context) error {
	days, ok := queryInt(c, "withinDays", loan.DefaultMaturingDays)
	if !ok || days < 0 {
		return badRequest(c, "withinDays must be a non-negative integer")
	}
	out, err := h.uc.Maturing(c.Request().Context(), days)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *LoanHandler) PortfolioStatistics(c echo.Context) error {
	out, err := h.uc.PortfolioStatistics(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *LoanHandler) Schedule(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid loan id")
	}
	out, err := h.uc.Schedule(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *LoanHandler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "Loan Service is running")
}
