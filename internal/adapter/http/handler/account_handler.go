package handler

import (
	"github.com/pye-wu/axon-demo/internal/adapter/http/dto"
	"github.com/pye-wu/axon-demo/internal/adapter/http/middleware"
	"github.com/pye-wu/axon-demo/internal/core/domain"
	"github.com/pye-wu/axon-demo/internal/core/ports"
	"github.com/pye-wu/axon-demo/pkg/apperror"
	"github.com/pye-wu/axon-demo/pkg/response"

	"github.com/gin-gonic/gin"
)

// AccountHandler handles account endpoints.
type AccountHandler struct {
	accountSvc ports.AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountSvc ports.AccountService) *AccountHandler {
	return &AccountHandler{accountSvc: accountSvc}
}

// Create handles POST /api/v1/accounts.
func (h *AccountHandler) Create(c *gin.Context) {
	var req dto.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	id := domain.AccountID(req.AccountID)
	if id == "" {
		id = domain.NewAccountID()
	}

	res, err := h.accountSvc.Execute(c.Request.Context(), domain.CreateAccount{
		ID:             id,
		Name:           req.Name,
		Gender:         domain.ParseGender(req.Gender),
		InitialBalance: domain.Money(req.InitialBalance),
		Tenant:         domain.Tenant(c.GetString(middleware.CtxTenant)),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	out := dto.NewCommandResponse(res)
	out.AccountID = string(id)
	response.Created(c, out)
}

// Deposit handles POST /api/v1/accounts/:id/deposits.
func (h *AccountHandler) Deposit(c *gin.Context) {
	h.movement(c, func(id domain.AccountID, tx domain.TransactionID, amount domain.Money) domain.Command {
		return domain.Deposit{
			AccountID:     id,
			TransactionID: tx,
			Amount:        amount,
			Tenant:        domain.Tenant(c.GetString(middleware.CtxTenant)),
		}
	})
}

// Withdraw handles POST /api/v1/accounts/:id/withdrawals.
func (h *AccountHandler) Withdraw(c *gin.Context) {
	h.movement(c, func(id domain.AccountID, tx domain.TransactionID, amount domain.Money) domain.Command {
		return domain.Withdraw{AccountID: id, TransactionID: tx, Amount: amount}
	})
}

// Refund handles POST /api/v1/accounts/:id/refunds.
func (h *AccountHandler) Refund(c *gin.Context) {
	h.movement(c, func(id domain.AccountID, tx domain.TransactionID, amount domain.Money) domain.Command {
		return domain.Refund{AccountID: id, TransactionID: tx, Amount: amount}
	})
}

func (h *AccountHandler) movement(c *gin.Context, build func(domain.AccountID, domain.TransactionID, domain.Money) domain.Command) {
	id, ok := accountParam(c)
	if !ok {
		return
	}

	var req dto.MovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	tx := domain.TransactionID(req.TransactionID)
	if tx == "" {
		tx = domain.NewTransactionID()
	}

	res, err := h.accountSvc.Execute(c.Request.Context(), build(id, tx, domain.Money(req.Amount)))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.NewCommandResponse(res))
}

// Close handles POST /api/v1/accounts/:id/close.
func (h *AccountHandler) Close(c *gin.Context) {
	id, ok := accountParam(c)
	if !ok {
		return
	}

	res, err := h.accountSvc.Execute(c.Request.Context(), domain.CloseAccount{AccountID: id})
	if err != nil {
		response.Error(c, err)
		return
	}
	out := dto.NewCommandResponse(res)
	out.AccountID = string(id)
	response.OK(c, out)
}

// Get handles GET /api/v1/accounts/:id.
func (h *AccountHandler) Get(c *gin.Context) {
	id, ok := accountParam(c)
	if !ok {
		return
	}

	view, err := h.accountSvc.GetAccount(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, view)
}

// Events handles GET /api/v1/accounts/:id/events.
func (h *AccountHandler) Events(c *gin.Context) {
	id, ok := accountParam(c)
	if !ok {
		return
	}

	history, err := h.accountSvc.History(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	events, err := dto.NewEventResponses(history)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, events)
}

func accountParam(c *gin.Context) (domain.AccountID, bool) {
	id := c.Param("id")
	if !dto.IsSafeID(id) {
		response.Error(c, apperror.Validation("invalid account id"))
		return "", false
	}
	return domain.AccountID(id), true
}
