package handler

import (
	"github.com/pye-wu/axon-demo/internal/adapter/http/dto"
	"github.com/pye-wu/axon-demo/internal/core/domain"
	"github.com/pye-wu/axon-demo/internal/core/ports"
	"github.com/pye-wu/axon-demo/pkg/apperror"
	"github.com/pye-wu/axon-demo/pkg/response"

	"github.com/gin-gonic/gin"
)

// TransferHandler handles bank transfer endpoints.
type TransferHandler struct {
	transferSvc ports.TransferService
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(transferSvc ports.TransferService) *TransferHandler {
	return &TransferHandler{transferSvc: transferSvc}
}

// Request handles POST /api/v1/transfers. The transfer itself runs
// asynchronously, so the response only confirms it was recorded.
func (h *TransferHandler) Request(c *gin.Context) {
	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	if req.SourceID == req.DestinationID {
		response.Error(c, apperror.ErrSameAccountTransfer())
		return
	}

	tx := domain.TransactionID(req.TransactionID)
	if tx == "" {
		tx = domain.NewTransactionID()
	}

	res, err := h.transferSvc.RequestTransfer(c.Request.Context(), domain.RequestTransfer{
		TransactionID: tx,
		SourceID:      domain.AccountID(req.SourceID),
		DestinationID: domain.AccountID(req.DestinationID),
		Amount:        domain.Money(req.Amount),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, dto.NewCommandResponse(res))
}

// Get handles GET /api/v1/transfers/:id.
func (h *TransferHandler) Get(c *gin.Context) {
	tx := c.Param("id")
	if !dto.IsSafeID(tx) {
		response.Error(c, apperror.Validation("invalid transaction id"))
		return
	}

	view, err := h.transferSvc.GetTransfer(c.Request.Context(), domain.TransactionID(tx))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, view)
}
