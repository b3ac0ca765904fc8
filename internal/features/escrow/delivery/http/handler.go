package http

import (
	"net/http"

	apperrors "ad-escrow-backend/internal/common/errors"
	"ad-escrow-backend/internal/features/escrow/service"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *service.EscrowService
}

func NewHandler(service *service.EscrowService) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	escrow := router.Group("/escrow")
	{
		escrow.POST("/wallet", h.CreateEscrowWallet)
		escrow.POST("/deals/verify", h.VerifyAndRegisterDeal)
		escrow.POST("/deals/check", h.CheckDeal)
	}
}

// @Summary Derive escrow wallet
// @Description Derive the deposit address for a deal. Deterministic and idempotent per deal id.
// @Tags escrow
// @Accept json
// @Produce json
// @Param request body CreateWalletRequest true "Deal id"
// @Success 200 {object} CreateWalletResponse
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /escrow/wallet [post]
func (h *Handler) CreateEscrowWallet(c *gin.Context) {
	var req CreateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}

	derived, err := h.service.CreateEscrowWallet(req.DealID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newCreateWalletResponse(derived))
}

// @Summary Verify and register a deal
// @Description Verify both parties' signatures, the deposit and the post, then submit the on-chain registration. The returned tx_ref means submitted, not finalized; poll /escrow/deals/check to observe settlement state.
// @Tags escrow
// @Accept json
// @Produce json
// @Param request body VerifyDealRequest true "Deal terms and signatures"
// @Success 200 {object} VerifyDealResponse
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Failure 503 {object} ErrorResponse "Service not configured"
// @Router /escrow/deals/verify [post]
func (h *Handler) VerifyAndRegisterDeal(c *gin.Context) {
	var req VerifyDealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}

	params, err := req.Params.toModel()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	publisherSig, err := req.Publisher.toModel()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "publisher signature: " + err.Error()})
		return
	}
	advertiserSig, err := req.Advertiser.toModel()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "advertiser signature: " + err.Error()})
		return
	}

	txRef, err := h.service.VerifyAndRegisterDeal(c.Request.Context(), params, publisherSig, advertiserSig, req.VerificationChatID)
	if err != nil {
		if appErr, ok := apperrors.AsAppError(err); ok && appErr.IsVerification() {
			// Expected failure: the caller fixes the condition and retries.
			c.JSON(http.StatusOK, VerifyDealResponse{Success: false, Error: appErr.Message})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, VerifyDealResponse{Success: true, TxRef: txRef})
}

// @Summary Check a deal
// @Description Re-evaluate a deal against chain and channel state; may trigger the release or refund transfer. Safe to call on any schedule.
// @Tags escrow
// @Accept json
// @Produce json
// @Param request body CheckDealRequest true "Deal id"
// @Success 200 {object} models.CheckDealResult
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Failure 503 {object} ErrorResponse "Service not configured"
// @Router /escrow/deals/check [post]
func (h *Handler) CheckDeal(c *gin.Context) {
	var req CheckDealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}

	result, err := h.service.CheckDeal(c.Request.Context(), req.DealID, req.VerificationChatID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func respondError(c *gin.Context, err error) {
	if appErr, ok := apperrors.AsAppError(err); ok {
		switch appErr.Code {
		case apperrors.ErrCodeNotConfigured:
			c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: appErr.Message})
			return
		case apperrors.ErrCodeChain, apperrors.ErrCodeTelegramAPI, apperrors.ErrCodeRateLimit:
			c.JSON(http.StatusBadGateway, ErrorResponse{Error: appErr.Message})
			return
		case apperrors.ErrCodeValidation:
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: appErr.Message})
			return
		}
	}
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
}
