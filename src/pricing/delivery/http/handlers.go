package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/lakkhi/walletd/src/logger"
	"github.com/lakkhi/walletd/src/pricing/usecase"
)

// Handler binds the pricing usecase + logger
type Handler struct {
	service *usecase.Service
	logger  *logger.Logger
}

func NewHandler(s *usecase.Service, l *logger.Logger) *Handler {
	return &Handler{service: s, logger: l}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/price", h.GetPrice)
}

// GetPrice godoc
//
//	@Summary		Resolve a token price
//	@Description	Walk the source chain for a USD quote; a miss on every source answers with the flagged placeholder
//	@Tags			pricing
//	@Produce		json
//	@Param			token_address	query		string	true	"ERC-20 token address"
//	@Param			chain_id		query		int		true	"chain id"
//	@Success		200	{object}	QuoteDto
//	@Failure		400	{object}	object{error=string}
//	@Router			/price [get]
func (h *Handler) GetPrice(c *gin.Context) {
	token := c.Query("token_address")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token_address is required"})
		return
	}
	chainID, err := strconv.ParseUint(c.Query("chain_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chain_id"})
		return
	}

	quote, err := h.service.Resolve(c.Request.Context(), token, chainID)
	if err != nil {
		h.logger.Warnf("GetPrice: every source missed for %s on %d: %v", token, chainID, err)
		c.JSON(http.StatusOK, QuoteDtoFromDomain(h.service.Placeholder()))
		return
	}
	c.JSON(http.StatusOK, QuoteDtoFromDomain(*quote))
}
