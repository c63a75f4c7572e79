package http

import (
	"errors"
	"math/big"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lakkhi/walletd/src/logger"
	"github.com/lakkhi/walletd/src/txflow/domain"
	"github.com/lakkhi/walletd/src/txflow/usecase"
	walletdomain "github.com/lakkhi/walletd/src/wallet/domain"
)

// Handler binds the orchestrator usecase + logger
type Handler struct {
	service *usecase.Service
	logger  *logger.Logger
}

func NewHandler(s *usecase.Service, l *logger.Logger) *Handler {
	return &Handler{service: s, logger: l}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.POST("/contracts/deploy", h.Deploy)
	r.POST("/transactions/await", h.Await)
}

// Deploy godoc
//
//	@Summary		Deploy a campaign staking contract
//	@Description	Submit the deployment through the wallet and return the submitted transaction; await it separately
//	@Tags			transactions
//	@Accept			json
//	@Produce		json
//	@Param			request	body		DeployRequestBody	true	"Request body"
//	@Success		202	{object}	TransactionDto
//	@Failure		400	{object}	object{error=string}
//	@Failure		409	{object}	object{error=string}
//	@Failure		502	{object}	object{error=string}
//	@Router			/contracts/deploy [post]
func (h *Handler) Deploy(c *gin.Context) {
	var req DeployRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorf("Deploy err: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	target, ok := new(big.Int).SetString(req.Target, 10)
	if !ok || target.Sign() <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid target amount"})
		return
	}

	tx, err := h.service.DeployContract(c.Request.Context(), usecase.DeployParams{
		ChainID:      req.ChainID,
		Name:         req.Name,
		TokenAddress: req.TokenAddress,
		Beneficiary:  req.Beneficiary,
		Target:       target,
	})
	if err != nil {
		h.logger.Errorf("Deploy err: %v", err)
		c.JSON(txStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, TransactionDtoFromDomain(*tx))
}

// Await godoc
//
//	@Summary		Await a transaction
//	@Description	Long-poll the chain for the transaction's receipt; answers timed_out when the polling budget runs out, the hash stays valid
//	@Tags			transactions
//	@Accept			json
//	@Produce		json
//	@Param			request	body		AwaitRequestBody	true	"Request body"
//	@Success		200	{object}	TransactionDto
//	@Failure		400	{object}	object{error=string}
//	@Router			/transactions/await [post]
func (h *Handler) Await(c *gin.Context) {
	var req AwaitRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorf("Await err: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if req.Hash == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "hash is required"})
		return
	}

	tx, err := h.service.AwaitConfirmation(c.Request.Context(), &domain.PendingTransaction{
		Hash:    req.Hash,
		Kind:    domain.Kind(req.Kind),
		ChainID: req.ChainID,
		Status:  domain.StatusSubmitted,
	})
	if err != nil {
		h.logger.Errorf("Await err: %v", err)
		c.JSON(txStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, TransactionDtoFromDomain(*tx))
}

func txStatus(err error) int {
	switch {
	case errors.Is(err, walletdomain.ErrChainMismatch):
		return http.StatusConflict
	case errors.Is(err, walletdomain.ErrUserRejected):
		return http.StatusConflict
	case errors.Is(err, walletdomain.ErrInsufficientFunds):
		return http.StatusBadRequest
	case errors.Is(err, usecase.ErrNotConnected):
		return http.StatusConflict
	case errors.Is(err, usecase.ErrNoArtifact):
		return http.StatusBadGateway
	case errors.Is(err, walletdomain.ErrNoProvider):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
