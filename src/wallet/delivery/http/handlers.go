package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lakkhi/walletd/src/chains"
	"github.com/lakkhi/walletd/src/logger"
	"github.com/lakkhi/walletd/src/wallet/domain"
	"github.com/lakkhi/walletd/src/wallet/usecase"
)

// Handler binds the session usecase + logger
type Handler struct {
	session  *usecase.Service
	switcher *usecase.Switcher
	logger   *logger.Logger
}

func NewHandler(session *usecase.Service, switcher *usecase.Switcher, l *logger.Logger) *Handler {
	return &Handler{session: session, switcher: switcher, logger: l}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/wallet/session", h.GetSession)
	r.POST("/wallet/connect", h.Connect)
	r.POST("/wallet/disconnect", h.Disconnect)
	r.POST("/wallet/chain", h.SwitchChain)
	r.GET("/wallet/events", h.StreamEvents)
}

// GetSession godoc
//
//	@Summary		Current wallet session
//	@Description	Get the current session snapshot without touching the wallet
//	@Tags			wallet
//	@Produce		json
//	@Success		200	{object}	SessionDto
//	@Router			/wallet/session [get]
func (h *Handler) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, SessionDtoFromDomain(h.session.Snapshot()))
}

// Connect godoc
//
//	@Summary		Connect the wallet
//	@Description	Issue the interactive account request and wait for the user's answer
//	@Tags			wallet
//	@Produce		json
//	@Success		200	{object}	ConnectResponse
//	@Failure		409	{object}	object{error=string}
//	@Failure		503	{object}	object{error=string}
//	@Failure		504	{object}	object{error=string}
//	@Router			/wallet/connect [post]
func (h *Handler) Connect(c *gin.Context) {
	account, err := h.session.Connect(c.Request.Context())
	if err != nil {
		h.logger.Errorf("Connect err: %v", err)
		c.JSON(walletStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, ConnectResponse{Account: account})
}

// Disconnect godoc
//
//	@Summary		Disconnect the wallet
//	@Description	Clear the local session; the wallet's own authorization is untouched
//	@Tags			wallet
//	@Produce		json
//	@Success		200	{object}	SessionDto
//	@Router			/wallet/disconnect [post]
func (h *Handler) Disconnect(c *gin.Context) {
	h.session.Disconnect(c.Request.Context())
	c.JSON(http.StatusOK, SessionDtoFromDomain(h.session.Snapshot()))
}

// SwitchChain godoc
//
//	@Summary		Switch the active network
//	@Description	Ask the wallet to activate the given chain, registering it first when unknown
//	@Tags			wallet
//	@Accept			json
//	@Produce		json
//	@Param			request	body		SwitchChainRequestBody	true	"Request body"
//	@Success		202	{object}	SessionDto
//	@Failure		400	{object}	object{error=string}
//	@Failure		409	{object}	object{error=string}
//	@Router			/wallet/chain [post]
func (h *Handler) SwitchChain(c *gin.Context) {
	var req SwitchChainRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorf("SwitchChain err: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	chainID, err := chains.ParseChainID(req.ChainID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chain id"})
		return
	}

	if err := h.switcher.SwitchTo(c.Request.Context(), chainID); err != nil {
		h.logger.Errorf("SwitchChain err: %v", err)
		c.JSON(walletStatus(err), gin.H{"error": err.Error()})
		return
	}
	// the authoritative chain arrives via the session stream
	c.JSON(http.StatusAccepted, SessionDtoFromDomain(h.session.Snapshot()))
}

// StreamEvents godoc
//
//	@Summary		Session event stream
//	@Description	Server-sent events with a session snapshot per transition
//	@Tags			wallet
//	@Produce		text/event-stream
//	@Success		200
//	@Router			/wallet/events [get]
func (h *Handler) StreamEvents(c *gin.Context) {
	updates, cancel := h.session.Subscribe()
	defer cancel()

	c.Stream(func(w io.Writer) bool {
		select {
		case snap, ok := <-updates:
			if !ok {
				return false
			}
			c.SSEvent("session", SessionDtoFromDomain(snap))
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func walletStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrNoProvider):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrUserRejected):
		return http.StatusConflict
	case errors.Is(err, domain.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, domain.ErrUnsupportedChain), errors.Is(err, domain.ErrChainMismatch):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
