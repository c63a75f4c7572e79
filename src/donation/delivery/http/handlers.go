package http

import (
	"errors"
	"io"
	"math/big"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lakkhi/walletd/src/donation/domain"
	"github.com/lakkhi/walletd/src/donation/usecase"
	"github.com/lakkhi/walletd/src/logger"
)

// Handler binds the donation usecase + logger
type Handler struct {
	service *usecase.Service
	logger  *logger.Logger
}

func NewHandler(s *usecase.Service, l *logger.Logger) *Handler {
	return &Handler{service: s, logger: l}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.POST("/donations", h.Start)
	r.GET("/donations", h.ListRecent)
	r.GET("/donations/events", h.StreamEvents)
	r.GET("/donations/:id", h.GetIntent)
}

// ListRecent godoc
//
//	@Summary		Recent donation flows
//	@Tags			donations
//	@Produce		json
//	@Param			limit	query		int	false	"max rows"	default(20)
//	@Success		200	{array}		IntentDto
//	@Failure		500	{object}	object{error=string}
//	@Router			/donations [get]
func (h *Handler) ListRecent(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 || limit > 200 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}
	intents, err := h.service.History(c.Request.Context(), limit)
	if err != nil {
		h.logger.Errorf("ListRecent err: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	dtos := make([]IntentDto, len(intents))
	for i, intent := range intents {
		dtos[i] = IntentDtoFromDomain(intent)
	}
	c.JSON(http.StatusOK, dtos)
}

// Start godoc
//
//	@Summary		Start a donation flow
//	@Description	Run balance check, allowance check, optional approve and stake; progress streams on /donations/events
//	@Tags			donations
//	@Accept			json
//	@Produce		json
//	@Param			request	body		StartDonationRequestBody	true	"Request body"
//	@Success		202	{object}	IntentDto
//	@Failure		400	{object}	object{error=string}
//	@Failure		409	{object}	object{error=string}
//	@Router			/donations [post]
func (h *Handler) Start(c *gin.Context) {
	var req StartDonationRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Errorf("Start err: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	amount, ok := new(big.Int).SetString(req.Amount, 10)
	if !ok || amount.Sign() <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
		return
	}

	intent, err := h.service.Start(c.Request.Context(), usecase.Params{
		ChainID:     req.ChainID,
		Token:       req.Token,
		PoolAddress: req.PoolAddress,
		Amount:      amount,
	})
	if err != nil {
		h.logger.Errorf("Start err: %v", err)
		if errors.Is(err, domain.ErrFlowInProgress) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, IntentDtoFromDomain(intent))
}

// GetIntent godoc
//
//	@Summary		Donation flow snapshot
//	@Tags			donations
//	@Produce		json
//	@Param			id	path		string	true	"intent id"
//	@Success		200	{object}	IntentDto
//	@Failure		404	{object}	object{error=string}
//	@Router			/donations/{id} [get]
func (h *Handler) GetIntent(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid intent id"})
		return
	}
	intent, err := h.service.Intent(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, IntentDtoFromDomain(intent))
}

// StreamEvents godoc
//
//	@Summary		Donation flow event stream
//	@Description	Server-sent events with an intent snapshot per state transition
//	@Tags			donations
//	@Produce		text/event-stream
//	@Success		200
//	@Router			/donations/events [get]
func (h *Handler) StreamEvents(c *gin.Context) {
	updates, cancel := h.service.Subscribe()
	defer cancel()

	c.Stream(func(w io.Writer) bool {
		select {
		case intent, ok := <-updates:
			if !ok {
				return false
			}
			c.SSEvent("donation", IntentDtoFromDomain(intent))
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
