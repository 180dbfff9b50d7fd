package handlers

import (
	"errors"
	"net/http"

	"raffle/internal/models"
	"raffle/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"
)

// CallerHeader carries the identity of the caller.
const CallerHeader = "X-Caller"

const callerKey = "caller"

// HTTPHandler holds the dependencies for the HTTP handlers, like the lottery service.
type HTTPHandler struct {
	service *services.LotteryService
}

// NewHTTPHandler creates a new HTTPHandler.
func NewHTTPHandler(service *services.LotteryService) *HTTPHandler {
	return &HTTPHandler{service: service}
}

// PurchaseRequest is the body of POST /lotteries/:id/tickets.
type PurchaseRequest struct {
	Quantity uint64 `json:"quantity"`
	Payment  uint64 `json:"payment"`
}

// RegisterPublicRoutes registers the routes that do not need a caller.
func (h *HTTPHandler) RegisterPublicRoutes(router gin.IRouter) {
	router.GET("/healthz", h.Health)
	router.GET("/lotteries", h.ListLotteries)

	l := router.Group("/lotteries/:id", h.LoadLottery())
	l.GET("", h.GetLottery)
	l.GET("/details", h.ViewLotteryDetails)
	l.GET("/admin", h.ViewAdmin)
	l.GET("/total-raised", h.ViewTotalRaised)
	l.GET("/total-participants", h.ViewTotalParticipants)
	l.GET("/raffle-items", h.ViewRaffleItems)
	l.GET("/raffle-descriptions", h.ViewRaffleDescriptions)
	l.GET("/purchase-period", h.ViewPurchasePeriod)
	l.GET("/participants", h.ListParticipants)
	l.GET("/journal", h.ListJournal)
}

// RegisterCallerRoutes registers the routes that act as, or on behalf of,
// the caller. router is expected to carry CallerMiddleware.
func (h *HTTPHandler) RegisterCallerRoutes(router gin.IRouter) {
	router.POST("/lotteries", h.CreateLottery)

	l := router.Group("/lotteries/:id", h.LoadLottery())
	l.POST("/tickets", h.PurchaseTickets)
	l.POST("/withdraw", h.WithdrawFunds)
	l.POST("/terminate", h.TerminateLottery)
	l.GET("/me/tickets", h.ViewUserTickets)
	l.GET("/me/balance", h.ViewUserBalance)
}

// CallerMiddleware rejects requests without a valid caller address.
func (h *HTTPHandler) CallerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, err := models.ParseAddress(c.GetHeader(CallerHeader))
		if err != nil || caller.IsZero() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "UNAUTHENTICATED",
				"message": "a valid " + CallerHeader + " header is required",
			})
			return
		}
		c.Set(callerKey, caller)
		c.Next()
	}
}

// LoadLottery resolves :id into the lottery ledger.
func (h *HTTPHandler) LoadLottery() gin.HandlerFunc {
	return func(c *gin.Context) {
		ledger, err := h.service.Get(c.Param("id"))
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.Set("ledger", ledger)
		c.Next()
	}
}

func ledgerOf(c *gin.Context) *services.Ledger {
	return c.MustGet("ledger").(*services.Ledger)
}

func callerOf(c *gin.Context) models.Address {
	return c.MustGet(callerKey).(models.Address)
}

// abortWithError answers with the status matching a ledger error.
func abortWithError(c *gin.Context, err error) {
	var lerr *services.Error
	if errors.As(err, &lerr) {
		c.AbortWithStatusJSON(lerr.Code.HTTPStatus(), gin.H{"code": lerr.Code, "message": lerr.Message})
		return
	}
	logger.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"code": "INTERNAL", "message": "internal error"})
}

func (h *HTTPHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// CreateLottery creates a lottery administered by the caller.
func (h *HTTPHandler) CreateLottery(c *gin.Context) {
	var cfg models.LotteryConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": services.CodeConfiguration, "message": err.Error()})
		return
	}
	ledger, err := h.service.Create(c.Request.Context(), callerOf(c), cfg)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ledger.Summary())
}

func (h *HTTPHandler) ListLotteries(c *gin.Context) {
	ledgers := h.service.List()
	out := make([]models.LotterySummary, 0, len(ledgers))
	for _, l := range ledgers {
		out = append(out, l.Summary())
	}
	c.JSON(http.StatusOK, out)
}

func (h *HTTPHandler) GetLottery(c *gin.Context) {
	ledger := ledgerOf(c)
	c.JSON(http.StatusOK, gin.H{
		"summary":            ledger.Summary(),
		"raffleItems":        ledger.ViewRaffleItems(),
		"raffleDescriptions": ledger.ViewRaffleDescriptions(),
		"totalParticipants":  ledger.ViewTotalParticipants(),
		"viable":             ledger.IsViable(),
		"windowOpen":         ledger.WindowOpen(),
	})
}

// PurchaseTickets buys tickets for the caller.
func (h *HTTPHandler) PurchaseTickets(c *gin.Context) {
	var req PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": services.CodeInvalidQuantity, "message": err.Error()})
		return
	}
	ledger := ledgerOf(c)
	caller := callerOf(c)
	if err := ledger.PurchaseTickets(c.Request.Context(), caller, req.Quantity, req.Payment); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"tickets": ledger.ViewUserTickets(caller),
		"balance": ledger.ViewUserBalance(caller),
	})
}

func (h *HTTPHandler) WithdrawFunds(c *gin.Context) {
	amount, err := ledgerOf(c).WithdrawFunds(c.Request.Context(), callerOf(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"amount": amount})
}

func (h *HTTPHandler) TerminateLottery(c *gin.Context) {
	ledger := ledgerOf(c)
	if err := ledger.TerminateLottery(c.Request.Context(), callerOf(c)); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"isTerminated": true, "winner": ledger.Winner()})
}

func (h *HTTPHandler) ViewUserTickets(c *gin.Context) {
	c.JSON(http.StatusOK, ledgerOf(c).ViewUserTickets(callerOf(c)))
}

func (h *HTTPHandler) ViewUserBalance(c *gin.Context) {
	c.JSON(http.StatusOK, ledgerOf(c).ViewUserBalance(callerOf(c)))
}

func (h *HTTPHandler) ViewTotalRaised(c *gin.Context) {
	c.JSON(http.StatusOK, ledgerOf(c).ViewTotalRaised())
}

func (h *HTTPHandler) ViewTotalParticipants(c *gin.Context) {
	c.JSON(http.StatusOK, ledgerOf(c).ViewTotalParticipants())
}

func (h *HTTPHandler) ViewRaffleItems(c *gin.Context) {
	c.JSON(http.StatusOK, ledgerOf(c).ViewRaffleItems())
}

func (h *HTTPHandler) ViewRaffleDescriptions(c *gin.Context) {
	c.JSON(http.StatusOK, ledgerOf(c).ViewRaffleDescriptions())
}

func (h *HTTPHandler) ViewPurchasePeriod(c *gin.Context) {
	c.JSON(http.StatusOK, ledgerOf(c).ViewPurchasePeriod())
}

func (h *HTTPHandler) ViewAdmin(c *gin.Context) {
	c.JSON(http.StatusOK, ledgerOf(c).Admin())
}

// ViewLotteryDetails answers with the details as a JSON array in their
// fixed order.
func (h *HTTPHandler) ViewLotteryDetails(c *gin.Context) {
	c.JSON(http.StatusOK, ledgerOf(c).ViewLotteryDetails().Tuple())
}

func (h *HTTPHandler) ListParticipants(c *gin.Context) {
	c.JSON(http.StatusOK, ledgerOf(c).Participants())
}

func (h *HTTPHandler) ListJournal(c *gin.Context) {
	entries, err := h.service.Journal(c.Request.Context(), ledgerOf(c).ID())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}
