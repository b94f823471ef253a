package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/quotepit/quotepit/internal/api/dto"
	"github.com/quotepit/quotepit/internal/api/ws"
	"github.com/quotepit/quotepit/internal/core"
	"github.com/quotepit/quotepit/internal/domain"
	"github.com/quotepit/quotepit/internal/middleware"
)

type Server struct {
	Eng       *core.Engine
	Feed      *ws.Feed
	Symbol    string
	RateLimit time.Duration
}

func NewServer(eng *core.Engine, feed *ws.Feed, symbol string) *Server {
	return &Server{
		Eng:       eng,
		Feed:      feed,
		Symbol:    symbol,
		RateLimit: 100 * time.Millisecond,
	}
}

func (s *Server) Router() *gin.Engine {
	r := gin.Default()

	if s.Feed != nil {
		r.GET("/ws", gin.WrapH(s.Feed))
	}

	rl := middleware.NewRateLimiter(s.RateLimit)
	authed := r.Group("/", middleware.Identity(), rl.Middleware())

	authed.POST("/quotes", s.submitQuote)
	authed.POST("/quotes/cancel", s.cancelQuote)
	authed.GET("/quotes", s.getBook)
	authed.GET("/quotes/:id", s.getQuote)
	authed.GET("/quotes/:id/trades", s.getQuoteTrades)
	authed.POST("/trades", s.executeTrade)
	authed.GET("/trades", s.getTrades)
	authed.GET("/users/:id/trades", s.getUserTrades)
	authed.GET("/users/:id/position", s.getPosition)

	return r
}

func (s *Server) Run(addr string) error {
	return s.Router().Run(addr)
}

func (s *Server) submitQuote(c *gin.Context) {
	var req dto.SubmitQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	symbol := req.Symbol
	if symbol == "" {
		symbol = s.Symbol
	}
	q, err := s.Eng.SubmitQuote(c.Request.Context(), middleware.ClientID(c), symbol,
		domain.Level{Price: req.BidPrice, Amount: req.BidAmount},
		domain.Level{Price: req.OfferPrice, Amount: req.OfferAmount},
	)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.SubmitQuoteResponse{Quote: convertQuote(q)})
}

func (s *Server) cancelQuote(c *gin.Context) {
	var req dto.CancelQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.Eng.CancelQuote(c.Request.Context(), middleware.ClientID(c), req.QuoteID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.CancelQuoteResponse{QuoteID: req.QuoteID, Cancelled: true})
}

func (s *Server) executeTrade(c *gin.Context) {
	var req dto.ExecuteTradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t, err := s.Eng.ExecuteTrade(c.Request.Context(), middleware.ClientID(c),
		req.QuoteID, domain.Side(req.Side), req.Amount)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ExecuteTradeResponse{Trade: convertTrade(t)})
}

func (s *Server) getBook(c *gin.Context) {
	symbol := c.Query("symbol")
	if symbol == "" {
		symbol = s.Symbol
	}
	quotes, err := s.Eng.ActiveQuotes(c.Request.Context(), symbol)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.GetBookResponse{
		Symbol:    symbol,
		Quotes:    convertQuotes(quotes),
		Timestamp: time.Now(),
	})
}

func (s *Server) getQuote(c *gin.Context) {
	q, err := s.Eng.GetQuote(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quote": convertQuote(q)})
}

func (s *Server) getQuoteTrades(c *gin.Context) {
	trades, err := s.Eng.TradesForQuote(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.GetTradesResponse{Trades: convertTrades(trades)})
}

func (s *Server) getTrades(c *gin.Context) {
	symbol := c.Query("symbol")
	if symbol == "" {
		symbol = s.Symbol
	}
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	trades, err := s.Eng.RecentTrades(c.Request.Context(), symbol, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.GetTradesResponse{Trades: convertTrades(trades)})
}

func (s *Server) getUserTrades(c *gin.Context) {
	trades, err := s.Eng.TradesForUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.GetTradesResponse{Trades: convertTrades(trades)})
}

func (s *Server) getPosition(c *gin.Context) {
	symbol := c.Query("symbol")
	if symbol == "" {
		symbol = s.Symbol
	}
	pos, err := s.Eng.Position(c.Request.Context(), c.Param("id"), symbol)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.GetPositionResponse{
		UserID:       pos.UserID,
		Symbol:       pos.Symbol,
		NetPosition:  pos.NetPosition,
		TotalBought:  pos.TotalBought,
		TotalSold:    pos.TotalSold,
		AvgBuyPrice:  pos.AvgBuyPrice,
		AvgSellPrice: pos.AvgSellPrice,
		RealizedPnL:  pos.RealizedPnL,
	})
}

// writeError maps the domain taxonomy onto HTTP statuses. Errors are
// matched structurally; message text is never inspected.
func writeError(c *gin.Context, err error) {
	switch {
	case domain.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotAuthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrStaleQuote):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrQuoteNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	}
}

func convertQuote(q *domain.Quote) dto.Quote {
	return dto.Quote{
		ID:          q.ID,
		OwnerID:     q.OwnerID,
		Symbol:      q.Symbol,
		BidPrice:    q.BidPrice,
		BidAmount:   q.BidAmount,
		OfferPrice:  q.OfferPrice,
		OfferAmount: q.OfferAmount,
		Status:      string(q.Status),
		LastUpdated: q.LastUpdated,
	}
}

func convertQuotes(quotes []*domain.Quote) []dto.Quote {
	res := make([]dto.Quote, len(quotes))
	for i, q := range quotes {
		res[i] = convertQuote(q)
	}
	return res
}

func convertTrade(t *domain.Trade) dto.Trade {
	return dto.Trade{
		ID:        t.ID,
		Symbol:    t.Symbol,
		QuoteID:   t.QuoteID,
		Side:      dto.Side(t.Side),
		Price:     t.Price,
		Amount:    t.Amount,
		BuyerID:   t.BuyerID,
		SellerID:  t.SellerID,
		Timestamp: t.Timestamp,
	}
}

func convertTrades(trades []*domain.Trade) []dto.Trade {
	res := make([]dto.Trade, len(trades))
	for i, t := range trades {
		res[i] = convertTrade(t)
	}
	return res
}
