package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"options-cockpit/internal/logging"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin checks are left to the CORS policy of the deployment.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// marketQuote advances the synthetic market by one tick.
func (s *Server) marketQuote(c *gin.Context) {
	tick := s.deps.Market.Tick()
	s.deps.Hub.Publish(tick)
	c.JSON(http.StatusOK, tick)
}

// marketSocket streams the hub's ticks for the market symbol until the
// client goes away or the feed stops.
func (s *Server) marketSocket(c *gin.Context) {
	logger := logging.FromContext(c.Request.Context())
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	symbol := s.deps.Market.Symbol()
	ticks := s.deps.Hub.SubscribeWithID(symbol, logging.RequestIDFromContext(c.Request.Context()))
	defer s.deps.Hub.Unsubscribe(symbol, ticks)

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	logger.Debug().Str("symbol", symbol).Msg("Market stream opened")
	for {
		select {
		case <-closed:
			logger.Debug().Str("symbol", symbol).Msg("Market stream closed by client")
			return
		case tick, ok := <-ticks:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "feed stopped"), time.Now().Add(wsWriteWait))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(tick); err != nil {
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
