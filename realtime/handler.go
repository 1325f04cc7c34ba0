package realtime

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/qnahub/qna/services"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The API is token-authenticated and CORS-guarded upstream; the ws
	// endpoint only streams public answer events.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// AnswersStream returns a gin handler that upgrades the connection and
// streams the question's answer events until the client goes away.
func AnswersStream(hub *Hub, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		questionID, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
		if err != nil {
			ctx.AbortWithStatus(http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
		if err != nil {
			log.Warnf("websocket upgrade failed: %v", err)
			return
		}

		events, cancel := hub.Subscribe(services.AnswerChannel(uint(questionID)))
		defer cancel()

		// Reader goroutine: we never expect client frames, but reading is what
		// surfaces close and keeps pong handling alive.
		done := make(chan struct{})
		go func() {
			defer close(done)
			conn.SetReadLimit(512)
			_ = conn.SetReadDeadline(time.Now().Add(pongWait))
			conn.SetPongHandler(func(string) error {
				return conn.SetReadDeadline(time.Now().Add(pongWait))
			})
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		defer conn.Close()

		for {
			select {
			case payload, ok := <-events:
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
					return
				}
			case <-ticker.C:
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}
}
