package server

import (
	"errors"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// websocket serves a frame-per-utterance loop: each JSON request frame
// gets one PublicResponse frame back on the same connection.
func (h *Handlers) websocket(c *gin.Context) {
	conn, err := websocket.Accept(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket accept failed", zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusInternalError, "closing")

	ctx := c.Request.Context()
	for {
		var req utteranceRequest
		if err := wsjson.Read(ctx, conn, &req); err != nil {
			var ce websocket.CloseError
			if !errors.As(err, &ce) {
				h.logger.Debug("websocket read ended", zap.Error(err))
			}
			return
		}
		if req.Request == "" {
			if err := wsjson.Write(ctx, conn, gin.H{"error": "frame must carry a non-empty 'request' field"}); err != nil {
				return
			}
			continue
		}
		resp := h.pipeline.Process(ctx, req.Request)
		if err := wsjson.Write(ctx, conn, resp); err != nil {
			h.logger.Debug("websocket write failed", zap.Error(err))
			return
		}
	}
}
