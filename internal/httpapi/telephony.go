package httpapi

import (
	"io"
	"net/http"

	"quality-desk/internal/reporting"
	"quality-desk/internal/telephony"
	"quality-desk/pkg/logger"

	"github.com/gin-gonic/gin"
)

// TelephonyEvent relays one softphone event to the caller's station.
func (h Handlers) TelephonyEvent(c *gin.Context) {
	operatorID, _ := identity(c)
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, 4096))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}
	ev, err := telephony.ParseEvent(raw)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := h.Stations.Handle(c.Request.Context(), operatorID, ev); err != nil {
		logger.FromGin(c).Info("telephony event rejected", "kind", ev.Kind(), "err", err)
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.Stations.State(operatorID))
}

type sessionResponse struct {
	telephony.State
	Calls reporting.CallsSummary `json:"calls"`
}

func (h Handlers) TelephonySession(c *gin.Context) {
	operatorID, _ := identity(c)
	st := h.Stations.State(operatorID)
	c.JSON(http.StatusOK, sessionResponse{State: st, Calls: reporting.SummarizeCalls(st.Session.History)})
}

type dialRequest struct {
	Number string `json:"number"`
}

func (h Handlers) Dial(c *gin.Context) {
	var req dialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	operatorID, _ := identity(c)
	number, err := telephony.Dial(c.Request.Context(), h.Dialer, h.Stations.Line(operatorID), operatorID, req.Number)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"number": number})
}

// Stream upgrades to a websocket that pushes the caller's station state.
func (h Handlers) Stream(c *gin.Context) {
	operatorID, _ := identity(c)
	if err := h.Hub.Serve(c.Writer, c.Request, operatorID, h.Stations.State(operatorID)); err != nil {
		logger.FromGin(c).Warn("websocket upgrade failed", "err", err)
	}
}
