package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/veritick/veritick/core"
	"github.com/veritick/veritick/service"
)

// Handlers contains HTTP handlers for the attendance endpoints.
type Handlers struct {
	session    *service.GeneratorSession
	attendance *service.AttendanceService
	reports    *service.ReportService
}

// NewHandlers creates new handlers.
func NewHandlers(
	session *service.GeneratorSession,
	attendance *service.AttendanceService,
	reports *service.ReportService,
) *Handlers {
	return &Handlers{
		session:    session,
		attendance: attendance,
		reports:    reports,
	}
}

// MintQR mints a fresh token and returns it for rendering.
func (h *Handlers) MintQR(c *gin.Context) {
	cipher, err := h.session.Mint()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mint token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"cipher": cipher})
}

// SubmitScan ingests a scanned token for a participant.
func (h *Handlers) SubmitScan(c *gin.Context) {
	var req struct {
		Cipher    string `json:"cipher" binding:"required"`
		StudentID string `json:"studentId" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid_request"})
		return
	}

	event, err := h.attendance.RecordScan(c.Request.Context(), req.StudentID, req.Cipher, c.ClientIP())
	if err != nil {
		if errors.Is(err, core.ErrInvalidRequest) {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid_request"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "internal_error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":           true,
		"studentId":    event.ParticipantID,
		"serverRecvTs": event.ServerRecvTs,
		"cipher":       event.Token,
	})
}

type logItem struct {
	ID           uint64    `json:"id"`
	LogTime      time.Time `json:"logTime"`
	IP           string    `json:"ip"`
	StudentID    string    `json:"studentId"`
	Cipher       string    `json:"cipher"`
	ServerRecvTs int64     `json:"serverRecvTs"`
}

// AttendLog returns all retained scans, oldest first.
func (h *Handlers) AttendLog(c *gin.Context) {
	events, err := h.attendance.Log(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read log"})
		return
	}

	items := make([]logItem, 0, len(events))
	for _, ev := range events {
		items = append(items, logItem{
			ID:           ev.ID,
			LogTime:      ev.LogTime,
			IP:           ev.SourceAddress,
			StudentID:    ev.ParticipantID,
			Cipher:       ev.Token,
			ServerRecvTs: ev.ServerRecvTs,
		})
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

// ServerTime reports the verifier's clock for round-trip probing.
func (h *Handlers) ServerTime(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"serverTime": time.Now().UnixMilli()})
}

// Report builds a suspicion report under the requested policy.
func (h *Handlers) Report(c *gin.Context) {
	policy := core.ScorePolicy(c.DefaultQuery("policy", string(core.PolicyPopulation)))

	report, err := h.reports.BuildReport(c.Request.Context(), h.session.Recorder(), policy)
	if err != nil {
		if errors.Is(err, core.ErrInvalidRequest) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown policy"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build report"})
		return
	}

	c.JSON(http.StatusOK, report)
}

// SessionStatus reports the generator session state.
func (h *Handlers) SessionStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.session.Status())
}

// SetFPS adjusts the minting rate at runtime.
func (h *Handlers) SetFPS(c *gin.Context) {
	var req struct {
		FPS int `json:"fps" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	if err := h.session.SetTargetFPS(req.FPS); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "fps out of range"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"targetFps": h.session.TargetFPS()})
}
