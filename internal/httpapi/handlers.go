package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"quality-desk/internal/analysis"
	"quality-desk/internal/areas"
	"quality-desk/internal/audit"
	"quality-desk/internal/auth"
	"quality-desk/internal/campaign"
	"quality-desk/internal/complaints"
	"quality-desk/internal/operators"
	"quality-desk/internal/platform"
	"quality-desk/internal/reporting"
	"quality-desk/internal/telephony"
	"quality-desk/pkg/logger"

	"github.com/gin-gonic/gin"
)

// HealthSource reports backend connectivity.
type HealthSource interface {
	Health(ctx context.Context) platform.Health
}

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Health     HealthSource
	Auth       *auth.Manager
	Operators  *operators.Service
	Complaints *complaints.Service
	Areas      *areas.Service
	Campaign   *campaign.Service
	Reports    *reporting.Service
	Audit      *audit.Service

	// Analyzer enriches complaints posted without a sentiment. Optional.
	Analyzer        analysis.Analyzer
	AnalysisTimeout time.Duration

	Stations *telephony.Stations
	Hub      *telephony.Hub
	Dialer   telephony.Dialer

	Now func() time.Time
}

func (h Handlers) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func identity(c *gin.Context) (operatorID, role string) {
	operatorID, _ = auth.OperatorID(c.Request.Context())
	role, _ = auth.Role(c.Request.Context())
	return operatorID, role
}

func rangeQuery(c *gin.Context) complaints.Range {
	return complaints.Range{
		From: strings.TrimSpace(c.Query("from")),
		To:   strings.TrimSpace(c.Query("to")),
	}
}

// --- Health ---

func (h Handlers) Healthz(c *gin.Context) {
	if h.Health == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	hs := h.Health.Health(c.Request.Context())
	if !hs.Database {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": hs.Database, "redis": hs.Redis})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "database": hs.Database, "redis": hs.Redis})
}

// --- Auth ---

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	auth.TokenPair
	Operator operators.Operator `json:"operator"`
}

// Login checks operator credentials and issues a JWT pair.
func (h Handlers) Login(c *gin.Context) {
	if h.Auth == nil || h.Operators == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "username and password required"})
		return
	}
	o, err := h.Operators.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, operators.ErrInvalidCredentials) {
			logger.FromGin(c).Info("login rejected", "username", req.Username)
		}
		writeError(c, err)
		return
	}
	pair, err := h.Auth.IssuePair(h.now(), o.ID, o.Username, o.Role)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, tokenResponse{TokenPair: pair, Operator: o})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh trades a refresh token for a new pair. The account is re-read so
// deactivation and role changes apply at the next refresh.
func (h Handlers) Refresh(c *gin.Context) {
	if h.Auth == nil || h.Operators == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "refresh_token required"})
		return
	}
	claims, err := h.Auth.Verify(req.RefreshToken, auth.TokenTypeRefresh, h.now())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	o, err := h.Operators.Get(c.Request.Context(), claims.OperatorID)
	if err != nil || !o.Active {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	pair, err := h.Auth.IssuePair(h.now(), o.ID, o.Username, o.Role)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, tokenResponse{TokenPair: pair, Operator: o})
}

// --- Complaints ---

func (h Handlers) ListComplaints(c *gin.Context) {
	list, err := h.Complaints.List(c.Request.Context(), rangeQuery(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// CreateComplaint upserts by id, so replaying a desk's unsynced record is safe.
func (h Handlers) CreateComplaint(c *gin.Context) {
	var in complaints.Complaint
	if err := c.ShouldBindJSON(&in); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if h.Analyzer != nil && in.Sentiment == "" && in.Description != "" {
		res := h.analyze(c, in.Description)
		in.Sentiment, in.SuggestedResponse = res.Sentiment, res.SuggestedResponse
		if in.Priority == "" {
			in.Priority = res.Priority
		}
	}
	if _, err := h.Complaints.Create(c.Request.Context(), in); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

type analyzeRequest struct {
	Description string `json:"description"`
}

// AnalyzeComplaint previews the analysis for a draft. It always answers 200;
// an unavailable analyzer yields the default priority only.
func (h Handlers) AnalyzeComplaint(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Description) == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "description required"})
		return
	}
	c.JSON(http.StatusOK, h.analyze(c, req.Description))
}

func (h Handlers) analyze(c *gin.Context, description string) analysis.Result {
	timeout := h.AnalysisTimeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	ctx := logger.With(c.Request.Context(), logger.FromGin(c))
	return analysis.Degrade(ctx, h.Analyzer, description, timeout)
}

func (h Handlers) ResolveComplaint(c *gin.Context) {
	var in complaints.Resolution
	if err := c.ShouldBindJSON(&in); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	operatorID, role := identity(c)
	if strings.TrimSpace(in.ResolvedBy) == "" {
		in.ResolvedBy = operatorID
	}
	id := c.Param("id")
	out, err := h.Complaints.Resolve(c.Request.Context(), id, in)
	if err != nil {
		writeError(c, err)
		return
	}
	if h.Audit != nil && complaints.IsTerminal(out.Status) {
		if err := h.Audit.LogComplaintResolved(c.Request.Context(), operatorID, role, id, string(out.Status)); err != nil {
			logger.FromGin(c).Warn("audit append failed", "err", err, "complaint_id", id)
		}
	}
	c.Status(http.StatusCreated)
}

// --- Operators ---

func (h Handlers) ListOperators(c *gin.Context) {
	list, err := h.Operators.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h Handlers) CreateOperator(c *gin.Context) {
	var in operators.NewOperator
	if err := c.ShouldBindJSON(&in); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	actorID, actorRole := identity(c)
	if _, err := h.Operators.Create(c.Request.Context(), actorID, actorRole, in); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

func (h Handlers) UpdateOperator(c *gin.Context) {
	var p operators.Patch
	if err := c.ShouldBindJSON(&p); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	actorID, actorRole := identity(c)
	if _, err := h.Operators.Update(c.Request.Context(), actorID, actorRole, c.Param("id"), p); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

// --- Areas ---

func (h Handlers) ListAreas(c *gin.Context) {
	list, err := h.Areas.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

type reassignRequest struct {
	Manager string `json:"manager"`
}

// ReassignArea sets the area's manager and moves its open complaints along.
func (h Handlers) ReassignArea(c *gin.Context) {
	var req reassignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	actorID, actorRole := identity(c)
	if _, err := h.Areas.Reassign(c.Request.Context(), actorID, actorRole, c.Param("area"), req.Manager); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

// --- Campaign ---

func (h Handlers) ListCampaign(c *gin.Context) {
	list, err := h.Campaign.List(c.Request.Context(), rangeQuery(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h Handlers) RecordCampaign(c *gin.Context) {
	var in campaign.DailyStats
	if err := c.ShouldBindJSON(&in); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if in.Operator == "" {
		in.Operator, _ = identity(c)
	}
	if _, err := h.Campaign.Record(c.Request.Context(), in); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

// --- Reports ---

func (h Handlers) ComplaintsReport(c *gin.Context) {
	out, err := h.Reports.ComplaintsSummary(c.Request.Context(), rangeQuery(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) CampaignReport(c *gin.Context) {
	out, err := h.Reports.CampaignSummary(c.Request.Context(), rangeQuery(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
