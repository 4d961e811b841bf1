package main

import (
	"quality-desk/internal/httpapi"
	"quality-desk/internal/rbac"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, db httpapi.Binding, authMW gin.HandlerFunc) {
	needDB := httpapi.RequireDatabase(db)

	// public
	r.GET("/healthz", h.Healthz)

	authGroup := r.Group("/v1/auth", needDB)
	{
		authGroup.POST("/login", h.Login)
		authGroup.POST("/refresh", h.Refresh)
	}

	// protected API group
	v1 := r.Group("/v1")
	v1.Use(authMW, rbac.RequireIdentity())

	// COMPLAINTS routes
	complaints := v1.Group("/complaints", needDB)
	{
		complaints.GET("", h.ListComplaints)
		complaints.POST("", h.CreateComplaint)
		complaints.POST("/analyze", h.AnalyzeComplaint)
		complaints.PATCH("/:id", h.ResolveComplaint)
	}

	// AREAS routes
	areas := v1.Group("/areas", needDB)
	{
		areas.GET("", h.ListAreas)
		areas.PUT("/:area/manager", rbac.RequireAnyRole(rbac.RoleSupervisor), h.ReassignArea)
	}

	// CAMPAIGN routes
	campaign := v1.Group("/campaign", needDB)
	{
		campaign.GET("/stats", h.ListCampaign)
		campaign.POST("/stats", h.RecordCampaign)
	}

	// REPORTS routes
	reports := v1.Group("/reports", needDB)
	reports.Use(rbac.RequireAnyRole(rbac.RoleSupervisor))
	{
		reports.GET("/complaints", h.ComplaintsReport)
		reports.GET("/campaign", h.CampaignReport)
	}

	// TELEPHONY routes. Session state is in memory and works without a database.
	telephony := v1.Group("/telephony")
	{
		telephony.POST("/events", h.TelephonyEvent)
		telephony.GET("/session", h.TelephonySession)
		telephony.POST("/dial", h.Dial)
		telephony.GET("/stream", h.Stream)
	}

	// ADMIN routes
	// Only admin manages operator accounts.
	operators := v1.Group("/operators", needDB)
	operators.Use(rbac.RequireAnyRole(rbac.RoleAdmin))
	{
		operators.GET("", h.ListOperators)
		operators.POST("", h.CreateOperator)
		operators.PUT("/:id", h.UpdateOperator)
	}
}
