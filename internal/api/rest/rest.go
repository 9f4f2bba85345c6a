package rest

import (
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all REST API routes
func SetupRoutes(router *gin.Engine, handler Handler) {
	// Health check endpoint (no version prefix)
	router.GET("/health", handler.HealthCheck)

	// API v1 routes (public read access, the store is a read-only surface)
	v1 := router.Group("/api/v1")
	{
		v1.GET("/options", handler.ListOptions)
		v1.GET("/options/available", handler.ListAvailableOptions)
		v1.GET("/options/parents", handler.ListParentOptions)
		v1.GET("/options/:id", handler.GetOption)
		v1.GET("/options/:id/children", handler.ListChildren)
		v1.GET("/options/:id/hierarchy", handler.GetHierarchy)

		v1.GET("/users/:address/options", handler.ListUserOptions)
		v1.GET("/users/:address/balances", handler.GetUserBalances)

		v1.GET("/stats/capital-efficiency", handler.GetCapitalEfficiencyStats)
		v1.GET("/transactions", handler.ListRecentTransactions)
	}
}
