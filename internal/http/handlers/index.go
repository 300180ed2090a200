package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Endpoint struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Auth        bool   `json:"auth"`
	Description string `json:"description"`
}

var Endpoints = []Endpoint{
	{http.MethodGet, "/", false, "API index"},
	{http.MethodPost, "/auth/login", false, "Exchange credentials for a bearer token"},
	{http.MethodGet, "/users", true, "List all users"},
	{http.MethodPost, "/users", true, "Create a user"},
	{http.MethodPut, "/users/:id", true, "Update a user"},
	{http.MethodDelete, "/users/:id", true, "Delete a user"},
	{http.MethodGet, "/healthz", false, "Detailed health"},
	{http.MethodGet, "/livez", false, "Liveness probe"},
	{http.MethodGet, "/readyz", false, "Readiness probe"},
	{http.MethodGet, "/metrics", false, "Prometheus metrics"},
	{http.MethodGet, "/docs", false, "API documentation"},
}

func APIIndex(version string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{
			"message":   "userhub API",
			"version":   version,
			"endpoints": Endpoints,
		})
	}
}

func RouteNotFound(ctx *gin.Context) {
	routes := make([]string, 0, len(Endpoints))
	for _, e := range Endpoints {
		routes = append(routes, e.Method+" "+e.Path)
	}

	ctx.JSON(http.StatusNotFound, gin.H{
		"error":           "route_not_found",
		"message":         "Route " + ctx.Request.Method + " " + ctx.Request.URL.Path + " not found",
		"availableRoutes": routes,
		"requestId":       requestIDFrom(ctx),
	})
}
