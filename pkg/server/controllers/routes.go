/* Copyright (C) 2025 Habitlog contributors
 *
 * This file is part of Habitlog.
 *
 * Habitlog is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * Habitlog is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with Habitlog.  If not, see <https://www.gnu.org/licenses/>.
 */


package controllers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/habitlog/habitlog/pkg/server/app"
	mw "github.com/habitlog/habitlog/pkg/server/middleware"
	"github.com/pkg/errors"
)

// devicePrefix scopes every API route to the device sending the request
const devicePrefix = "/api/v1/devices/{deviceID}"

// Route represents a single route
type Route struct {
	Method    string
	Pattern   string
	Handler   http.HandlerFunc
	RateLimit bool
}

// RouteConfig is the configuration for routes
type RouteConfig struct {
	Controllers *Controllers
	APIRoutes   []Route
	// Limiter rate limits the routes asking for it. Nil disables rate limiting.
	Limiter *mw.RateLimiter
}

// NewAPIRoutes returns the routes of the device API
func NewAPIRoutes(c *Controllers) []Route {
	return []Route{
		{"GET", "/health", c.Health.Index, false},

		{"GET", "/trackers", c.Trackers.Index, true},
		{"POST", "/trackers", c.Trackers.Create, true},
		{"PATCH", "/trackers/{id}", c.Trackers.Update, true},
		{"DELETE", "/trackers/{id}", c.Trackers.Delete, true},

		{"GET", "/collections", c.Collections.Index, true},
		{"POST", "/collections", c.Collections.Create, true},
		{"PATCH", "/collections/{id}", c.Collections.Update, true},
		{"DELETE", "/collections/{id}", c.Collections.Delete, true},

		{"GET", "/logs", c.Logs.Index, true},
		{"POST", "/logs", c.Logs.Create, true},
		{"DELETE", "/logs/{id}", c.Logs.Delete, true},
	}
}

func registerRoutes(router *mux.Router, limiter *mw.RateLimiter, routes []Route) {
	for _, route := range routes {
		var h http.Handler = route.Handler
		if route.RateLimit && limiter != nil {
			h = limiter.Limit(h)
		}

		router.
			Handle(route.Pattern, h).
			Methods(route.Method)
	}
}

func notFound(w http.ResponseWriter, r *http.Request) {
	mw.RespondError(w, http.StatusNotFound, "not found")
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	mw.RespondError(w, http.StatusMethodNotAllowed, "method not allowed")
}

// NewRouter creates and returns a new router
func NewRouter(app *app.App, rc RouteConfig) (http.Handler, error) {
	if err := app.Validate(); err != nil {
		return nil, errors.Wrap(err, "validating the app parameters")
	}

	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(notFound)
	router.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	apiRouter := router.PathPrefix(devicePrefix).Subrouter()
	apiRouter.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)
	registerRoutes(apiRouter, rc.Limiter, rc.APIRoutes)

	return mw.Global(router), nil
}
