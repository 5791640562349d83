package model

// RouteContextKey is the echo.Context key under which the gateway handler
// stores the matched route prefix for request logging.
const RouteContextKey = "gateway.route"
