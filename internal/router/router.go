package router // router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/backoffice/internal/handler"
    "github.com/iliyamo/backoffice/internal/middleware"
)

// RegisterRoutes registers the unauthenticated probes.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
    e.GET("/healthz", handler.Health)
    e.GET("/readyz", handler.Ready(db))
}

// RegisterAuth registers the identity endpoints under /v1/auth. Everything
// in the group passes the rate limiter; /me and /password-change also
// require a bearer token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
    g := e.Group("/v1/auth", limiter)
    g.POST("/register", a.Register)
    g.POST("/login", a.Login)
    g.POST("/refresh", a.Refresh)
    g.POST("/password-reset", a.RequestPasswordReset)
    g.POST("/password-reset/confirm", a.ConfirmPasswordReset)

    authed := g.Group("", middleware.JWTAuth(jwtSecret))
    authed.GET("/me", a.Me)
    authed.POST("/password-change", a.ChangePassword)
}

// RegisterPublic registers the public contact form.
func RegisterPublic(e *echo.Echo, h *handler.ContactHandler, limiter echo.MiddlewareFunc) {
    e.POST("/v1/contact", h.Send, limiter)
}

// RegisterResources registers the owned-resource endpoints under /v1; all
// require a bearer token.
func RegisterResources(e *echo.Echo, h *handler.ResourceHandler, jwtSecret string) {
    g := e.Group("/v1", middleware.JWTAuth(jwtSecret))

    // ---- Businesses ----
    g.GET("/businesses", h.ListBusinesses)
    g.POST("/businesses", h.CreateBusiness)
    g.GET("/businesses/:id", h.GetBusiness)
    g.PUT("/businesses/:id", h.UpdateBusiness)
    g.PATCH("/businesses/:id", h.UpdateBusiness)
    g.DELETE("/businesses/:id", h.DeleteBusiness)
    g.GET("/businesses/:id/contact", h.GetContact)
    g.PUT("/businesses/:id/contact", h.PutContact)
    g.PATCH("/businesses/:id/contact", h.PutContact)

    // ---- Categories ----
    g.GET("/categories", h.ListCategories)
    g.POST("/categories", h.CreateCategory)
    g.GET("/categories/:id", h.GetCategory)
    g.PUT("/categories/:id", h.UpdateCategory)
    g.PATCH("/categories/:id", h.UpdateCategory)
    g.DELETE("/categories/:id", h.DeleteCategory)

    // ---- Products ----
    g.GET("/products", h.ListProducts)
    g.POST("/products", h.CreateProduct)
    g.GET("/products/:id", h.GetProduct)
    g.PUT("/products/:id", h.UpdateProduct)
    g.PATCH("/products/:id", h.UpdateProduct)
    g.DELETE("/products/:id", h.DeleteProduct)

    // ---- Orders ----
    g.GET("/orders", h.ListOrders)
    g.POST("/orders", h.CreateOrder)
    g.GET("/orders/:id", h.GetOrder)
    g.PUT("/orders/:id", h.UpdateOrder)
    g.PATCH("/orders/:id", h.UpdateOrder)
    g.DELETE("/orders/:id", h.DeleteOrder)

    // ---- Transactions ----
    g.GET("/transactions", h.ListTransactions)
    g.POST("/transactions", h.CreateTransaction)
    g.GET("/transactions/:id", h.GetTransaction)
    g.PUT("/transactions/:id", h.UpdateTransaction)
    g.PATCH("/transactions/:id", h.UpdateTransaction)
    g.DELETE("/transactions/:id", h.DeleteTransaction)

    // ---- Invoices ----
    g.GET("/invoices", h.ListInvoices)
    g.POST("/invoices", h.CreateInvoice)
    g.GET("/invoices/:id", h.GetInvoice)
    g.PUT("/invoices/:id", h.UpdateInvoice)
    g.PATCH("/invoices/:id", h.UpdateInvoice)
    g.DELETE("/invoices/:id", h.DeleteInvoice)
    g.GET("/invoices/:id/pdf", h.InvoicePDF)
}
