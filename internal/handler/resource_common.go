package handler

import (
    "github.com/iliyamo/backoffice/internal/repository"
    "github.com/iliyamo/backoffice/internal/service"
)

// ResourceHandler bundles the repositories behind the owned-resource
// endpoints. Every method scopes its storage calls to the caller.
type ResourceHandler struct {
    Businesses   *repository.BusinessRepo
    Categories   *repository.CategoryRepo
    Products     *repository.ProductRepo
    Orders       *repository.OrderRepo
    Transactions *repository.TransactionRepo
    Invoices     *repository.InvoiceRepo
    Renderer     service.Renderer
}

// NewResourceHandler panics if any dependency is nil.
func NewResourceHandler(b *repository.BusinessRepo, cat *repository.CategoryRepo, p *repository.ProductRepo,
    o *repository.OrderRepo, t *repository.TransactionRepo, i *repository.InvoiceRepo, r service.Renderer) *ResourceHandler {
    if b == nil || cat == nil || p == nil || o == nil || t == nil || i == nil || r == nil {
        panic("nil dependency passed to NewResourceHandler")
    }
    return &ResourceHandler{
        Businesses:   b,
        Categories:   cat,
        Products:     p,
        Orders:       o,
        Transactions: t,
        Invoices:     i,
        Renderer:     r,
    }
}
