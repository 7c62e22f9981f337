package middleware

import (
	"github.com/labstack/echo/v4"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ShopDomainKey is the context key for the sending shop's domain
	ShopDomainKey ContextKey = "shop_domain"

	// HeaderShopDomain is the commerce platform's shop identification header
	HeaderShopDomain = "X-Shopify-Shop-Domain"
)

// ExtractShopDomain stores the X-Shopify-Shop-Domain header in the request
// context so handlers can validate or log the sending shop.
//
// Usage:
//
//	grp := e.Group("/webhooks")
//	grp.Use(middleware.ExtractShopDomain())
func ExtractShopDomain() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if domain := c.Request().Header.Get(HeaderShopDomain); domain != "" {
				c.Set(string(ShopDomainKey), domain)
			}
			return next(c)
		}
	}
}

// GetShopDomain retrieves the shop domain from the request context
// Returns empty string if not set
func GetShopDomain(c echo.Context) string {
	domain := c.Get(string(ShopDomainKey))
	if domain == nil {
		return ""
	}
	return domain.(string)
}
