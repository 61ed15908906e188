package server

import (
	"time"

	"github.com/labstack/echo/v4"
)

func (s *Server) SetupRoutes(authMiddleware echo.MiddlewareFunc, adminMiddleware echo.MiddlewareFunc) {
	e := s.Echo
	api := e.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/login", s.AuthHandler.Login, s.rateLimit(10, time.Minute))
	}

	// Storefront routes, no auth required.
	api.GET("/categories", s.CategoryHandler.GetCategories)
	api.GET("/categories/:id", s.CategoryHandler.GetCategoryByID)
	api.GET("/products", s.ProductHandler.GetProducts)
	api.GET("/products/:id", s.ProductHandler.GetProductByID)
	api.GET("/news", s.NewsHandler.GetNews)
	api.GET("/news/:id", s.NewsHandler.GetNewsByID)
	api.GET("/settings", s.SettingsHandler.GetSettings)
	api.GET("/settings/:key", s.SettingsHandler.GetSetting)
	api.POST("/contacts", s.ContactHandler.CreateRequest, s.rateLimit(5, time.Minute))

	// Cart and checkout are keyed by the visitor's session token, not a login.
	cart := api.Group("/cart")
	{
		cart.GET("/:sessionId", s.CartHandler.GetCart)
		cart.POST("/:sessionId", s.CartHandler.AddItem)
		cart.PUT("/:sessionId/items/:id", s.CartHandler.UpdateQuantity)
		cart.DELETE("/:sessionId/items/:id", s.CartHandler.RemoveItem)
		cart.DELETE("/:sessionId", s.CartHandler.ClearCart)
	}
	api.POST("/orders/:sessionId", s.OrderHandler.Checkout, s.rateLimit(5, time.Minute))

	// Realtime chat upgrade. Visitors connect anonymously; the admin panel
	// passes its JWT via ?token= and is recognized inside the handler.
	e.GET("/ws/chat", s.ChatWebSocketHandler.HandleWebSocket)

	admin := api.Group("/admin")
	admin.Use(authMiddleware, adminMiddleware)
	{
		admin.GET("/me", s.AuthHandler.GetCurrentUser)

		admin.POST("/categories", s.CategoryHandler.CreateCategory)
		admin.PUT("/categories/:id", s.CategoryHandler.UpdateCategory)
		admin.DELETE("/categories/:id", s.CategoryHandler.DeleteCategory)

		admin.GET("/products", s.ProductHandler.GetAllProducts)
		admin.POST("/products", s.ProductHandler.CreateProduct)
		admin.PUT("/products/:id", s.ProductHandler.UpdateProduct)
		admin.DELETE("/products/:id", s.ProductHandler.DeleteProduct)

		admin.POST("/news", s.NewsHandler.CreateNews)
		admin.PUT("/news/:id", s.NewsHandler.UpdateNews)
		admin.DELETE("/news/:id", s.NewsHandler.DeleteNews)

		admin.GET("/contacts", s.ContactHandler.GetRequests)
		admin.PUT("/settings/:key", s.SettingsHandler.UpdateSetting)

		admin.GET("/orders", s.OrderHandler.GetOrders)
		admin.GET("/orders/:id", s.OrderHandler.GetOrderByID)
		admin.PUT("/orders/:id/status", s.OrderHandler.UpdateOrderStatus)

		chat := admin.Group("/chat", s.rateLimit(120, time.Minute))
		{
			chat.GET("/sessions", s.ChatHandler.GetAllSessions)
			chat.GET("/sessions/:sessionId/messages", s.ChatHandler.GetSessionMessages)
			chat.PUT("/sessions/:sessionId/read", s.ChatHandler.MarkSessionRead)
		}
	}
}
