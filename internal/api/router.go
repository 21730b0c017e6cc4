package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/storefront/logistics/internal/api/handler"
	"github.com/storefront/logistics/internal/api/middleware"
	"github.com/storefront/logistics/internal/core/domain"
	"github.com/storefront/logistics/internal/core/ports"
)

// Dependencies are the services and clients the HTTP layer is built from.
type Dependencies struct {
	Shipments     ports.ShipmentService
	CarrierOrders ports.CarrierOrderService
	Waybills      ports.WaybillService
	Warehouses    ports.WarehouseService
	Auth          ports.AuthService
	Events        handler.EventDispatcher
	Carrier       interface{ Configured() bool }

	Mongo *mongo.Database
	Redis *redis.Client

	JWTSecret string
	MinStock  int
	Log       zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddleware("logistics"))

	// --- Operational endpoints (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Mongo, deps.Redis, deps.Carrier)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthDepsHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)

	v1 := e.Group("/v1", middleware.Auth(deps.JWTSecret))
	operators := middleware.RBAC(domain.RoleAdmin, domain.RoleVendor)
	adminOnly := middleware.RBAC(domain.RoleAdmin)

	v1.GET("/me", authHandler.Me, operators)

	// --- Shipments ---
	shipments := handler.NewShipmentHandler(deps.Shipments)
	sg := v1.Group("/shipments", operators)
	sg.POST("", shipments.Create)
	sg.GET("", shipments.List)
	sg.GET("/:id", shipments.Get)
	sg.GET("/waybill/:waybill", shipments.GetByWaybill)
	sg.PATCH("/waybill/:waybill", shipments.Update)
	sg.GET("/waybill/:waybill/track", shipments.Track)
	sg.POST("/waybill/:waybill/cancel", shipments.Cancel)
	sg.PUT("/waybill/:waybill/status", shipments.UpdateStatus, adminOnly)
	sg.GET("/waybill/:waybill/label", shipments.Label)
	sg.PUT("/waybill/:waybill/ewaybill", shipments.Ewaybill)

	v1.GET("/orders/:id/shipment-details", shipments.OrderDetails, operators)
	v1.POST("/pickups", shipments.SchedulePickup, operators)
	v1.GET("/serviceability/:pincode", shipments.Serviceability, operators)

	// --- Warehouses ---
	warehouses := handler.NewWarehouseHandler(deps.Warehouses)
	wg := v1.Group("/warehouses", operators)
	wg.GET("", warehouses.List)
	wg.GET("/:name", warehouses.Get)
	wg.POST("", warehouses.Register, adminOnly)
	wg.PATCH("/:name", warehouses.Update, adminOnly)

	// --- Waybill pool (admin) ---
	waybills := handler.NewWaybillHandler(deps.Waybills, deps.MinStock)
	wbg := v1.Group("/waybills", adminOnly)
	wbg.POST("/generate", waybills.Generate)
	wbg.GET("/stats", waybills.Stats)
	wbg.GET("/available", waybills.Available)
	wbg.POST("/reserve", waybills.Reserve)
	wbg.POST("/ensure-stock", waybills.EnsureStock)
	wbg.POST("/:waybill/cancel", waybills.Cancel)

	// --- Carrier order views ---
	carrierOrders := handler.NewCarrierOrderHandler(deps.CarrierOrders)
	cg := v1.Group("/carrier/orders", operators)
	cg.GET("", carrierOrders.List)
	cg.GET("/search", carrierOrders.Search)
	cg.GET("/analytics", carrierOrders.Analytics)

	// --- Scan ingestion (admin tokens are issued to the carrier webhook relay) ---
	events := handler.NewEventHandler(deps.Events)
	eg := v1.Group("/events", adminOnly)
	eg.POST("", events.Receive)
	eg.POST("/batch", events.ReceiveBatch)

	return e
}

// requestLogger writes one structured line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
