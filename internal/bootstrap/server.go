package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Domenick1991/vehiclerental/api"
	"github.com/Domenick1991/vehiclerental/config"
	"github.com/Domenick1991/vehiclerental/docs"
	"github.com/Domenick1991/vehiclerental/internal/service/availability"
	"github.com/Domenick1991/vehiclerental/internal/service/booking"
	"github.com/gin-gonic/gin"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

const (
	openAPIPath = "/docs/openapi.json"
	// livenessMessage is matched verbatim by existing clients, spelling included.
	livenessMessage = "Vehicle Renteal Service System Server is Running"
)

type RouterDeps struct {
	Bookings     booking.BookingUseCase
	Availability availability.AvailabilityUseCase
	// Idempotency is optional; without it POST /bookings is not deduplicated.
	Idempotency api.IdempotencyStore
	JWTSecret   []byte
	Logger      *zap.Logger
}

func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(api.RequestIDMiddleware())
	router.Use(api.RecoveryMiddleware(deps.Logger))
	router.Use(api.LoggerMiddleware(deps.Logger))

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": livenessMessage})
	})
	router.GET(openAPIPath, func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", docs.OpenAPI)
	})
	router.GET("/swagger/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL(openAPIPath))))

	v1 := router.Group("/api/v1", api.AuthMiddleware(deps.JWTSecret))

	var createMiddleware []gin.HandlerFunc
	if deps.Idempotency != nil {
		createMiddleware = append(createMiddleware, api.IdempotencyMiddleware(deps.Idempotency, deps.Logger))
	}
	api.NewBookingHandler(deps.Bookings).Register(v1.Group("/bookings"), createMiddleware...)
	api.NewAvailabilityHandler(deps.Availability).Register(v1.Group("/vehicles"))

	router.NoRoute(api.NotFound)
	return router
}

// Run serves handler on cfg.HTTP.Address and blocks until ctx is canceled or
// the server fails.
func Run(ctx context.Context, cfg *config.Config, handler http.Handler, logger *zap.Logger) error {
	httpSrv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server starting", zap.String("addr", cfg.HTTP.Address))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if !ok {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownTimeoutSeconds)*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}
