package internal

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"engage-track/internal/pkg/handler"
	"engage-track/internal/pkg/service"
	"engage-track/tools"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	serverAddrEnvName    = "ENGAGE_TRACK__SERVER_ADDRESS"
	sessionSecretEnvName = "ENGAGE_TRACK__SESSION_SECRET"

	defaultSessionSecret = "engage-track-dev-secret"
)

func RunServer(srvs *service.Service) {

	tools.CheckEnvs(serverAddrEnvName)
	serverAddr := os.Getenv(serverAddrEnvName)

	secret := tools.GetEnvDefault(sessionSecretEnvName, defaultSessionSecret)
	if secret == defaultSessionSecret {
		log.Warn().Msg("using the development session secret")
	}

	handler := handler.NewHandler(srvs)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	router := gin.New()

	setupRoutes(router, handler, secret)

	server := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}
	go func() {
		log.Info().Str("addr", serverAddr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("gin error")
		}
	}()

	<-ctx.Done()

	stop()
	log.Info().Msg("shutting down gracefully, press Ctrl+C again to force")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	if err := srvs.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to release resources")
	}

	log.Info().Msg("server exiting")
}
