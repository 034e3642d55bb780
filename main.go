package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/tanpawarit/chative-food-order/app"
	configx "github.com/tanpawarit/chative-food-order/pkg/config"
	_ "github.com/tanpawarit/chative-food-order/pkg/logger/autoload"
)

var version = "dev"

func main() {
	appCfg := configx.MustNew[app.Config]("APP")

	sections, err := app.LoadSections(*appCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("load backend config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, *appCfg, sections, version)
	if err != nil {
		log.Fatal().Err(err).Msg("build app")
	}
	defer a.Close()

	if err := a.Run(ctx); err != nil {
		log.Error().Err(err).Msg("server stopped")
		return
	}
	log.Info().Msg("shutdown complete")
}
