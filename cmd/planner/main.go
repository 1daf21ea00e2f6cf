package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/mkravets/meetplanner/internal/app"
	"github.com/mkravets/meetplanner/internal/logger"
	internalbot "github.com/mkravets/meetplanner/internal/server/bot"
	internalhttp "github.com/mkravets/meetplanner/internal/server/http"
	"github.com/mkravets/meetplanner/internal/storage"
	"github.com/mkravets/meetplanner/internal/storagebuilder"
	log "github.com/sirupsen/logrus"
)

var configFile string

func init() {
	flag.StringVar(&configFile, "config", "./configs/config.yaml", "Path to configuration file")
	log.SetFormatter(&log.TextFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.WarnLevel)
}

func main() {
	flag.Parse()

	if flag.Arg(0) == "version" {
		printVersion()
		return
	}

	config, err := NewConfig(configFile)
	if err != nil {
		log.Errorf("failed to start %v", err)
		return
	}
	err = logger.PrepareLogger(config.Logger)
	if err != nil {
		log.Errorf("failed to start %v", err)
		return
	}
	stor, err := storagebuilder.New(config.Storage)
	if err != nil {
		log.Errorf("failed to start %v", err)
		return
	}

	planner := app.New(stor)
	server := internalhttp.NewServer(config.HTTPServer, planner)

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	go func() {
		<-ctx.Done()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second*3)
		defer cancel()

		if err := server.Stop(ctx); err != nil {
			log.Error("failed to stop http server: " + err.Error())
		}
	}()

	var wg sync.WaitGroup
	if config.Bot.Token != "" {
		bot, err := internalbot.NewServer(config.Bot, planner)
		if err != nil {
			log.Errorf("failed to start bot: %v", err)
			cancel()
			closeStorage(stor)
			os.Exit(1) //nolint:gocritic
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := bot.Start(ctx); err != nil {
				log.Error("failed to start bot: " + err.Error())
				cancel()
			}
		}()
	}

	log.Info("meeting planner is running...")

	if err := server.Start(ctx); err != nil {
		log.Error("failed to start http server: " + err.Error())
		cancel()
		wg.Wait()
		closeStorage(stor)
		os.Exit(1)
	}
	wg.Wait()
	closeStorage(stor)
}

func closeStorage(stor storage.Storage) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*3)
	defer cancel()
	if err := stor.Close(ctx); err != nil {
		log.Errorf("failed to close storage: %v", err)
	}
}
