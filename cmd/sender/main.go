package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/mkravets/meetplanner/internal/logger"
	"github.com/mkravets/meetplanner/internal/rabbit"
	log "github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

var configFile string

func init() {
	flag.StringVar(&configFile, "config", "./configs/sender_config.yaml", "Path to configuration file")
	log.SetFormatter(&log.TextFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.WarnLevel)
}

func main() {
	flag.Parse()

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

	r := rabbit.New(config.Rabbit)
	if err := r.Connect(); err != nil {
		log.Errorf("failed to connect to rabbit: %v", err)
		return
	}
	defer r.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	log.Info("reminder sender is running...")
	err = r.Consume(ctx, func(msg amqp.Delivery) {
		m := rabbit.Message{}
		if err := json.Unmarshal(msg.Body, &m); err != nil {
			log.Errorf("failed to parse reminder: %s", err)
			return
		}
		log.Printf("meeting %q (%s) for owner %s starts at %s", m.Title, m.ID, m.OwnerID, m.StartsAt)
	})
	if err != nil {
		log.Errorf("failed to consume reminders: %v", err)
	}
}
