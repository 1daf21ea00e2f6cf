package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mkravets/meetplanner/internal/logger"
	"github.com/mkravets/meetplanner/internal/rabbit"
	"github.com/mkravets/meetplanner/internal/storage"
	"github.com/mkravets/meetplanner/internal/storagebuilder"
	"github.com/mkravets/meetplanner/internal/util"
	log "github.com/sirupsen/logrus"
)

var configFile string

func newMessage(m storage.Meeting) rabbit.Message {
	return rabbit.Message{
		ID:       m.ID,
		Title:    m.Title,
		OwnerID:  m.OwnerID,
		StartsAt: m.StartsAt(time.Local),
	}
}

func init() {
	flag.StringVar(&configFile, "config", "./configs/scheduler_config.yaml", "Path to configuration file")
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

	stor, err := storagebuilder.New(config.Storage)
	if err != nil {
		log.Errorf("failed to start %v", err)
		return
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*3)
		defer cancel()
		stor.Close(ctx)
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	log.Info("reminder scheduler is running...")
	run(ctx, stor, r, config.Scheduler)
}

func run(ctx context.Context, stor storage.Storage, r *rabbit.Provider, config SchedulerConfig) {
	// Each tick publishes reminders for meetings starting inside the
	// advance window that opened since the previous tick.
	from := time.Now().Add(config.Advance)
	checkTicker := time.NewTicker(config.CheckInterval)
	defer checkTicker.Stop()
	purgeTicker := time.NewTicker(config.PurgeInterval)
	defer purgeTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-checkTicker.C:
			to := time.Now().Add(config.Advance)
			log.Debugf("get meetings: %s - %s", from, to)
			meetings, err := stor.MeetingsStartingBetween(ctx, from, to)
			if err != nil {
				log.Errorf("failed to get meetings: %s", err)
				continue
			}
			for _, m := range meetings {
				log.Debugf("send reminder: %v", m)
				data, err := json.Marshal(newMessage(m))
				if err != nil {
					log.Errorf("failed to marshal reminder: %s", err)
					continue
				}
				if err := r.Publish(data); err != nil {
					log.Errorf("failed to publish reminder: %s", err)
				}
			}
			from = to
		case <-purgeTicker.C:
			cutoff := storage.DateOf(util.TruncateToDay(time.Now()).AddDate(0, 0, -config.RetentionDays))
			removed, err := stor.RemoveMeetingsBefore(ctx, cutoff)
			if err != nil {
				log.Errorf("failed to purge meetings: %s", err)
				continue
			}
			if removed > 0 {
				log.Infof("purged %d meetings before %s", removed, cutoff)
			}
		}
	}
}
