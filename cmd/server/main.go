package main

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"taskhub/internal/api"
	"taskhub/internal/config"
	"taskhub/internal/db"
	"taskhub/pkg/message"
	"taskhub/pkg/notify"
	"taskhub/pkg/pricing"
	"taskhub/pkg/task"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		log.SetLevel(level)
	}

	var (
		tasks    task.Store
		messages message.Store
		notes    notify.Store
	)
	if cfg.Database.URL != "" {
		pool, err := db.Connect(ctx, cfg.Database.URL)
		if err != nil {
			log.Fatalf("connect: %v", err)
		}
		defer pool.Close()
		tasks = task.NewPgStore(pool)
		messages = message.NewPgStore(pool)
		notes = notify.NewPgStore(pool)
	} else {
		log.Warn("no database configured, running with in-memory stores")
		tasks = task.NewMemStore()
		messages = message.NewMemStore()
		notes = notify.NewMemStore()
	}

	if err := tasks.EnsureTable(ctx); err != nil {
		log.Fatalf("ensure tasks table: %v", err)
	}
	if err := messages.EnsureTable(ctx); err != nil {
		log.Fatalf("ensure messages table: %v", err)
	}
	if err := notes.EnsureTable(ctx); err != nil {
		log.Fatalf("ensure notifications table: %v", err)
	}

	bus := task.NewBus(tasks)
	events := bus.Subscribe()
	go notify.Watch(ctx, events, notes, log)

	calc := pricing.NewCalculator(cfg.Pricing.FeeRate)
	server := api.New(bus, messages, notes, calc, log)

	log.WithField("addr", cfg.Server.Addr).Info("taskhub listening")
	if err := http.ListenAndServe(cfg.Server.Addr, server); err != nil {
		log.Fatalf("listen: %v", err)
	}
}
