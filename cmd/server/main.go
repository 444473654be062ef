package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"github.com/tutorhub/tutorhub-back/internal/api"
	"github.com/tutorhub/tutorhub-back/internal/attendance"
	"github.com/tutorhub/tutorhub-back/internal/clock"
	"github.com/tutorhub/tutorhub-back/internal/config"
	"github.com/tutorhub/tutorhub-back/internal/cron"
	"github.com/tutorhub/tutorhub-back/internal/db"
	"github.com/tutorhub/tutorhub-back/internal/enroll"
	"github.com/tutorhub/tutorhub-back/internal/room"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using system env")
	}

	cfg := config.Load()
	clk := clock.Real{}

	store, err := db.Open(cfg.DBUrl)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}

	recorder := attendance.NewRecorder(store, clk, attendance.Policy{
		PresentRatio:     cfg.PresentRatio,
		PartialRatio:     cfg.PartialRatio,
		HeartbeatTimeout: cfg.HeartbeatTimeout,
	})
	if err := recorder.Restore(context.Background()); err != nil {
		log.Fatalf("failed to restore open attendance: %v", err)
	}

	var video room.VideoBackend = room.NoopVideoBackend{}
	if cfg.VideoBackendURL != "" {
		video = room.NewHTTPVideoBackend(cfg.VideoBackendURL)
	}

	a := &api.API{
		Cfg:        cfg,
		Store:      store,
		Recorder:   recorder,
		Resolver:   enroll.NewResolver(store, clk),
		Dispatcher: room.NewDispatcher(video, cfg.PortalURL, clk),
		Clock:      clk,
	}

	r := api.SetupRouter(cfg, a, store)

	// Start cron jobs
	cron.StartJobs(cfg, store, recorder, clk)

	log.Println("Server running on :8000")
	r.Run(":8000")
}
