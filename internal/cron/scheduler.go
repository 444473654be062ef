package cron

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"

	"github.com/tutorhub/tutorhub-back/internal/attendance"
	"github.com/tutorhub/tutorhub-back/internal/clock"
	"github.com/tutorhub/tutorhub-back/internal/config"
	"github.com/tutorhub/tutorhub-back/internal/db"
	"github.com/tutorhub/tutorhub-back/internal/excel"
)

// StartJobs wires the background batch work. Nothing here drives lifecycle
// state: liveness is derived lazily at read time. The sweep only batches the
// same stale-heartbeat close a read would apply.
func StartJobs(cfg *config.Config, store *db.Store, recorder *attendance.Recorder, clk clock.Clock) *cron.Cron {
	c := cron.New()

	c.AddFunc("@every 1m", func() {
		closed, err := recorder.SweepStale(context.Background(), clk.Now())
		if err != nil {
			log.Println("attendance sweep:", err)
			return
		}
		if closed > 0 {
			log.Printf("attendance sweep closed %d stale intervals", closed)
		}
	})

	if cfg.TimetablePath != "" {
		c.AddFunc("@daily", func() {
			log.Println("running timetable import job...")

			anchor := clk.Now()
			until := anchor.AddDate(0, 0, 7*excel.DefaultTermWeeks)
			count, err := excel.Import(context.Background(), store, cfg.TimetablePath, anchor, until)
			if err != nil {
				log.Println("timetable import failed:", err)
				return
			}
			log.Printf("imported %d sessions", count)
		})
	}

	c.Start()
	return c
}
