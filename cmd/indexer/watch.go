package main

import (
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// runWatch keeps discovery, state refresh, snapshot capture and
// retention cleanup running on their own cadences until interrupted.
func runWatch(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()

	a, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.close()

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return err
	}

	discover := func() {
		result, err := a.runner.Discover(ctx, 0)
		if err != nil {
			a.logger.Warn("scheduled discover failed", zap.Error(err))
			return
		}
		if result.PoolsAdded > 0 || len(result.FailedRanges) > 0 {
			a.logger.Info("scheduled discover done",
				zap.Int("pools_added", result.PoolsAdded),
				zap.Int("failed_ranges", len(result.FailedRanges)))
		}
	}

	capture := func() {
		if _, err := a.runner.RefreshAll(ctx); err != nil {
			a.logger.Warn("scheduled refresh failed", zap.Error(err))
			return
		}
		if _, err := a.capturer.CaptureAll(ctx, time.Now().Unix()); err != nil {
			a.logger.Warn("scheduled capture failed", zap.Error(err))
		}
	}

	clean := func() {
		cutoff := time.Now().Add(-a.cfg.Retention).Unix()
		if _, err := a.capturer.CleanOlderThan(ctx, cutoff); err != nil {
			a.logger.Warn("scheduled clean failed", zap.Error(err))
		}
	}

	jobs := []struct {
		name     string
		interval time.Duration
		task     func()
	}{
		{"discover-pools", a.cfg.DiscoverInterval, discover},
		{"capture-snapshots", a.cfg.SnapshotInterval, capture},
		{"clean-snapshots", 1 * time.Hour, clean},
	}
	for _, job := range jobs {
		if _, err := scheduler.NewJob(
			gocron.DurationJob(job.interval),
			gocron.NewTask(job.task),
			gocron.WithName(job.name),
		); err != nil {
			return err
		}
	}

	a.logger.Info("watch start",
		zap.Duration("discover_interval", a.cfg.DiscoverInterval),
		zap.Duration("snapshot_interval", a.cfg.SnapshotInterval),
		zap.Duration("retention", a.cfg.Retention))

	scheduler.Start()

	// Prime the registry before the first scheduled tick.
	go discover()

	<-ctx.Done()
	a.logger.Info("watch stopping")
	return scheduler.Shutdown()
}
