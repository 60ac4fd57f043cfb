package ripping

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"discripper/internal/logging"
	"discripper/internal/services"
)

// RunAll rips every device concurrently with one worker per ripper. Each
// device runs under its own wall-clock ceiling; a failure or timeout on one
// device never cancels the others. The returned error joins the per-device
// failures.
func RunAll(ctx context.Context, logger *slog.Logger, rippers []*Ripper, pipelineTimeout time.Duration) error {
	if len(rippers) == 0 {
		return services.Wrap(services.ErrConfiguration, "ripping", "run all",
			"no devices to rip", nil)
	}

	logger = logging.NewComponentLogger(logger, "rip-pool")
	errs := make([]error, len(rippers))

	var group errgroup.Group
	group.SetLimit(len(rippers))
	for i, r := range rippers {
		i, r := i, r
		group.Go(func() error {
			runCtx := ctx
			if pipelineTimeout > 0 {
				var cancel context.CancelFunc
				runCtx, cancel = context.WithTimeout(ctx, pipelineTimeout)
				defer cancel()
			}

			if err := r.Rip(runCtx); err != nil {
				if errors.Is(err, context.DeadlineExceeded) {
					err = services.Wrap(services.ErrTimeout, "ripping", "pipeline",
						fmt.Sprintf("%s exceeded %s", r.job.Device, pipelineTimeout), err)
				}
				logger.Error("device rip failed",
					logging.String("device", r.job.Device), logging.Error(err))
				errs[i] = err
				return nil
			}
			logger.Info("device rip complete", logging.String("device", r.job.Device))
			return nil
		})
	}
	_ = group.Wait()

	return errors.Join(errs...)
}
