package sink

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dbsmedya/goreport/internal/config"
	"github.com/dbsmedya/goreport/internal/logger"
	"github.com/dbsmedya/goreport/internal/tracking"
)

// Distributor sends a report through every configured sink.
type Distributor struct {
	sinks  []Sink
	logger *logger.Logger
}

// NewDistributor creates a distributor. Sinks are attempted in order.
func NewDistributor(log *logger.Logger, sinks ...Sink) *Distributor {
	if log == nil {
		log = logger.NewNop()
	}
	return &Distributor{sinks: sinks, logger: log}
}

// Sinks returns the configured sinks.
func (d *Distributor) Sinks() []Sink {
	return d.sinks
}

// Send delivers localPath through each sink. A failing sink is recorded on
// the run and does not stop the remaining sinks. The result is the run's
// overall success after delivery.
func (d *Distributor) Send(ctx context.Context, run *tracking.Run, localPath, remotePath string) bool {
	if len(d.sinks) == 0 {
		d.logger.Debug("No sinks configured, nothing to send")
	}

	for _, s := range d.sinks {
		log := d.logger.WithSink(s.Name())
		err := s.Send(ctx, localPath, remotePath)
		run.Props.Set(tracking.SentToProp(s.Name()), err == nil)
		if err != nil {
			log.Errorw("Failed to send report", "path", localPath, "error", err)
			run.Fail("send_"+s.Name(), err)
			continue
		}
		log.Infow("Report sent", "path", localPath, "remote", objectKey(localPath, remotePath))
	}

	return run.Success.OK()
}

// Close releases the clients held by sinks that implement io.Closer.
func (d *Distributor) Close() error {
	var errs []error
	for _, s := range d.sinks {
		c, ok := s.(io.Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s sink: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// FromConfig builds the sinks enabled in cfg, in the order slack, s3, gcs.
func FromConfig(ctx context.Context, cfg *config.Config) ([]Sink, error) {
	var sinks []Sink
	if cfg.Slack.Enabled() {
		sinks = append(sinks, NewSlackSink(cfg.Slack.Token, cfg.Slack.Channel))
	}
	if cfg.S3.Enabled() {
		s3Sink, err := NewS3Sink(ctx, cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("s3 sink: %w", err)
		}
		sinks = append(sinks, s3Sink)
	}
	if cfg.GCS.Enabled() {
		sinks = append(sinks, NewGCSSink(cfg.GCS.Bucket, cfg.GCS.CredentialsFile))
	}
	return sinks, nil
}
