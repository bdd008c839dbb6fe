package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/goreport/internal/sink"
)

var (
	sendOpts       reportFlags
	remoteFilePath string
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Generate the report and deliver it to the configured sinks",
	Long: `Send generates the report like the report command, then uploads the
HTML file to every configured sink: a Slack channel, an S3 bucket and a
Google Cloud Storage bucket. A failed delivery does not stop the others.

Sinks are enabled by their config sections (slack.token and slack.channel,
s3.bucket, gcs.bucket) or by the GOREPORT_* environment variables.

Example:
  goreport send --config goreport.yaml --remote-file-path reports/daily.html`,
	RunE: runSend,
}

func init() {
	addReportFlags(sendCmd, &sendOpts)
	sendCmd.Flags().StringVar(&remoteFilePath, "remote-file-path", "",
		"Object key or file name used by the sinks (default: report file name)")

	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	sinks, err := sink.FromConfig(s.ctx, s.cfg)
	if err != nil {
		return fmt.Errorf("failed to configure sinks: %w", err)
	}

	run := s.newRun()
	opts := sendOpts.options(cmd, s.cfg.Report)
	opts.ShouldOpenBrowser = false

	s.log.Infow("Starting report delivery", "config", GetConfigFile(), "run_id", run.ID, "sinks", len(sinks))

	_, path, err := generate(s, run, opts)
	if err != nil {
		s.finish(run)
		return fmt.Errorf("report generation failed: %w", err)
	}

	distributor := sink.NewDistributor(s.log, sinks...)
	defer func() {
		if err := distributor.Close(); err != nil {
			s.log.Warnw("Failed to release sink clients", "error", err)
		}
	}()
	ok := distributor.Send(s.ctx, run, path, remoteFilePath)
	s.finish(run)

	names := make([]string, 0, len(sinks))
	for _, sk := range sinks {
		names = append(names, sk.Name())
	}

	printHeader("Report Sent")
	printField("Report", path)
	printRunSummary(run)
	printDeliveries(run, names)
	printField("Status", statusText(ok))

	if !ok {
		return fmt.Errorf("report delivery completed with errors, see the log for failed steps")
	}
	return nil
}
