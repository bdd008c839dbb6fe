package sink

import (
	"context"
	"fmt"
	"os"
	"path"

	"github.com/slack-go/slack"
)

const reportTitle = "Elementary Monitoring Report"

type slackUploader interface {
	UploadFileV2Context(ctx context.Context, params slack.UploadFileV2Parameters) (*slack.FileSummary, error)
}

// SlackSink uploads the report file to a channel.
type SlackSink struct {
	client  slackUploader
	channel string
}

// NewSlackSink creates a sink posting with the given bot token.
func NewSlackSink(token, channel string) *SlackSink {
	return &SlackSink{client: slack.New(token), channel: channel}
}

func (s *SlackSink) Name() string { return "slack" }

func (s *SlackSink) Send(ctx context.Context, localPath, remotePath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open report: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat report: %w", err)
	}

	_, err = s.client.UploadFileV2Context(ctx, slack.UploadFileV2Parameters{
		Reader:         f,
		FileSize:       int(info.Size()),
		Filename:       path.Base(objectKey(localPath, remotePath)),
		Title:          reportTitle,
		InitialComment: reportTitle,
		Channel:        s.channel,
	})
	if err != nil {
		return fmt.Errorf("upload to slack channel %s: %w", s.channel, err)
	}
	return nil
}
