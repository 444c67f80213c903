package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/retechci/retechci-backend/pkg/logger"
)

const defaultMessageRetentionDays = 180

type messagePurger interface {
	PurgeRead(ctx context.Context, olderThan time.Duration) (int64, error)
}

type MessageRetentionJobParams struct {
	Logger        *logger.Logger
	Messages      messagePurger
	RetentionDays int
}

// NewMessageRetentionJob deletes read contact messages past the retention window.
func NewMessageRetentionJob(params MessageRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Messages == nil {
		return nil, fmt.Errorf("messages service required")
	}
	days := params.RetentionDays
	if days <= 0 {
		days = defaultMessageRetentionDays
	}
	return &messageRetentionJob{logg: params.Logger, messages: params.Messages, days: days}, nil
}

type messageRetentionJob struct {
	logg     *logger.Logger
	messages messagePurger
	days     int
}

func (j *messageRetentionJob) Name() string { return "message-retention" }

func (j *messageRetentionJob) Run(ctx context.Context) error {
	deleted, err := j.messages.PurgeRead(ctx, time.Duration(j.days)*24*time.Hour)
	if err != nil {
		return fmt.Errorf("message retention: %w", err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"retention_days": j.days,
		"rows_deleted":   deleted,
	}), "message retention complete")
	return nil
}
