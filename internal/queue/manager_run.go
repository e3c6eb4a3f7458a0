package queue

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"slidereel/internal/history"
	"slidereel/internal/logging"
	"slidereel/internal/notifications"
	"slidereel/internal/pipeline"
	"slidereel/internal/services"
)

func (m *Manager) work(ctx context.Context) {
	defer m.wg.Done()
	for {
		sub := m.next()
		if sub == nil {
			select {
			case <-ctx.Done():
				return
			case <-m.wake:
				continue
			}
		}
		m.process(ctx, sub)
		if ctx.Err() != nil {
			return
		}
	}
}

// next moves the head of the FIFO to current.
func (m *Manager) next() *Submission {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.pending) == 0 {
		return nil
	}
	sub := m.pending[0]
	m.pending[0] = nil
	m.pending = m.pending[1:]
	m.current = sub
	m.live = statusStarting
	return sub
}

func (m *Manager) setLive(status string) {
	m.mu.Lock()
	m.live = status
	m.mu.Unlock()
}

func (m *Manager) process(ctx context.Context, sub *Submission) {
	ctx = services.WithJobID(ctx, sub.ID)
	logger := logging.WithContext(ctx, m.logger)
	started := m.now()
	logger.Info("job started", logging.String("name", sub.Name))

	result, err := m.runner.Run(ctx, sub.job(), func(u pipeline.Update) {
		m.setLive(u.Status())
	})
	elapsed := m.now().Sub(started)

	if err != nil {
		m.finishFailed(ctx, logger, sub, err, elapsed)
	} else {
		m.finishCompleted(ctx, logger, sub, result, elapsed)
	}

	m.mu.Lock()
	m.current = nil
	m.live = ""
	sub.Archive = nil
	m.mu.Unlock()
}

func (m *Manager) finishCompleted(ctx context.Context, logger *slog.Logger, sub *Submission, result pipeline.Result, elapsed time.Duration) {
	if result.Elapsed > 0 {
		elapsed = result.Elapsed
	}
	record := history.Record{
		VideoGeneration: sub.historySubmission(),
		Images:          result.ImageNames,
		Audios:          result.AudioNames,
		FullVideoPath:   result.FullKey,
		ShortVideoPath:  result.ShortKey,
		TotalTime:       elapsed.Seconds(),
		Uploaded:        result.Uploaded,
		UploadError:     result.UploadError,
		Resolution:      result.Resolution.String(),
	}
	if m.history != nil {
		if err := m.history.Append(ctx, record); err != nil {
			logging.ErrorWithContext(logger, "history append failed", "history_append_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check history.path permissions and free disk space"),
				logging.String(logging.FieldImpact, "status queries will report Not found for this job"),
			)
		}
	}
	recordCompleted(ctx, elapsed, result.Resolution.String())

	logger.Info("job completed",
		logging.Duration("elapsed", elapsed),
		logging.Int("images", len(result.ImageNames)),
		logging.Bool("uploaded", result.Uploaded),
	)

	if sub.SuppressNotify {
		return
	}
	err := m.notifier.NotifyCompleted(ctx, notifications.Completion{
		ID:          sub.ID,
		Name:        sub.Name,
		To:          sub.NotifyTo,
		FullURL:     m.publicURL(result.FullKey),
		ShortURL:    m.publicURL(result.ShortKey),
		FullKey:     result.FullKey,
		ShortKey:    result.ShortKey,
		Uploaded:    result.Uploaded,
		UploadError: result.UploadError,
		Images:      len(result.ImageNames),
		Audios:      len(result.AudioNames),
		RequestedAt: sub.CreatedAt,
		Elapsed:     elapsed,
	})
	m.logNotifyError(logger, err)
}

func (m *Manager) finishFailed(ctx context.Context, logger *slog.Logger, sub *Submission, err error, elapsed time.Duration) {
	message := err.Error()
	m.setLive(errorPrefix + message)
	m.failures.Set(sub.ID, failure{
		entry:   Entry{ID: sub.ID, CreatedAt: sub.CreatedAt, Name: sub.Name},
		message: message,
	}, ttlcache.DefaultTTL)
	recordFailed(ctx, services.FailureKind(err))

	if errors.Is(err, context.Canceled) {
		logger.Warn("job aborted by shutdown",
			logging.Duration("elapsed", elapsed),
			logging.String(logging.FieldEventType, "job_aborted"),
			logging.String(logging.FieldErrorHint, "resubmit the archive after restart"),
			logging.String(logging.FieldImpact, "no videos were produced"),
		)
		return
	}
	logging.ErrorWithContext(logger, "job failed", "job_failed",
		logging.Error(err),
		logging.String("failure_kind", services.FailureKind(err)),
		logging.Duration("elapsed", elapsed),
		logging.String(logging.FieldErrorHint, failureHint(err)),
		logging.String(logging.FieldImpact, "no videos were produced for this submission"),
	)

	if sub.SuppressNotify {
		return
	}
	notifyErr := m.notifier.NotifyFailed(ctx, notifications.Failure{
		ID:   sub.ID,
		Name: sub.Name,
		To:   sub.NotifyTo,
		Err:  err,
	})
	m.logNotifyError(logger, notifyErr)
}

func (m *Manager) logNotifyError(logger *slog.Logger, err error) {
	if err == nil {
		return
	}
	logging.WarnWithContext(logger, "notification failed", "notification_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check notifications.postmark_token and the recipient address"),
		logging.String(logging.FieldImpact, "submitter was not emailed"),
	)
}

func (m *Manager) publicURL(key string) string {
	if m.cfg == nil {
		return ""
	}
	return m.cfg.PublicURL(key)
}

func failureHint(err error) string {
	switch {
	case errors.Is(err, services.ErrValidation):
		return "check the archive contains numbered image/audio pairs"
	case errors.Is(err, services.ErrConfiguration):
		return "check the intro assets and work directories in the config"
	case errors.Is(err, services.ErrRender):
		return "inspect the ffmpeg output in the debug log"
	default:
		return "check logs for details"
	}
}
