package workers

import (
	"context"

	"github.com/social-platform/social-platform/internal/services"
	"github.com/social-platform/social-platform/pkg/logger"
	"github.com/social-platform/social-platform/pkg/queue"
)

// ActivityWorker consumes domain events and feeds the activity tracker.
type ActivityWorker struct {
	consumer *queue.KafkaConsumer
	activity *services.ActivityService
	logger   *logger.Logger
	cancel   context.CancelFunc
}

func NewActivityWorker(consumer *queue.KafkaConsumer, activity *services.ActivityService, logger *logger.Logger) *ActivityWorker {
	return &ActivityWorker{
		consumer: consumer,
		activity: activity,
		logger:   logger,
	}
}

func (w *ActivityWorker) Start(ctx context.Context) error {
	ctx, w.cancel = context.WithCancel(ctx)

	w.logger.Info("Activity worker started")

	return w.consumer.Subscribe(ctx, func(msg queue.Message) error {
		if err := w.activity.Record(ctx, msg.Event); err != nil {
			w.logger.WithError(err).WithField("event_type", string(msg.Event.Type)).Error("Failed to record activity")
			return err
		}
		return nil
	})
}

func (w *ActivityWorker) Stop() error {
	if w.cancel != nil {
		w.cancel()
	}
	return w.consumer.Close()
}
