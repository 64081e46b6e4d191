package notify

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogSubscriber writes events to the application log
type LogSubscriber struct {
	log *logrus.Logger
}

// NewLogSubscriber creates a subscriber logging through log
func NewLogSubscriber(log *logrus.Logger) *LogSubscriber {
	return &LogSubscriber{log: log}
}

// Handle logs e at a level matching its severity
func (s *LogSubscriber) Handle(ctx context.Context, e Event) error {
	entry := s.log.WithFields(logrus.Fields{
		"component":   "notify",
		"kind":        e.Kind,
		"analysis_id": e.AnalysisID,
		"title":       e.Title,
	})
	switch e.Level {
	case LevelError:
		entry.Error(e.Message)
	case LevelWarning:
		entry.Warn(e.Message)
	default:
		entry.Info(e.Message)
	}
	return nil
}
