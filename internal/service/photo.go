package service

import (
	"context"
	"time"

	"github.com/ilinovom/photo-stats-bot/internal/repository"
	"github.com/ilinovom/photo-stats-bot/pkg/metrics"
)

// PhotoService records photo events.
type PhotoService struct {
	repo repository.PhotoRepository
}

func NewPhotoService(repo repository.PhotoRepository) *PhotoService {
	return &PhotoService{repo: repo}
}

// Record stores a photo sent by userID in chatID at the given time.
// Callers must not pass bot senders.
func (s *PhotoService) Record(ctx context.Context, chatID, userID int64, at time.Time) error {
	if err := s.repo.RecordPhoto(ctx, chatID, userID, at.Unix()); err != nil {
		return err
	}
	metrics.RecordPhoto()
	return nil
}
