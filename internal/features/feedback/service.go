package feedback

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type FeedbackService interface {
	SubmitFeedback(ctx context.Context, f *Feedback) error
	GetFeedback(ctx context.Context, tenantID primitive.ObjectID, id string) (*Feedback, error)
	ListFeedback(ctx context.Context, tenantID primitive.ObjectID, status FeedbackStatus, limit, offset int64) ([]Feedback, int64, error)
	UpdateStatus(ctx context.Context, tenantID primitive.ObjectID, id string, status FeedbackStatus) error
}

type FeedbackServiceImpl struct {
	Repo FeedbackRepository
}

func NewFeedbackService(repo FeedbackRepository) FeedbackService {
	return &FeedbackServiceImpl{
		Repo: repo,
	}
}

func (s *FeedbackServiceImpl) SubmitFeedback(ctx context.Context, f *Feedback) error {
	if strings.TrimSpace(f.Name) == "" || strings.TrimSpace(f.Message) == "" {
		return fmt.Errorf("name and message are required")
	}
	if strings.TrimSpace(f.Email) == "" && strings.TrimSpace(f.Phone) == "" {
		return fmt.Errorf("an email or phone number is required")
	}
	return s.Repo.Create(ctx, f)
}

func (s *FeedbackServiceImpl) GetFeedback(ctx context.Context, tenantID primitive.ObjectID, id string) (*Feedback, error) {
	return s.Repo.Get(ctx, tenantID, id)
}

func (s *FeedbackServiceImpl) ListFeedback(ctx context.Context, tenantID primitive.ObjectID, status FeedbackStatus, limit, offset int64) ([]Feedback, int64, error) {
	return s.Repo.List(ctx, tenantID, status, limit, offset)
}

func (s *FeedbackServiceImpl) UpdateStatus(ctx context.Context, tenantID primitive.ObjectID, id string, status FeedbackStatus) error {
	switch status {
	case FeedbackStatusNew, FeedbackStatusContacted, FeedbackStatusArchived:
	default:
		return fmt.Errorf("invalid feedback status: %s", status)
	}
	return s.Repo.UpdateStatus(ctx, tenantID, id, status)
}
