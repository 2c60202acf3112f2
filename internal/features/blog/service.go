package blog

import (
	"context"
	"fmt"
	"strings"
	"time"

	common_models "estia-crm/internal/common/models"
	"estia-crm/internal/features/audit"
	"estia-crm/pkg/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BlogService interface {
	CreatePost(ctx context.Context, post *Post) error
	GetPost(ctx context.Context, tenantID primitive.ObjectID, id string) (*Post, error)
	ListPosts(ctx context.Context, tenantID primitive.ObjectID, publishedOnly bool, limit, offset int64) ([]Post, int64, error)
	UpdatePost(ctx context.Context, tenantID primitive.ObjectID, id string, updates map[string]interface{}) error
	DeletePost(ctx context.Context, tenantID primitive.ObjectID, id string) error
	SetPublished(ctx context.Context, tenantID primitive.ObjectID, id string, published bool) error
}

type BlogServiceImpl struct {
	Repo         PostRepository
	AuditService audit.AuditService
}

func NewBlogService(repo PostRepository, auditService audit.AuditService) BlogService {
	return &BlogServiceImpl{
		Repo:         repo,
		AuditService: auditService,
	}
}

func (s *BlogServiceImpl) CreatePost(ctx context.Context, post *Post) error {
	if strings.TrimSpace(post.Title) == "" {
		return fmt.Errorf("post title is required")
	}
	if post.Slug == "" {
		post.Slug = utils.UniqueSlug(post.Title)
	}
	if post.IsPublished && post.PublishedAt == nil {
		now := time.Now()
		post.PublishedAt = &now
	}

	err := s.Repo.Create(ctx, post)
	if err == nil {
		_ = s.AuditService.LogChange(ctx, common_models.AuditActionCreate, "blog_posts", post.ID.Hex(), map[string]common_models.Change{
			"post": {New: post},
		})
	}
	return err
}

func (s *BlogServiceImpl) GetPost(ctx context.Context, tenantID primitive.ObjectID, id string) (*Post, error) {
	return s.Repo.Get(ctx, tenantID, id)
}

func (s *BlogServiceImpl) ListPosts(ctx context.Context, tenantID primitive.ObjectID, publishedOnly bool, limit, offset int64) ([]Post, int64, error) {
	return s.Repo.List(ctx, tenantID, publishedOnly, limit, offset)
}

func (s *BlogServiceImpl) UpdatePost(ctx context.Context, tenantID primitive.ObjectID, id string, updates map[string]interface{}) error {
	old, _ := s.Repo.Get(ctx, tenantID, id)

	err := s.Repo.Update(ctx, tenantID, id, updates)
	if err == nil {
		_ = s.AuditService.LogChange(ctx, common_models.AuditActionUpdate, "blog_posts", id, map[string]common_models.Change{
			"post": {Old: old, New: updates},
		})
	}
	return err
}

func (s *BlogServiceImpl) DeletePost(ctx context.Context, tenantID primitive.ObjectID, id string) error {
	old, _ := s.Repo.Get(ctx, tenantID, id)

	err := s.Repo.Delete(ctx, tenantID, id)
	if err == nil {
		name := id
		if old != nil {
			name = old.Title
		}
		_ = s.AuditService.LogChange(ctx, common_models.AuditActionDelete, "blog_posts", name, map[string]common_models.Change{
			"post": {Old: old, New: "DELETED"},
		})
	}
	return err
}

func (s *BlogServiceImpl) SetPublished(ctx context.Context, tenantID primitive.ObjectID, id string, published bool) error {
	updates := map[string]interface{}{
		"is_published": published,
	}
	if published {
		updates["published_at"] = time.Now()
	}
	return s.UpdatePost(ctx, tenantID, id, updates)
}
