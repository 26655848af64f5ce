package service

import (
	"context"

	"github.com/chali-ug/chali-be/repository"
)

// MongoSource reads knowledge documents from the knowledge collection
// instead of the filesystem.
type MongoSource struct {
	repo repository.KnowledgeRepo
}

func NewMongoSource(repo repository.KnowledgeRepo) *MongoSource {
	return &MongoSource{repo: repo}
}

func (s *MongoSource) Fetch(ctx context.Context, company string) ([]byte, error) {
	return s.repo.GetByCompany(ctx, company)
}
