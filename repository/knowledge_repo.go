package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// KnowledgeRepo reads raw knowledge documents from a Mongo collection,
// one document per company. It backs the Mongo knowledge source the same
// way knowledge.json files back the file source.
type KnowledgeRepo interface {
	GetByCompany(ctx context.Context, company string) ([]byte, error)
	UpsertDocument(ctx context.Context, company string, document []byte) error
}

type knowledgeRepo struct {
	collection *mongo.Collection
}

func NewKnowledgeRepo(collection *mongo.Collection) KnowledgeRepo {
	return &knowledgeRepo{
		collection: collection,
	}
}

type knowledgeRecord struct {
	Company  string `bson:"company"`
	Document string `bson:"document"`
}

// GetByCompany returns the raw JSON knowledge document for the company.
func (r *knowledgeRepo) GetByCompany(ctx context.Context, company string) ([]byte, error) {
	var record knowledgeRecord
	err := r.collection.FindOne(ctx, bson.M{"company": strings.ToLower(company)}).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("no knowledge document for %q", company)
		}
		return nil, err
	}
	return []byte(record.Document), nil
}

// UpsertDocument stores a company's knowledge document, validating it is
// JSON before writing.
func (r *knowledgeRepo) UpsertDocument(ctx context.Context, company string, document []byte) error {
	if !json.Valid(document) {
		return fmt.Errorf("document for %q is not valid JSON", company)
	}
	_, err := r.collection.ReplaceOne(ctx,
		bson.M{"company": strings.ToLower(company)},
		knowledgeRecord{Company: strings.ToLower(company), Document: string(document)},
		options.Replace().SetUpsert(true),
	)
	return err
}
