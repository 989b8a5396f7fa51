package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/leadbook/crm-api/internal/core/domain"
)

type AffiliationRepository struct {
	db        *mongo.Database
	coll      *mongo.Collection
	customers *mongo.Collection
}

func NewAffiliationRepository(db *mongo.Database) *AffiliationRepository {
	return &AffiliationRepository{
		db:        db,
		coll:      db.Collection(collectionAffiliations),
		customers: db.Collection(collectionCustomers),
	}
}

type mongoAffiliation struct {
	ID         int64   `bson:"id"`
	Name       string  `bson:"name"`
	Avatar     *string `bson:"avatar"`
	Link       *string `bson:"link"`
	SubmitUser string  `bson:"submit_user"`
}

func (m *mongoAffiliation) toDomain() *domain.CustomerAffiliation {
	return &domain.CustomerAffiliation{
		ID:         m.ID,
		Name:       m.Name,
		Avatar:     m.Avatar,
		Link:       m.Link,
		SubmitUser: m.SubmitUser,
	}
}

func (r *AffiliationRepository) Create(ctx context.Context, a *domain.CustomerAffiliation) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := nextID(ctx, r.db, collectionAffiliations)
	if err != nil {
		return err
	}
	doc := mongoAffiliation{ID: id, Name: a.Name, Avatar: a.Avatar, Link: a.Link, SubmitUser: a.SubmitUser}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrAffiliationExists
		}
		return fmt.Errorf("insert affiliation: %w", err)
	}
	a.ID = id
	return nil
}

func (r *AffiliationRepository) FindByID(ctx context.Context, id int64) (*domain.CustomerAffiliation, error) {
	return r.findOne(ctx, bson.M{"id": id})
}

func (r *AffiliationRepository) FindByName(ctx context.Context, name string) (*domain.CustomerAffiliation, error) {
	return r.findOne(ctx, bson.M{"name": name})
}

func (r *AffiliationRepository) findOne(ctx context.Context, filter bson.M) (*domain.CustomerAffiliation, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var m mongoAffiliation
	if err := r.coll.FindOne(ctx, filter).Decode(&m); err != nil {
		if isNotFound(err) {
			return nil, domain.ErrAffiliationNotFound
		}
		return nil, fmt.Errorf("find affiliation: %w", err)
	}
	return m.toDomain(), nil
}

func (r *AffiliationRepository) List(ctx context.Context, submitUser string) ([]*domain.CustomerAffiliation, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{}
	if submitUser != "" {
		filter["submit_user"] = submitUser
	}
	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list affiliations: %w", err)
	}
	var docs []mongoAffiliation
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode affiliations: %w", err)
	}

	out := make([]*domain.CustomerAffiliation, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

func (r *AffiliationRepository) Update(ctx context.Context, a *domain.CustomerAffiliation) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"id": a.ID}, bson.M{"$set": bson.M{"avatar": a.Avatar, "link": a.Link}})
	if err != nil {
		return fmt.Errorf("update affiliation: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrAffiliationNotFound
	}
	return nil
}

// Delete detaches the affiliation from its customers, then removes it.
func (r *AffiliationRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var m mongoAffiliation
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&m); err != nil {
		if isNotFound(err) {
			return domain.ErrAffiliationNotFound
		}
		return fmt.Errorf("find affiliation: %w", err)
	}
	if _, err := r.customers.UpdateMany(ctx, bson.M{"affiliation": m.Name}, bson.M{"$set": bson.M{"affiliation": nil}}); err != nil {
		return fmt.Errorf("detach affiliation: %w", err)
	}
	if _, err := r.coll.DeleteOne(ctx, bson.M{"id": id}); err != nil {
		return fmt.Errorf("delete affiliation: %w", err)
	}
	return nil
}
