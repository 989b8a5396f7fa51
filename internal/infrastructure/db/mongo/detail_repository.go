package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/leadbook/crm-api/internal/core/domain"
	"github.com/leadbook/crm-api/internal/core/ports"
)

type DetailRepository struct {
	db        *mongo.Database
	coll      *mongo.Collection
	customers *mongo.Collection
}

func NewDetailRepository(db *mongo.Database) *DetailRepository {
	return &DetailRepository{
		db:        db,
		coll:      db.Collection(collectionDetails),
		customers: db.Collection(collectionCustomers),
	}
}

type mongoDetail struct {
	ID              int64   `bson:"id"`
	CustomerID      int64   `bson:"customer_id"`
	ProductName     string  `bson:"product_name"`
	Quantity        int     `bson:"quantity"`
	UnitPrice       float64 `bson:"unit_price"`
	TotalAmount     float64 `bson:"total_amount"`
	TransactionTime int64   `bson:"transaction_time"`
}

func (m *mongoDetail) toDomain() *domain.TransactionDetail {
	return &domain.TransactionDetail{
		ID:              m.ID,
		CustomerID:      m.CustomerID,
		ProductName:     m.ProductName,
		Quantity:        m.Quantity,
		UnitPrice:       m.UnitPrice,
		TotalAmount:     m.TotalAmount,
		TransactionTime: fromMillis(m.TransactionTime),
	}
}

// Create marks the parent customer as closed and then inserts every line.
// The parent update doubles as the existence check. IDs are reserved up front
// so a failed insert can be rolled back by deleting the reserved range.
func (r *DetailRepository) Create(ctx context.Context, customerID int64, lines []*domain.TransactionDetail, closedAt time.Time) error {
	if len(lines) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.customers.UpdateOne(ctx, bson.M{"id": customerID}, bson.M{"$set": bson.M{
		"transaction_status": string(domain.DealClosed),
		"updated_at":         toMillis(closedAt),
	}})
	if err != nil {
		return fmt.Errorf("close customer deal: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrCustomerNotFound
	}

	first, err := reserveIDs(ctx, r.db, collectionDetails, len(lines))
	if err != nil {
		return err
	}
	docs := make([]any, len(lines))
	for i, d := range lines {
		docs[i] = mongoDetail{
			ID:              first + int64(i),
			CustomerID:      customerID,
			ProductName:     d.ProductName,
			Quantity:        d.Quantity,
			UnitPrice:       d.UnitPrice,
			TotalAmount:     d.TotalAmount,
			TransactionTime: toMillis(d.TransactionTime),
		}
	}
	if _, err := r.coll.InsertMany(ctx, docs); err != nil {
		last := first + int64(len(lines)) - 1
		if _, derr := r.coll.DeleteMany(ctx, bson.M{"id": bson.M{"$gte": first, "$lte": last}}); derr != nil {
			return fmt.Errorf("insert transaction details: %w (rollback: %v)", err, derr)
		}
		return fmt.Errorf("insert transaction details: %w", err)
	}
	for i, d := range lines {
		d.ID = first + int64(i)
		d.CustomerID = customerID
	}
	return nil
}

func (r *DetailRepository) FindByID(ctx context.Context, id int64) (*domain.TransactionDetail, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var m mongoDetail
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&m); err != nil {
		if isNotFound(err) {
			return nil, domain.ErrDetailNotFound
		}
		return nil, fmt.Errorf("find transaction detail: %w", err)
	}
	return m.toDomain(), nil
}

func (r *DetailRepository) List(ctx context.Context, q ports.DetailQuery) ([]*domain.TransactionDetail, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	ids := q.CustomerIDs
	if q.SubmitUser != "" {
		owned, err := r.ownedCustomerIDs(ctx, q.SubmitUser, ids)
		if err != nil {
			return nil, err
		}
		if len(owned) == 0 {
			return []*domain.TransactionDetail{}, nil
		}
		ids = owned
	}

	filter := bson.M{}
	if len(ids) > 0 {
		filter["customer_id"] = bson.M{"$in": ids}
	}
	window := bson.M{}
	if !q.From.IsZero() {
		window["$gte"] = toMillis(q.From)
	}
	if !q.To.IsZero() {
		window["$lt"] = toMillis(q.To)
	}
	if len(window) > 0 {
		filter["transaction_time"] = window
	}

	opts := options.Find().SetSort(bson.D{{Key: "transaction_time", Value: -1}, {Key: "id", Value: -1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list transaction details: %w", err)
	}
	var docs []mongoDetail
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode transaction details: %w", err)
	}

	out := make([]*domain.TransactionDetail, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

// ownedCustomerIDs resolves the customers owned by submitUser, optionally
// narrowed to within.
func (r *DetailRepository) ownedCustomerIDs(ctx context.Context, submitUser string, within []int64) ([]int64, error) {
	filter := bson.M{"submit_user": submitUser}
	if len(within) > 0 {
		filter["id"] = bson.M{"$in": within}
	}
	cur, err := r.customers.Find(ctx, filter, options.Find().SetProjection(bson.M{"id": 1}))
	if err != nil {
		return nil, fmt.Errorf("resolve customer owner: %w", err)
	}
	var docs []struct {
		ID int64 `bson:"id"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode customer ids: %w", err)
	}
	ids := make([]int64, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	return ids, nil
}

func (r *DetailRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("delete transaction detail: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrDetailNotFound
	}
	return nil
}
