package mongo

import (
	"context"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/leadbook/crm-api/internal/core/domain"
	"github.com/leadbook/crm-api/internal/core/ports"
)

var searchFields = []string{
	"customer_name", "phone_number", "affiliation", "customer_status", "transaction_status", "notes",
}

type CustomerRepository struct {
	db      *mongo.Database
	coll    *mongo.Collection
	details *mongo.Collection
}

func NewCustomerRepository(db *mongo.Database) *CustomerRepository {
	return &CustomerRepository{
		db:      db,
		coll:    db.Collection(collectionCustomers),
		details: db.Collection(collectionDetails),
	}
}

type mongoCustomer struct {
	ID                int64   `bson:"id"`
	CustomerName      string  `bson:"customer_name"`
	PhoneNumber       string  `bson:"phone_number"`
	Affiliation       *string `bson:"affiliation"`
	CustomerStatus    string  `bson:"customer_status"`
	TransactionStatus string  `bson:"transaction_status"`
	Notes             string  `bson:"notes"`
	SubmitUser        string  `bson:"submit_user"`
	SubmitTime        int64   `bson:"submit_time"`
	UpdatedAt         int64   `bson:"updated_at"`
}

func (m *mongoCustomer) toDomain() *domain.Customer {
	return &domain.Customer{
		ID:                m.ID,
		CustomerName:      m.CustomerName,
		PhoneNumber:       m.PhoneNumber,
		Affiliation:       m.Affiliation,
		CustomerStatus:    domain.CustomerStatus(m.CustomerStatus),
		TransactionStatus: domain.TransactionStatus(m.TransactionStatus),
		Notes:             m.Notes,
		SubmitUser:        m.SubmitUser,
		SubmitTime:        fromMillis(m.SubmitTime),
		UpdatedAt:         fromMillis(m.UpdatedAt),
	}
}

func (r *CustomerRepository) Create(ctx context.Context, c *domain.Customer) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	id, err := nextID(ctx, r.db, collectionCustomers)
	if err != nil {
		return err
	}

	doc := mongoCustomer{
		ID:                id,
		CustomerName:      c.CustomerName,
		PhoneNumber:       c.PhoneNumber,
		Affiliation:       c.Affiliation,
		CustomerStatus:    string(c.CustomerStatus),
		TransactionStatus: string(c.TransactionStatus),
		Notes:             c.Notes,
		SubmitUser:        c.SubmitUser,
		SubmitTime:        toMillis(c.SubmitTime),
		UpdatedAt:         toMillis(c.UpdatedAt),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicatePhone
		}
		return fmt.Errorf("insert customer: %w", err)
	}
	c.ID = id
	return nil
}

func (r *CustomerRepository) FindByID(ctx context.Context, id int64) (*domain.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var m mongoCustomer
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&m); err != nil {
		if isNotFound(err) {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("find customer: %w", err)
	}
	return m.toDomain(), nil
}

// customerFilter builds the owner, window and search filter. The search
// alternatives sit under $or next to the owner field, so both must match.
func customerFilter(q ports.CustomerQuery) bson.M {
	filter := bson.M{}
	if q.SubmitUser != "" {
		filter["submit_user"] = q.SubmitUser
	}
	window := bson.M{}
	if !q.SubmittedFrom.IsZero() {
		window["$gte"] = toMillis(q.SubmittedFrom)
	}
	if !q.SubmittedTo.IsZero() {
		window["$lt"] = toMillis(q.SubmittedTo)
	}
	if len(window) > 0 {
		filter["submit_time"] = window
	}
	if q.Search != "" {
		pattern := regexp.QuoteMeta(q.Search)
		fields := searchFields
		if q.SearchOwner {
			fields = append(fields[:len(fields):len(fields)], "submit_user")
		}
		or := make(bson.A, 0, len(fields))
		for _, f := range fields {
			or = append(or, bson.M{f: bson.M{"$regex": pattern}})
		}
		filter["$or"] = or
	}
	return filter
}

func (r *CustomerRepository) List(ctx context.Context, q ports.CustomerQuery) ([]*domain.Customer, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := customerFilter(q)
	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count customers: %w", err)
	}

	opts := paginate(options.Find().SetSort(bson.D{{Key: "submit_time", Value: -1}, {Key: "id", Value: -1}}), q.Page, q.Limit)
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}
	var docs []mongoCustomer
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode customers: %w", err)
	}

	out := make([]*domain.Customer, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, total, nil
}

func (r *CustomerRepository) Update(ctx context.Context, id int64, p ports.CustomerPatch) (*domain.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{"updated_at": toMillis(p.UpdatedAt)}
	if p.CustomerStatus != nil {
		set["customer_status"] = string(*p.CustomerStatus)
	}
	if p.TransactionStatus != nil {
		set["transaction_status"] = string(*p.TransactionStatus)
	}
	if p.Notes != nil {
		set["notes"] = *p.Notes
	}
	if p.SetAffiliation {
		set["affiliation"] = p.Affiliation
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var m mongoCustomer
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"id": id}, bson.M{"$set": set}, opts).Decode(&m); err != nil {
		if isNotFound(err) {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("update customer: %w", err)
	}
	return m.toDomain(), nil
}

// Delete removes the transaction details first and then the customer, so an
// interrupted call never leaves orphaned details behind.
func (r *CustomerRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.details.DeleteMany(ctx, bson.M{"customer_id": id}); err != nil {
		return fmt.Errorf("delete customer details: %w", err)
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrCustomerNotFound
	}
	return nil
}
