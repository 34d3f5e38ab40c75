package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "reva/internal/domain/booking"
	domainlistings "reva/internal/domain/listings"
	domainuser "reva/internal/domain/user"
	"reva/internal/infra/seed"
)

var bySeq = options.Find().SetSort(bson.D{{Key: "seq", Value: 1}})

// versionedUpsert writes doc when the stored version equals expected. A stale version
// surfaces as a duplicate key on _id.
func versionedUpsert(ctx context.Context, col *mongo.Collection, id string, expected int64, doc any) error {
	filter := bson.M{"_id": id, "version": expected}
	update := bson.M{
		"$set":         doc,
		"$setOnInsert": bson.M{"seq": time.Now().UnixNano()},
	}
	res, err := col.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return errStaleVersion
	}
	return nil
}

var errStaleVersion = errors.New("mongo: stale version")

func isConflict(err error) bool {
	return errors.Is(err, errStaleVersion) || mongo.IsDuplicateKeyError(err)
}

func findAll[D any, T any](ctx context.Context, col *mongo.Collection, filter bson.M, convert func(D) T) ([]T, error) {
	cur, err := col.Find(ctx, filter, bySeq)
	if err != nil {
		return nil, err
	}
	var docs []D
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		out = append(out, convert(d))
	}
	return out, nil
}

type ListingRepository struct {
	col *mongo.Collection
}

func NewListingRepository(db *mongo.Database) *ListingRepository {
	return &ListingRepository{col: db.Collection(seed.CollectionListings)}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	var doc listingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainlistings.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ListingRepository) List(ctx context.Context) ([]*domainlistings.Listing, error) {
	return findAll(ctx, r.col, bson.M{}, listingDocument.toAggregate)
}

func (r *ListingRepository) ListByOwner(ctx context.Context, owner domainlistings.OwnerID) ([]*domainlistings.Listing, error) {
	return findAll(ctx, r.col, bson.M{"owner_id": string(owner)}, listingDocument.toAggregate)
}

func (r *ListingRepository) Save(ctx context.Context, l *domainlistings.Listing) error {
	doc := newListingDocument(l)
	doc.Version = l.Version + 1
	if err := versionedUpsert(ctx, r.col, doc.ID, l.Version, doc); err != nil {
		if isConflict(err) {
			return domainlistings.ErrConcurrentUpdate
		}
		return err
	}
	l.Version = doc.Version
	return nil
}

type BookingRepository struct {
	col *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{col: db.Collection(seed.CollectionBookings)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrBookingNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *BookingRepository) List(ctx context.Context) ([]*domainbooking.Booking, error) {
	return findAll(ctx, r.col, bson.M{}, bookingDocument.toAggregate)
}

func (r *BookingRepository) ListByUser(ctx context.Context, userID string) ([]*domainbooking.Booking, error) {
	return findAll(ctx, r.col, bson.M{"user_id": userID}, bookingDocument.toAggregate)
}

func (r *BookingRepository) ListByListings(ctx context.Context, ids []domainlistings.ListingID) ([]*domainbooking.Booking, error) {
	if len(ids) == 0 {
		return []*domainbooking.Booking{}, nil
	}
	raw := make([]string, 0, len(ids))
	for _, id := range ids {
		raw = append(raw, string(id))
	}
	return findAll(ctx, r.col, bson.M{"listing_id": bson.M{"$in": raw}}, bookingDocument.toAggregate)
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	doc.Version = b.Version + 1
	if err := versionedUpsert(ctx, r.col, doc.ID, b.Version, doc); err != nil {
		if isConflict(err) {
			return domainbooking.ErrConcurrentUpdate
		}
		return err
	}
	b.Version = doc.Version
	return nil
}

type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(ctx context.Context, db *mongo.Database) (*UserRepository, error) {
	col := db.Collection(seed.CollectionUsers)
	idx := mongo.IndexModel{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)}
	if _, err := col.Indexes().CreateOne(ctx, idx); err != nil {
		return nil, err
	}
	return &UserRepository{col: col}, nil
}

func (r *UserRepository) ByID(ctx context.Context, id domainuser.ID) (*domainuser.User, error) {
	return r.findOne(ctx, bson.M{"_id": string(id)})
}

func (r *UserRepository) ByEmail(ctx context.Context, email string) (*domainuser.User, error) {
	return r.findOne(ctx, bson.M{"email": domainuser.NormalizeEmail(email)})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domainuser.User, error) {
	var doc userDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainuser.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *UserRepository) List(ctx context.Context) ([]*domainuser.User, error) {
	return findAll(ctx, r.col, bson.M{}, userDocument.toAggregate)
}

func (r *UserRepository) Save(ctx context.Context, u *domainuser.User) error {
	doc := newUserDocument(u)
	doc.Version = u.Version + 1
	err := versionedUpsert(ctx, r.col, doc.ID, u.Version, doc)
	if err == nil {
		u.Version = doc.Version
		return nil
	}
	if !isConflict(err) {
		return err
	}
	if other, lookupErr := r.ByEmail(ctx, doc.Email); lookupErr == nil && other.ID != u.ID {
		return domainuser.ErrEmailAlreadyUsed
	}
	return domainuser.ErrConcurrentUpdate
}

var (
	_ domainlistings.Repository = (*ListingRepository)(nil)
	_ domainbooking.Repository  = (*BookingRepository)(nil)
	_ domainuser.Repository     = (*UserRepository)(nil)
)
