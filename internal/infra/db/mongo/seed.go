package mongo

import (
	"context"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"

	"reva/internal/infra/seed"
)

// Seed fills empty collections from ds. Collections that already hold documents are left alone.
func Seed(ctx context.Context, c *Client, ds seed.Dataset, hasher seed.Hasher, logger *slog.Logger) error {
	listingsRepo := NewListingRepository(c.DB)
	if n, err := listingsRepo.col.CountDocuments(ctx, bson.M{}); err != nil {
		return err
	} else if n == 0 {
		items, err := ds.DomainListings()
		if err != nil {
			return err
		}
		for _, l := range items {
			if err := listingsRepo.Save(ctx, l); err != nil {
				return err
			}
		}
		logSeeded(logger, seed.CollectionListings, len(items))
	}

	bookingsRepo := NewBookingRepository(c.DB)
	if n, err := bookingsRepo.col.CountDocuments(ctx, bson.M{}); err != nil {
		return err
	} else if n == 0 {
		items, err := ds.DomainBookings()
		if err != nil {
			return err
		}
		for _, b := range items {
			if err := bookingsRepo.Save(ctx, b); err != nil {
				return err
			}
		}
		logSeeded(logger, seed.CollectionBookings, len(items))
	}

	usersRepo, err := NewUserRepository(ctx, c.DB)
	if err != nil {
		return err
	}
	if n, err := usersRepo.col.CountDocuments(ctx, bson.M{}); err != nil {
		return err
	} else if n == 0 {
		items, err := ds.DomainUsers(hasher)
		if err != nil {
			return err
		}
		for _, u := range items {
			if err := usersRepo.Save(ctx, u); err != nil {
				return err
			}
		}
		logSeeded(logger, seed.CollectionUsers, len(items))
	}
	return nil
}

func logSeeded(logger *slog.Logger, collection string, n int) {
	if logger != nil {
		logger.Info("seeded collection", "collection", collection, "documents", n)
	}
}
