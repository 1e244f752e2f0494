package mongostore

import (
	"context"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"electrocart_back_end/internal/models"
)

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	return insertOne(ctx, s.col(ColUsers), u)
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return findOne[models.User](ctx, s.col(ColUsers), bson.D{{Key: "_id", Value: id}})
}

// GetUserByEmail est insensible à la casse, comme l'index unique côté Postgres.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	pattern := "^" + regexp.QuoteMeta(strings.TrimSpace(email)) + "$"
	filter := bson.D{{Key: "email", Value: bson.Regex{Pattern: pattern, Options: "i"}}}
	return findOne[models.User](ctx, s.col(ColUsers), filter)
}

func (s *Store) SetResetToken(ctx context.Context, userID, tokenHash string, expire time.Time) error {
	return updateFields(ctx, s.col(ColUsers), userID, bson.D{
		{Key: "resetPasswordToken", Value: tokenHash},
		{Key: "resetPasswordExpire", Value: expire},
		{Key: "updatedAt", Value: time.Now()},
	})
}

// ResetPassword filtre sur le token et l'expiration puis efface le token dans la même opération.
func (s *Store) ResetPassword(ctx context.Context, tokenHash, passwordHash string, now time.Time) (*models.User, error) {
	filter := bson.D{
		{Key: "resetPasswordToken", Value: tokenHash},
		{Key: "resetPasswordExpire", Value: bson.D{{Key: "$gt", Value: now}}},
	}
	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "passwordHash", Value: passwordHash},
			{Key: "updatedAt", Value: now},
		}},
		{Key: "$unset", Value: bson.D{
			{Key: "resetPasswordToken", Value: ""},
			{Key: "resetPasswordExpire", Value: ""},
		}},
	}
	return findOneAndUpdate[models.User](ctx, s.col(ColUsers), filter, update)
}

func (s *Store) SetAdmin(ctx context.Context, userID string, isAdmin bool) error {
	return updateFields(ctx, s.col(ColUsers), userID, bson.D{
		{Key: "isAdmin", Value: isAdmin},
		{Key: "updatedAt", Value: time.Now()},
	})
}

func (s *Store) SetPassword(ctx context.Context, userID, passwordHash string) error {
	return updateFields(ctx, s.col(ColUsers), userID, bson.D{
		{Key: "passwordHash", Value: passwordHash},
		{Key: "updatedAt", Value: time.Now()},
	})
}
