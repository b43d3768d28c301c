package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/user"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type userDoc struct {
	ID           string    `bson:"_id"`
	FullName     string    `bson:"fullName"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"passwordHash"`
	Role         string    `bson:"role"`
	IsActive     bool      `bson:"isActive"`
	CreatedAt    time.Time `bson:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt"`
}

func toUserDoc(u user.User) userDoc {
	return userDoc{
		ID:           u.ID,
		FullName:     u.FullName,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (d userDoc) toDomain() user.User {
	return user.User{
		ID:           d.ID,
		FullName:     d.FullName,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Role:         user.Role(d.Role),
		IsActive:     d.IsActive,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

type UsersRepo struct {
	coll *mongo.Collection
	obs  Observer
}

func NewUsersRepo(db *mongo.Database, obs Observer) *UsersRepo {
	return &UsersRepo{coll: db.Collection(usersCollection), obs: observerOrNoop(obs)}
}

func mapUserErr(err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return user.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return user.ErrEmailTaken
	default:
		return err
	}
}

func (r *UsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	err := r.obs.ObserveDB("users.create", func() error {
		_, err := r.coll.InsertOne(ctx, toUserDoc(u))
		return mapUserErr(err)
	})
	if err != nil {
		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) findOne(ctx context.Context, op string, filter bson.D) (user.User, error) {
	var doc userDoc

	err := r.obs.ObserveDB(op, func() error {
		return mapUserErr(r.coll.FindOne(ctx, filter).Decode(&doc))
	})
	if err != nil {
		return user.User{}, err
	}
	return doc.toDomain(), nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	return r.findOne(ctx, "users.get_by_id", bson.D{{Key: "_id", Value: id}})
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return r.findOne(ctx, "users.get_by_email", bson.D{{Key: "email", Value: email}})
}

func (r *UsersRepo) List(ctx context.Context) ([]user.User, error) {
	out := make([]user.User, 0)

	err := r.obs.ObserveDB("users.list", func() error {
		opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})

		cur, err := r.coll.Find(ctx, bson.D{}, opts)
		if err != nil {
			return err
		}
		defer cur.Close(ctx)

		for cur.Next(ctx) {
			var doc userDoc
			if err := cur.Decode(&doc); err != nil {
				return err
			}
			out = append(out, doc.toDomain())
		}
		return cur.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *UsersRepo) updateOne(ctx context.Context, op, id string, set bson.D) (user.User, error) {
	var doc userDoc

	err := r.obs.ObserveDB(op, func() error {
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		res := r.coll.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: id}}, bson.D{{Key: "$set", Value: set}}, opts)
		return mapUserErr(res.Decode(&doc))
	})
	if err != nil {
		return user.User{}, err
	}
	return doc.toDomain(), nil
}

func (r *UsersRepo) Update(ctx context.Context, id string, upd user.ProfileUpdate) (user.User, error) {
	set := bson.D{{Key: "updatedAt", Value: time.Now().UTC()}}

	if upd.FullName != nil {
		set = append(set, bson.E{Key: "fullName", Value: *upd.FullName})
	}
	if upd.Email != nil {
		set = append(set, bson.E{Key: "email", Value: *upd.Email})
	}
	if upd.PasswordHash != nil {
		set = append(set, bson.E{Key: "passwordHash", Value: *upd.PasswordHash})
	}

	return r.updateOne(ctx, "users.update", id, set)
}

func (r *UsersRepo) SetActive(ctx context.Context, id string, active bool) (user.User, error) {
	return r.updateOne(ctx, "users.set_active", id, bson.D{
		{Key: "isActive", Value: active},
		{Key: "updatedAt", Value: time.Now().UTC()},
	})
}

func (r *UsersRepo) Stats(ctx context.Context) (user.Stats, error) {
	var s user.Stats

	err := r.obs.ObserveDB("users.stats", func() error {
		var err error
		if s.Total, err = r.coll.CountDocuments(ctx, bson.D{}); err != nil {
			return err
		}
		s.Active, err = r.coll.CountDocuments(ctx, bson.D{{Key: "isActive", Value: true}})
		return err
	})

	return s, err
}
