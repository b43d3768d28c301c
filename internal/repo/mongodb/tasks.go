package mongodb

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/task"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type taskDoc struct {
	ID          string     `bson:"_id"`
	UserID      string     `bson:"userId"`
	Title       string     `bson:"title"`
	Description string     `bson:"description"`
	Category    string     `bson:"category"`
	DueDate     time.Time  `bson:"dueDate"`
	Status      string     `bson:"status"`
	CompletedAt *time.Time `bson:"completedAt,omitempty"`
	CreatedAt   time.Time  `bson:"createdAt"`
	UpdatedAt   time.Time  `bson:"updatedAt"`
}

func toTaskDoc(t task.Task) taskDoc {
	return taskDoc{
		ID:          t.ID,
		UserID:      t.UserID,
		Title:       t.Title,
		Description: t.Description,
		Category:    t.Category,
		DueDate:     t.DueDate,
		Status:      string(t.Status),
		CompletedAt: t.CompletedAt,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func (d taskDoc) toDomain() task.Task {
	t := task.Task{
		ID:          d.ID,
		UserID:      d.UserID,
		Title:       d.Title,
		Description: d.Description,
		Category:    d.Category,
		DueDate:     d.DueDate.UTC(),
		Status:      task.Status(d.Status),
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
	if d.CompletedAt != nil {
		at := d.CompletedAt.UTC()
		t.CompletedAt = &at
	}
	return t
}

type TasksRepo struct {
	coll *mongo.Collection
	obs  Observer
}

func NewTasksRepo(db *mongo.Database, obs Observer) *TasksRepo {
	return &TasksRepo{coll: db.Collection(tasksCollection), obs: observerOrNoop(obs)}
}

func mapTaskErr(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return task.ErrNotFound
	}
	return err
}

func ownedFilter(id, ownerID string) bson.D {
	return bson.D{{Key: "_id", Value: id}, {Key: "userId", Value: ownerID}}
}

func (r *TasksRepo) Create(ctx context.Context, t task.Task) (task.Task, error) {
	err := r.obs.ObserveDB("tasks.create", func() error {
		_, err := r.coll.InsertOne(ctx, toTaskDoc(t))
		return err
	})
	if err != nil {
		return task.Task{}, err
	}
	return t, nil
}

func (r *TasksRepo) Get(ctx context.Context, id, ownerID string) (task.Task, error) {
	var doc taskDoc

	err := r.obs.ObserveDB("tasks.get", func() error {
		return mapTaskErr(r.coll.FindOne(ctx, ownedFilter(id, ownerID)).Decode(&doc))
	})
	if err != nil {
		return task.Task{}, err
	}
	return doc.toDomain(), nil
}

func (r *TasksRepo) List(ctx context.Context, ownerID string, f task.Filter) ([]task.Task, error) {
	filter := bson.D{{Key: "userId", Value: ownerID}}

	if f.Status != nil {
		filter = append(filter, bson.E{Key: "status", Value: string(*f.Status)})
	}
	if f.Category != nil {
		// exact match, ignoring case
		filter = append(filter, bson.E{Key: "category", Value: bson.Regex{
			Pattern: "^" + regexp.QuoteMeta(*f.Category) + "$",
			Options: "i",
		}})
	}

	out := make([]task.Task, 0)

	err := r.obs.ObserveDB("tasks.list", func() error {
		opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})

		cur, err := r.coll.Find(ctx, filter, opts)
		if err != nil {
			return err
		}
		defer cur.Close(ctx)

		for cur.Next(ctx) {
			var doc taskDoc
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

func (r *TasksRepo) findOneAndSet(ctx context.Context, op string, filter, set bson.D) (task.Task, error) {
	var doc taskDoc

	err := r.obs.ObserveDB(op, func() error {
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		res := r.coll.FindOneAndUpdate(ctx, filter, bson.D{{Key: "$set", Value: set}}, opts)
		return mapTaskErr(res.Decode(&doc))
	})
	if err != nil {
		return task.Task{}, err
	}
	return doc.toDomain(), nil
}

func (r *TasksRepo) Update(ctx context.Context, id, ownerID string, upd task.Update) (task.Task, error) {
	set := bson.D{{Key: "updatedAt", Value: time.Now().UTC()}}

	if upd.Title != nil {
		set = append(set, bson.E{Key: "title", Value: *upd.Title})
	}
	if upd.Description != nil {
		set = append(set, bson.E{Key: "description", Value: *upd.Description})
	}
	if upd.Category != nil {
		set = append(set, bson.E{Key: "category", Value: *upd.Category})
	}
	if upd.DueDate != nil {
		set = append(set, bson.E{Key: "dueDate", Value: *upd.DueDate})
	}

	return r.findOneAndSet(ctx, "tasks.update", ownedFilter(id, ownerID), set)
}

func (r *TasksRepo) Delete(ctx context.Context, id, ownerID string) error {
	return r.obs.ObserveDB("tasks.delete", func() error {
		res, err := r.coll.DeleteOne(ctx, ownedFilter(id, ownerID))
		if err != nil {
			return err
		}
		if res.DeletedCount == 0 {
			return task.ErrNotFound
		}
		return nil
	})
}

func (r *TasksRepo) MarkComplete(ctx context.Context, id, ownerID string, at time.Time) (task.Task, error) {
	// only pending tasks are touched so the first completion timestamp survives
	pending := append(ownedFilter(id, ownerID), bson.E{Key: "status", Value: string(task.StatusPending)})

	t, err := r.findOneAndSet(ctx, "tasks.complete", pending, bson.D{
		{Key: "status", Value: string(task.StatusCompleted)},
		{Key: "completedAt", Value: at},
		{Key: "updatedAt", Value: at},
	})
	if errors.Is(err, task.ErrNotFound) {
		// already completed, or absent
		return r.Get(ctx, id, ownerID)
	}
	return t, err
}

func (r *TasksRepo) Stats(ctx context.Context) (task.Stats, error) {
	var s task.Stats

	err := r.obs.ObserveDB("tasks.stats", func() error {
		var err error
		if s.Total, err = r.coll.CountDocuments(ctx, bson.D{}); err != nil {
			return err
		}
		if s.Pending, err = r.coll.CountDocuments(ctx, bson.D{{Key: "status", Value: string(task.StatusPending)}}); err != nil {
			return err
		}
		s.Completed, err = r.coll.CountDocuments(ctx, bson.D{{Key: "status", Value: string(task.StatusCompleted)}})
		return err
	})

	return s, err
}
