package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/task"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const taskColumns = `id, user_id, title, description, category, due_date, status, completed_at, created_at, updated_at`

type TasksRepo struct {
	pool *pgxpool.Pool
	obs  Observer
}

func NewTasksRepo(pool *pgxpool.Pool, obs Observer) *TasksRepo {
	return &TasksRepo{pool: pool, obs: observerOrNoop(obs)}
}

func scanTask(row pgx.Row) (task.Task, error) {
	var (
		t      task.Task
		status string
	)

	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.Title,
		&t.Description,
		&t.Category,
		&t.DueDate,
		&status,
		&t.CompletedAt,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return task.Task{}, task.ErrNotFound
		}
		return task.Task{}, err
	}

	t.Status = task.Status(status)
	return t, nil
}

func (r *TasksRepo) Create(ctx context.Context, t task.Task) (task.Task, error) {
	err := r.obs.ObserveDB("tasks.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO tasks (`+taskColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			t.ID, t.UserID, t.Title, t.Description, t.Category, t.DueDate, string(t.Status), t.CompletedAt, t.CreatedAt, t.UpdatedAt,
		)
		return err
	})

	if err != nil {
		return task.Task{}, err
	}
	return t, nil
}

func (r *TasksRepo) Get(ctx context.Context, id, ownerID string) (task.Task, error) {
	var t task.Task

	err := r.obs.ObserveDB("tasks.get", func() error {
		var err error
		t, err = scanTask(r.pool.QueryRow(ctx,
			`SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND user_id = $2`, id, ownerID,
		))
		return err
	})

	return t, err
}

func (r *TasksRepo) List(ctx context.Context, ownerID string, f task.Filter) ([]task.Task, error) {
	conds := []string{"user_id = $1"}
	args := []interface{}{ownerID}

	argsPosition := 2

	if f.Status != nil {
		conds = append(conds, fmt.Sprintf("status = $%d", argsPosition))
		args = append(args, string(*f.Status))
		argsPosition++
	}

	if f.Category != nil {
		conds = append(conds, fmt.Sprintf("LOWER(category) = LOWER($%d)", argsPosition))
		args = append(args, *f.Category)
	}

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE ` + strings.Join(conds, " AND ") +
		` ORDER BY created_at ASC, id ASC`

	out := make([]task.Task, 0)

	err := r.obs.ObserveDB("tasks.list", func() error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			t, err := scanTask(rows)
			if err != nil {
				return err
			}
			out = append(out, t)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *TasksRepo) Update(ctx context.Context, id, ownerID string, upd task.Update) (task.Task, error) {
	var t task.Task

	err := r.obs.ObserveDB("tasks.update", func() error {
		var err error
		t, err = scanTask(r.pool.QueryRow(ctx,
			`UPDATE tasks
				SET title = COALESCE($3, title),
					description = COALESCE($4, description),
					category = COALESCE($5, category),
					due_date = COALESCE($6::date, due_date),
					updated_at = NOW()
			WHERE id = $1 AND user_id = $2
			RETURNING `+taskColumns,
			id, ownerID, upd.Title, upd.Description, upd.Category, upd.DueDate,
		))
		return err
	})

	return t, err
}

func (r *TasksRepo) Delete(ctx context.Context, id, ownerID string) error {
	return r.obs.ObserveDB("tasks.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, ownerID)
		if err != nil {
			return err
		}

		// nothing deleted: absent or owned by someone else
		if tag.RowsAffected() == 0 {
			return task.ErrNotFound
		}
		return nil
	})
}

func (r *TasksRepo) MarkComplete(ctx context.Context, id, ownerID string, at time.Time) (task.Task, error) {
	var t task.Task

	err := r.obs.ObserveDB("tasks.complete", func() error {
		var err error
		// SET expressions read the pre-update row, so an already completed task keeps its timestamps
		t, err = scanTask(r.pool.QueryRow(ctx,
			`UPDATE tasks
				SET status = 'completed',
					completed_at = COALESCE(completed_at, $3),
					updated_at = CASE WHEN status = 'completed' THEN updated_at ELSE $3 END
			WHERE id = $1 AND user_id = $2
			RETURNING `+taskColumns,
			id, ownerID, at,
		))
		return err
	})

	return t, err
}

func (r *TasksRepo) Stats(ctx context.Context) (task.Stats, error) {
	var s task.Stats

	err := r.obs.ObserveDB("tasks.stats", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT COUNT(*),
				COUNT(*) FILTER (WHERE status = 'pending'),
				COUNT(*) FILTER (WHERE status = 'completed')
			FROM tasks`,
		).Scan(&s.Total, &s.Pending, &s.Completed)
	})

	return s, err
}
