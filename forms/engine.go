package forms

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/SambhavSharma7781/Forms4U-sub000/model"
)

// ErrFormNotFound is returned when the targeted form has no stored row.
var ErrFormNotFound = errors.New("form not found")

// Engine applies a desired form structure to storage as one atomic unit
// of work: form-level field updates, tree reconciliation and excess
// pruning all commit together or not at all.
type Engine struct {
	DB *sql.DB

	// HasResponses tells the reconciler whether any response rows exist
	// for a form. Nil means counting inside the engine's own transaction;
	// callers with their own bookkeeping (and tests) may override it.
	HasResponses func(ctx context.Context, formID string) (bool, error)
}

// Result summarizes a committed reconciliation.
type Result struct {
	FormID string
	// Warnings carries type-change denials; they do not fail the call.
	Warnings []string
}

// Apply reconciles the stored tree of one form with the desired state in
// upd. Any error at any step rolls back every change.
func (e Engine) Apply(ctx context.Context, formID string, upd model.FormUpdate) (*Result, error) {
	upd.Normalize()

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "begin")
	}
	defer tx.Rollback()

	settings, err := json.Marshal(upd.Settings)
	if err != nil {
		return nil, errors.Wrap(err, "encode settings")
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE form
		SET title = ?,
			description = ?,
			published = ?,
			accepting_responses = ?,
			settings = ?
		WHERE id = ?`,
		upd.Title, upd.Description, upd.Published, upd.AcceptingResponses,
		string(settings), formID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "update form")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, errors.Wrap(err, "update form")
	}
	if n < 1 {
		return nil, ErrFormNotFound
	}

	hasResponses, err := e.hasResponses(ctx, tx, formID)
	if err != nil {
		return nil, err
	}

	rec, err := newReconciler(ctx, tx, formID)
	if err != nil {
		return nil, err
	}

	if !hasResponses {
		err = rec.replaceAll(upd.Sections)
	} else {
		err = rec.apply(upd.Sections)
		if err == nil {
			err = rec.prune()
		}
	}
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit")
	}

	return &Result{FormID: formID, Warnings: rec.warnings}, nil
}

func (e Engine) hasResponses(ctx context.Context, tx *sql.Tx, formID string) (bool, error) {
	if e.HasResponses != nil {
		has, err := e.HasResponses(ctx, formID)
		return has, errors.Wrap(err, "count responses")
	}

	var n int
	err := tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM response WHERE form_id = ?`,
		formID,
	).Scan(&n)
	if err != nil {
		return false, errors.Wrap(err, "count responses")
	}
	return n > 0, nil
}

func scanIDs(rows *sql.Rows) (ids []string, err error) {
	defer rows.Close()
	for rows.Next() {
		var id string
		if err = rows.Scan(&id); err != nil {
			return
		}
		ids = append(ids, id)
	}
	err = rows.Err()
	return
}
