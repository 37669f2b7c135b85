package forms

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/SambhavSharma7781/Forms4U-sub000/model"
)

// storedQuestion is the slice of a question row the reconciler needs to
// classify payload nodes and validate type changes.
type storedQuestion struct {
	sectionID string
	qtype     model.QuestionType
}

// reconciler applies one desired form tree to the rows stored under a
// single form, inside the transaction opened by the coordinator. It
// tracks which real ids the payload referenced and which rows it created
// so the pruning pass can compute the leftover set.
type reconciler struct {
	ctx    context.Context
	tx     *sql.Tx
	formID string

	storedSections  idSet
	storedQuestions map[string]storedQuestion

	refSections      idSet
	refQuestions     idSet
	createdSections  idSet
	createdQuestions idSet

	warnings []string
}

func newReconciler(ctx context.Context, tx *sql.Tx, formID string) (*reconciler, error) {
	rec := &reconciler{
		ctx:    ctx,
		tx:     tx,
		formID: formID,

		storedSections:  idSet{},
		storedQuestions: map[string]storedQuestion{},

		refSections:      idSet{},
		refQuestions:     idSet{},
		createdSections:  idSet{},
		createdQuestions: idSet{},
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT id FROM section WHERE form_id = ?`,
		formID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "load sections")
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "load sections")
		}
		rec.storedSections.add(id)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "load sections")
	}

	qrows, err := tx.QueryContext(ctx, `
		SELECT q.id, q.section_id, q.type
		FROM question q
		INNER JOIN section s ON (q.section_id = s.id)
		WHERE s.form_id = ?`,
		formID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "load questions")
	}
	defer qrows.Close()
	for qrows.Next() {
		var id string
		var sq storedQuestion
		if err := qrows.Scan(&id, &sq.sectionID, &sq.qtype); err != nil {
			return nil, errors.Wrap(err, "load questions")
		}
		rec.storedQuestions[id] = sq
	}
	if err := qrows.Err(); err != nil {
		return nil, errors.Wrap(err, "load questions")
	}

	return rec, nil
}

// replaceAll is the no-response fast path: wipe the whole stored tree in
// foreign-key order and recreate it from the payload. Real payload ids
// are reused so a retried call converges to the same tree.
func (rec *reconciler) replaceAll(sections []model.Section) error {
	_, err := rec.tx.ExecContext(rec.ctx, `
		DELETE FROM question_option
		WHERE question_id IN (
			SELECT q.id FROM question q
			INNER JOIN section s ON (q.section_id = s.id)
			WHERE s.form_id = ?)`,
		rec.formID,
	)
	if err != nil {
		return errors.Wrap(err, "wipe options")
	}

	_, err = rec.tx.ExecContext(rec.ctx, `
		DELETE FROM question
		WHERE section_id IN (SELECT id FROM section WHERE form_id = ?)`,
		rec.formID,
	)
	if err != nil {
		return errors.Wrap(err, "wipe questions")
	}

	_, err = rec.tx.ExecContext(rec.ctx, `
		DELETE FROM section WHERE form_id = ?`,
		rec.formID,
	)
	if err != nil {
		return errors.Wrap(err, "wipe sections")
	}

	questionIDs := rec.storedQuestionIDs()
	for i, sec := range sections {
		// reuse ids that already belonged to this form, so a retried
		// call converges; foreign and placeholder ids get fresh ones
		sectionID, ok := resolveIdentity(sec.ID, rec.storedSections)
		if !ok {
			sectionID = uuid.NewString()
		}
		_, err = rec.tx.ExecContext(rec.ctx, `
			INSERT INTO section (id, form_id, title, description, ord)
			VALUES (?, ?, ?, ?, ?)`,
			sectionID, rec.formID, sec.Title, sec.Description, i,
		)
		if err != nil {
			return errors.Wrapf(err, "insert section %d", i)
		}

		for j, q := range sec.Questions {
			questionID, ok := resolveIdentity(q.ID, questionIDs)
			if !ok {
				questionID = uuid.NewString()
			}
			if err := rec.insertQuestion(questionID, sectionID, j, q); err != nil {
				return err
			}
		}
	}
	return nil
}

// apply is the response-preserving path: upsert every payload node in
// order, moving questions between sections by reassigning section_id.
// Deletions are deferred to the pruning pass so a moved question is
// never mistaken for an orphan of its old section.
func (rec *reconciler) apply(sections []model.Section) error {
	for i, sec := range sections {
		sectionID, ok := resolveIdentity(sec.ID, rec.storedSections)
		if ok {
			rec.refSections.add(sectionID)
			_, err := rec.tx.ExecContext(rec.ctx, `
				UPDATE section
				SET title = ?, description = ?, ord = ?
				WHERE id = ? AND form_id = ?`,
				sec.Title, sec.Description, i, sectionID, rec.formID,
			)
			if err != nil {
				return errors.Wrapf(err, "update section %s", sectionID)
			}
		} else {
			sectionID = uuid.NewString()
			rec.createdSections.add(sectionID)
			_, err := rec.tx.ExecContext(rec.ctx, `
				INSERT INTO section (id, form_id, title, description, ord)
				VALUES (?, ?, ?, ?, ?)`,
				sectionID, rec.formID, sec.Title, sec.Description, i,
			)
			if err != nil {
				return errors.Wrapf(err, "insert section %d", i)
			}
		}

		for j, q := range sec.Questions {
			if err := rec.applyQuestion(sectionID, j, q); err != nil {
				return err
			}
		}
	}
	return nil
}

func (rec *reconciler) applyQuestion(sectionID string, ord int, q model.Question) error {
	id, ok := resolveIdentity(q.ID, rec.storedQuestionIDs())
	if !ok {
		created := uuid.NewString()
		if err := rec.insertQuestion(created, sectionID, ord, q); err != nil {
			return err
		}
		rec.createdQuestions.add(created)
		return nil
	}

	// The id stays referenced even when the update below is skipped, so
	// a denied question is never pruned.
	rec.refQuestions.add(id)

	stored := rec.storedQuestions[id]
	if !TypeChangeAllowed(stored.qtype, q.Type) {
		answered, err := rec.questionHasAnswers(id)
		if err != nil {
			return err
		}
		if answered {
			rec.warnings = append(rec.warnings, fmt.Sprintf(
				"question %s: cannot change type %s to %s while it has collected answers; update skipped",
				id, stored.qtype, q.Type,
			))
			return nil
		}
	}

	_, err := rec.tx.ExecContext(rec.ctx, `
		UPDATE question
		SET section_id = ?,
			text = ?,
			description = ?,
			type = ?,
			required = ?,
			image_url = ?,
			points = ?,
			correct_answers = ?,
			shuffle_options = ?,
			ord = ?
		WHERE id = ?`,
		sectionID, q.Text, q.Description, string(q.Type), q.Required,
		q.ImageURL, q.Points, jsonStrings(q.CorrectAnswers),
		q.ShuffleOptionsOrder, ord, id,
	)
	if err != nil {
		return errors.Wrapf(err, "update question %s", id)
	}

	if q.Type.OptionBacked() {
		// options are replaced wholesale, never diffed
		_, err = rec.tx.ExecContext(rec.ctx, `
			DELETE FROM question_option WHERE question_id = ?`,
			id,
		)
		if err != nil {
			return errors.Wrapf(err, "replace options of question %s", id)
		}
		if err := rec.insertOptions(id, q.Options); err != nil {
			return err
		}
	}
	return nil
}

func (rec *reconciler) insertQuestion(id, sectionID string, ord int, q model.Question) error {
	_, err := rec.tx.ExecContext(rec.ctx, `
		INSERT INTO question
			(id, section_id, text, description, type, required, image_url,
			 points, correct_answers, shuffle_options, ord)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, sectionID, q.Text, q.Description, string(q.Type), q.Required,
		q.ImageURL, q.Points, jsonStrings(q.CorrectAnswers),
		q.ShuffleOptionsOrder, ord,
	)
	if err != nil {
		return errors.Wrapf(err, "insert question %q", q.Text)
	}

	return rec.insertOptions(id, q.Options)
}

// insertOptions persists the payload's options, dropping any whose text
// is blank after trimming.
func (rec *reconciler) insertOptions(questionID string, options []model.Option) error {
	if len(options) == 0 {
		return nil
	}

	stmt, err := rec.tx.PrepareContext(rec.ctx, `
		INSERT INTO question_option (id, question_id, text, image_url, ord)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "insert options")
	}
	defer stmt.Close()

	ord := 0
	for _, opt := range options {
		if strings.TrimSpace(opt.Text) == "" {
			continue
		}
		_, err := stmt.ExecContext(rec.ctx, uuid.NewString(), questionID, opt.Text, opt.ImageURL, ord)
		if err != nil {
			return errors.Wrapf(err, "insert option %q", opt.Text)
		}
		ord++
	}
	return nil
}

func (rec *reconciler) questionHasAnswers(questionID string) (bool, error) {
	var n int
	err := rec.tx.QueryRowContext(rec.ctx, `
		SELECT COUNT(*) FROM answer WHERE question_id = ?`,
		questionID,
	).Scan(&n)
	if err != nil {
		return false, errors.Wrapf(err, "count answers of question %s", questionID)
	}
	return n > 0, nil
}

func (rec *reconciler) storedQuestionIDs() idSet {
	ids := idSet{}
	for id := range rec.storedQuestions {
		ids.add(id)
	}
	return ids
}

func jsonStrings(values []string) string {
	if len(values) == 0 {
		return "[]"
	}
	data, _ := json.Marshal(values)
	return string(data)
}
