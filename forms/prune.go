package forms

import "github.com/pkg/errors"

// prune removes stored rows the payload no longer references: questions
// first, then sections, so a question moved out of a doomed section is
// already safe under its new parent when the section goes.
//
// Deletions are bounded by the computed excess (stored count minus
// referenced-plus-created count) rather than taken from the full
// candidate set. The bound guards against over-deletion when a candidate
// was misclassified; it can under-delete in pathological multi-move
// payloads, which leaves orphaned rows behind instead of destroying
// answered questions.
func (rec *reconciler) prune() error {
	if err := rec.pruneQuestions(); err != nil {
		return err
	}
	return rec.pruneSections()
}

func (rec *reconciler) pruneQuestions() error {
	rows, err := rec.tx.QueryContext(rec.ctx, `
		SELECT q.id
		FROM question q
		INNER JOIN section s ON (q.section_id = s.id)
		WHERE s.form_id = ?
		ORDER BY q.id`,
		rec.formID,
	)
	if err != nil {
		return errors.Wrap(err, "prune questions: list stored")
	}
	stored, err := scanIDs(rows)
	if err != nil {
		return errors.Wrap(err, "prune questions: list stored")
	}

	expected := len(rec.refQuestions) + len(rec.createdQuestions)
	excess := len(stored) - expected

	for _, id := range stored {
		if excess <= 0 {
			break
		}
		if rec.refQuestions.has(id) || rec.createdQuestions.has(id) {
			continue
		}
		if err := rec.deleteQuestion(id); err != nil {
			return err
		}
		excess--
	}
	return nil
}

func (rec *reconciler) pruneSections() error {
	rows, err := rec.tx.QueryContext(rec.ctx, `
		SELECT id FROM section
		WHERE form_id = ?
		ORDER BY id`,
		rec.formID,
	)
	if err != nil {
		return errors.Wrap(err, "prune sections: list stored")
	}
	stored, err := scanIDs(rows)
	if err != nil {
		return errors.Wrap(err, "prune sections: list stored")
	}

	expected := len(rec.refSections) + len(rec.createdSections)
	excess := len(stored) - expected

	for _, id := range stored {
		if excess <= 0 {
			break
		}
		if rec.refSections.has(id) || rec.createdSections.has(id) {
			continue
		}
		if err := rec.deleteSection(id); err != nil {
			return err
		}
		excess--
	}
	return nil
}

// deleteQuestion removes one question row and everything hanging off it,
// answers first so the answer→question foreign key never dangles.
func (rec *reconciler) deleteQuestion(id string) error {
	_, err := rec.tx.ExecContext(rec.ctx, `
		DELETE FROM answer WHERE question_id = ?`,
		id,
	)
	if err != nil {
		return errors.Wrapf(err, "delete answers of question %s", id)
	}

	_, err = rec.tx.ExecContext(rec.ctx, `
		DELETE FROM question_option WHERE question_id = ?`,
		id,
	)
	if err != nil {
		return errors.Wrapf(err, "delete options of question %s", id)
	}

	_, err = rec.tx.ExecContext(rec.ctx, `
		DELETE FROM question WHERE id = ?`,
		id,
	)
	return errors.Wrapf(err, "delete question %s", id)
}

// deleteSection removes one section row and the whole subtree under it,
// in foreign-key order: answers, options, questions, section.
func (rec *reconciler) deleteSection(id string) error {
	_, err := rec.tx.ExecContext(rec.ctx, `
		DELETE FROM answer
		WHERE question_id IN (SELECT id FROM question WHERE section_id = ?)`,
		id,
	)
	if err != nil {
		return errors.Wrapf(err, "delete answers under section %s", id)
	}

	_, err = rec.tx.ExecContext(rec.ctx, `
		DELETE FROM question_option
		WHERE question_id IN (SELECT id FROM question WHERE section_id = ?)`,
		id,
	)
	if err != nil {
		return errors.Wrapf(err, "delete options under section %s", id)
	}

	_, err = rec.tx.ExecContext(rec.ctx, `
		DELETE FROM question WHERE section_id = ?`,
		id,
	)
	if err != nil {
		return errors.Wrapf(err, "delete questions under section %s", id)
	}

	_, err = rec.tx.ExecContext(rec.ctx, `
		DELETE FROM section WHERE id = ?`,
		id,
	)
	return errors.Wrapf(err, "delete section %s", id)
}
