package routes

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/SambhavSharma7781/Forms4U-sub000/model"
)

// loadSections reads the full section→question→option tree of one form,
// in display order.
func loadSections(ctx context.Context, db *sql.DB, formID string) ([]model.Section, error) {
	optionsByQuestion, err := loadOptions(ctx, db, formID)
	if err != nil {
		return nil, err
	}

	questionsBySection, err := loadQuestions(ctx, db, formID, optionsByQuestion)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, title, description
		FROM section
		WHERE form_id = ?
		ORDER BY ord`,
		formID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sections := []model.Section{}
	for rows.Next() {
		sec := model.Section{}
		if err := rows.Scan(&sec.ID, &sec.Title, &sec.Description); err != nil {
			return nil, err
		}
		sec.Questions = questionsBySection[sec.ID]
		sections = append(sections, sec)
	}
	return sections, rows.Err()
}

func loadQuestions(ctx context.Context, db *sql.DB, formID string, optionsByQuestion map[string][]model.Option) (map[string][]model.Question, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT
			q.id, q.section_id, q.text, q.description, q.type, q.required,
			q.image_url, q.points, q.correct_answers, q.shuffle_options
		FROM question q
		INNER JOIN section s ON (q.section_id = s.id)
		WHERE s.form_id = ?
		ORDER BY q.ord`,
		formID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bySection := map[string][]model.Question{}
	for rows.Next() {
		q := model.Question{}
		var sectionID, qtype, correct string
		err = rows.Scan(
			&q.ID, &sectionID, &q.Text, &q.Description, &qtype, &q.Required,
			&q.ImageURL, &q.Points, &correct, &q.ShuffleOptionsOrder,
		)
		if err != nil {
			return nil, err
		}

		q.Type = model.QuestionType(qtype)
		if err = json.Unmarshal([]byte(correct), &q.CorrectAnswers); err != nil {
			return nil, err
		}
		q.Options = optionsByQuestion[q.ID]

		bySection[sectionID] = append(bySection[sectionID], q)
	}
	return bySection, rows.Err()
}

func loadOptions(ctx context.Context, db *sql.DB, formID string) (map[string][]model.Option, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT o.id, o.question_id, o.text, o.image_url
		FROM question_option o
		INNER JOIN question q ON (o.question_id = q.id)
		INNER JOIN section s ON (q.section_id = s.id)
		WHERE s.form_id = ?
		ORDER BY o.ord`,
		formID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byQuestion := map[string][]model.Option{}
	for rows.Next() {
		opt := model.Option{}
		var questionID string
		if err := rows.Scan(&opt.ID, &questionID, &opt.Text, &opt.ImageURL); err != nil {
			return nil, err
		}
		byQuestion[questionID] = append(byQuestion[questionID], opt)
	}
	return byQuestion, rows.Err()
}
