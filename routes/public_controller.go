package routes

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/SambhavSharma7781/Forms4U-sub000/app"
	"github.com/SambhavSharma7781/Forms4U-sub000/httpx"
	"github.com/SambhavSharma7781/Forms4U-sub000/model"
)

// PublicGetFormById serves the fill-in view of a published form. Correct
// answers never leave the server.
func PublicGetFormById(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID := chi.URLParam(r, "id")

		form := model.Form{ID: formID}
		var settings string
		err := app.QueryRowContext(r.Context(), `
			SELECT title, description, accepting_responses, settings
			FROM form
			WHERE id = ? AND published = 1`,
			formID,
		).Scan(&form.Title, &form.Description, &form.AcceptingResponses, &settings)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, "get_form", formID)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_form", err)
			return
		}
		form.Published = true
		if err = json.Unmarshal([]byte(settings), &form.Settings); err != nil {
			httpx.LogInternalError(w, "db.get_form.parse_settings", err)
			return
		}

		sections, err := loadSections(r.Context(), app.DB, formID)
		if err != nil {
			httpx.LogInternalError(w, "db.get_form.tree", err)
			return
		}
		for si := range sections {
			for qi := range sections[si].Questions {
				sections[si].Questions[qi].CorrectAnswers = nil
			}
		}
		form.Sections = sections

		render.JSON(w, r, form)
	}
}

type responseBody struct {
	Email   string         `json:"email,omitempty"`
	Answers []model.Answer `json:"answers"`
}

func PublicSubmitResponse(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID := chi.URLParam(r, "id")

		body := responseBody{}
		err := render.DecodeJSON(r.Body, &body)
		if err != nil {
			httpx.Failure(w, r, http.StatusBadRequest, "request.parse_body", "invalid request body", "")
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		form, status := loadOpenForm(r.Context(), tx, formID)
		if status != 0 {
			failSubmission(w, r, status, formID)
			return
		}

		questions, err := loadFormQuestions(r.Context(), tx, formID)
		if err != nil {
			httpx.LogInternalError(w, "db.get_questions", err)
			return
		}

		if msg := validateAnswers(questions, body.Answers); msg != "" {
			httpx.Failure(w, r, http.StatusBadRequest, "submit.validate", msg, "")
			return
		}

		score := 0
		if form.Settings.IsQuiz {
			score = scoreAnswers(questions, body.Answers)
		}

		responseID := uuid.NewString()
		_, err = tx.ExecContext(r.Context(), `
			INSERT INTO response (id, form_id, email, score, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			responseID, formID, body.Email, score, time.Now(),
		)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_response", err)
			return
		}

		if err = insertAnswers(r.Context(), tx, responseID, body.Answers); err != nil {
			httpx.LogInternalError(w, "db.insert_response.answers", err)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.insert_response.commit", err)
			return
		}

		editToken, err := app.EditTokens.Issue(formID, responseID)
		if err != nil {
			httpx.LogInternalError(w, "edit_token.issue", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"success":   true,
			"id":        responseID,
			"editToken": editToken,
		})
	}
}

// PublicEditResponse replaces the answers of a previously submitted
// response. Authorization comes from the edit token issued at submit
// time, not from a login.
func PublicEditResponse(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID := chi.URLParam(r, "id")
		responseID := chi.URLParam(r, "responseId")

		token := strings.TrimPrefix(r.Header.Get("authorization"), "Bearer ")
		if token == "" {
			httpx.Failure(w, r, http.StatusUnauthorized, "edit_response.token", "missing edit token", "")
			return
		}
		tokenResponseID, err := app.EditTokens.Verify(token, formID)
		if err != nil || tokenResponseID != responseID {
			httpx.Failure(w, r, http.StatusForbidden, "edit_response.token", "invalid or expired edit token", "")
			return
		}

		body := responseBody{}
		err = render.DecodeJSON(r.Body, &body)
		if err != nil {
			httpx.Failure(w, r, http.StatusBadRequest, "request.parse_body", "invalid request body", "")
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		form, status := loadOpenForm(r.Context(), tx, formID)
		if status != 0 {
			failSubmission(w, r, status, formID)
			return
		}

		var owned bool
		err = tx.QueryRowContext(r.Context(), `
			SELECT 1 FROM response WHERE id = ? AND form_id = ?`,
			responseID, formID,
		).Scan(&owned)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.Failure(w, r, http.StatusNotFound, "edit_response.not_found", "response not found", "")
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_response", err)
			return
		}

		questions, err := loadFormQuestions(r.Context(), tx, formID)
		if err != nil {
			httpx.LogInternalError(w, "db.get_questions", err)
			return
		}

		if msg := validateAnswers(questions, body.Answers); msg != "" {
			httpx.Failure(w, r, http.StatusBadRequest, "edit_response.validate", msg, "")
			return
		}

		score := 0
		if form.Settings.IsQuiz {
			score = scoreAnswers(questions, body.Answers)
		}

		_, err = tx.ExecContext(r.Context(), `
			DELETE FROM answer WHERE response_id = ?`,
			responseID,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.edit_response.delete_answers", err)
			return
		}

		if err = insertAnswers(r.Context(), tx, responseID, body.Answers); err != nil {
			httpx.LogInternalError(w, "db.edit_response.answers", err)
			return
		}

		_, err = tx.ExecContext(r.Context(), `
			UPDATE response SET email = ?, score = ? WHERE id = ?`,
			body.Email, score, responseID,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.edit_response.update", err)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.edit_response.commit", err)
			return
		}

		httpx.Success(w, r, "response updated", nil)
	}
}

// formQuestion is the slice of a question row needed for validating and
// scoring submitted answers.
type formQuestion struct {
	text     string
	qtype    model.QuestionType
	required bool
	points   int
	correct  []string
}

func loadOpenForm(ctx context.Context, tx *sql.Tx, formID string) (model.Form, int) {
	form := model.Form{ID: formID}
	var settings string
	err := tx.QueryRowContext(ctx, `
		SELECT title, published, accepting_responses, settings
		FROM form
		WHERE id = ?`,
		formID,
	).Scan(&form.Title, &form.Published, &form.AcceptingResponses, &settings)
	if errors.Is(err, sql.ErrNoRows) {
		return form, http.StatusNotFound
	}
	if err != nil || json.Unmarshal([]byte(settings), &form.Settings) != nil {
		return form, http.StatusInternalServerError
	}
	if !form.Published {
		return form, http.StatusNotFound
	}
	if !form.AcceptingResponses {
		return form, http.StatusForbidden
	}
	return form, 0
}

func failSubmission(w http.ResponseWriter, r *http.Request, status int, formID string) {
	switch status {
	case http.StatusNotFound:
		httpx.Failure(w, r, status, "submit.not_found", "form not found", "")
	case http.StatusForbidden:
		httpx.Failure(w, r, status, "submit.closed", "form is not accepting responses", "")
	default:
		httpx.Failure(w, r, status, "submit", "internal error", "")
	}
}

func loadFormQuestions(ctx context.Context, tx *sql.Tx, formID string) (map[string]formQuestion, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT q.id, q.text, q.type, q.required, q.points, q.correct_answers
		FROM question q
		INNER JOIN section s ON (q.section_id = s.id)
		WHERE s.form_id = ?`,
		formID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := map[string]formQuestion{}
	for rows.Next() {
		var id, qtype, correct string
		q := formQuestion{}
		err = rows.Scan(&id, &q.text, &qtype, &q.required, &q.points, &correct)
		if err != nil {
			return nil, err
		}
		q.qtype = model.QuestionType(qtype)
		if err = json.Unmarshal([]byte(correct), &q.correct); err != nil {
			return nil, err
		}
		questions[id] = q
	}
	return questions, rows.Err()
}

// validateAnswers enforces the submission rules: every answer must
// target a question of this form, and every required question must get
// a non-blank answer. Returns "" when valid.
func validateAnswers(questions map[string]formQuestion, answers []model.Answer) string {
	answered := map[string]model.AnswerValue{}
	for _, a := range answers {
		if _, ok := questions[a.QuestionID]; !ok {
			return fmt.Sprintf("answer references unknown question %s", a.QuestionID)
		}
		answered[a.QuestionID] = a.Value
	}

	for id, q := range questions {
		if !q.required {
			continue
		}
		value, ok := answered[id]
		if !ok || value.Blank() {
			return fmt.Sprintf("question %q requires an answer", q.text)
		}
	}
	return ""
}

// scoreAnswers sums the points of questions answered exactly right.
func scoreAnswers(questions map[string]formQuestion, answers []model.Answer) (score int) {
	for _, a := range answers {
		q := questions[a.QuestionID]
		if len(q.correct) == 0 {
			continue
		}
		if answerMatches(q, a.Value) {
			score += q.points
		}
	}
	return
}

func answerMatches(q formQuestion, value model.AnswerValue) bool {
	if value.IsMulti() {
		if len(value.Selected) != len(q.correct) {
			return false
		}
		correct := map[string]bool{}
		for _, c := range q.correct {
			correct[normalize(c)] = true
		}
		for _, s := range value.Selected {
			if !correct[normalize(s)] {
				return false
			}
		}
		return true
	}

	for _, c := range q.correct {
		if normalize(value.Text) == normalize(c) {
			return true
		}
	}
	return false
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func insertAnswers(ctx context.Context, tx *sql.Tx, responseID string, answers []model.Answer) error {
	if len(answers) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO answer (id, response_id, question_id, value, selected)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, a := range answers {
		selected := "null"
		if a.Value.IsMulti() {
			data, err := json.Marshal(a.Value.Selected)
			if err != nil {
				return err
			}
			selected = string(data)
		}
		_, err = stmt.ExecContext(ctx, uuid.NewString(), responseID, a.QuestionID, a.Value.Text, selected)
		if err != nil {
			return err
		}
	}
	return nil
}
