package routes

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/SambhavSharma7781/Forms4U-sub000/app"
	"github.com/SambhavSharma7781/Forms4U-sub000/forms"
	"github.com/SambhavSharma7781/Forms4U-sub000/httpx"
	"github.com/SambhavSharma7781/Forms4U-sub000/log"
	"github.com/SambhavSharma7781/Forms4U-sub000/model"
	"github.com/SambhavSharma7781/Forms4U-sub000/routes/middlewares"
)

func CreateForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := middlewares.Username(r)
		if owner == "" {
			httpx.Failure(w, r, http.StatusUnauthorized, "create_form.principal", "not logged in", "")
			return
		}

		form := model.Form{}
		err := render.DecodeJSON(r.Body, &form)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}
		if strings.TrimSpace(form.Title) == "" {
			httpx.Failure(w, r, http.StatusBadRequest, "create_form.validate", "title is required", "")
			return
		}

		settings, err := json.Marshal(form.Settings)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_form.settings", err)
			return
		}

		formID := uuid.NewString()
		_, err = app.ExecContext(r.Context(), `
			INSERT INTO form (id, owner, title, description, published, accepting_responses, settings)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			formID, owner, form.Title, form.Description,
			form.Published, form.AcceptingResponses, string(settings),
		)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_form", err)
			return
		}

		// the initial tree goes through the same engine as every edit
		if len(form.Sections) > 0 {
			_, err = app.Forms.Apply(r.Context(), formID, model.FormUpdate{
				Title:              form.Title,
				Description:        form.Description,
				Published:          form.Published,
				AcceptingResponses: form.AcceptingResponses,
				Settings:           form.Settings,
				Sections:           form.Sections,
			})
			if err != nil {
				httpx.Failure(w, r, http.StatusInternalServerError,
					"db.insert_form.structure", "could not save form structure", err.Error())
				return
			}
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"success": true,
			"id":      formID,
		})
	}
}

func ListForms(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := middlewares.Username(r)

		rows, err := app.QueryContext(r.Context(), `
			SELECT id, title, description, published, accepting_responses
			FROM form
			WHERE owner = ?
			ORDER BY created_at DESC`,
			owner,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.get_forms", err)
			return
		}
		defer rows.Close()

		formList := []model.Form{}
		for rows.Next() {
			f := model.Form{}
			err = rows.Scan(&f.ID, &f.Title, &f.Description, &f.Published, &f.AcceptingResponses)
			if err != nil {
				httpx.LogInternalError(w, "db.get_forms.scan", err)
				return
			}

			formList = append(formList, f)
		}

		render.JSON(w, r, map[string]any{
			"forms": formList,
		})
	}
}

func GetFormById(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID := chi.URLParam(r, "id")

		form, status := loadOwnForm(app, r, formID)
		if status != 0 {
			failOwnership(w, r, status, "get_form", formID)
			return
		}

		sections, err := loadSections(r.Context(), app.DB, formID)
		if err != nil {
			httpx.LogInternalError(w, "db.get_form.tree", err)
			return
		}
		form.Sections = sections

		render.JSON(w, r, form)
	}
}

// UpdateForm applies a full desired form tree: field updates, structure
// reconciliation and pruning happen in one transaction inside the engine.
func UpdateForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID := chi.URLParam(r, "id")

		upd := model.FormUpdate{}
		err := render.DecodeJSON(r.Body, &upd)
		if err != nil {
			httpx.Failure(w, r, http.StatusBadRequest, "request.parse_body", "invalid request body", "")
			return
		}
		upd.Normalize()

		if msg := validateUpdate(upd); msg != "" {
			httpx.Failure(w, r, http.StatusBadRequest, "update_form.validate", msg, "")
			return
		}

		if _, status := loadOwnForm(app, r, formID); status != 0 {
			failOwnership(w, r, status, "update_form", formID)
			return
		}

		res, err := app.Forms.Apply(r.Context(), formID, upd)
		if errors.Is(err, forms.ErrFormNotFound) {
			httpx.Failure(w, r, http.StatusNotFound, "update_form", "form not found", "")
			return
		}
		if err != nil {
			httpx.Failure(w, r, http.StatusInternalServerError,
				"db.update_form", "could not update form", err.Error())
			return
		}

		var extra map[string]any
		if len(res.Warnings) > 0 {
			extra = map[string]any{"warnings": res.Warnings}
		}
		httpx.Success(w, r, "form updated", extra)
	}
}

func DeleteForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID := chi.URLParam(r, "id")

		if _, status := loadOwnForm(app, r, formID); status != 0 {
			failOwnership(w, r, status, "delete_form", formID)
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		// answers go first: their question FK has no cascade
		steps := []struct {
			code  string
			query string
		}{
			{"answers", `
				DELETE FROM answer
				WHERE response_id IN (SELECT id FROM response WHERE form_id = ?)`},
			{"responses", `
				DELETE FROM response WHERE form_id = ?`},
			{"options", `
				DELETE FROM question_option
				WHERE question_id IN (
					SELECT q.id FROM question q
					INNER JOIN section s ON (q.section_id = s.id)
					WHERE s.form_id = ?)`},
			{"questions", `
				DELETE FROM question
				WHERE section_id IN (SELECT id FROM section WHERE form_id = ?)`},
			{"sections", `
				DELETE FROM section WHERE form_id = ?`},
			{"form", `
				DELETE FROM form WHERE id = ?`},
		}
		for _, step := range steps {
			if _, err := tx.ExecContext(r.Context(), step.query, formID); err != nil {
				httpx.LogInternalError(w, "db.delete_form."+step.code, err)
				return
			}
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.delete_form.commit", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func GetFormResponses(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID := chi.URLParam(r, "id")

		if _, status := loadOwnForm(app, r, formID); status != 0 {
			failOwnership(w, r, status, "get_responses", formID)
			return
		}

		rows, err := app.QueryContext(r.Context(), `
			SELECT id, email, score, created_at
			FROM response
			WHERE form_id = ?
			ORDER BY created_at`,
			formID,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.get_responses", err)
			return
		}
		defer rows.Close()

		responses := []model.Response{}
		index := map[string]int{}
		for rows.Next() {
			resp := model.Response{FormID: formID, Answers: []model.Answer{}}
			err = rows.Scan(&resp.ID, &resp.Email, &resp.Score, &resp.CreatedAt)
			if err != nil {
				httpx.LogInternalError(w, "db.get_responses.scan", err)
				return
			}
			index[resp.ID] = len(responses)
			responses = append(responses, resp)
		}
		if err := rows.Err(); err != nil {
			httpx.LogInternalError(w, "db.get_responses.rows", err)
			return
		}

		arows, err := app.QueryContext(r.Context(), `
			SELECT a.id, a.response_id, a.question_id, a.value, a.selected
			FROM answer a
			INNER JOIN response rs ON (a.response_id = rs.id)
			WHERE rs.form_id = ?`,
			formID,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.get_responses.answers", err)
			return
		}
		defer arows.Close()

		for arows.Next() {
			a := model.Answer{}
			var responseID, selected string
			err = arows.Scan(&a.ID, &responseID, &a.QuestionID, &a.Value.Text, &selected)
			if err != nil {
				httpx.LogInternalError(w, "db.get_responses.answers.scan", err)
				return
			}
			if err = json.Unmarshal([]byte(selected), &a.Value.Selected); err != nil {
				httpx.LogInternalError(w, "db.get_responses.answers.parse_selected", err)
				return
			}

			if i, ok := index[responseID]; ok {
				responses[i].Answers = append(responses[i].Answers, a)
			}
		}

		render.JSON(w, r, map[string]any{
			"responses": responses,
		})
	}
}

// loadOwnForm fetches a form's summary row and checks it belongs to the
// request's principal. The returned status is 0 on success, or the HTTP
// status to fail with.
func loadOwnForm(app app.App, r *http.Request, formID string) (model.Form, int) {
	principal := middlewares.Username(r)
	if principal == "" {
		return model.Form{}, http.StatusUnauthorized
	}

	form := model.Form{ID: formID}
	var settings string
	err := app.QueryRowContext(r.Context(), `
		SELECT owner, title, description, published, accepting_responses, settings
		FROM form
		WHERE id = ?`,
		formID,
	).Scan(&form.Owner, &form.Title, &form.Description, &form.Published, &form.AcceptingResponses, &settings)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Form{}, http.StatusNotFound
	}
	if err != nil {
		return model.Form{}, http.StatusInternalServerError
	}
	if json.Unmarshal([]byte(settings), &form.Settings) != nil {
		return model.Form{}, http.StatusInternalServerError
	}

	if form.Owner != principal {
		return model.Form{}, http.StatusForbidden
	}
	return form, 0
}

func failOwnership(w http.ResponseWriter, r *http.Request, status int, code string, formID string) {
	switch status {
	case http.StatusUnauthorized:
		httpx.Failure(w, r, status, code+".principal", "not logged in", "")
	case http.StatusForbidden:
		httpx.Failure(w, r, status, code+".owner", "form belongs to another user", "")
	case http.StatusNotFound:
		httpx.Failure(w, r, status, code+".not_found", "form not found", "")
	default:
		httpx.Failure(w, r, status, code, "internal error", "")
	}
}

func validateUpdate(upd model.FormUpdate) string {
	if strings.TrimSpace(upd.Title) == "" {
		return "title is required"
	}

	questions := 0
	for _, sec := range upd.Sections {
		questions += len(sec.Questions)
	}
	if questions == 0 {
		return "form must have at least one question"
	}

	for _, sec := range upd.Sections {
		for _, q := range sec.Questions {
			if _, err := model.ParseQuestionType(string(q.Type)); err != nil {
				return err.Error()
			}
		}
	}
	return ""
}
