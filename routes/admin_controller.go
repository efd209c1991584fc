package routes

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/goccy/go-json"

	"github.com/pollwise/backend/app"
	"github.com/pollwise/backend/httpx"
	"github.com/pollwise/backend/log"
	"github.com/pollwise/backend/validation"
)

func CreateSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var doc map[string]any
		err := render.DecodeJSON(r.Body, &doc)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		cfg, errs := validation.ParseConfiguration(doc)
		if errs != nil {
			httpx.LogValidationErrors(w, r, "create_survey.validate", errs)
			return
		}

		configJson, err := json.Marshal(doc)
		if err != nil {
			httpx.LogInternalError(w, "create_survey.marshal", err)
			return
		}

		var surveyId int
		err = app.QueryRowContext(r.Context(), `
			INSERT INTO survey (admin_name, survey_name, title, start_time, end_time, mode, configuration)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			RETURNING id`,
			cfg.AdminName,
			cfg.SurveyName,
			cfg.Title,
			cfg.Start,
			cfg.End,
			cfg.Mode,
			string(configJson),
		).Scan(&surveyId)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_survey", err)
			return
		}

		app.Schemas.Put(surveyId, 1, validation.Compile(cfg))

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": surveyId,
		})
	}
}

func ListSurveys(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := app.QueryContext(r.Context(), `
			SELECT s.id, s.version, s.admin_name, s.survey_name, s.title
			FROM survey s`)
		if err != nil {
			httpx.LogInternalError(w, "db.get_surveys", err)
			return
		}
		defer rows.Close()

		type surveyInfo struct {
			ID         int    `json:"id"`
			Version    int    `json:"version"`
			AdminName  string `json:"admin_name"`
			SurveyName string `json:"survey_name"`
			Title      string `json:"title"`
		}

		surveys := []surveyInfo{}
		for rows.Next() {
			s := surveyInfo{}
			err = rows.Scan(&s.ID, &s.Version, &s.AdminName, &s.SurveyName, &s.Title)
			if err != nil {
				httpx.LogInternalError(w, "db.get_surveys.scan", err)
				return
			}
			surveys = append(surveys, s)
		}

		render.JSON(w, r, map[string]any{
			"surveys": surveys,
		})
	}
}

func GetSurveyById(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		var version int
		var configJson string
		err = app.QueryRowContext(r.Context(), `
			SELECT s.version, s.configuration
			FROM survey s
			WHERE s.id = ?`,
			surveyId,
		).Scan(&version, &configJson)
		if err != nil {
			httpx.LogNotFound(w, "get_survey", surveyId)
			return
		}

		var doc map[string]any
		err = json.Unmarshal([]byte(configJson), &doc)
		if err != nil {
			httpx.LogInternalError(w, "db.get_survey.parse_configuration", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"id":            surveyId,
			"version":       version,
			"configuration": doc,
		})
	}
}

type surveyUpdate struct {
	Version       int            `json:"version"`
	Configuration map[string]any `json:"configuration"`
}

func UpdateSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		update := surveyUpdate{}
		err = render.DecodeJSON(r.Body, &update)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		cfg, errs := validation.ParseConfiguration(update.Configuration)
		if errs != nil {
			httpx.LogValidationErrors(w, r, "update_survey.validate", errs)
			return
		}

		configJson, err := json.Marshal(update.Configuration)
		if err != nil {
			httpx.LogInternalError(w, "update_survey.marshal", err)
			return
		}

		res, err := app.ExecContext(r.Context(), `
			UPDATE survey
			SET
				admin_name = ?,
				survey_name = ?,
				title = ?,
				start_time = ?,
				end_time = ?,
				mode = ?,
				configuration = ?,
				version = version+1
			WHERE	id = ?
				AND version = ?`,
			cfg.AdminName,
			cfg.SurveyName,
			cfg.Title,
			cfg.Start,
			cfg.End,
			cfg.Mode,
			string(configJson),
			surveyId,
			update.Version,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.update_survey", err)
			return
		}
		// optimistic lock
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.update_survey.verify", err)
			return
		}
		if n < 1 {
			httpx.LogStatus(w, http.StatusConflict, log.DebugLevel, "db.update_survey.verify.conflict")
			return
		}

		// the new generation replaces any cached schema of this survey
		app.Schemas.Put(surveyId, update.Version+1, validation.Compile(cfg))

		w.WriteHeader(http.StatusNoContent)
	}
}

func DeleteSurvey(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		_, err = tx.ExecContext(r.Context(), `
			DELETE FROM submission
			WHERE survey_id = ?`,
			surveyId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.delete_survey.submissions", err)
			return
		}

		res, err := tx.ExecContext(r.Context(), `
			DELETE FROM survey WHERE id = ?`,
			surveyId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.delete_survey", err)
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.delete_survey.verify", err)
			return
		}
		if n < 1 {
			httpx.LogNotFound(w, "delete_survey", surveyId)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.delete_survey.commit", err)
			return
		}

		app.Schemas.Drop(surveyId)

		w.WriteHeader(http.StatusNoContent)
	}
}

func GetSurveySubmissions(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		var exists bool
		err = app.QueryRowContext(r.Context(),
			`SELECT 1 FROM survey WHERE id = ?`, surveyId,
		).Scan(&exists)
		if err != nil {
			httpx.LogNotFound(w, "get_submissions", surveyId)
			return
		}

		rows, err := app.QueryContext(r.Context(), `
			SELECT s.id, s.time, s.ip, s.content
			FROM submission s
			WHERE s.survey_id = ?
			ORDER BY s.time`,
			surveyId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.get_submissions", err)
			return
		}
		defer rows.Close()

		type submissionInfo struct {
			ID      int            `json:"id"`
			Time    time.Time      `json:"time"`
			IP      string         `json:"ip"`
			Content map[string]any `json:"content"`
		}

		submissions := []submissionInfo{}
		for rows.Next() {
			s := submissionInfo{}
			var content string
			err = rows.Scan(&s.ID, &s.Time, &s.IP, &content)
			if err != nil {
				httpx.LogInternalError(w, "db.get_submissions.scan", err)
				return
			}

			err = json.Unmarshal([]byte(content), &s.Content)
			if err != nil {
				httpx.LogInternalError(w, "db.get_submissions.parse_content", err)
				return
			}

			submissions = append(submissions, s)
		}

		render.JSON(w, r, map[string]any{
			"submissions": submissions,
		})
	}
}
