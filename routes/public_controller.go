package routes

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/goccy/go-json"

	"github.com/pollwise/backend/app"
	"github.com/pollwise/backend/httpx"
	"github.com/pollwise/backend/log"
	"github.com/pollwise/backend/model"
	"github.com/pollwise/backend/validation"
)

func PublicGetSurveyById(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		var configJson string
		err = app.QueryRowContext(r.Context(), `
			SELECT s.configuration
			FROM survey s
			WHERE s.id = ?`,
			surveyId,
		).Scan(&configJson)
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
		// respondents have no business with the author's identity
		delete(doc, "admin_name")

		render.JSON(w, r, doc)
	}
}

type IpCheck struct {
	op     bool
	ip     string
	result chan<- bool
}

func PublicSubmitSurvey(app app.App) http.HandlerFunc {
	validateIpStart := make(chan IpCheck)
	go func() {
		submissionIPs := make(map[string]bool)

		for {
			req := <-validateIpStart
			if req.op {
				req.result <- submissionIPs[req.ip]
				submissionIPs[req.ip] = true
			} else {
				delete(submissionIPs, req.ip)
			}
		}
	}()

	return func(w http.ResponseWriter, r *http.Request) {
		surveyId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		var submission model.Submission
		err = render.DecodeJSON(r.Body, &submission)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		var version, start, end int
		var configJson string
		err = app.QueryRowContext(r.Context(), `
			SELECT s.version, s.start_time, s.end_time, s.configuration
			FROM survey s
			WHERE s.id = ?`,
			surveyId,
		).Scan(&version, &start, &end, &configJson)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				httpx.LogNotFound(w, "get_survey", surveyId)
			} else {
				httpx.LogInternalError(w, "db.get_survey", err)
			}
			return
		}

		now := int(time.Now().Unix())
		if now < start || now >= end {
			httpx.LogStatus(w, http.StatusForbidden, log.DebugLevel, "submit_survey.closed")
			return
		}

		schema, err := submissionSchema(app, surveyId, version, configJson)
		if err != nil {
			httpx.LogInternalError(w, "submit_survey.schema", err)
			return
		}

		if errs := validation.ValidateSubmission(submission, schema); errs != nil {
			httpx.LogValidationErrors(w, r, "submit_survey.validate", errs)
			return
		}

		ip := strings.Split(r.RemoteAddr, ":")[0]
		// check ip is not submitting now
		validateIpDone := make(chan bool)
		validateIpStart <- IpCheck{true, ip, validateIpDone}
		if <-validateIpDone {
			httpx.LogStatus(w, http.StatusConflict, log.DebugLevel, "ip.already_submitted")
			return
		}
		defer func() { validateIpStart <- IpCheck{false, ip, nil} }()
		// check ip did not already submit
		var alreadySubmitted bool
		err = app.QueryRowContext(r.Context(), `
			SELECT 1 FROM submission
			WHERE survey_id = ?
				AND ip = ?`,
			surveyId,
			ip,
		).Scan(&alreadySubmitted)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			httpx.LogInternalError(w, "db.get_ip.scan", err)
			return
		}
		if alreadySubmitted {
			httpx.LogStatus(w, http.StatusConflict, log.DebugLevel, "ip.already_submitted")
			return
		}

		contentJson, err := json.Marshal(submission)
		if err != nil {
			httpx.LogInternalError(w, "submit_survey.marshal", err)
			return
		}

		var submissionId int
		err = app.QueryRowContext(r.Context(), `
			INSERT INTO submission (survey_id, time, ip, content) VALUES (?, ?, ?, ?)
			RETURNING id`,
			surveyId,
			time.Now(),
			ip,
			string(contentJson),
		).Scan(&submissionId)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_submission", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": submissionId,
		})
	}
}

// submissionSchema returns the cached compiled schema of one survey
// generation, recompiling it from the stored configuration on a miss
// (typically after a restart). The stored configuration passed
// validation when it was accepted, so reparsing it cannot fail.
func submissionSchema(app app.App, surveyId, version int, configJson string) (validation.SubmissionSchema, error) {
	if schema, ok := app.Schemas.Get(surveyId, version); ok {
		return schema, nil
	}

	var doc map[string]any
	err := json.Unmarshal([]byte(configJson), &doc)
	if err != nil {
		return nil, err
	}

	cfg, errs := validation.ParseConfiguration(doc)
	if errs != nil {
		return nil, errs
	}

	schema := validation.Compile(cfg)
	app.Schemas.Put(surveyId, version, schema)
	return schema, nil
}
