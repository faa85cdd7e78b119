package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/aptitude/internal/handler/views"
	appI18n "github.com/pavelanni/aptitude/internal/i18n"
	"github.com/pavelanni/aptitude/internal/model"
	"github.com/pavelanni/aptitude/internal/practice"
	"github.com/pavelanni/aptitude/internal/timer"
)

// Config holds the settings the web pages are served with.
type Config struct {
	BasePath      string
	SecureCookies bool
	Policies      practice.Policies
	Session       practice.Config
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	exam     model.Exam
	registry *practice.Registry
	sched    timer.Scheduler
	config   Config

	// present builds the results model; replaced in tests.
	present func(model.Report, model.Layout, practice.Policies) practice.Results
}

// New creates a new Handler serving exam.
func New(exam model.Exam, reg *practice.Registry, sched timer.Scheduler, cfg Config) *Handler {
	return &Handler{
		exam:     exam,
		registry: reg,
		sched:    sched,
		config:   cfg,
		present:  practice.Present,
	}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/exam/{sessionID}/ws", h.handleSocket)
	r.Handle("/static/*", http.StripPrefix(h.path("/static/"), views.Static()))

	r.Group(func(r chi.Router) {
		r.Use(h.csrfMiddleware)
		r.Get("/", h.handleIndex)
		r.Post("/exam/start", h.handleStart)
		r.Get("/exam/{sessionID}", h.handlePage)
		r.Post("/exam/{sessionID}/grade", h.handleGrade)
		r.Get("/exam/{sessionID}/clear", h.handleClear)
		r.Post("/exam/{sessionID}/clear", h.handleClear)
		r.Post("/exam/{sessionID}/timer/{section}/start", h.handleTimerStart)
		r.Post("/exam/{sessionID}/timer/{section}/stop", h.handleTimerStop)
	})
}

// BasePathMiddleware makes the configured URL prefix available to the views.
func (h *Handler) BasePathMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := views.ContextWithBasePath(r.Context(), h.config.BasePath)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) path(p string) string {
	return h.config.BasePath + p
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, views.IndexPage(h.exam))
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	sess := practice.New(h.exam, h.config.Session, h.sched)
	h.registry.Add(sess)
	slog.Info("opened practice page", "session", sess.ID(), "questions", len(h.exam.Questions))
	http.Redirect(w, r, h.path("/exam/"+sess.ID()), http.StatusSeeOther)
}

func (h *Handler) handlePage(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	view := h.pageView(sess)
	if report, ok := sess.LastReport(); ok {
		res := h.present(report, sess.Exam().Layout, h.config.Policies)
		view.Results = &res
	}
	if r.URL.Query().Get("notice") == "cleared" {
		view.Notice = &model.Notice{Kind: model.NoticeInfo, Message: appI18n.T(r.Context(), "AnswersCleared")}
	}
	h.render(w, r, http.StatusOK, views.ExamPage(view))
}

func (h *Handler) handleGrade(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	log := slog.With("session", sess.ID())

	if err := sess.Exam().Layout.Require(model.MountGradeButton); err != nil {
		log.Error("grade button not found", "error", err)
		view := h.pageView(sess)
		view.Notice = &model.Notice{Kind: model.NoticeError, Message: appI18n.T(r.Context(), "GradeUnavailable")}
		h.render(w, r, http.StatusConflict, views.ExamPage(view))
		return
	}

	expiry := r.PostForm.Get("trigger") == "reading-expiry"
	res, err := h.grade(sess, formSelections(r.PostForm), expiry)
	if err != nil {
		log.Error("grading failed", "error", err)
		h.render(w, r, http.StatusInternalServerError, views.ErrorPage())
		return
	}

	view := h.pageView(sess)
	view.Results = &res
	if res.Notice != nil {
		view.Notice = &model.Notice{Kind: res.Notice.Kind, Message: appI18n.T(r.Context(), "GradingComplete")}
	}
	h.render(w, r, http.StatusOK, views.ExamPage(view))
}

// grade runs one grading pass. A panic anywhere in it becomes an error so the page
// can show a single generic alert.
func (h *Handler) grade(sess *practice.Session, selections map[string]string, expiry bool) (res practice.Results, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("grading panicked: %v", rec)
		}
	}()

	var report model.Report
	if expiry {
		h.applySelections(sess, selections)
		report, _ = sess.ExpiryAction(model.SectionReading)
	} else {
		report = sess.Grade(selections)
	}
	return h.present(report, sess.Exam().Layout, h.config.Policies), nil
}

func (h *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}
		h.applySelections(sess, formSelections(r.PostForm))
	}

	err := sess.ClearAnswers(r.Method == http.MethodPost && r.PostForm.Get("confirm") == "yes")
	if errors.Is(err, model.ErrNotConfirmed) {
		h.render(w, r, http.StatusOK, views.ClearConfirmPage(sess.ID(), sess.Exam().Title))
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, h.path("/exam/"+sess.ID()+"?notice=cleared"), http.StatusSeeOther)
}

func (h *Handler) handleTimerStart(w http.ResponseWriter, r *http.Request) {
	h.handleTimer(w, r, func(sess *practice.Session, sec model.Section) error {
		_, err := sess.StartTimer(sec)
		return err
	})
}

func (h *Handler) handleTimerStop(w http.ResponseWriter, r *http.Request) {
	h.handleTimer(w, r, func(sess *practice.Session, sec model.Section) error {
		_, err := sess.StopTimer(sec)
		return err
	})
}

func (h *Handler) handleTimer(w http.ResponseWriter, r *http.Request, action func(*practice.Session, model.Section) error) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	sec, err := model.ParseSection(chi.URLParam(r, "section"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	h.applySelections(sess, formSelections(r.PostForm))

	if err := action(sess, sec); err != nil {
		if errors.Is(err, model.ErrMountMissing) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, h.path("/exam/"+sess.ID()), http.StatusSeeOther)
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*practice.Session, bool) {
	id := chi.URLParam(r, "sessionID")
	sess, err := h.registry.Get(id)
	if err != nil {
		slog.Warn("unknown practice page", "session", id)
		http.Error(w, err.Error(), http.StatusNotFound)
		return nil, false
	}
	sess.Touch()
	return sess, true
}

func (h *Handler) pageView(sess *practice.Session) views.PageView {
	return views.PageView{
		SessionID:  sess.ID(),
		Exam:       sess.Exam(),
		Selections: sess.Selections(),
		Timers:     sess.Timers(),
	}
}

// applySelections records the submitted answers. Invalid entries are logged and skipped.
func (h *Handler) applySelections(sess *practice.Session, selections map[string]string) {
	for id, v := range selections {
		if err := sess.Select(id, v); err != nil {
			slog.Warn("ignoring selection", "session", sess.ID(), "question", id, "error", err)
		}
	}
}

// formSelections picks the q-<id> fields of a submitted answer form.
func formSelections(form url.Values) map[string]string {
	out := make(map[string]string)
	for key, vals := range form {
		id, ok := strings.CutPrefix(key, "q-")
		if !ok || len(vals) == 0 {
			continue
		}
		out[id] = strings.TrimSpace(vals[0])
	}
	return out
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}
