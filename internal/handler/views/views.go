// Package views renders the practice pages. The components are written in the .templ
// files next to this one; run `templ generate` after editing them.
package views

//go:generate go run github.com/a-h/templ/cmd/templ@v0.3.977 generate

import (
	"context"
	"fmt"

	"github.com/a-h/templ"

	appI18n "github.com/pavelanni/aptitude/internal/i18n"
	"github.com/pavelanni/aptitude/internal/model"
	"github.com/pavelanni/aptitude/internal/practice"
	"github.com/pavelanni/aptitude/internal/timer"
)

type basePathCtxKey struct{}

// ContextWithBasePath stores the URL prefix for sub-path deployments.
func ContextWithBasePath(ctx context.Context, basePath string) context.Context {
	return context.WithValue(ctx, basePathCtxKey{}, basePath)
}

// BasePathFromContext returns the URL prefix, empty when not set.
func BasePathFromContext(ctx context.Context) string {
	bp, _ := ctx.Value(basePathCtxKey{}).(string)
	return bp
}

type csrfCtxKey struct{}

// ContextWithCSRFToken stores the token the page's forms must echo back.
func ContextWithCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, csrfCtxKey{}, token)
}

// CSRFTokenFromContext returns the form token, empty when not set.
func CSRFTokenFromContext(ctx context.Context) string {
	t, _ := ctx.Value(csrfCtxKey{}).(string)
	return t
}

func url(ctx context.Context, path string) string {
	return BasePathFromContext(ctx) + path
}

// PageView is everything the exam page shows.
type PageView struct {
	SessionID  string
	Exam       model.Exam
	Selections map[string]string
	Timers     []timer.State
	Results    *practice.Results
	Notice     *model.Notice
}

func sectionTitle(ctx context.Context, name string) string {
	return appI18n.Title(ctx, "Section", name)
}

func optionLabel(o model.Option) string {
	if o.Label == "" {
		return o.Value
	}
	return o.Label
}

func noticeOrEmpty(n *model.Notice) model.Notice {
	if n == nil {
		return model.Notice{Kind: model.NoticeInfo}
	}
	return *n
}

// barLabel reads "Math: 50% (1/2)".
func barLabel(ctx context.Context, b practice.Bar) string {
	return fmt.Sprintf("%s: %d%% (%d/%d)", sectionTitle(ctx, b.Label), b.Percent, b.Tally.Correct, b.Tally.Total)
}

// sectionHeading reads "Math: 1/2 (50%)".
func sectionHeading(ctx context.Context, sb practice.SectionBreakdown) string {
	return fmt.Sprintf("%s: %d/%d (%d%%)", sectionTitle(ctx, string(sb.Section)), sb.Tally.Correct, sb.Tally.Total, sb.Percent)
}

func answerLine(ctx context.Context, r model.QuestionResult) string {
	selected := r.Selected
	if selected == "" {
		selected = appI18n.T(ctx, "NoAnswer")
	}
	return fmt.Sprintf("%s: %s · %s: %s", appI18n.T(ctx, "Selected"), selected, appI18n.T(ctx, "CorrectAnswer"), r.Answer)
}

func percentWidth(p int) templ.SafeCSS {
	return templ.SafeCSS(fmt.Sprintf("width:%d%%", p))
}
