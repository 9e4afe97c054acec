package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/itchan-dev/forum/shared/config"
	"github.com/itchan-dev/forum/shared/domain"
	internal_errors "github.com/itchan-dev/forum/shared/errors"
)

// TitleValidator decides which characters a thread title may contain.
type TitleValidator interface {
	Title(title domain.ThreadTitle) error
}

// LegalTitle rejects characters that would break links to the thread.
type LegalTitle struct {
	validate *validator.Validate
}

func NewLegalTitle() *LegalTitle {
	return &LegalTitle{validate: validator.New()}
}

func (v *LegalTitle) Title(title domain.ThreadTitle) error {
	// 0x7C is '|', which the tag syntax reserves
	if err := v.validate.Var(title, "excludesall=#<>[]{}0x7C"); err != nil {
		return internal_errors.ValidationFailed("Title contains illegal characters")
	}
	for _, r := range title {
		if unicode.IsControl(r) {
			return internal_errors.ValidationFailed("Title contains illegal characters")
		}
	}
	return nil
}

// Guard validates submissions before they reach storage. The double-post
// and title uniqueness checks themselves run inside the insert transaction;
// the guard only supplies the window start.
type Guard struct {
	titles  TitleValidator
	captcha CaptchaVerifier
	cfg     *config.Public
	now     Clock
}

// NewGuard accepts a nil captcha verifier when use_captcha is off.
func NewGuard(titles TitleValidator, captcha CaptchaVerifier, cfg *config.Public, now Clock) *Guard {
	if now == nil {
		now = SystemClock
	}
	return &Guard{titles: titles, captcha: captcha, cfg: cfg, now: now}
}

func (g *Guard) Now() time.Time {
	return g.now()
}

// DuplicateSince is the start of the double-post window; zero disables it.
func (g *Guard) DuplicateSince() time.Time {
	if g.cfg.DoublePostWindow <= 0 {
		return time.Time{}
	}
	return g.now().Add(-g.cfg.DoublePostWindow)
}

// Name validates category and forum names.
func (g *Guard) Name(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", internal_errors.ValidationFailed("Name is empty")
	}
	if g.cfg.MaxTitleLength > 0 && utf8.RuneCountInString(name) > g.cfg.MaxTitleLength {
		return "", internal_errors.ValidationFailed(fmt.Sprintf("Name is longer than %d characters", g.cfg.MaxTitleLength))
	}
	return name, nil
}

func (g *Guard) Title(title domain.ThreadTitle) (domain.ThreadTitle, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", internal_errors.ValidationFailed("Title is empty")
	}
	if g.cfg.MaxTitleLength > 0 && utf8.RuneCountInString(title) > g.cfg.MaxTitleLength {
		return "", internal_errors.ValidationFailed(fmt.Sprintf("Title is longer than %d characters", g.cfg.MaxTitleLength))
	}
	if err := g.titles.Title(title); err != nil {
		return "", err
	}
	return title, nil
}

func (g *Guard) Text(text domain.PostText) (domain.PostText, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", internal_errors.ValidationFailed("Text is empty")
	}
	if g.cfg.MaxTextLength > 0 && utf8.RuneCountInString(text) > g.cfg.MaxTextLength {
		return "", internal_errors.ValidationFailed(fmt.Sprintf("Text is longer than %d characters", g.cfg.MaxTextLength))
	}
	return text, nil
}

// Captcha passes everything unless use_captcha is set.
func (g *Guard) Captcha(ctx context.Context, actor domain.Actor, token string) error {
	if !g.cfg.UseCaptcha || g.captcha == nil {
		return nil
	}
	if err := g.captcha.Verify(ctx, actor, token); err != nil {
		return internal_errors.ValidationFailed("Captcha check failed")
	}
	return nil
}
