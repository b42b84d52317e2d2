package forms

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nike4192/laundry-bot/internal/booking"
	"github.com/nike4192/laundry-bot/internal/models"
	"github.com/nike4192/laundry-bot/internal/store"
)

// Titles are the flag-derived banners of a form. Priority when several
// apply: error > passed > reserved > finished > in-progress. A closed
// form never reaches the title chain; it renders as a bare hourglass.
type Titles struct {
	Finished string
	Passed   string
	Reserved string
}

// Config assembles a Form.
type Config struct {
	Store    store.Store
	Settings booking.Settings
	User     *models.User
	Data     models.FormData
	Actions  []Action
	Titles   Titles
	Now      func() time.Time

	// Finished reports whether all required values are chosen. A nil
	// predicate means the form finishes on reaching the last step.
	Finished func(ctx context.Context, f *Form) (bool, error)
}

// Form drives one persisted wizard session. It is a short-lived object
// constructed per interaction; rendering is a pure projection of the
// session plus flags and never mutates state.
type Form struct {
	st       store.Store
	settings booking.Settings
	user     *models.User
	data     models.FormData
	actions  []Action
	titles   Titles
	now      func() time.Time
	finished func(ctx context.Context, f *Form) (bool, error)

	resolver  *booking.Resolver
	closed    bool
	errorText string
}

// New builds a form; Data's step is clamped to the action range.
func New(cfg Config) *Form {
	f := &Form{
		st:       cfg.Store,
		settings: cfg.Settings,
		user:     cfg.User,
		data:     cfg.Data,
		actions:  cfg.Actions,
		titles:   cfg.Titles,
		now:      cfg.Now,
		finished: cfg.Finished,
	}
	if f.now == nil {
		f.now = time.Now
	}
	if step := f.data.Step(); step < 0 {
		f.data.SetStep(0)
	} else if step > len(f.actions)-1 {
		f.data.SetStep(len(f.actions) - 1)
	}
	return f
}

// Store returns the unit of work the form currently operates on.
func (f *Form) Store() store.Store { return f.st }

// Settings returns the booking policy.
func (f *Form) Settings() booking.Settings { return f.settings }

// User returns the interacting user.
func (f *Form) User() *models.User { return f.user }

// Data returns the persisted session.
func (f *Form) Data() models.FormData { return f.data }

// Now returns the form's evaluation moment.
func (f *Form) Now() time.Time { return f.now() }

// Resolver returns a memoized availability resolver for the current
// render pass. It is invalidated whenever the form mutates state.
func (f *Form) Resolver() *booking.Resolver {
	if f.resolver == nil {
		f.resolver = booking.NewResolver(f.st, f.settings, f.now())
	}
	return f.resolver
}

func (f *Form) resetResolver() { f.resolver = nil }

// MarkClosed flags the form as superseded; a closed form renders as a
// bare hourglass.
func (f *Form) MarkClosed() { f.closed = true }

// Closed reports whether the form was superseded.
func (f *Form) Closed() bool { return f.closed }

// SetErrorText sets the transient validation banner. The caller is
// responsible for re-rendering without it after the visibility window.
func (f *Form) SetErrorText(text string) { f.errorText = text }

// ClearError drops the transient validation banner.
func (f *Form) ClearError() { f.errorText = "" }

func (f *Form) passedFlag() bool {
	d, ok := f.data.(*models.AppointmentData)
	return ok && d.Passed
}

func (f *Form) reservedFlag() bool {
	d, ok := f.data.(*models.AppointmentData)
	return ok && d.Reserved
}

func (f *Form) isFinished(ctx context.Context) (bool, error) {
	if f.finished != nil {
		return f.finished(ctx, f)
	}
	return f.data.Step() == len(f.actions)-1, nil
}

func (f *Form) activeAction() Action { return f.actions[f.data.Step()] }

func (f *Form) title(ctx context.Context) (string, error) {
	switch {
	case f.errorText != "":
		return "🚫 " + f.errorText, nil
	case f.passedFlag():
		return "⌛ " + f.titles.Passed, nil
	case f.reservedFlag():
		return "🔒 " + f.titles.Reserved, nil
	}
	finished, err := f.isFinished(ctx)
	if err != nil {
		return "", err
	}
	if finished {
		return "✅ " + f.titles.Finished, nil
	}
	title := f.activeAction().ActionLabel()
	if len(f.actions) > 1 {
		title = fmt.Sprintf("%d/%d %s", f.data.Step()+1, len(f.actions), title)
	}
	return title, nil
}

// Render projects the form into a message payload. It never mutates
// the session.
type Render struct {
	Text      string
	ParseMode string
	Options   []Option
	Columns   int
}

const defaultParseMode = "Markdown"

// Render builds the current text and keyboard.
func (f *Form) Render(ctx context.Context) (Render, error) {
	if f.closed {
		return Render{Text: "⌛", ParseMode: defaultParseMode}, nil
	}

	if msg, ok := f.activeAction().(MessageAction); ok {
		text, err := msg.Text(ctx, f)
		if err != nil {
			return Render{}, err
		}
		return Render{Text: text, ParseMode: msg.ParseMode()}, nil
	}

	title, err := f.title(ctx)
	if err != nil {
		return Render{}, err
	}
	finished, err := f.isFinished(ctx)
	if err != nil {
		return Render{}, err
	}

	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n")
	for i, action := range f.actions {
		opt, ok := action.(OptionAction)
		if !ok {
			continue
		}
		value := "..."
		if i < f.data.Step() || finished {
			value, err = opt.Stringify(ctx, f)
			if err != nil {
				return Render{}, err
			}
			value = "*" + value + "*"
		}
		b.WriteString(fmt.Sprintf("\n%s: %s", opt.ItemLabel(), value))
	}

	r := Render{Text: b.String(), ParseMode: defaultParseMode}
	if f.passedFlag() || f.reservedFlag() {
		return r, nil
	}
	if opt, ok := f.activeAction().(OptionAction); ok {
		options, err := opt.Options(ctx, f)
		if err != nil {
			return Render{}, err
		}
		r.Options = options
		r.Columns = opt.Columns()
	}
	return r, nil
}

// Result is the outcome of a button press.
type Result struct {
	Accepted  bool
	ErrorText string
}

// HandleButton routes a press to the claimed step's action, applies the
// choice inside a transaction and advances the step on success.
// Availability is always re-derived from persisted state, never from
// what the pressed keyboard displayed.
func (f *Form) HandleButton(ctx context.Context, claimedStep int, value string) (Result, error) {
	if claimedStep < 0 || claimedStep >= len(f.actions) {
		return Result{}, nil
	}
	action, ok := f.actions[claimedStep].(OptionAction)
	if !ok {
		return Result{}, nil
	}
	f.data.SetStep(claimedStep)

	var res Result
	err := f.st.WithTx(ctx, func(tx store.Store) error {
		prev := f.st
		f.st = tx
		defer func() { f.st = prev }()
		f.resetResolver()

		accepted, errText, err := action.Apply(ctx, f, value)
		if err != nil {
			return err
		}
		res = Result{Accepted: accepted, ErrorText: errText}
		if !accepted {
			return nil
		}
		if f.data.Step() < len(f.actions)-1 {
			f.data.SetStep(f.data.Step() + 1)
		}
		return tx.SaveData(ctx, f.data)
	})
	f.resetResolver()
	if err != nil {
		return Result{}, err
	}
	if !res.Accepted && res.ErrorText != "" {
		f.errorText = res.ErrorText
	}
	return res, nil
}
