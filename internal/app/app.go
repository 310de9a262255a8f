// Package app ties the session and spreadsheet clients to the four user
// actions: sign in, sign out, read and write.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/digitaldrywood/sheetsdemo/internal/config"
	"github.com/digitaldrywood/sheetsdemo/internal/google"
)

type Session interface {
	RestoreSignIn() (*google.Identity, error)
	BeginInteractiveSignIn(ctx context.Context) <-chan google.SignInResult
	CompleteSignIn(result google.SignInResult) error
	SignOut()
	Credential() *google.Credential
}

type Sheets interface {
	ReadCell(ctx context.Context, spreadsheetID string, rng google.Range, auth google.Authorizer) (string, error)
	AppendRows(ctx context.Context, spreadsheetID string, rng google.Range, grid google.Grid, auth google.Authorizer) (*google.AppendResult, error)
}

// App runs every action as a background task bound to its own context, so
// that Close cancels whatever is still in flight.
type App struct {
	session Session
	sheets  Sheets

	spreadsheetID string
	readRange     google.Range
	appendRange   google.Range
	values        google.Grid

	ctx    context.Context
	cancel context.CancelFunc
	tasks  errgroup.Group

	outMu sync.Mutex
	out   io.Writer

	interactive bool
}

type Option func(*App)

// Interactive keeps a failed action from failing the whole session. The
// failure is still logged when it happens.
func Interactive() Option {
	return func(a *App) {
		a.interactive = true
	}
}

func New(ctx context.Context, session Session, sheets Sheets, out io.Writer, opts ...Option) *App {
	ctx, cancel := context.WithCancel(ctx)

	a := &App{
		session:       session,
		sheets:        sheets,
		spreadsheetID: config.SpreadsheetID,
		readRange:     google.MustParseRange(config.ReadRange),
		appendRange:   google.MustParseRange(config.AppendRange),
		values:        google.Grid(config.WriteValues()),
		ctx:           ctx,
		cancel:        cancel,
		out:           out,
	}
	for _, opt := range opts {
		opt(a)
	}

	return a
}

func (a *App) Start() error {
	identity, err := a.session.RestoreSignIn()
	if err != nil {
		return err
	}
	if identity == nil {
		slog.Info("not signed in")
	}
	return nil
}

func (a *App) SignIn() {
	results := a.session.BeginInteractiveSignIn(a.ctx)

	a.run(func() error {
		result, ok := <-results
		if !ok {
			return nil
		}
		if err := a.session.CompleteSignIn(result); err != nil {
			return err
		}
		a.printf("Signed in as %s\n", describe(result.Identity))
		return nil
	})
}

func (a *App) SignOut() {
	a.session.SignOut()
	a.printf("Signed out\n")
}

func (a *App) Read() {
	a.run(func() error {
		value, err := a.sheets.ReadCell(a.ctx, a.spreadsheetID, a.readRange, a.session.Credential())
		if err != nil {
			slog.Error("read failed", "range", a.readRange.String(), "error", err)
			return err
		}

		slog.Info("read cell", "range", a.readRange.String(), "value", value)
		a.printf("%s = %s\n", a.readRange, value)
		return nil
	})
}

func (a *App) Write() {
	a.run(func() error {
		result, err := a.sheets.AppendRows(a.ctx, a.spreadsheetID, a.appendRange, a.values, a.session.Credential())
		if err != nil {
			slog.Error("write failed", "range", a.appendRange.String(), "error", err)
			return err
		}

		slog.Info("appended rows", "range", result.UpdatedRange, "rows", result.UpdatedRows)
		a.printf("Appended %d rows to %s\n", result.UpdatedRows, result.UpdatedRange)
		return nil
	})
}

func (a *App) Status() string {
	identity := a.session.Credential().Get()
	if identity == nil {
		return "Not signed in"
	}
	return "Signed in as " + describe(identity)
}

func (a *App) Wait() error {
	return a.tasks.Wait()
}

// Close cancels outstanding actions and waits for them to return.
func (a *App) Close() error {
	a.cancel()

	err := a.tasks.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (a *App) run(task func() error) {
	a.tasks.Go(func() error {
		err := task()
		if err != nil && a.interactive {
			return nil
		}
		return err
	})
}

func (a *App) printf(format string, args ...any) {
	a.outMu.Lock()
	defer a.outMu.Unlock()
	fmt.Fprintf(a.out, format, args...)
}

func describe(identity *google.Identity) string {
	if identity.DisplayName == "" {
		return identity.Email
	}
	return fmt.Sprintf("%s <%s>", identity.DisplayName, identity.Email)
}
