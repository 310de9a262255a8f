package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/digitaldrywood/sheetsdemo/internal/app"
	"github.com/digitaldrywood/sheetsdemo/internal/config"
	"github.com/digitaldrywood/sheetsdemo/internal/database"
	"github.com/digitaldrywood/sheetsdemo/internal/google"
)

type cli struct {
	cfg   *config.Config
	debug bool
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "sheetsdemo",
		Short: "Sign in to Google and read or append to the demo spreadsheet",
		Long: `sheetsdemo signs in to a Google account and reads cell Sheet1!A1 from,
or appends a fixed block of values to, a single hard-coded spreadsheet.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			c.cfg = cfg
			setupLogging(c.debug || cfg.Debug)
			return nil
		},
	}

	root.PersistentFlags().BoolVar(&c.debug, "debug", false, "Enable debug logging")

	root.AddCommand(
		c.action("signin", "Sign in to Google in the browser", func(a *app.App) error {
			a.SignIn()
			return a.Wait()
		}),
		c.action("signout", "Forget the signed in account", func(a *app.App) error {
			a.SignOut()
			return a.Wait()
		}),
		c.action("read", "Read cell "+config.ReadRange, func(a *app.App) error {
			a.Read()
			return a.Wait()
		}),
		c.action("write", "Append two rows to "+config.AppendRange, func(a *app.App) error {
			a.Write()
			return a.Wait()
		}),
		c.action("status", "Show the signed in account", func(a *app.App) error {
			fmt.Fprintln(root.OutOrStdout(), a.Status())
			return nil
		}),
		c.shellCmd(),
		versionCmd(),
	)

	return root
}

func (c *cli) action(use, short string, run func(a *app.App) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, run)
		},
	}
}

func (c *cli) shellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Run actions interactively, one per line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(a *app.App) error {
				if err := runShell(cmd.Context(), a, cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
					return err
				}
				return a.Close()
			}, app.Interactive())
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display the current version",
		Args:  cobra.NoArgs,
		// no configuration needed
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

// withApp wires the account store, session and sheets client into an App
// for the duration of run. SIGINT and SIGTERM cancel outstanding actions.
func (c *cli) withApp(cmd *cobra.Command, run func(a *app.App) error, opts ...app.Option) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cmd.SetContext(ctx)

	db, err := database.New(c.cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open account store: %w", err)
	}
	defer db.Close()

	auth, err := google.NewAuth(c.cfg.CredentialsPath, c.cfg.OAuthRedirectURL, db)
	if err != nil {
		return fmt.Errorf("failed to create auth client: %w", err)
	}
	defer auth.Close()

	sheets := google.NewSheetsClient(config.ApplicationName)

	a := app.New(ctx, auth, sheets, cmd.OutOrStdout(), opts...)
	defer a.Close()

	if err := a.Start(); err != nil {
		return fmt.Errorf("failed to restore sign in: %w", err)
	}

	return run(a)
}
