// dashctl is a small operator CLI over the dashboard API client. It
// exercises the full pipeline: config, session persistence, the request
// facade, the query cache, and the access guard.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	apiclient "github.com/jrsteele09/go-api-client"
	"github.com/jrsteele09/go-api-client/api"
	"github.com/jrsteele09/go-api-client/config"
	"github.com/jrsteele09/go-api-client/guard"
	"github.com/jrsteele09/go-api-client/query"
	"github.com/jrsteele09/go-api-client/session"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type app struct {
	configPath string
	core       *apiclient.Core
	log        zerolog.Logger
}

func (a *app) init() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	a.log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	core, err := apiclient.New(cfg,
		apiclient.WithLogger(a.log),
		apiclient.WithNotifier(api.LogNotifier(a.log)),
		apiclient.WithRedirect(func() {
			fmt.Fprintln(os.Stderr, "signed out - run 'dashctl login' to continue")
		}),
	)
	if err != nil {
		return err
	}
	a.core = core
	return nil
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "dashctl",
		Short:         "Operator CLI for the dashboard API",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to config file")

	root.AddCommand(newLoginCmd(a), newLogoutCmd(a), newWhoamiCmd(a), newGetCmd(a))
	return root
}

func newLoginCmd(a *app) *cobra.Command {
	var identityID, token, role string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store credentials for subsequent calls",
		RunE: func(cmd *cobra.Command, args []string) error {
			banner()
			s, err := a.core.Session.Login(identityID, token, session.Role(strings.ToUpper(role)))
			if err != nil {
				return err
			}
			fmt.Printf("logged in as %s (%s)\n", s.IdentityID, s.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&identityID, "id", "", "identity id")
	cmd.Flags().StringVar(&token, "token", "", "bearer credential")
	cmd.Flags().StringVar(&role, "role", "", "role: driver, staff or admin")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("token")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a.core.Session.Logout()
			fmt.Println("logged out")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := a.core.Session.Current()
			if !s.Authenticated() {
				fmt.Println("not logged in")
				return nil
			}
			fmt.Printf("%s (%s)\n", s.IdentityID, s.Role)
			if ti := session.Introspect(s.Token); !ti.Opaque && ti.ExpiresAt != nil {
				fmt.Printf("credential expires %s\n", ti.ExpiresAt.Local())
			}
			return nil
		},
	}
}

func newGetCmd(a *app) *cobra.Command {
	var params []string

	cmd := &cobra.Command{
		Use:   "get <path>",
		Short: "Fetch a resource through the cached read path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.core.Guard.Check(guard.AnyAuthenticated()) {
				return fmt.Errorf("login required")
			}

			path := args[0]
			values := url.Values{}
			for _, p := range params {
				if key, value, ok := strings.Cut(p, "="); ok {
					values.Set(key, value)
				}
			}

			key := query.Key("get", path, values.Encode())
			data, err := a.core.Cache.Get(cmd.Context(), key, func(ctx context.Context) (any, error) {
				var out any
				if err := a.core.API.Fetch(ctx, path, values, &out); err != nil {
					return nil, err
				}
				return out, nil
			})
			if err != nil {
				return err
			}

			rendered, err := json.MarshalIndent(data, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(rendered))
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&params, "param", nil, "query parameter key=value")
	return cmd
}

func banner() {
	figure.NewFigure("dashctl", "cybermedium", true).Print()
	fmt.Println()
}
