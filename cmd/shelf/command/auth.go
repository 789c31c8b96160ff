package command

import (
	"errors"
	"fmt"
	"io"

	petname "github.com/dustinkirkland/golang-petname"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/shelfhq/shelf/model"
)

func (a *app) loginCmd() *cobra.Command {
	var login, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if login == "" || password == "" {
				return errors.New("--login and --password are required")
			}
			if err := a.api.Session.SignIn(cmd.Context(), login, password); err != nil {
				return err
			}
			return a.emit(map[string]any{"authenticated": true, "login": login}, func(w io.Writer) {
				fmt.Fprintf(w, "signed in as %s\n", login)
			})
		},
	}
	cmd.Flags().StringVar(&login, "login", "", "account login")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.api.Session.SignOut(); err != nil {
				return err
			}
			return a.emit(map[string]any{"authenticated": false}, func(w io.Writer) {
				fmt.Fprintln(w, "signed out")
			})
		},
	}
}

func (a *app) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Report whether a token is stored",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ok := a.api.Session.Authenticated()
			return a.emit(map[string]any{"authenticated": ok, "api": a.conf.APIBaseURL}, func(w io.Writer) {
				if ok {
					fmt.Fprintf(w, "signed in to %s\n", a.conf.APIBaseURL)
				} else {
					fmt.Fprintf(w, "not signed in to %s\n", a.conf.APIBaseURL)
				}
			})
		},
	}
}

func (a *app) registerCmd() *cobra.Command {
	var req model.RegisterRequest
	var key string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Login == "" || req.PasswordHash == "" {
				return errors.New("--login and --password are required")
			}
			if req.Username == "" {
				req.Username = petname.Generate(2, "-")
			}
			user, err := a.api.Session.SignUp(cmd.Context(), req, key)
			if err != nil {
				return err
			}
			return a.emit(json.RawMessage(user), func(w io.Writer) {
				fmt.Fprintf(w, "registered %s (%s) and signed in\n", req.Login, req.Username)
			})
		},
	}
	cmd.Flags().StringVar(&req.Login, "login", "", "account login")
	cmd.Flags().StringVar(&req.PasswordHash, "password", "", "account password")
	cmd.Flags().StringVar(&req.Username, "username", "", "display name, generated when empty")
	cmd.Flags().StringVar(&key, "idempotency-key", "", "reuse a key when retrying a registration")
	return cmd
}
