package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"github.com/geocoder89/userhub/internal/auth"
	"github.com/geocoder89/userhub/internal/config"
	"github.com/geocoder89/userhub/internal/domain/user"
	"github.com/geocoder89/userhub/internal/security"
)

const (
	idFlag       = "id"
	emailFlag    = "email"
	roleFlag     = "role"
	tokenFlag    = "token"
	passwordFlag = "password"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "tokenctl",
		Short: "Operator tooling for userhub tokens and password hashes",
		Long: `Mint and inspect userhub bearer tokens and hash passwords.

Signing secret, token lifetime and bcrypt cost are read from the same
environment (and .env file) as the API server.

Examples:
  tokenctl issue --id 1 --email admin@spsgroup.com.br --role admin
  tokenctl verify --token eyJhbGciOi...
  tokenctl hash --password s3cret`,
		SilenceUsage: true,
	}

	root.AddCommand(newIssueCommand())
	root.AddCommand(newVerifyCommand())
	root.AddCommand(newHashCommand())
	return root
}

func newIssueCommand() *cobra.Command {
	flags := map[string]cobraflags.Flag{
		idFlag: &cobraflags.StringFlag{
			Name:  idFlag,
			Value: "",
			Usage: "User id to embed in the token (required)",
		},
		emailFlag: &cobraflags.StringFlag{
			Name:  emailFlag,
			Value: "",
			Usage: "User email to embed in the token (required)",
		},
		roleFlag: &cobraflags.StringFlag{
			Name:  roleFlag,
			Value: user.RoleUser,
			Usage: "Role to embed in the token (admin or user)",
		},
	}

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a signed access token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := strconv.ParseInt(flags[idFlag].GetString(), 10, 64)
			if err != nil || id <= 0 {
				return errors.New("--id must be a positive integer")
			}

			email := strings.TrimSpace(flags[emailFlag].GetString())
			if email == "" {
				return errors.New("--email is required")
			}

			role := flags[roleFlag].GetString()
			if role != user.RoleAdmin && role != user.RoleUser {
				return fmt.Errorf("--role must be %q or %q", user.RoleAdmin, user.RoleUser)
			}

			cfg := config.Load()
			tokens := auth.NewManager(cfg.JWTSecret, cfg.JWTExpiresIn)

			token, expiresAt, err := tokens.Issue(user.User{ID: id, Email: email, Role: role})
			if err != nil {
				return fmt.Errorf("issue token: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, token)
			fmt.Fprintf(out, "expires at %s (%s)\n", expiresAt.Format("2006-01-02T15:04:05Z07:00"), tokens.TTL())
			return nil
		},
	}

	cobraflags.RegisterMap(cmd, flags)
	return cmd
}

func newVerifyCommand() *cobra.Command {
	flags := map[string]cobraflags.Flag{
		tokenFlag: &cobraflags.StringFlag{
			Name:  tokenFlag,
			Value: "",
			Usage: "Token to verify (required)",
		},
	}

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a token and print its claims",
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw := strings.TrimSpace(flags[tokenFlag].GetString())
			raw = strings.TrimSpace(strings.TrimPrefix(raw, "Bearer "))
			if raw == "" {
				return errors.New("--token is required")
			}

			cfg := config.Load()

			claims, err := auth.NewManager(cfg.JWTSecret, cfg.JWTExpiresIn).Verify(raw)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(claims)
		},
	}

	cobraflags.RegisterMap(cmd, flags)
	return cmd
}

func newHashCommand() *cobra.Command {
	flags := map[string]cobraflags.Flag{
		passwordFlag: &cobraflags.StringFlag{
			Name:  passwordFlag,
			Value: "",
			Usage: "Plain-text password to hash (required)",
		},
	}

	cmd := &cobra.Command{
		Use:   "hash",
		Short: "Hash a password with the configured bcrypt cost",
		RunE: func(cmd *cobra.Command, _ []string) error {
			plain := flags[passwordFlag].GetString()
			if plain == "" {
				return errors.New("--password is required")
			}

			cfg := config.Load()

			hash, err := security.HashPasswordCost(plain, cfg.BcryptCost)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}

	cobraflags.RegisterMap(cmd, flags)
	return cmd
}
