package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tutorconnect/internal/auth"
	"tutorconnect/internal/config"
)

var tokenFlags struct {
	user string
	role string
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an access token for local development",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, _ := config.Load()
		if cfg.Production() {
			return fmt.Errorf("refusing to mint tokens with APP_ENV=%s", cfg.Env)
		}
		ts := auth.NewTokenService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.AccessTTL)
		tok, exp, err := ts.Issue(tokenFlags.user, tokenFlags.role)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", exp.Format(time.RFC3339))
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenFlags.user, "user", "", "user id (token subject)")
	tokenCmd.Flags().StringVar(&tokenFlags.role, "role", auth.RoleStudent, "student, tutor or admin")
	_ = tokenCmd.MarkFlagRequired("user")
}
