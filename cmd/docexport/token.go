package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/gosuda/docexport/internal/auth"
	"github.com/gosuda/docexport/internal/config"
	"github.com/gosuda/docexport/internal/server/middleware"
)

var tokenFlags struct {
	tenant  string
	subject string
	role    string
	ttl     time.Duration
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token signed with DOCEXPORT_JWT_SECRET",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if !cfg.AuthEnabled() {
			return errors.New("token: DOCEXPORT_JWT_SECRET is not set")
		}

		tenantID := uuid.New()
		if tokenFlags.tenant != "" {
			tenantID, err = uuid.Parse(tokenFlags.tenant)
			if err != nil {
				return fmt.Errorf("token: invalid tenant id: %w", err)
			}
		}

		switch tokenFlags.role {
		case middleware.RoleAdmin, middleware.RoleClient:
		default:
			return fmt.Errorf("token: unknown role %q", tokenFlags.role)
		}

		token, err := auth.IssueToken(cfg.JWT.Secret, tenantID, tokenFlags.subject, tokenFlags.role, tokenFlags.ttl)
		if err != nil {
			return err
		}

		_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
		return err
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenFlags.tenant, "tenant", "", "tenant id (random when empty)")
	tokenCmd.Flags().StringVar(&tokenFlags.subject, "subject", "docexport-cli", "token subject")
	tokenCmd.Flags().StringVar(&tokenFlags.role, "role", middleware.RoleClient, "admin or client")
	tokenCmd.Flags().DurationVar(&tokenFlags.ttl, "ttl", 24*time.Hour, "token lifetime")
}
