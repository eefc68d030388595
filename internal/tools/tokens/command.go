package tokens

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/bearer-auth-api/internal/repository"
	"github.com/sandeepkv93/bearer-auth-api/internal/service"
	"github.com/sandeepkv93/bearer-auth-api/internal/tools/common"
)

const exitTokensFailed = 3

func NewRootCommand() *cobra.Command {
	opts := &common.Options{Tool: "tokens"}
	cmd := &cobra.Command{
		Use:           "tokens",
		Short:         "Access token maintenance",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	opts.Bind(cmd, time.Minute)
	cmd.AddCommand(newPruneCommand(opts), newRevokeCommand(opts))
	return cmd
}

func newPruneCommand(opts *common.Options) *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete tokens created before now minus --older-than",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.Execute("prune", exitTokensFailed, func(ctx context.Context) ([]string, error) {
				cfg, db, err := common.LoadConfigDB(opts.EnvFile)
				if err != nil {
					return nil, err
				}
				defer common.CloseDB(db)
				store, release, err := common.OpenTokenStore(ctx, cfg, db)
				if err != nil {
					return nil, err
				}
				defer release()
				return prune(ctx, service.NewTokenService(store, cfg.AccessTokenTTL), olderThan, time.Now())
			})
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "minimum token age to delete")
	return cmd
}

func newRevokeCommand(opts *common.Options) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "revoke",
		Short: "Revoke every token of the user with --email",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.Execute("revoke", exitTokensFailed, func(ctx context.Context) ([]string, error) {
				cfg, db, err := common.LoadConfigDB(opts.EnvFile)
				if err != nil {
					return nil, err
				}
				defer common.CloseDB(db)
				store, release, err := common.OpenTokenStore(ctx, cfg, db)
				if err != nil {
					return nil, err
				}
				defer release()
				authSvc := service.NewAuthService(cfg, repository.NewUserRepository(db), service.NewTokenService(store, cfg.AccessTokenTTL))
				return revoke(ctx, authSvc, email)
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	return cmd
}

func prune(ctx context.Context, tokens *service.TokenService, olderThan time.Duration, now time.Time) ([]string, error) {
	if olderThan <= 0 {
		return nil, errors.New("--older-than must be > 0")
	}
	cutoff := now.Add(-olderThan).UTC()
	n, err := tokens.Prune(ctx, cutoff)
	if err != nil {
		return nil, err
	}
	return []string{
		"cutoff: " + cutoff.Format(time.RFC3339),
		fmt.Sprintf("pruned=%d", n),
	}, nil
}

type userTokenRevoker interface {
	RevokeUserTokens(ctx context.Context, email string) (int64, error)
}

func revoke(ctx context.Context, svc userTokenRevoker, email string) ([]string, error) {
	if email == "" {
		return nil, errors.New("--email is required")
	}
	n, err := svc.RevokeUserTokens(ctx, email)
	if errors.Is(err, service.ErrUserNotFound) {
		return nil, fmt.Errorf("no user with email %s", email)
	}
	if err != nil {
		return nil, err
	}
	return []string{fmt.Sprintf("revoked=%d", n)}, nil
}
