package seed

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/sandeepkv93/bearer-auth-api/internal/config"
	"github.com/sandeepkv93/bearer-auth-api/internal/database"
	"github.com/sandeepkv93/bearer-auth-api/internal/repository"
	"github.com/sandeepkv93/bearer-auth-api/internal/service"
	"github.com/sandeepkv93/bearer-auth-api/internal/tools/common"
)

const exitSeedFailed = 3

type userFlags struct {
	name     string
	email    string
	password string
	verified bool
}

func (f userFlags) input() service.RegisterInput {
	return service.RegisterInput{Name: f.name, Email: f.email, Password: f.password}
}

func NewRootCommand() *cobra.Command {
	opts := &common.Options{Tool: "seed"}
	flags := &userFlags{}
	cmd := &cobra.Command{
		Use:           "seed",
		Short:         "Database seed tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	opts.Bind(cmd, 30*time.Second)
	cmd.PersistentFlags().StringVar(&flags.name, "name", "", "display name")
	cmd.PersistentFlags().StringVar(&flags.email, "email", "", "account email")
	cmd.PersistentFlags().StringVar(&flags.password, "password", "", "account password")
	cmd.PersistentFlags().BoolVar(&flags.verified, "verified", false, "stamp email_verified_at on the new user")
	cmd.AddCommand(newUserCommand(opts, flags), newDryRunCommand(opts, flags))
	return cmd
}

func newUserCommand(opts *common.Options, flags *userFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "user",
		Short: "Create a user and print a bearer token for it",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.Execute("user", exitSeedFailed, func(ctx context.Context) ([]string, error) {
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
				return seedUser(ctx, cfg, db, store, *flags)
			})
		},
	}
}

func newDryRunCommand(opts *common.Options, flags *userFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "dry-run",
		Short: "Validate the user flags and report what user would do",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.Execute("dry-run", exitSeedFailed, func(ctx context.Context) ([]string, error) {
				_, db, err := common.LoadConfigDB(opts.EnvFile)
				if err != nil {
					return nil, err
				}
				defer common.CloseDB(db)
				return dryRun(ctx, repository.NewUserRepository(db), *flags)
			})
		},
	}
}

func seedUser(ctx context.Context, cfg *config.Config, db *gorm.DB, store repository.AccessTokenStore, f userFlags) ([]string, error) {
	authSvc := service.NewAuthService(cfg, repository.NewUserRepository(db), service.NewTokenService(store, cfg.AccessTokenTTL))
	res, err := authSvc.Register(ctx, f.input())
	if err != nil {
		return validationDetails(err), err
	}
	details := []string{
		fmt.Sprintf("created user id=%d email=%s", res.User.ID, res.User.Email),
		"access_token: " + res.AccessToken,
	}
	if f.verified {
		if err := database.MarkEmailVerified(db.WithContext(ctx), res.User.Email, time.Now()); err != nil {
			return details, err
		}
		details = append(details, "email marked verified")
	}
	return details, nil
}

func dryRun(ctx context.Context, users repository.UserRepository, f userFlags) ([]string, error) {
	in := f.input()
	if err := in.Validate(); err != nil {
		return validationDetails(err), err
	}
	existing, err := users.FindByEmail(ctx, normalize(in.Email))
	switch {
	case err == nil:
		return []string{fmt.Sprintf("email already registered to user id=%d; user would fail with a conflict", existing.ID)}, nil
	case !errors.Is(err, repository.ErrUserNotFound):
		return nil, err
	}
	details := []string{
		"would create user " + normalize(in.Email),
		"would issue one bearer token",
	}
	if f.verified {
		details = append(details, "would mark email verified")
	}
	return append(details, "no mutation executed in dry-run mode"), nil
}

func validationDetails(err error) []string {
	var verr *service.ValidationError
	if !errors.As(err, &verr) {
		return nil
	}
	var out []string
	for _, field := range slices.Sorted(maps.Keys(verr.Fields)) {
		for _, m := range verr.Fields[field] {
			out = append(out, field+": "+m)
		}
	}
	return out
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
