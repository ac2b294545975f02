package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/frahmantamala/store-auth/internal"
	"github.com/frahmantamala/store-auth/internal/admin"
	"github.com/frahmantamala/store-auth/internal/auth"
	"github.com/frahmantamala/store-auth/internal/permission"
	permissionPostgres "github.com/frahmantamala/store-auth/internal/permission/postgres"
	userPostgres "github.com/frahmantamala/store-auth/internal/user/postgres"
	"github.com/frahmantamala/store-auth/pkg/logger"
	"github.com/spf13/cobra"
)

const seedTimeout = 2 * time.Minute

var (
	seedVerify    bool
	seedSkipAdmin bool
)

var ErrPermissionDrift = errors.New("permission catalog drifted from policy")

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the permission catalog and the admin account",
	Long:  `Upsert one permission row per code from the policy table and create the configured admin account if none exists.`,
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().BoolVar(&seedVerify, "verify", false, "only report rows that differ from the policy table")
	seedCmd.Flags().BoolVar(&seedSkipAdmin, "skip-admin", false, "do not create the admin account")
}

func runSeed(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	logger.Init(cfg.AppEnv, cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)
	lg := logger.LoggerWrapper()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := internal.WithTimeout(ctx, seedTimeout)
	defer cancel()

	sqlDB, gormDB, err := openDatabases(cfg.Database)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	seeder := permission.NewSeeder(permissionPostgres.NewCatalogRepository(gormDB), lg)

	if seedVerify {
		drifts, err := seeder.Verify(ctx)
		if err != nil {
			return err
		}
		for _, d := range drifts {
			lg.Warn("permission drift", "code", d.Code, "action", d.Action, "reason", d.Reason)
		}
		if len(drifts) > 0 {
			return fmt.Errorf("%w: %d rows", ErrPermissionDrift, len(drifts))
		}
		lg.Info("permission catalog matches policy")
		return nil
	}

	result, err := seeder.Seed(ctx)
	if err != nil {
		return err
	}
	lg.Info("permissions seeded", "created", result.Created, "updated", result.Updated)

	if seedSkipAdmin {
		return nil
	}

	hasher := auth.NewPasswordHasher(cfg.Security.Argon2)
	adminService := admin.NewService(userPostgres.NewUserRepository(gormDB), hasher, nil, nil, cfg.Server.FrontendURL, auth.GeneratePassword, lg)
	created, err := adminService.SeedAdmin(ctx, cfg.Admin)
	if err != nil {
		return err
	}
	lg.Info("admin seed finished", "created", created)
	return nil
}
