package cmd

import (
	"context"
	"fmt"

	"github.com/foomo/keel"
	"github.com/foomo/keel/healthz"
	"github.com/foomo/keel/net/http/middleware"
	"github.com/foomo/keel/service"
	"github.com/lyricnext/lyricserver/pkg/handler"
	"github.com/lyricnext/lyricserver/pkg/session"
	"github.com/lyricnext/lyricserver/pkg/store"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

func NewServeCommand() *cobra.Command {
	v := newViper()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the lyric manager HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			svr := keel.NewServer(
				keel.WithHTTPPrometheusService(servicePrometheusEnabledFlag(v)),
				keel.WithHTTPHealthzService(serviceHealthzEnabledFlag(v)),
				keel.WithPrometheusMeter(servicePrometheusEnabledFlag(v)),
				keel.WithGracefulPeriod(gracefulPeriodFlag(v)),
				keel.WithOTLPGRPCTracer(otelEnabledFlag(v)),
			)

			l := svr.Logger()

			if err := validateConfig(v); err != nil {
				return err
			}

			storage, err := createStorage(cmd.Context(), v, l)
			if err != nil {
				return fmt.Errorf("failed to create storage: %w", err)
			}

			st := store.New(l.Named("inst.store"), storage)

			if adminPasswordHashFlag(v) == "" && adminPasswordFlag(v) == "admin" {
				l.Warn("running with the default admin password, set ADMIN_PASSWORD")
			}

			sessions := session.NewStore(l.Named("inst.sessions"),
				sessionSecretFlag(v),
				adminPasswordFlag(v),
				session.WithTTL(sessionTTLFlag(v)),
				session.WithPasswordHash(adminPasswordHashFlag(v)),
			)

			storeHealthzer := healthz.NewHealthzerFn(func(ctx context.Context) error {
				_, err := st.List(ctx)
				return err
			})
			svr.AddStartupHealthzers(storeHealthzer)
			svr.AddReadinessHealthzers(storeHealthzer)

			svr.AddClosers(func(ctx context.Context) error {
				return st.Close()
			})

			svr.AddServices(
				service.NewGoRoutine(l.Named("go.sessions"), "session-janitor", func(ctx context.Context, l *zap.Logger) error {
					return sessions.PurgeRoutine(ctx)
				}),
				service.NewHTTP(l.Named("svc.http"), "http", addressFlag(v),
					handler.NewHTTP(l.Named("inst.handler"), st, sessions,
						handler.WithPublicDir(publicDirFlag(v)),
					),
					middleware.Telemetry(),
					middleware.Logger(),
					middleware.GZip(middleware.GZipWithLevel(gzipLevelFlag(v))),
					middleware.Recover(),
				),
			)

			svr.Run()
			return nil
		},
	}

	flags := cmd.Flags()
	addAddressFlag(flags, v)
	addLyricsDirFlag(flags, v)
	addPublicDirFlag(flags, v)
	addAdminPasswordFlag(flags, v)
	addAdminPasswordHashFlag(flags, v)
	addSessionSecretFlag(flags, v)
	addSessionTTLFlag(flags, v)
	addStorageTypeFlag(flags, v)
	addStorageBlobBucketFlag(flags, v)
	addStorageBlobPrefixFlag(flags, v)
	addGracefulPeriodFlag(flags, v)
	addGzipLevelFlag(flags, v)
	addOtelEnabledFlag(flags, v)
	addServiceHealthzEnabledFlag(flags, v)
	addServicePrometheusEnabledFlag(flags, v)

	return cmd
}

// validateConfig collects every configuration problem at once instead of
// failing on the first one.
func validateConfig(v *viper.Viper) error {
	var err error
	if sessionSecretFlag(v) == "" {
		err = multierr.Append(err, errors.New("session secret must not be empty"))
	}
	if adminPasswordFlag(v) == "" && adminPasswordHashFlag(v) == "" {
		err = multierr.Append(err, errors.New("admin password or password hash must be set"))
	}
	if sessionTTLFlag(v) <= 0 {
		err = multierr.Append(err, errors.New("session ttl must be positive"))
	}
	if storageTypeFlag(v) == "blob" && storageBlobBucketFlag(v) == "" {
		err = multierr.Append(err, errors.New("blob bucket URL is required when storage-type is 'blob'"))
	}
	return err
}

// createStorage creates a record storage backend based on the configuration
func createStorage(ctx context.Context, v *viper.Viper, l *zap.Logger) (store.Storage, error) {
	storageType := storageTypeFlag(v)

	switch storageType {
	case "blob":
		bucket := storageBlobBucketFlag(v)
		l.Info("using blob storage",
			zap.String("bucket", bucket),
			zap.String("prefix", storageBlobPrefixFlag(v)),
		)
		return store.NewBlobStorage(ctx, bucket, storageBlobPrefixFlag(v))
	case "filesystem", "":
		dir := lyricsDirFlag(v)
		l.Info("using filesystem storage", zap.String("dir", dir))
		return store.NewFilesystemStorage(dir)
	default:
		return nil, fmt.Errorf("unknown storage type: %s (supported: filesystem, blob)", storageType)
	}
}
