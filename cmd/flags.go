package cmd

import (
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func logLevelFlag(v *viper.Viper) string {
	return v.GetString("log.level")
}

func addLogLevelFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("log-level", "info", "log level")
	_ = v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = v.BindEnv("log.level", "LOG_LEVEL")
}

func logFormatFlag(v *viper.Viper) string {
	return v.GetString("log.format")
}

func addLogFormatFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("log-format", "json", "log format")
	_ = v.BindPFlag("log.format", flags.Lookup("log-format"))
	_ = v.BindEnv("log.format", "LOG_FORMAT")
}

func addressFlag(v *viper.Viper) string {
	return v.GetString("address")
}

func addAddressFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("address", ":3000", "Address to bind to (host:port)")
	_ = v.BindPFlag("address", flags.Lookup("address"))
	_ = v.BindEnv("address", "LYRIC_SERVER_ADDRESS")
}

func lyricsDirFlag(v *viper.Viper) string {
	return v.GetString("lyrics.dir")
}

func addLyricsDirFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("lyrics-dir", "data/lyrics", "Directory holding the lyric .txt files")
	_ = v.BindPFlag("lyrics.dir", flags.Lookup("lyrics-dir"))
	_ = v.BindEnv("lyrics.dir", "LYRIC_SERVER_LYRICS_DIR")
}

func publicDirFlag(v *viper.Viper) string {
	return v.GetString("public.dir")
}

func addPublicDirFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("public-dir", "public", "Directory holding the entry and login pages, empty for API only")
	_ = v.BindPFlag("public.dir", flags.Lookup("public-dir"))
	_ = v.BindEnv("public.dir", "LYRIC_SERVER_PUBLIC_DIR")
}

func adminPasswordFlag(v *viper.Viper) string {
	return v.GetString("admin.password")
}

func addAdminPasswordFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("admin-password", "admin", "Shared admin password")
	_ = v.BindPFlag("admin.password", flags.Lookup("admin-password"))
	_ = v.BindEnv("admin.password", "ADMIN_PASSWORD")
}

func adminPasswordHashFlag(v *viper.Viper) string {
	return v.GetString("admin.password_hash")
}

func addAdminPasswordHashFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("admin-password-hash", "", "Bcrypt hash of the admin password, takes precedence over the plaintext one")
	_ = v.BindPFlag("admin.password_hash", flags.Lookup("admin-password-hash"))
	_ = v.BindEnv("admin.password_hash", "ADMIN_PASSWORD_HASH")
}

func sessionSecretFlag(v *viper.Viper) string {
	return v.GetString("session.secret")
}

func addSessionSecretFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("session-secret", "lyrics-admin-secret-key", "Secret used to sign session cookies")
	_ = v.BindPFlag("session.secret", flags.Lookup("session-secret"))
	_ = v.BindEnv("session.secret", "SESSION_SECRET")
}

func sessionTTLFlag(v *viper.Viper) time.Duration {
	return v.GetDuration("session.ttl")
}

func addSessionTTLFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Duration("session-ttl", 24*time.Hour, "Absolute session lifetime, measured from login")
	_ = v.BindPFlag("session.ttl", flags.Lookup("session-ttl"))
	_ = v.BindEnv("session.ttl", "LYRIC_SERVER_SESSION_TTL")
}

func storageTypeFlag(v *viper.Viper) string {
	return v.GetString("storage.type")
}

func addStorageTypeFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("storage-type", "filesystem", "Record storage backend (filesystem, blob)")
	_ = v.BindPFlag("storage.type", flags.Lookup("storage-type"))
	_ = v.BindEnv("storage.type", "LYRIC_SERVER_STORAGE_TYPE")
}

func storageBlobBucketFlag(v *viper.Viper) string {
	return v.GetString("storage.blob.bucket")
}

func addStorageBlobBucketFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("storage-blob-bucket", "", "Bucket URL for blob storage (gs://bucket-name)")
	_ = v.BindPFlag("storage.blob.bucket", flags.Lookup("storage-blob-bucket"))
	_ = v.BindEnv("storage.blob.bucket", "LYRIC_SERVER_STORAGE_BLOB_BUCKET")
}

func storageBlobPrefixFlag(v *viper.Viper) string {
	return v.GetString("storage.blob.prefix")
}

func addStorageBlobPrefixFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.String("storage-blob-prefix", "", "Optional key prefix within the blob bucket")
	_ = v.BindPFlag("storage.blob.prefix", flags.Lookup("storage-blob-prefix"))
	_ = v.BindEnv("storage.blob.prefix", "LYRIC_SERVER_STORAGE_BLOB_PREFIX")
}

func gracefulPeriodFlag(v *viper.Viper) time.Duration {
	return v.GetDuration("graceful_period")
}

func addGracefulPeriodFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Duration("graceful-period", 30*time.Second, "Grace period for shutdown")
	_ = v.BindPFlag("graceful_period", flags.Lookup("graceful-period"))
	_ = v.BindEnv("graceful_period", "LYRIC_SERVER_GRACEFUL_PERIOD")
}

func gzipLevelFlag(v *viper.Viper) int {
	return v.GetInt("gzip.level")
}

func addGzipLevelFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Int("gzip-level", 6, "GZip compression level for responses")
	_ = v.BindPFlag("gzip.level", flags.Lookup("gzip-level"))
	_ = v.BindEnv("gzip.level", "LYRIC_SERVER_GZIP_LEVEL")
}

func serviceHealthzEnabledFlag(v *viper.Viper) bool {
	return v.GetBool("service.healthz.enabled")
}

func addServiceHealthzEnabledFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("service-healthz-enabled", false, "Enable healthz service")
	_ = v.BindPFlag("service.healthz.enabled", flags.Lookup("service-healthz-enabled"))
}

func servicePrometheusEnabledFlag(v *viper.Viper) bool {
	return v.GetBool("service.prometheus.enabled")
}

func addServicePrometheusEnabledFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("service-prometheus-enabled", false, "Enable prometheus service")
	_ = v.BindPFlag("service.prometheus.enabled", flags.Lookup("service-prometheus-enabled"))
}

func otelEnabledFlag(v *viper.Viper) bool {
	return v.GetBool("otel.enabled")
}

func addOtelEnabledFlag(flags *pflag.FlagSet, v *viper.Viper) {
	flags.Bool("otel-enabled", false, "Enable otel service")
	_ = v.BindPFlag("otel.enabled", flags.Lookup("otel-enabled"))
	_ = v.BindEnv("otel.enabled", "OTEL_ENABLED")
}
