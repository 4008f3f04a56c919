package config_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/okian/tripsync/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.TaskID, convey.ShouldEqual, "insert_into_sqlite")
				convey.So(cfg.Source.Port, convey.ShouldEqual, 9440)
				convey.So(cfg.Sink.ConnID, convey.ShouldEqual, "my_sqlite_conn")
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("TRIPSYNC_LOG_LEVEL", "debug")
			_ = os.Setenv("TRIPSYNC_SOURCE__HOST", "clickhouse.internal")
			_ = os.Setenv("TRIPSYNC_SOURCE__PORT", "9000")
			_ = os.Setenv("TRIPSYNC_SOURCE__SECURE", "false")
			_ = os.Setenv("TRIPSYNC_SOURCE__PASSWORD", "s3cret")
			_ = os.Setenv("TRIPSYNC_SOURCE__DIAL_TIMEOUT", "3s")
			_ = os.Setenv("TRIPSYNC_CONNECTIONS__MY_SQLITE_CONN__PATH", "/var/lib/tripsync/metrics.db")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
				convey.So(cfg.Source.Host, convey.ShouldEqual, "clickhouse.internal")
				convey.So(cfg.Source.Port, convey.ShouldEqual, 9000)
				convey.So(cfg.Source.Secure, convey.ShouldBeFalse)
				convey.So(cfg.Source.Password, convey.ShouldEqual, "s3cret")
				convey.So(cfg.Source.DialTimeout, convey.ShouldEqual, 3*time.Second)

				p, err := cfg.SinkProfile()
				convey.So(err, convey.ShouldBeNil)
				convey.So(p.Path, convey.ShouldEqual, "/var/lib/tripsync/metrics.db")
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
task_id: weekend_metrics
source:
  host: 10.0.0.7
  port: 9000
  secure: false
  read_timeout: 30s
sink:
  conn_id: analytics
connections:
  analytics:
    path: /data/analytics.db
    busy_timeout: 2s
metrics:
  pushgateway_url: http://pushgateway:9091
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("TRIPSYNC_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.TaskID, convey.ShouldEqual, "weekend_metrics")
				convey.So(cfg.Source.Host, convey.ShouldEqual, "10.0.0.7")
				convey.So(cfg.Source.ReadTimeout, convey.ShouldEqual, 30*time.Second)
				convey.So(cfg.Source.Database, convey.ShouldEqual, "default") // From defaults
				convey.So(cfg.Metrics.PushgatewayURL, convey.ShouldEqual, "http://pushgateway:9091")

				p, err := cfg.SinkProfile()
				convey.So(err, convey.ShouldBeNil)
				convey.So(p.Path, convey.ShouldEqual, "/data/analytics.db")
				convey.So(p.BusyTimeout, convey.ShouldEqual, 2*time.Second)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
source:
  host: 10.0.0.7
  user: reader
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("TRIPSYNC_CONFIG", tmpFile)
			_ = os.Setenv("TRIPSYNC_SOURCE__USER", "etl") // This should override the file
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Source.Host, convey.ShouldEqual, "10.0.0.7") // From file
				convey.So(cfg.Source.User, convey.ShouldEqual, "etl")      // Overridden by env
			})
		})

		convey.Convey("When a mixed-case alias from the file is overridden by env", func() {
			yamlContent := `
sink:
  conn_id: Analytics
connections:
  Analytics:
    path: /data/analytics.db
    busy_timeout: 2s
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("TRIPSYNC_CONFIG", tmpFile)
			_ = os.Setenv("TRIPSYNC_CONNECTIONS__ANALYTICS__PATH", "/override/analytics.db")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then the env value should win for the same alias", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Connections, convey.ShouldContainKey, "analytics")
				convey.So(cfg.Connections, convey.ShouldNotContainKey, "Analytics")

				p, err := cfg.SinkProfile()
				convey.So(err, convey.ShouldBeNil)
				convey.So(p.Path, convey.ShouldEqual, "/override/analytics.db")
			})
		})

		convey.Convey("When the sink alias points nowhere", func() {
			_ = os.Setenv("TRIPSYNC_SINK__CONN_ID", "unknown_conn")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an invalid config error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			invalidYaml := `invalid: yaml: content: [`
			tmpFile := createTempConfigFile(invalidYaml)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("TRIPSYNC_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("TRIPSYNC_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func createTempConfigFile(content string) string {
	f, err := os.CreateTemp("", "tripsync-config-*.yaml")
	if err != nil {
		panic(err)
	}
	defer func() { _ = f.Close() }()
	if _, err := f.WriteString(content); err != nil {
		panic(err)
	}
	return f.Name()
}

func clearConfigEnvVars() {
	for _, name := range []string{
		"TRIPSYNC_CONFIG",
		"TRIPSYNC_LOG_LEVEL",
		"TRIPSYNC_SOURCE__HOST",
		"TRIPSYNC_SOURCE__PORT",
		"TRIPSYNC_SOURCE__SECURE",
		"TRIPSYNC_SOURCE__USER",
		"TRIPSYNC_SOURCE__PASSWORD",
		"TRIPSYNC_SOURCE__DIAL_TIMEOUT",
		"TRIPSYNC_SINK__CONN_ID",
		"TRIPSYNC_CONNECTIONS__MY_SQLITE_CONN__PATH",
		"TRIPSYNC_CONNECTIONS__ANALYTICS__PATH",
	} {
		_ = os.Unsetenv(name)
	}
}
