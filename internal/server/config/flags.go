package config

import (
	"github.com/spf13/pflag"
)

// RegisterFlags declares every server flag on fs. Flag names equal the
// koanf keys, so a changed flag overrides the same key from the file or
// the environment.
//
// Short forms follow the historic ones:
//
//	-c  config file (YAML or JSON)
//	-a  HTTP port
//	-d  PostgreSQL DSN
//	-s  JWT HMAC secret key
//	-t  token ttl
func RegisterFlags(fs *pflag.FlagSet) {
	var d Config
	d.LoadDefaults()

	fs.StringP("config", "c", "", "path to a YAML or JSON config file")
	fs.String("host", d.Host, "HTTP bind host")
	fs.IntP("port", "a", d.Port, "HTTP bind port")
	fs.String("grpc-addr", d.GRPCAddr, "gRPC bind address, empty disables gRPC")
	fs.String("api-prefix", d.APIPrefix, "path prefix of the HTTP API")
	fs.String("store-driver", d.StoreDriver, "user store: mongo, postgres or memory")
	fs.String("mongo-uri", d.MongoURI, "MongoDB connection URI")
	fs.String("mongo-database", d.MongoDatabase, "MongoDB database name")
	fs.StringP("database-dsn", "d", d.DatabaseDSN, "PostgreSQL DSN")
	fs.StringP("secret-key", "s", d.SecretKey, "JWT signing secret")
	fs.DurationP("token-ttl", "t", d.TokenTTL, "session token lifetime")
	fs.Int("bcrypt-cost", d.BcryptCost, "bcrypt work factor")
	fs.String("log-level", d.LogLevel, "log level: debug, info, warn, error")
	fs.String("log-format", d.LogFormat, "log format: json or text")
	fs.String("environment", d.Environment, "production or development")
	fs.String("allowed-origin", d.AllowedOrigin, "CORS allowed origin")
	fs.Bool("metrics-enabled", d.MetricsEnabled, "expose /metrics")
	fs.Duration("shutdown-timeout", d.ShutdownTimeout, "graceful shutdown timeout")
}
