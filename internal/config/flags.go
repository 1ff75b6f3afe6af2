package config

import (
	"flag"
	"os"
	"time"

	"github.com/mpetrenko/taskflow/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-m string   backend mode, "local" or "remote"
//	-f string   sqlite file of the local backend
//	-l int      simulated local latency, milliseconds
//	-o string   attachment collision policy, "overwrite" or "reject"
//	-d string   PostgreSQL DSN
//	-s string   HMAC secret key for session tokens
//	-v int      session validity, minutes
//	-k string   remote mode access token
//	-u string   S3 access key id
//	-p string   S3 secret key
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-m", "-f", "-l", "-o", "-d", "-s", "-v", "-k", "-u", "-p", "-b", "-g", "-e"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.Mode, "m", config.Mode, "backend mode (local or remote)")
	fs.StringVar(&config.LocalDatabasePath, "f", config.LocalDatabasePath, "local database file")
	localLatency := fs.Int("l", int(config.LocalLatency.Milliseconds()), "simulated local latency (in milliseconds)")
	fs.StringVar(&config.CollisionPolicy, "o", config.CollisionPolicy, "attachment collision policy (overwrite or reject)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	sessionValidity := fs.Int("v", int(config.SessionValidityDuration.Minutes()), "session validity (in minutes)")
	fs.StringVar(&config.AccessToken, "k", config.AccessToken, "remote access token")
	fs.StringVar(&config.S3AccessKeyID, "u", config.S3AccessKeyID, "S3 access key id")
	fs.StringVar(&config.S3SecretKey, "p", config.S3SecretKey, "S3 secret key")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.LocalLatency = time.Duration(*localLatency) * time.Millisecond
	config.SessionValidityDuration = time.Duration(*sessionValidity) * time.Minute
}
