// Command inkbloom-admin performs maintenance tasks that have no web route:
// creating indexes and granting or removing roles.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/inkbloom/inkbloom/internal/config"
	"github.com/inkbloom/inkbloom/internal/content"
	"github.com/inkbloom/inkbloom/internal/database"
	inkmail "github.com/inkbloom/inkbloom/internal/mail"
	"github.com/inkbloom/inkbloom/internal/sessions"
	"github.com/inkbloom/inkbloom/internal/tokens"
	"github.com/inkbloom/inkbloom/internal/users"
	"github.com/inkbloom/inkbloom/pkg/logger"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

const usage = `usage: inkbloom-admin <command> [flags]

commands:
  ensure-indexes          create the MongoDB indexes
  promote   -user <id>    grant the admin role
  demote    -user <id>    remove the admin role
  block     -user <id>    block a user and end their sessions
  unblock   -user <id>    lift a block
`

// noRevoker is used when REDIS_URL is unset; sessions then expire on their own.
type noRevoker struct{}

func (noRevoker) RevokeUser(ctx context.Context, userID string) error {
	logger.Warnf("REDIS_URL not set, existing sessions of %s stay valid until they expire", userID)
	return nil
}

func main() {
	logger.Init(os.Getenv("LOG_LEVEL"))
	defer logger.Sync()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	cmd := os.Args[1]
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	userID := fs.String("user", "", "user id")
	timeout := fs.Duration("timeout", 30*time.Second, "overall deadline")
	_ = fs.Parse(os.Args[2:])

	mcfg, err := config.LoadMongoConfig()
	if err != nil {
		logger.Fatalf("%v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client, err := database.ConnectMongo(ctx, mcfg.URI, mcfg.Timeout)
	if err != nil {
		logger.Fatalf("%v", err)
	}
	defer func() { _ = client.Disconnect(context.Background()) }()
	db := client.Database(mcfg.Database)

	if cmd == "ensure-indexes" {
		if err := database.EnsureIndexes(ctx, db); err != nil {
			logger.Fatalf("ensure indexes: %v", err)
		}
		logger.Infof("indexes ensured on %s", mcfg.Database)
		return
	}

	if *userID == "" {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	svc := users.NewService(
		users.NewMongoUserRepository(content.NewMongoRepository(db)),
		revoker(ctx),
		tokens.NewIssuer(os.Getenv("SECRET_KEY"), tokens.NewMemoryStore()),
		inkmail.LogSender{},
		"",
	)

	switch cmd {
	case "promote":
		err = svc.SetAdmin(ctx, *userID, true)
	case "demote":
		err = svc.SetAdmin(ctx, *userID, false)
	case "block":
		err = svc.SetBlocked(ctx, *userID, true)
	case "unblock":
		err = svc.SetBlocked(ctx, *userID, false)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		logger.Fatalf("%s %s: %v", cmd, *userID, err)
	}
	logger.Infof("%s %s: done", cmd, *userID)
}

func revoker(ctx context.Context) users.SessionRevoker {
	raw := os.Getenv("REDIS_URL")
	if raw == "" {
		return noRevoker{}
	}
	opts, err := redis.ParseURL(raw)
	if err != nil {
		logger.Fatalf("invalid REDIS_URL: %v", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warnf("redis ping failed: %v", err)
	}
	// LoadMongoConfig has already bound the environment and defaults.
	ttl := time.Duration(viper.GetInt("SESSION_TTL_HOURS")) * time.Hour
	return sessions.NewService(sessions.NewRedisRepository(rdb, ""), sessions.NewRevocations(rdb, ttl), ttl)
}
