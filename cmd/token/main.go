// Command token issues and revokes access tokens for operators and service
// accounts. The service itself has no login endpoint.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/erp/fulfillment/internal/application/authz"
	"github.com/erp/fulfillment/internal/infrastructure/auth"
	"github.com/erp/fulfillment/internal/infrastructure/cache"
	"github.com/erp/fulfillment/internal/infrastructure/config"
	"github.com/erp/fulfillment/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:  "warn",
		Format: "console",
		Output: "stderr",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	switch os.Args[1] {
	case "issue":
		err = issue(cfg, os.Args[2:])
	case "revoke":
		err = revoke(cfg, log, os.Args[2:])
	case "permissions":
		for _, p := range authz.AllPermissions {
			fmt.Println(p)
		}
	default:
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		log.Fatal("Command failed", zap.String("command", os.Args[1]), zap.Error(err))
	}
}

func issue(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("issue", flag.ExitOnError)
	tenant := fs.String("tenant", "", "Tenant ID (required)")
	user := fs.String("user", "", "User ID (default: random)")
	username := fs.String("username", "", "Display name carried in the token")
	perms := fs.String("permissions", "", "Comma separated permissions, or * for all")
	ttl := fs.Duration("ttl", 0, "Token lifetime (default: jwt.access_token_expiration)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	tenantID, err := uuid.Parse(*tenant)
	if err != nil {
		return fmt.Errorf("invalid -tenant: %w", err)
	}
	userID := uuid.New()
	if *user != "" {
		if userID, err = uuid.Parse(*user); err != nil {
			return fmt.Errorf("invalid -user: %w", err)
		}
	}

	svc := auth.NewJWTService(cfg.JWT)
	token, err := svc.GenerateAccessToken(auth.GenerateTokenInput{
		TenantID:    tenantID,
		UserID:      userID,
		Username:    *username,
		Permissions: splitPermissions(*perms),
		TTL:         *ttl,
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(token)
}

func revoke(cfg *config.Config, log *zap.Logger, args []string) error {
	fs := flag.NewFlagSet("revoke", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: token revoke <access-token>")
	}

	claims, err := auth.NewJWTService(cfg.JWT).ValidateAccessToken(fs.Arg(0))
	if err != nil {
		return err
	}
	remaining := claims.RemainingTTL(time.Now())
	if remaining <= 0 {
		fmt.Println("token already expired")
		return nil
	}

	caches := cache.NewFactory(cfg.Redis, cache.WithLogger(log), cache.WithInMemoryFallback(false))
	defer func() {
		_ = caches.Close()
	}()
	revocations := caches.Revocations()
	// an in-memory list would die with this process
	if _, ok := revocations.(*auth.RedisRevocationList); !ok {
		return fmt.Errorf("redis is required to revoke tokens")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := revocations.Revoke(ctx, claims.ID, remaining); err != nil {
		return err
	}

	fmt.Printf("revoked %s until %s\n", claims.ID, time.Now().Add(remaining).Format(time.RFC3339))
	return nil
}

func splitPermissions(raw string) []string {
	if raw == "" {
		return nil
	}
	var perms []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			perms = append(perms, p)
		}
	}
	return perms
}

func printUsage() {
	fmt.Println(`Access token tool

Usage:
  token issue -tenant <uuid> [-user <uuid>] [-username <name>] [-permissions a,b|*] [-ttl 8h]
  token revoke <access-token>
  token permissions

Configuration is read like the server's: config.toml and FULFILLMENT_* environment
variables (FULFILLMENT_JWT_SECRET, FULFILLMENT_REDIS_HOST, ...).`)
}
