// Command migrate applies, inspects and scaffolds the fulfillment schema.
package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strconv"

	"github.com/erp/fulfillment/internal/infrastructure/config"
	"github.com/erp/fulfillment/internal/infrastructure/logger"
	"github.com/erp/fulfillment/internal/infrastructure/migration"
	"github.com/erp/fulfillment/migrations"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const scaffoldDir = "migrations"

var errUsage = errors.New("usage")

type invocation struct {
	args []string
	dir  string
	log  *zap.Logger
}

func (inv invocation) source() fs.FS {
	if inv.dir == "" {
		return migrations.FS
	}
	return os.DirFS(inv.dir)
}

func (inv invocation) intArg(i int) (int, error) {
	if len(inv.args) <= i {
		return 0, errUsage
	}
	return strconv.Atoi(inv.args[i])
}

// offline commands never open a database connection
var offline = map[string]func(inv invocation) error{
	"create": create,
	"list":   list,
}

var online = map[string]func(m *migration.Migrator, inv invocation) error{
	"up":   func(m *migration.Migrator, _ invocation) error { return m.Up() },
	"down": func(m *migration.Migrator, _ invocation) error { return m.Down() },
	"step": func(m *migration.Migrator, inv invocation) error {
		n, err := inv.intArg(1)
		if err != nil {
			return err
		}
		return m.Steps(n)
	},
	"goto": func(m *migration.Migrator, inv invocation) error {
		v, err := inv.intArg(1)
		if err != nil || v < 0 {
			return errUsage
		}
		return m.GoTo(uint(v))
	},
	"force": func(m *migration.Migrator, inv invocation) error {
		v, err := inv.intArg(1)
		if err != nil {
			return err
		}
		return m.Force(v)
	},
	"version": func(m *migration.Migrator, inv invocation) error {
		v, dirty, err := m.Version()
		if err != nil {
			return err
		}
		inv.log.Info("Schema version", zap.Uint("version", v), zap.Bool("dirty", dirty))
		return nil
	},
	"drop": func(m *migration.Migrator, inv invocation) error {
		if !slices.Contains(inv.args[1:], "-confirm") && !slices.Contains(inv.args[1:], "--confirm") {
			return errors.New("drop needs -confirm")
		}
		return m.Drop()
	},
}

func main() {
	var dir, level string
	flag.StringVar(&dir, "path", "", "read migrations from this directory instead of the embedded set")
	flag.StringVar(&level, "log-level", "info", "debug, info, warn or error")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	log, err := logger.New(logger.Config{Level: level, Format: "console", Output: "stdout", TimeFormat: "15:04:05"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync(log) }()

	inv := invocation{args: flag.Args(), dir: dir, log: log}
	if err := run(inv); err != nil {
		if errors.Is(err, errUsage) {
			usage()
			os.Exit(2)
		}
		log.Fatal("Migration command failed", zap.String("command", inv.args[0]), zap.Error(err))
	}
}

func run(inv invocation) error {
	name := inv.args[0]
	if cmd, ok := offline[name]; ok {
		return cmd(inv)
	}
	cmd, ok := online[name]
	if !ok {
		return errUsage
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("reach database %s:%d: %w", cfg.Database.Host, cfg.Database.Port, err)
	}

	m, err := migration.Open(db, inv.source(), inv.log)
	if err != nil {
		return err
	}
	defer m.Close()
	return cmd(m, inv)
}

func create(inv invocation) error {
	if len(inv.args) < 2 {
		return errUsage
	}
	dir := inv.dir
	if dir == "" {
		dir = scaffoldDir
	}
	var description string
	if len(inv.args) > 2 {
		description = inv.args[2]
	}
	mf, err := migration.CreateMigration(dir, inv.args[1], description)
	if err != nil {
		return err
	}
	inv.log.Info("Migration scaffolded", zap.String("up", mf.UpPath), zap.String("down", mf.DownPath))
	return nil
}

func list(inv invocation) error {
	names, err := migration.ListMigrations(inv.source())
	if err != nil {
		return err
	}
	for _, n := range names {
		fmt.Println(n)
	}
	return nil
}

func usage() {
	fmt.Fprint(os.Stderr, `migrate [-path dir] [-log-level level] <command> [args]

  up                    apply every pending migration
  down                  roll back every migration
  step <n>              apply n migrations, negative n rolls back
  goto <version>        migrate up or down to version
  version               print the applied version and dirty flag
  force <version>       mark version applied without running it
  drop -confirm         drop every object in the database
  create <name> [desc]  scaffold the next numbered up/down pair
  list                  print the available migrations

The connection comes from FULFILLMENT_DATABASE_* variables or config.toml.
`)
}
