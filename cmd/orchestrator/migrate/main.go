package main

import (
	"flag"
	"log"

	"github.com/uptrace/bun/migrate"

	"github.com/lpbridge/middleware/pkg/config"
	"github.com/lpbridge/middleware/pkg/migrations/recorddb"
	"github.com/lpbridge/middleware/pkg/pgutil"
	mghelper "github.com/lpbridge/middleware/pkg/pgutil/migrations"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Usage = mghelper.Usage
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("error reading configuration file: %s", err.Error())
	}

	db, err := pgutil.ConnectDB(&cfg.Database)
	if err != nil {
		log.Fatalf("error connecting to database: %s", err.Error())
	}
	defer db.Close()

	log.Printf("Running migrations for orchestrator database (%s)...\n", cfg.Database.Database)

	migrator := migrate.NewMigrator(db, recorddb.Migrations)

	if err := mghelper.RunMigrations(migrator, flag.Args()...); err != nil {
		mghelper.Exitf(err.Error())
	}
}
