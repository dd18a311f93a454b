package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/sora/fundtracker/internal/orm"
	"github.com/sora/fundtracker/pkg/config"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	db, err := orm.New(orm.Config{
		Path:               cfg.Database.Path,
		BusyTimeout:        cfg.Database.BusyTimeout,
		MaxIdleConnections: cfg.Database.MaxIdleConnections,
	})
	if err != nil {
		log.Fatal("Failed to open database:", err)
	}
	defer db.Close()

	if err := orm.Migrate(db.DB()); err != nil {
		log.Fatal("Failed to migrate:", err)
	}

	fmt.Println("Migration completed successfully!")
}
