package main

import (
	"fmt"
	"log"

	"github.com/davecgh/go-spew/spew"

	"github.com/sora/fundtracker/internal/infra/persistence/runrepo"
	"github.com/sora/fundtracker/internal/infra/persistence/taskrepo"
	"github.com/sora/fundtracker/internal/orm"
	"github.com/sora/fundtracker/pkg/config"
)

func main() {
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		log.Fatal(err)
	}

	storage, err := orm.New(orm.Config{
		Path:               cfg.Database.Path,
		BusyTimeout:        cfg.Database.BusyTimeout,
		MaxIdleConnections: cfg.Database.MaxIdleConnections,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer storage.Close()

	var tasks []taskrepo.TaskPo
	if err := storage.DB().Find(&tasks).Error; err != nil {
		log.Fatal(err)
	}
	fmt.Printf("查询到 %d 个任务:\n", len(tasks))
	spew.Dump(tasks)

	var runs []runrepo.RunPo
	if err := storage.DB().Order("start_ts DESC").Limit(20).Find(&runs).Error; err != nil {
		log.Fatal(err)
	}
	fmt.Printf("最近 %d 次运行:\n", len(runs))
	spew.Dump(runs)
}
