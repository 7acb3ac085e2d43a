package main

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/krishnanefx/reading-speed-trainer-sub000/pkg/cloud"
	"github.com/krishnanefx/reading-speed-trainer-sub000/pkg/config"
	"github.com/krishnanefx/reading-speed-trainer-sub000/pkg/database"
	"github.com/krishnanefx/reading-speed-trainer-sub000/pkg/migrations"
	"github.com/krishnanefx/reading-speed-trainer-sub000/pkg/server"
	syncpkg "github.com/krishnanefx/reading-speed-trainer-sub000/pkg/sync"
	"github.com/krishnanefx/reading-speed-trainer-sub000/pkg/version"
	"github.com/krishnanefx/reading-speed-trainer-sub000/pkg/worker"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/robinjoseph08/golib/signals"
)

func main() {
	ctx := context.Background()
	log := logger.New()

	log.Info("starting reading-speed-trainer", logger.Data{"version": version.Version})

	cfg, err := config.New()
	if err != nil {
		log.Err(err).Fatal("config error")
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Err(err).Fatal("database error")
	}

	group, err := migrations.BringUpToDate(ctx, db)
	if err != nil {
		log.Err(err).Fatal("migrations error")
	}
	if group.ID == 0 {
		log.Info("no new migrations to run")
	} else {
		log.Info("migrated to new group", logger.Data{"group_id": group.ID, "migration_names": group.Migrations.String()})
	}

	resolver := cloud.NewFileTokenResolver(cfg.CloudTokenPath)
	monitor := cloud.NewMonitor()
	client := cloud.NewHTTPClient(cfg.CloudEndpoint, resolver, monitor)

	engine := syncpkg.NewEngine(cfg, db, client, resolver, monitor)

	wrkr := worker.New(cfg, engine)

	srv, err := server.New(cfg, db, engine)
	if err != nil {
		log.Err(err).Fatal("server error")
	}

	graceful := signals.Setup()

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort)
		lc := net.ListenConfig{}
		listener, err := lc.Listen(ctx, "tcp", addr)
		if err != nil {
			log.Err(err).Fatal("failed to bind port")
		}

		actualPort := listener.Addr().(*net.TCPAddr).Port
		log.Info("server started", logger.Data{"port": actualPort})

		err = srv.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Err(err).Fatal("server stopped")
		}
		log.Info("server stopped")
	}()

	wrkr.Start()
	log.Info("worker started", logger.Data{"cloud_sync_enabled": cfg.CloudSyncEnabled})

	<-graceful
	log.Info("starting graceful shutdown")

	err = srv.Shutdown(ctx)
	if err != nil {
		log.Err(err).Error("server shutdown error")
	}
	log.Info("server shutdown")

	wrkr.Shutdown()
	engine.Close()
	log.Info("worker shutdown")

	err = db.Close()
	if err != nil {
		log.Err(err).Error("database close error")
	}
	log.Info("database closed")
}
