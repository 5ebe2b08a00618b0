package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Agrid-Dev/coldload/cmd/app"
	"github.com/Agrid-Dev/coldload/internal/coldroom"
	httpctrl "github.com/Agrid-Dev/coldload/internal/controllers/http"
	modbusctrl "github.com/Agrid-Dev/coldload/internal/controllers/modbus"
	mqttctrl "github.com/Agrid-Dev/coldload/internal/controllers/mqtt"
	"github.com/Agrid-Dev/coldload/internal/project"
	"github.com/Agrid-Dev/coldload/internal/store"
)

func newServeCmd(loadConfig func() (app.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve one project's cooling load over HTTP, MQTT and Modbus",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg app.Config) error {
	ref, err := cfg.ReferenceData()
	if err != nil {
		return fmt.Errorf("reference data: %w", err)
	}
	engine, err := coldroom.New(ref)
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.StoreConfig())
	if err != nil {
		return err
	}
	defer st.Close()
	if rs, ok := st.(*store.RedisStore); ok {
		if err := rs.Ping(ctx); err != nil {
			return fmt.Errorf("redis store: %w", err)
		}
	}

	svc, err := project.New(ctx, cfg.ProjectID, st, engine)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	if c := cfg.Controllers.HTTP; c.Enabled {
		srv := httpctrl.New(svc, c.Addr)
		if c.PushInterval > 0 {
			srv.PushInterval = c.PushInterval
		}
		log.WithField("addr", c.Addr).Info("http controller listening")
		g.Go(func() error { return ignoreCanceled(srv.Run(gctx)) })
	}

	if c := cfg.Controllers.MQTT; c.Enabled {
		ctrl, err := mqttctrl.New(svc, mqttctrl.Config{
			ProjectID:       cfg.ProjectID,
			BrokerURL:       c.BrokerURL,
			ClientID:        c.ClientID,
			BaseTopic:       c.BaseTopic,
			QoS:             c.QoS,
			RetainResult:    c.RetainResult,
			PublishInterval: c.PublishInterval,
			Username:        c.Username,
			Password:        c.Password,
		})
		if err != nil {
			return err
		}
		g.Go(func() error { return ignoreCanceled(ctrl.Run(gctx)) })
	}

	if c := cfg.Controllers.MODBUS; c.Enabled {
		ctrl, err := modbusctrl.New(svc, modbusctrl.Config{
			ProjectID: cfg.ProjectID,
			Addr:      c.Addr,
			UnitID:    c.UnitID,
		})
		if err != nil {
			return err
		}
		g.Go(func() error { return ignoreCanceled(ctrl.Run(gctx)) })
	}

	if cfg.Store.SyncInterval > 0 {
		g.Go(func() error { return ignoreCanceled(svc.Run(gctx, cfg.Store.SyncInterval)) })
	}

	log.WithFields(log.Fields{
		"project": cfg.ProjectID,
		"store":   cfg.Store.Backend,
	}).Info("coldload started")

	err = g.Wait()
	log.Info("coldload stopped")
	return err
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
