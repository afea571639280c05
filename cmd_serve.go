package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"NeuroQ/global"
	"NeuroQ/global/config"
	"NeuroQ/logger"
	"NeuroQ/module/responder"
	"NeuroQ/module/triage"
	"NeuroQ/service/chat"
	"NeuroQ/service/chat/handlers"
	"NeuroQ/service/httpapi"
	"NeuroQ/service/nacos"
	"NeuroQ/tools/security"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and websocket gateway",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if len(cfg.Nacos.Servers) > 0 {
		var src *nacos.Source
		if cfg, src, err = loadRemote(cfg); err != nil {
			return err
		}
		defer src.Close()
	}
	logger.Setup(cfg.Log.Level, cfg.Log.Color)
	defer logger.Sync()
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := global.Setup(ctx, cfg)

	verifier := security.NewVerifier(security.Options{
		Secret: []byte(cfg.Auth.Secret),
		Alg:    cfg.Auth.Alg,
		TTL:    cfg.Auth.TTL,
	})

	chatOpts := chat.Options{
		WriteWait:       cfg.Session.WriteWait,
		CloseSuperseded: cfg.Session.CloseSuperseded,
	}
	opts := []chat.Option{chat.WithPublisher(deps.Bus)}
	if deps.Presence != nil {
		opts = append(opts, chat.WithPresence(deps.Presence))
		chatOpts.PresenceRefresh = deps.Presence.RefreshEvery()
	}
	srv := chat.NewServer(chatOpts, verifier, handlers.NewDispatcher(responder.New()), opts...)

	api := httpapi.Deps{
		Chat:           srv,
		Predictor:      triage.NewEngine(),
		Events:         deps.Bus,
		Resolver:       verifier,
		AllowedOrigins: cfg.HTTP.CorsOrigins,
	}
	if deps.Presence != nil {
		api.Presence = deps.Presence
	}
	if deps.Relay != nil {
		if err := deps.Relay.Start(srv); err != nil {
			logger.Warn("[serve] relay subscribe failed, delivering locally", zap.Error(err))
		} else {
			api.Relay = deps.Relay
		}
	}

	hs := &http.Server{
		Addr:              net.JoinHostPort(cfg.HTTP.Host, strconv.Itoa(cfg.HTTP.Port)),
		Handler:           httpapi.NewRouter(api),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("[serve] listening", zap.String("addr", hs.Addr), zap.String("node_id", deps.NodeID))
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("[serve] shutting down")
	case err := <-errCh:
		if err != nil {
			_ = deps.Close(context.Background())
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// 先关 websocket，再停 HTTP，最后 drain 事件总线
	if err := srv.Shutdown(shutCtx); err != nil {
		logger.Warn("[serve] ws shutdown", zap.Error(err))
	}
	if err := hs.Shutdown(shutCtx); err != nil {
		logger.Warn("[serve] http shutdown", zap.Error(err))
	}
	if err := deps.Close(shutCtx); err != nil {
		logger.Warn("[serve] close deps", zap.Error(err))
	}
	logger.Info("[serve] bye", zap.Int64("events_dropped", deps.Bus.Dropped()))
	return nil
}

// loadRemote layers the config-center document over the local config.
func loadRemote(cfg config.Config) (config.Config, *nacos.Source, error) {
	src, err := global.ConfigNacos(cfg)
	if err != nil {
		return cfg, nil, err
	}
	out, err := global.ApplyRemote(cfg, src)
	if err != nil {
		src.Close()
		return cfg, nil, err
	}
	return out, src, nil
}
