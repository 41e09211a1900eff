package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"http-engine/admin"
	"http-engine/application/http/actor/server"
	"http-engine/application/site"
	"http-engine/config"
	"http-engine/logging"
	"http-engine/store/credential"
	"http-engine/store/file"
	"http-engine/transport/tcp"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

func newServeCmd(load func() (*config.Config, error)) *cobra.Command {
	var listen, webroot string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the site over TCP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Server.Listen = listen
			}
			if webroot != "" {
				cfg.Server.Webroot = webroot
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "address to listen on (overrides server.listen)")
	cmd.Flags().StringVar(&webroot, "webroot", "", "directory of static files (overrides server.webroot)")

	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger := logging.Setup(logging.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})

	users, closeUsers, err := openCredentials(ctx, cfg.Credentials)
	if err != nil {
		return err
	}
	defer closeUsers()

	router := site.New(file.New(cfg.Server.Webroot), users)

	lis, err := tcp.Listen(cfg.Server.Listen)
	if err != nil {
		return err
	}

	srv := server.New(lis, logging.Component(logger, "server"), clock.New(), router.Handle, serverOptions(cfg.Server))
	srv.Start()
	logger.Info().
		Stringer("addr", lis.Addr()).
		Str("webroot", cfg.Server.Webroot).
		Str("credentials", cfg.Credentials.Backend).
		Msg("serving")

	var adm *admin.Server
	if cfg.Admin.Listen != "" {
		adm = admin.New(cfg.Admin.Listen, nil, logging.Component(logger, "admin"))
		if err := adm.Start(); err != nil {
			srv.Close()
			return err
		}
	}

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	if adm != nil {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := adm.Shutdown(sctx); err != nil {
			logger.Warn().Err(err).Msg("stopping admin endpoint")
		}
	}

	return srv.Close()
}

func serverOptions(cfg config.ServerConfig) server.Options {
	opts := server.DefaultOptions()

	opts.Workers = cfg.Workers
	opts.MaxRequests = cfg.MaxRequests
	opts.ServerName = cfg.Name
	opts.Serve.Timeout.IdleTimeout = cfg.IdleTimeout
	opts.Serve.Timeout.WriteTimeout = cfg.WriteTimeout
	opts.Serve.Decode.MaxBodyLength = cfg.MaxBodyBytes

	return opts
}

func openCredentials(ctx context.Context, cfg config.CredentialsConfig) (credential.Store, func(), error) {
	var (
		store   credential.Store
		closeFn = func() {}
	)

	switch cfg.Backend {
	case config.BackendMemory:
		store = credential.NewMemory(cfg.BcryptCost)

	case config.BackendSQLite:
		s, err := credential.OpenSQLite(cfg.SQLitePath, cfg.BcryptCost)
		if err != nil {
			return nil, nil, err
		}
		store, closeFn = s, func() { s.Close() }

	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, nil, errors.Wrapf(err, "connecting to redis at %s", cfg.RedisAddr)
		}
		store, closeFn = credential.NewRedis(rdb, cfg.RedisPrefix, cfg.BcryptCost), func() { rdb.Close() }

	default:
		return nil, nil, errors.Errorf("unknown credentials backend %q", cfg.Backend)
	}

	if cfg.SeedDefaultUsers {
		if err := credential.Seed(ctx, store, credential.DefaultUsers); err != nil {
			closeFn()
			return nil, nil, err
		}
	}

	return store, closeFn, nil
}
