package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	router "github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/adapters/http"
	"github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/adapters/tcp"
	"github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/adapters/udp"
	"github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/adapters/ws"
	"github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/app"
	"github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/app/orch"
	"github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/app/relay"
	"github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/config"
	"github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/domain"
	"github.com/Krishnachaitanyakoppaku/LAN-Only-online-meet-sub001/internal/protocol"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := config.New()
	var configFile, env string

	cmd := &cobra.Command{
		Use:           "lanmeet-server",
		Short:         "LAN meeting hub: sessions, chat and media relay",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if env != "" {
				_ = os.Setenv("CONFIG_ENV", env)
			}
			cfg, err := config.Load(v, configFile)
			if err != nil {
				log.Error().Err(err).Msg("failed to load config")
				return err
			}
			if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
				zerolog.SetGlobalLevel(lvl)
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			if err := run(ctx, cfg); err != nil {
				log.Error().Err(err).Msg("server error")
				return err
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configFile, "config", "", "config file (default config/config.<env>.yaml)")
	flags.StringVar(&env, "env", "", "config environment, overrides CONFIG_ENV")
	flags.String("log-level", "", "log level (trace, debug, info, warn, error)")
	flags.String("server-id", "", "identity clients join by, usually this host's LAN address")
	flags.String("tcp-addr", "", "control listen address")
	_ = v.BindPFlag("log_level", flags.Lookup("log-level"))
	_ = v.BindPFlag("server_id", flags.Lookup("server-id"))
	_ = v.BindPFlag("tcp_addr", flags.Lookup("tcp-addr"))
	return cmd
}

func run(ctx context.Context, cfg *config.Config) error {
	serverID := cfg.ServerID
	if serverID == "" {
		serverID = localIPv4()
	}

	reg := app.NewRegistry(
		app.WithAliases("localhost", "127.0.0.1", "::1", serverID),
		app.WithHistoryLimit(cfg.ChatHistory),
	)
	conns := app.NewConnections()
	relays := relay.NewManager(ctx, reg,
		relay.WithQueueSize(cfg.MediaQueue),
		relay.WithSinks(conns),
	)

	o := &orch.Orchestrator{
		Registry: reg,
		Conns:    conns,
		Policy:   app.PolicyByName(cfg.Backpressure),
		Relays:   relays,
		ServerID: serverID,
	}
	if cfg.JoinRateLimit > 0 {
		o.Attempts = app.NewRateLimiter[*app.Peer](cfg.JoinRateLimit, cfg.JoinRateWindow)
	}

	control := tcp.NewServer(o, tcp.Options{
		SendQueue: cfg.SendQueue,
		Channel: protocol.ChannelOptions{
			IdleTimeout:  cfg.HeartbeatTimeout,
			FrameTimeout: cfg.FrameTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
	})
	gw := ws.NewGateway(o, relays, ws.Options{
		SendQueue:    cfg.SendQueue,
		MediaQueue:   cfg.MediaQueue,
		IdleTimeout:  cfg.HeartbeatTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return control.ListenAndServe(gctx, cfg.TCPAddr) })

	for kind, addr := range map[domain.MediaKind]string{
		domain.MediaVideo: cfg.VideoAddr,
		domain.MediaAudio: cfg.AudioAddr,
	} {
		if addr == "" {
			continue
		}
		l := &udp.Listener{Kind: kind, Relay: relays, MaxDatagram: cfg.MaxDatagram}
		g.Go(func() error { return l.ListenAndServe(gctx, addr) })
	}

	if cfg.HTTPAddr != "" {
		srv := &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: router.SetupRouter(gctx, cfg, o, gw),
		}
		g.Go(func() error {
			log.Info().Str("addr", cfg.HTTPAddr).Msg("http server started")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("http server forced to shutdown")
			}
			return nil
		})
	}

	log.Info().Str("server_id", serverID).Msg("lanmeet server started")
	err := g.Wait()
	log.Info().Msg("server exited gracefully")
	return err
}

// localIPv4 returns the first non-loopback IPv4 address of this host.
func localIPv4() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "127.0.0.1"
	}
	for _, a := range addrs {
		if ipn, ok := a.(*net.IPNet); ok && !ipn.IP.IsLoopback() {
			if ip4 := ipn.IP.To4(); ip4 != nil {
				return ip4.String()
			}
		}
	}
	return "127.0.0.1"
}
