package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"bakeshop/pkg/cart"
	"bakeshop/pkg/catalog"
	"bakeshop/pkg/checkout"
	"bakeshop/pkg/config"
	"bakeshop/pkg/httpapi"
	"bakeshop/pkg/metrics"
	"bakeshop/pkg/notify"
	"bakeshop/pkg/order"
	"bakeshop/pkg/payment"
	"bakeshop/pkg/storage"
	"bakeshop/pkg/version"
)

// flags captures CLI flags so the storefront can run with a single Run call.
type flags struct {
	configPath string
	envFile    string
	domain     string
	port       int
	dbType     string
	dbPath     string
	verbose    bool
}

// Run parses args, loads configuration and serves until ctx is cancelled.
// A nil logger is replaced by a production zap logger.
func Run(ctx context.Context, args []string, logger *zap.Logger) error {
	return run(ctx, args, logger, os.Stdout)
}

func run(ctx context.Context, args []string, logger *zap.Logger, out io.Writer) error {
	cmd := newRootCommand(logger)
	cmd.SetArgs(args)
	cmd.SetOut(out)
	cmd.SetErr(out)
	return cmd.ExecuteContext(ctx)
}

func newRootCommand(logger *zap.Logger) *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:           "bakeshop",
		Short:         "Bakery storefront: catalog, cart, checkout and order intake",
		Version:       version.Version(),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadEnvFile(f.envFile, cmd.Flags().Changed("env-file")); err != nil {
				return err
			}
			cfg, err := config.Load(f.configPath)
			if err != nil {
				return err
			}
			applyFlags(cmd, f, cfg)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			log := logger
			if log == nil {
				log, err = newLogger(cfg.Logging.Level, f.verbose)
				if err != nil {
					return fmt.Errorf("failed to initialize logger: %w", err)
				}
				defer log.Sync()
			}
			return serve(cmd.Context(), cfg, log, nil)
		},
	}
	cmd.SetVersionTemplate("bakeshop version {{.Version}}\n")

	set := cmd.Flags()
	set.StringVar(&f.configPath, "config", "bakeshop.yaml", "YAML configuration file; missing files fall back to defaults.")
	set.StringVar(&f.envFile, "env-file", ".env", "Load environment variables from this file before reading configuration.")
	set.StringVar(&f.domain, "domain", "", "Serve HTTPS on 80/443 via Let's Encrypt when a domain is provided.")
	set.IntVar(&f.port, "port", 8765, "Port for running the HTTP server when not using --domain.")
	set.StringVar(&f.dbType, "db-type", storage.TypeSQLite, "Database driver: sqlite or postgres")
	set.StringVar(&f.dbPath, "db-path", "", "sqlite file (default ./bakeshop.db, \":memory:\" for none) or a postgres connection string.")
	set.BoolVarP(&f.verbose, "verbose", "v", false, "Log at debug level")
	return cmd
}

// applyFlags lets explicitly set flags win over environment and file settings.
func applyFlags(cmd *cobra.Command, f flags, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("port") {
		cfg.Server.Port = f.port
	}
	if changed("domain") {
		cfg.Server.Domain = f.domain
	}
	if changed("db-type") {
		cfg.Database.Type = f.dbType
	}
	if changed("db-path") {
		cfg.Database.Path = f.dbPath
	}
	if f.verbose {
		cfg.Logging.Level = "debug"
	}
}

func newLogger(level string, verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	if verbose {
		lvl = zapcore.DebugLevel
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}

// serve composes persistence, domain services and the HTTP server. When ln
// is nil the server listens on the configured port or domain.
func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger, ln net.Listener) error {
	db, err := storage.Open(ctx, cfg.Database.Type, cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("unable to open database: %w", err)
	}
	defer db.Close()

	if err := storage.EnsureSchema(ctx, db); err != nil {
		return fmt.Errorf("unable to ensure schema: %w", err)
	}

	items, err := catalog.Default()
	if err != nil {
		return fmt.Errorf("unable to load catalog: %w", err)
	}

	carts := cart.NewStore(cart.NewRepository(db), items, logger.Named("cart"))
	defer carts.Close()

	mailer, err := notify.NewMailer(notify.Config{
		From:        cfg.Email.From,
		BakeryEmail: cfg.Email.BakeryEmail,
		BakeryPhone: cfg.Email.BakeryPhone,
	}, newSender(cfg, logger), logger.Named("notify"))
	if err != nil {
		return fmt.Errorf("unable to build mailer: %w", err)
	}

	orders := order.NewService(order.NewRepository(db), mailer, logger.Named("order"))
	defer orders.Close()

	cartMode, err := checkout.ParseMode(cfg.Server.CartMode)
	if err != nil {
		return err
	}

	srv, err := httpapi.New(httpapi.Options{
		Catalog: items,
		Carts:   carts,
		Orders:  orders,
		Card: payment.NewStripe(payment.StripeConfig{
			SecretKey:     cfg.Stripe.SecretKey,
			WebhookSecret: cfg.Stripe.WebhookSecret,
			APIURL:        cfg.Stripe.APIURL,
		}, logger.Named("stripe")),
		Wallet: payment.NewPayPal(payment.PayPalConfig{
			ClientID:     cfg.PayPal.ClientID,
			ClientSecret: cfg.PayPal.ClientSecret,
			BaseURL:      cfg.PayPal.BaseURL,
		}, logger.Named("paypal")),
		DB:                   db,
		Metrics:              metrics.NewServerMetrics(),
		Logger:               logger.Named("http"),
		CartMode:             cartMode,
		StripePublishableKey: cfg.Stripe.PublishableKey,
		PayPalClientID:       cfg.PayPal.ClientID,
		AdminToken:           cfg.Admin.Token,
	})
	if err != nil {
		return fmt.Errorf("unable to build http server: %w", err)
	}

	if cfg.Server.Domain != "" && ln == nil {
		logger.Info("starting HTTPS servers", zap.String("domain", cfg.Server.Domain))
		return runDomainServers(ctx, cfg.Server.Domain, srv.Handler(), logger)
	}

	server := newHTTPServer(":"+strconv.Itoa(cfg.Server.Port), srv.Handler())
	if ln == nil {
		ln, err = net.Listen("tcp", server.Addr)
		if err != nil {
			return fmt.Errorf("unable to listen on %s: %w", server.Addr, err)
		}
	}

	logger.Info("bakery storefront is running",
		zap.String("addr", ln.Addr().String()),
		zap.String("db_type", cfg.Database.Type),
		zap.Bool("smtp", cfg.SMTPEnabled()),
		zap.String("version", version.Version()),
	)
	return serveUntilDone(ctx, logger, map[*http.Server]func() error{
		server: func() error { return server.Serve(ln) },
	})
}

func newSender(cfg *config.Config, logger *zap.Logger) notify.Sender {
	if !cfg.SMTPEnabled() {
		return notify.LogSender{Logger: logger.Named("mail")}
	}
	return notify.SMTPSender{
		Host:     cfg.Email.SMTP.Host,
		Port:     cfg.Email.SMTP.Port,
		Username: cfg.Email.SMTP.Username,
		Password: cfg.Email.SMTP.Password,
	}
}

func newHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// serveUntilDone runs every server and shuts them all down when ctx ends or
// any of them fails.
func serveUntilDone(ctx context.Context, logger *zap.Logger, servers map[*http.Server]func() error) error {
	g, gctx := errgroup.WithContext(ctx)
	for server, start := range servers {
		g.Go(func() error {
			if err := start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server %s stopped unexpectedly: %w", server.Addr, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for server := range servers {
			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Warn("shutdown incomplete", zap.String("addr", server.Addr), zap.Error(err))
			}
		}
		logger.Info("bakery storefront stopped")
		return nil
	})
	return g.Wait()
}
