package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"go-donations/battlemetrics"
	"go-donations/cftools"
	"go-donations/config"
	"go-donations/discord"
	"go-donations/log"
	"go-donations/payment"
	"go-donations/payment/db"
	"go-donations/payment/order"
	"go-donations/payment/paypal"
	"go-donations/payment/subscription"
	"go-donations/perk"
	"go-donations/service"
	"go-donations/user"
	"go-donations/utils"
	"go-donations/web"
	"go-donations/web/controllers"
	"go-donations/web/middleware"
)

func main() {
	configFile := flag.String("config", config.DefaultFile, "path of the configuration file")
	envFile := flag.String("env", ".env", "dotenv file loaded before the configuration")
	issueToken := flag.Bool("issue-token", false, "print a session token for -discord-id and exit")
	discordID := flag.String("discord-id", "", "discord id of the issued token")
	steamID := flag.String("steam-id", "", "steam id of the issued token")
	username := flag.String("username", "", "username of the issued token")
	flag.Parse()

	if err := utils.LoadEnv(*envFile); err != nil {
		fmt.Fprintln(os.Stderr, "Error loading env file:", err)
		os.Exit(1)
	}
	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error loading configuration:", err)
		os.Exit(1)
	}

	if *issueToken {
		auth := middleware.NewAuthenticator(cfg.App.SessionSecret, cfg.App.TokenTTL)
		token, err := auth.Issue(user.User{DiscordID: *discordID, SteamID: *steamID, Username: *username})
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(token)
		return
	}

	logger, logFile, err := log.New(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error creating logger:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, cfg, logger)
	stop()
	if err != nil {
		logger.Error("donation service stopped", zap.Error(err))
	} else {
		logger.Info("donation service shut down")
	}
	_ = logger.Sync()
	_ = logFile.Close()
	if err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}
	publicURL, err := cfg.PublicURL()
	if err != nil {
		return err
	}

	conn, err := db.Connect(cfg.Database.DSN)
	if err != nil {
		return err
	}
	if err := db.Sync(conn); err != nil {
		return err
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	grants := discord.NewGormGrantStore(conn)
	deps := perk.Dependencies{
		RoleRecorder: grants,
		ServerNames:  cfg.ServerNames,
		Logger:       logger,
	}
	if cfg.CFTools.ApplicationID != "" {
		cf := cftools.New(cfg.CFTools, httpClient, logger)
		deps.PriorityQueue = cf.PriorityQueue()
		deps.Whitelist = cf.Whitelist()
	}
	if cfg.BattleMetrics.AccessToken != "" {
		deps.ReservedSlots = battlemetrics.New(cfg.BattleMetrics, httpClient, logger).ReservedSlots()
	}

	var jobs []service.Job
	var notifier order.Notifier
	if cfg.Discord.Enabled() {
		bot, err := discord.New(cfg.Discord, logger)
		if err != nil {
			return err
		}
		if err := bot.Open(); err != nil {
			return err
		}
		defer bot.Close()
		deps.Roles = bot

		expiry := discord.NewRoleExpiry(grants, bot, cfg.Discord.ExpireRolesEvery, logger)
		jobs = append(jobs, service.Job{Name: "expire-discord-roles", Run: expiry.Run})
		if cfg.Discord.NotificationChannelID != "" {
			notifier = discord.NewDonationNotifier(bot, cfg.Discord.NotificationChannelID)
		}
	}

	catalog, err := perk.NewCatalog(ctx, cfg.Packages, deps)
	if err != nil {
		return err
	}
	logger.Info("package configuration validated", zap.Int("packages", len(catalog.Packages())))

	provider, err := paymentProvider(cfg, httpClient, logger)
	if err != nil {
		return err
	}

	orders := order.NewService(order.Dependencies{
		Catalog:   catalog,
		Provider:  provider,
		Store:     order.NewGormStore(conn),
		Notifier:  notifier,
		PublicURL: publicURL.String(),
		Logger:    logger,
	})
	jobs = append(jobs, service.Job{Name: "capture-pending-orders", Run: func(ctx context.Context) {
		orders.RunCapturePending(ctx, cfg.App.CaptureEvery, cfg.App.PaymentTimeout)
	}})

	subs := subscription.NewGormRepository(conn)
	plans := subscription.NewGormPlanRepository(conn)
	subscriptions := subscription.NewService(subscription.Dependencies{
		Catalog:       catalog,
		Provider:      provider,
		Subscriptions: subs,
		Plans:         plans,
		PublicURL:     publicURL,
		Logger:        logger,
	})

	limiter, err := rateLimiter(ctx, cfg, logger)
	if err != nil {
		return err
	}

	router := web.NewRouter(web.Options{
		Handler: controllers.New(controllers.Dependencies{
			Catalog:       catalog,
			Orders:        orders,
			Subscriptions: subscriptions,
			UserData:      user.NewUserData(subs, plans, publicURL, logger),
			Logger:        logger,
		}),
		Auth:         middleware.NewAuthenticator(cfg.App.SessionSecret, cfg.App.TokenTTL),
		Limiter:      limiter,
		CORSOrigins:  cfg.App.CORSOrigins,
		WebhookToken: cfg.App.WebhookToken,
		Logger:       logger,
	})

	_, wait := service.Start(ctx, "", cfg.App.Port, router, logger, jobs...)
	return wait()
}

func paymentProvider(cfg config.Config, httpClient *http.Client, logger *zap.Logger) (payment.Provider, error) {
	if cfg.PayPal.ClientID == "" {
		logger.Warn("no paypal credentials configured, payments are simulated")
		return payment.NewFakeProvider(), nil
	}
	return paypal.New(cfg.PayPal, httpClient, logger)
}

func rateLimiter(ctx context.Context, cfg config.Config, logger *zap.Logger) (middleware.Limiter, error) {
	limit := cfg.App.RateLimit
	if limit.Requests <= 0 {
		return nil, nil
	}
	if !cfg.Redis.Enabled() {
		rl := middleware.NewRateLimiter(limit.Requests, limit.Window)
		rl.StartCleanup(ctx, 10*time.Minute)
		return rl, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect redis %s: %w", cfg.Redis.Addr, err)
	}
	go func() {
		<-ctx.Done()
		_ = client.Close()
	}()
	logger.Info("rate limiting through redis", zap.String("addr", cfg.Redis.Addr))
	return middleware.NewRedisLimiter(client, limit.Requests, limit.Window), nil
}
