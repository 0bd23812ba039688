package app

import (
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"bridge-local-platform/config"
	"bridge-local-platform/internal/mailer"
	"bridge-local-platform/internal/models"
	"bridge-local-platform/internal/payments"
	"bridge-local-platform/internal/pricing"
	"bridge-local-platform/internal/services"
	"bridge-local-platform/internal/storage/postgres"
)

// Application holds core application dependencies.
type Application struct {
	Config      *config.Config
	DBPool      *pgxpool.Pool
	RedisClient *redis.Client
	Validator   *validator.Validate

	Repos *services.Repos

	UserService       *services.UserService
	JobService        *services.JobService
	ContractorService *services.ContractorService
	QuoteService      *services.QuoteService
	PaymentService    *services.PaymentService
}

// New wires repositories and services onto the shared pool, Redis client,
// and configuration. PaymentService is built before QuoteService because
// quote approval hands off to payment collection.
func New(cfg *config.Config, pool *pgxpool.Pool, redisClient *redis.Client, validate *validator.Validate) *Application {
	repos := &services.Repos{
		Users:             postgres.NewUserRepo(pool),
		Cities:            postgres.NewCityRepo(pool),
		ServiceCategories: postgres.NewServiceCategoryRepo(pool),
		Jobs:              postgres.NewJobRepo(pool),
		JobEvents:         postgres.NewJobEventRepo(pool),
		Contractors:       postgres.NewContractorRepo(pool),
		Quotes:            postgres.NewQuoteRepo(pool),
		Payments:          postgres.NewPaymentRepo(pool),
		Payouts:           postgres.NewPayoutRepo(pool),
		Notifications:     postgres.NewNotificationRepo(pool),
	}

	flags := services.PlatformFlags{
		PaymentMode:                 models.PaymentMode(cfg.Platform.PaymentMode),
		RequirePaymentBeforeConfirm: cfg.Platform.RequirePaymentBeforeConfirm,
		MaxContractorOffers:         cfg.Platform.MaxContractorOffers,
		PayoutRate:                  cfg.Platform.PayoutRate,
		SandboxMode:                 cfg.Platform.SandboxMode,
		Currency:                    cfg.Platform.Currency,
	}

	var mail services.Mailer
	if cfg.SMTP.Host != "" {
		mail = mailer.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
	} else {
		mail = mailer.NewLogMailer()
	}

	notifier := services.NewNotifier(repos.Notifications, repos.Users, mail)
	sm := services.NewStateMachine(repos, notifier, flags)

	gateway := payments.NewStripeGateway(cfg.Stripe.APIKey, cfg.Stripe.WebhookSecret, cfg.Stripe.SuccessURL, cfg.Stripe.CancelURL)
	paymentService := services.NewPaymentService(repos, sm, gateway, notifier, flags)

	pricingSource := pricing.NewFileSource(cfg.Platform.PricingDir)

	return &Application{
		Config:            cfg,
		DBPool:            pool,
		RedisClient:       redisClient,
		Validator:         validate,
		Repos:             repos,
		UserService:       services.NewUserService(repos.Users, redisClient, cfg.JWT.Secret, cfg.JWT.Expiration, cfg.JWT.RefreshExpiration),
		JobService:        services.NewJobService(repos, sm, pricingSource, notifier, flags),
		ContractorService: services.NewContractorService(repos, sm, notifier),
		QuoteService:      services.NewQuoteService(repos, sm, paymentService, notifier),
		PaymentService:    paymentService,
	}
}
