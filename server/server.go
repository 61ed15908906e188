package server

import (
	"context"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/rukhmanov/kwadro-backend/config"
	"github.com/rukhmanov/kwadro-backend/handlers"
	"github.com/rukhmanov/kwadro-backend/kafka"
	"github.com/rukhmanov/kwadro-backend/limiter"
	"github.com/rukhmanov/kwadro-backend/logger"
	custommiddleware "github.com/rukhmanov/kwadro-backend/middleware"
	"github.com/rukhmanov/kwadro-backend/models"
	"github.com/rukhmanov/kwadro-backend/redis"
	"github.com/rukhmanov/kwadro-backend/services"
	"github.com/rukhmanov/kwadro-backend/telegram"
)

type Server struct {
	Echo   *echo.Echo
	DB     *gorm.DB
	Config *config.Config

	AuthHandler          *handlers.AuthHandler
	CategoryHandler      *handlers.CategoryHandler
	ProductHandler       *handlers.ProductHandler
	CartHandler          *handlers.CartHandler
	NewsHandler          *handlers.NewsHandler
	ContactHandler       *handlers.ContactHandler
	SettingsHandler      *handlers.SettingsHandler
	OrderHandler         *handlers.OrderHandler
	ChatHandler          *handlers.ChatHandler
	ChatWebSocketHandler *handlers.ChatWebSocketHandler

	TelegramListener *telegram.Listener

	redisClient    *redis.RedisClient
	kafkaProducer  *kafka.Producer
	kafkaConsumer  *kafka.Consumer
	consumerCancel context.CancelFunc
}

func NewServer() *Server {
	cfg, err := config.LoadConfig(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	if err := models.AutoMigrateAll(db); err != nil {
		log.Fatal("Failed to auto-migrate database:", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"http://localhost:4200", "https://kwadro.shop"},
		AllowMethods:     []string{echo.GET, echo.POST, echo.PUT, echo.DELETE, echo.PATCH},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		ExposeHeaders:    []string{echo.HeaderContentLength},
		MaxAge:           86400,
	}))

	redisClient, err := redis.NewRedisClient(&cfg.Redis)
	if err != nil {
		// Presence counts and rate limits degrade, chat itself keeps working.
		logger.Error("redis unavailable, presence and rate limiting disabled", zap.Error(err))
		redisClient = nil
	}

	telegramClient := telegram.NewClient(&cfg.Telegram)

	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		saramaCfg, err := kafka.NewSaramaConfig(&cfg.Kafka)
		if err != nil {
			log.Fatal("Failed to build kafka config:", err)
		}
		producer, err = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.OrdersTopic, saramaCfg)
		if err != nil {
			log.Fatal("Failed to create kafka producer:", err)
		}
	}

	authService := services.NewAuthService(db, &cfg.Auth)
	categoryService := services.NewCategoryService(db)
	productService := services.NewProductService(db)
	cartService := services.NewCartService(db)
	newsService := services.NewNewsService(db)
	contactService := services.NewContactService(db)
	settingsService := services.NewSettingsService(db)
	chatService := services.NewChatService(db)

	var publisher services.OrderEventPublisher
	if producer != nil {
		publisher = producer
	}
	orderService := services.NewOrderService(db, cartService, publisher)

	if cfg.Auth.AdminUsername != "" {
		if err := authService.EnsureAdmin(cfg.Auth.AdminUsername, cfg.Auth.AdminPassword); err != nil {
			log.Fatal("Failed to seed admin user:", err)
		}
	}

	parser := telegram.NewParser(productService, newsService, categoryService)

	s := &Server{
		Echo:                 e,
		DB:                   db,
		Config:               &cfg,
		AuthHandler:          handlers.NewAuthHandler(authService),
		CategoryHandler:      handlers.NewCategoryHandler(categoryService),
		ProductHandler:       handlers.NewProductHandler(productService),
		CartHandler:          handlers.NewCartHandler(cartService),
		NewsHandler:          handlers.NewNewsHandler(newsService),
		ContactHandler:       handlers.NewContactHandler(contactService),
		SettingsHandler:      handlers.NewSettingsHandler(settingsService),
		OrderHandler:         handlers.NewOrderHandler(orderService),
		ChatHandler:          handlers.NewChatHandler(chatService, redisClient),
		ChatWebSocketHandler: handlers.NewChatWebSocketHandler(chatService, telegramClient, redisClient, cfg.Chat.AutoReplyDelay()),
		TelegramListener:     telegram.NewListener(telegramClient, parser),
		redisClient:          redisClient,
		kafkaProducer:        producer,
	}

	if cfg.Kafka.Enabled {
		s.startOrderConsumer(&cfg.Kafka, telegramClient)
	}

	authMiddleware := custommiddleware.AuthMiddleware(authService)
	adminMiddleware := custommiddleware.AdminMiddleware()
	s.SetupRoutes(authMiddleware, adminMiddleware)
	return s
}

func (s *Server) startOrderConsumer(cfg *config.KafkaConfig, notifier *telegram.Client) {
	saramaCfg, err := kafka.NewSaramaConfig(cfg)
	if err != nil {
		logger.Error("kafka consumer config", zap.Error(err))
		return
	}
	consumer, err := kafka.NewConsumer(cfg.Brokers, cfg.ConsumerGroup,
		[]string{cfg.OrdersTopic}, saramaCfg, kafka.NewOrderEventHandler(notifier))
	if err != nil {
		logger.Error("kafka consumer", zap.Error(err))
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.kafkaConsumer = consumer
	s.consumerCancel = cancel
	go func() {
		if err := consumer.Start(ctx); err != nil {
			logger.Error("kafka consumer stopped", zap.Error(err))
		}
	}()
}

// rateLimit wires a throttle for a public write endpoint. Returns a no-op
// when redis is down so the shop stays reachable.
func (s *Server) rateLimit(limit int, window time.Duration) echo.MiddlewareFunc {
	if s.redisClient == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	manager := limiter.NewManager(s.redisClient.Client, &limiter.FixedWindowStrategy{})
	return custommiddleware.NewRateLimitMiddleware(manager, custommiddleware.RateLimitConfig{
		Limit:  limit,
		Window: window,
	})
}

func (s *Server) Start(addr string) {
	log.Fatal(s.Echo.Start(addr))
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.consumerCancel != nil {
		s.consumerCancel()
	}
	if s.kafkaConsumer != nil {
		_ = s.kafkaConsumer.Close()
	}
	if s.kafkaProducer != nil {
		_ = s.kafkaProducer.Close()
	}
	if s.redisClient != nil {
		_ = s.redisClient.Close()
	}
	return s.Echo.Shutdown(ctx)
}
