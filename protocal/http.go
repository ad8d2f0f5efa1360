package protocal

import (
	"flag"
	"log"
	"net"
	"os"
	"os/signal"
	"time"

	"fishshop/configs"
	httpAdapter "fishshop/internal/adapters/input/http"
	"fishshop/internal/adapters/output/moltin"
	"fishshop/internal/adapters/output/postgres"
	redisAdapter "fishshop/internal/adapters/output/redis"
	"fishshop/internal/application"
	"fishshop/pkg/database_driver/gorm"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/sirupsen/logrus"
)

type config struct {
	ENV string `mapstructure:"env"`
}

// ServeHTTP func
func ServeHTTP() error {
	app := fiber.New()
	var cfg config
	flag.StringVar(&cfg.ENV, "env", "", "the environment to use")
	flag.Parse()
	configs.InitViper("./configs", cfg.ENV)
	logrus.Info(configs.GetViper().Env)
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept,Authorization",
	}))
	dbConGorm, err := gorm.ConnectToPostgreSQL(
		configs.GetViper().Postgres.Host,
		configs.GetViper().Postgres.Port,
		configs.GetViper().Postgres.Username,
		configs.GetViper().Postgres.Password,
		configs.GetViper().Postgres.DbName,
		configs.GetViper().Postgres.SSLMode,
	)
	if err != nil {
		return err
	}

	// Output adapter (session store)
	sessionStore := redisAdapter.NewSessionStore(
		net.JoinHostPort(configs.GetViper().Redis.Host, configs.GetViper().Redis.Port),
		configs.GetViper().Redis.Password,
		configs.GetViper().Redis.DB,
		redisAdapter.WithTTL(time.Duration(configs.GetViper().Redis.SessionTTL)*time.Second),
	)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	go func() {
		for range c {
			log.Println("Gracefull shut down ...")
			gorm.DisconnectPostgres(dbConGorm.Postgres)
			if err := sessionStore.Close(); err != nil {
				log.Println("Error when closing session store: ", err)
			}
			err := app.Shutdown()
			if err != nil {
				log.Println("Error when shutdown server: ", err)
			}
		}
	}()

	// Wire up the hexagonal architecture layers
	// Output adapter (repository)
	orderRepo := postgres.NewOrderRepository(dbConGorm.Postgres)
	// Application service (use case)
	srv := application.NewOrderService(orderRepo)
	// Input adapter (HTTP handler)
	hdl := httpAdapter.New(srv, dbConGorm.Postgres)

	// Wire up the dialogue hexagonal architecture
	// Output adapter (commerce client)
	commerceClient, err := moltin.NewClientAdapter(configs.GetViper().Commerce)
	if err != nil {
		logrus.Fatalf("Failed to create commerce client: %v", err)
	}
	// Application service (dialogue use case)
	dialogSrv := application.NewDialogService(commerceClient, sessionStore, orderRepo)
	// Input adapter (event webhook handler)
	eventHdl := httpAdapter.NewEventHandler(dialogSrv, configs.GetViper().Webhook.Token)

	app.Get("/health", hdl.HealthCheck)

	api := app.Group("/v1/api")
	{
		api.Get("/order/:id", hdl.GetOrder)
		api.Get("/order", hdl.GetOrder)
	}

	// Transport event endpoint
	webhook := app.Group("/webhook")
	{
		webhook.Post("/events", eventHdl.HandleEvent)
	}

	err = app.Listen(":" + configs.GetViper().App.Port)
	if err != nil {
		return err
	}

	logrus.Println("Listerning on port: ", configs.GetViper().App.Port)
	return nil
}
