package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/SergeyBogomolovv/orders-service/docs"
	"github.com/SergeyBogomolovv/orders-service/internal/app"
	"github.com/SergeyBogomolovv/orders-service/internal/config"
	"github.com/SergeyBogomolovv/orders-service/internal/handler"
	"github.com/SergeyBogomolovv/orders-service/internal/postgres"
	"github.com/SergeyBogomolovv/orders-service/internal/product"
	"github.com/SergeyBogomolovv/orders-service/internal/repo"
	"github.com/SergeyBogomolovv/orders-service/internal/service"
	"github.com/SergeyBogomolovv/orders-service/pkg/trm"

	"github.com/joho/godotenv"
)

// @title           Order Service API
// @version         1.0
// @description     Orders priced by the product service
// @BasePath        /
func main() {
	conf := config.New()
	logger := newLogger(conf.Env)
	panicIfErr("invalid config", conf.Validate())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	db, err := postgres.New(ctx, conf.Postgres)
	panicIfErr("failed to connect to db", err)
	defer db.Close()
	logger.Info("postgres connected", slog.String("driver", conf.Postgres.Driver))

	txManager := trm.NewManager(db, trm.WithIsolation(sql.LevelReadCommitted))
	orderRepo := repo.NewPostgresRepo(db, txManager)
	products := product.NewClient(logger, conf.ProductService)

	orderService := service.NewOrderService(logger, txManager, orderRepo, products)

	app := app.New(logger, conf)

	app.SetHTTPHandlers(handler.NewHTTPHandler(logger, orderService))

	if conf.Kafka.Enabled {
		handler.RegisterMetrics()
		app.SetConsumers(handler.NewKafkaHandler(logger, conf.Kafka, orderService))
	}

	panicIfErr("failed to start app", app.Start(ctx))
	<-ctx.Done()
	panicIfErr("failed to stop app", app.Stop())
}

func init() {
	godotenv.Load()
}

func newLogger(env string) *slog.Logger {
	switch env {
	case "production":
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}

func panicIfErr(prefix string, err error) {
	if err != nil {
		panic(prefix + ": " + err.Error())
	}
}
