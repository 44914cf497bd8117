// Package main (in api-subfolder) launches the image album HTTP service
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/DavidRambo/image-microservice/internal/kafka"
	"github.com/DavidRambo/image-microservice/internal/repository"
	"github.com/DavidRambo/image-microservice/internal/service"
	"github.com/DavidRambo/image-microservice/internal/storage"
	"github.com/DavidRambo/image-microservice/internal/transport"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/dbpg"
	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/zlog"
)

const (
	defaultPort  = "8000"
	shutdownWait = 10 * time.Second
)

func main() {
	appConfig := loadConfig()
	initLogger(appConfig.GetString("LOG_LEVEL"))

	// готовим заранее слушатель прерываний - контекст для всего приложения
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// подключиться к базе
	dialect, err := repository.DialectFromConfig(appConfig)
	if err != nil {
		log.Fatalf("Bad DB config: %v", err)
	}
	dbConn := repository.ConnectWithRetries(appConfig, dialect, 5, 10*time.Second)
	// накатываем миграцию
	repository.MigrateWithRetries(dbConn.Master, dialect, 10, 15*time.Second)
	// создаем экземпляр репо
	repo := repository.NewImageRepo(dbConn, dialect)

	// подключиться к хранилищу
	strg, err := storage.NewImgStorage(appConfig, 10*time.Second)
	if err != nil {
		log.Fatalf("Failed to init image storage: %v", err)
	}

	// события в кафку - только если задан брокер
	pub, producer := newPublisher(ctx, appConfig)

	// создаем экземпляр сервиса
	svc := service.NewImageService(repo, pub, strg, appConfig.GetString("IMAGES_DIR"))
	// cоздаем экземпляр хендлера HTTP
	handlers := transport.NewImageHandler(svc)
	// сетапим сервер
	mode := appConfig.GetString("GIN_MODE")
	if mode == "" {
		mode = "release"
	}
	engine := transport.NewRouter(mode, handlers, splitOrigins(appConfig.GetString("CORS_ORIGINS")))

	port := appConfig.GetString("APP_PORT")
	if port == "" {
		port = defaultPort
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Server launch
	go func() {
		zlog.Logger.Info().Str("addr", srv.Addr).Msg("Server running")
		err := srv.ListenAndServe()
		if err != nil {
			switch {
			case errors.Is(err, http.ErrServerClosed):
				log.Println("Server gracefully stopping...")
			default:
				log.Printf("Server stopped: %v", err)
				stop()
			}
		}
	}()

	// ждем отмены контекста для запуска грейсфул закрытия сервера, бд и кафки
	<-ctx.Done()

	shutdown(srv, producer, dbConn)
	log.Println("Exiting app...")
}

// loadConfig - энвы процесса, поверх них необязательный ./.env
func loadConfig() *config.Config {
	appConfig := config.New()
	appConfig.EnableEnv("")
	if _, err := os.Stat("./.env"); err == nil {
		if err := appConfig.LoadEnvFiles("./.env"); err != nil {
			log.Fatalf("Failed to load envs: %s\nExiting app...", err)
		}
	}
	return appConfig
}

func initLogger(level string) {
	zlog.InitConsole()
	if level == "" {
		level = "info"
	}
	if err := zlog.SetLevel(level); err != nil {
		log.Fatalf("Failed to init logger with level %q: %v", level, err)
	}
}

// newPublisher - без KAFKA_BROKER события просто не публикуются
func newPublisher(ctx context.Context, appConfig *config.Config) (service.EventPublisher, *wbfkafka.Producer) {
	broker := appConfig.GetString("KAFKA_BROKER")
	if broker == "" {
		zlog.Logger.Info().Msg("KAFKA_BROKER is empty, image events are disabled")
		return kafka.NoopPublisher{}, nil
	}

	topic := appConfig.GetString("KAFKA_TOPIC")
	if topic == "" {
		topic = "image-events"
	}
	// ждем пока кафка поднимется
	if err := kafka.WaitKafkaReady(ctx, broker, 30, 2*time.Second); err != nil {
		log.Fatalf("Kafka is not ready: %v", err)
	}
	if err := kafka.InitKafkaTopics(ctx, broker, 10*time.Second, topic); err != nil {
		log.Fatalf("Failed to create kafka topic: %v", err)
	}

	producer := wbfkafka.NewProducer([]string{broker}, topic)
	return kafka.NewEventPublisher(producer), producer
}

func splitOrigins(raw string) []string {
	var res []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			res = append(res, o)
		}
	}
	return res
}

func shutdown(srv *http.Server, producer *wbfkafka.Producer, dbConn *dbpg.DB) {
	log.Println("Interrupt received!!! Starting shutdown sequence...")

	// дожидаемся текущих запросов
	ctx, cancel := context.WithTimeout(context.Background(), shutdownWait)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Println("Server forced to shutdown:", err)
	}

	// Closing Kafka connection:
	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Println("Failed to close Kafka-producer:", err)
		}
		log.Println("Kafka-producer connection closed.")
	}

	// Closing DB connection
	if err := dbConn.Master.Close(); err != nil {
		log.Println("Failed to close DB-conn correctly:", err)
		return
	}
	log.Println("DBconn closed")
}
