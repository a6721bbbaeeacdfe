package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/studyhub-api/internal/application/account"
	"github.com/studyhub-api/internal/application/material"
	"github.com/studyhub-api/internal/application/registration"
	"github.com/studyhub-api/internal/config"
	"github.com/studyhub-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/studyhub-api/internal/infrastructure/jwt"
	redisinfra "github.com/studyhub-api/internal/infrastructure/redis"
	s3infra "github.com/studyhub-api/internal/infrastructure/s3"
	"github.com/studyhub-api/internal/infrastructure/smtp"
	"github.com/studyhub-api/internal/infrastructure/sns"
	"github.com/studyhub-api/internal/notify"
	transport "github.com/studyhub-api/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables")
	}
	cfg := config.Load()

	ctx := context.Background()

	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables)

	studentRepo := dynamo.NewAccountRepo(dynamoClient, cfg.DynamoTables.Students)
	facultyRepo := dynamo.NewAccountRepo(dynamoClient, cfg.DynamoTables.Faculty)
	otpRepo := dynamo.NewOTPRepo(dynamoClient, cfg.DynamoTables.OTPs)
	materialRepo := dynamo.NewMaterialRepo(dynamoClient, cfg.DynamoTables.Materials)

	objects := s3infra.NewStore(s3infra.NewClient(cfg), cfg.S3BucketName)

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		log.Fatalf("jwt provider: %v", err)
	}

	mailer := smtp.NewMailer(cfg)

	var smsSender sns.SMSSender
	if s, err := sns.NewSender(cfg); err != nil {
		slog.Warn("sns unavailable, otp sms channel disabled", "err", err)
	} else {
		smsSender = s
	}
	dispatcher := notify.NewDispatcher(mailer, smsSender)

	regDeps := registration.ServiceDeps{
		Students:   studentRepo,
		Faculty:    facultyRepo,
		OTPs:       otpRepo,
		Dispatcher: dispatcher,
		Signer:     jwtProvider,
		OTPTTL:     cfg.OTPTTL,
		PendingTTL: cfg.PendingTTL,
	}
	if cfg.RedisAddr != "" {
		redisClient, err := redisinfra.Connect(ctx, redisinfra.Config{
			Addr: cfg.RedisAddr,
			DB:   cfg.RedisDB,
		})
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer redisClient.Close()
		regDeps.Dedup = redisinfra.NewDedupChecker(redisClient)
	}
	registrationSvc := registration.NewService(regDeps)

	accountSvc := account.NewService(account.ServiceDeps{
		Students:    studentRepo,
		Faculty:     facultyRepo,
		Materials:   materialRepo,
		OTPs:        otpRepo,
		Objects:     objects,
		Signer:      jwtProvider,
		AssetURLTTL: cfg.AssetURLTTL,
	})

	materialSvc := material.NewService(materialRepo, objects)

	router := transport.NewRouter(transport.Deps{
		Config:       cfg,
		JWTProvider:  jwtProvider,
		Registration: registrationSvc,
		Accounts:     accountSvc,
		Materials:    materialSvc,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.AppPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("listening on :%s", cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown: %v", err)
	}
	log.Println("server stopped")
}
