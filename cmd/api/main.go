package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/portal-auth/internal/application/account"
	"github.com/portal-auth/internal/application/token"
	"github.com/portal-auth/internal/application/verification"
	"github.com/portal-auth/internal/config"
	"github.com/portal-auth/internal/infrastructure/dynamo"
	jwtinfra "github.com/portal-auth/internal/infrastructure/jwt"
	"github.com/portal-auth/internal/infrastructure/notify"
	"github.com/portal-auth/internal/infrastructure/smtp"
	snsinfra "github.com/portal-auth/internal/infrastructure/sns"
	"github.com/portal-auth/internal/pkg/code"
	transporthttp "github.com/portal-auth/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap DynamoDB tables (creates them if they don't exist) and
	// enable native TTL on the shared KV table.
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	store := dynamo.NewKVStore(dynamoClient, cfg.DynamoTables.AuthKV)
	userRepo := dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users)

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		log.Fatalf("JWT provider: %v", err)
	}

	sessions := token.NewSessionStore(store)
	revocations := token.NewRevocationRegistry(store, cfg.AccessTokenTTL)
	tokenSvc := token.NewService(jwtProvider, sessions, revocations)

	var base notify.Sender
	switch cfg.NotifyChannel {
	case "sms":
		smsSender, err := snsinfra.NewSender(cfg)
		if err != nil {
			log.Fatalf("SNS sender: %v", err)
		}
		base = notify.NewSMSNotifier(smsSender, userRepo)
	default:
		base = notify.NewEmailNotifier(smtp.NewMailer(cfg), userRepo)
	}
	notifier := notify.WithRetry(base, uint64(cfg.NotifyMaxRetries), cfg.NotifyBackoff)

	limiter := verification.NewRateLimiter(store, cfg.SendCooldown, cfg.DailySendMax)
	codeSvc := verification.NewService(
		verification.NewCodeStore(store),
		limiter,
		notifier,
		code.Policy{Alphabet: cfg.CodeAlphabet, Length: cfg.CodeLength},
		cfg.CodeTTL,
	)

	accountSvc := account.NewService(userRepo)

	router := transporthttp.NewRouter(cfg, &transporthttp.Deps{
		Tokens:   tokenSvc,
		Signer:   jwtProvider,
		Codes:    codeSvc,
		Accounts: accountSvc,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
