package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/itsmostafa07/groupspeak/internal/auth"
	"github.com/itsmostafa07/groupspeak/internal/data"
	"github.com/itsmostafa07/groupspeak/internal/db"
	"github.com/itsmostafa07/groupspeak/internal/middleware"
)

func main() {
	mongoURI := os.Getenv("MONGODB_URI")
	if mongoURI == "" {
		log.Fatal("MONGODB_URI environment variable is required")
	}
	port := envString("GROUPSPEAK_PORT", "5050")
	rateLimitRPM := envInt("GROUPSPEAK_RATE_LIMIT_RPM", 30)
	writeTimeout := time.Duration(envInt("GROUPSPEAK_WRITE_TIMEOUT", 30)) * time.Second
	idleTimeout := time.Duration(envInt("GROUPSPEAK_IDLE_TIMEOUT", 0)) * time.Second

	ctx := context.Background()
	client, err := db.New(ctx, mongoURI)
	if err != nil {
		log.Fatalf("failed to connect to MongoDB: %v", err)
	}
	defer client.Close(ctx)

	if err := client.CreateIndexes(ctx); err != nil {
		log.Fatalf("failed to create indexes: %v", err)
	}

	users := data.NewUsersStore(client.UsersCollection())
	sessions := data.NewSessionsStore(client.SessionsCollection())
	convs := data.NewConversationsStore(client.ConversationsCollection(), client.ParticipantsCollection())
	msgs := data.NewMessagesStore(client.MessagesCollection())

	srv := newServer(users, convs, msgs, auth.NewService(users, sessions), NewConnectionHub())
	srv.writeTimeout = writeTimeout
	srv.idleTimeout = idleTimeout

	var limiter *middleware.LimiterStore
	if rateLimitRPM > 0 {
		limiter = middleware.NewLimiterStore(rateLimitRPM, rateLimitRPM, 5*time.Minute)
		defer limiter.Stop()
		srv.limiter = limiter
	}

	lis, err := net.Listen("tcp", ":"+port)
	if err != nil {
		log.Fatalf("failed to listen on port %s: %v", port, err)
	}

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop
		log.Println("shutting down...")
		lis.Close()
	}()

	log.Printf("chat server listening on port %s", port)
	if err := srv.Serve(lis); err != nil {
		log.Printf("server stopped: %v", err)
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid %s: %q", key, v)
	}
	return n
}
