package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/voicedesk/openmic-bridge/internal/config"
	"github.com/voicedesk/openmic-bridge/internal/handler"
)

// Prints an X-API-Key value accepted by the admin API
func main() {
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.Load()
	if cfg.AdminSecretKey == "" {
		log.Fatal("ADMIN_SECRET_KEY is not set; the admin API is unauthenticated")
	}

	token, err := handler.GenerateAdminToken(cfg.AdminSecretKey, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to sign token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
