// Command token prints a bearer token for the staff API.
//
//	go run ./cmd/token -sub manager@shop
package main

import (
	"flag"
	"fmt"
	"time"

	"orderbot/cmd"
	"orderbot/internal/pkg/auth"

	"github.com/labstack/gommon/log"
)

func main() {
	subject := flag.String("sub", "", "staff member the token is issued to")
	ttl := flag.Duration("ttl", 0, "token lifetime, defaults to STAFF_API_TOKEN_TTL")
	flag.Parse()

	if *subject == "" {
		log.Fatalf("-sub is required")
	}

	configs, err := cmd.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}
	lifetime := configs.StaffAPITokenTTL
	if *ttl > 0 {
		lifetime = *ttl
	}

	tokens, err := auth.NewTokenManager(configs.StaffAPISecret, lifetime)
	if err != nil {
		log.Fatalf("Error creating token manager: %v", err)
	}
	token, expiresAt, err := tokens.GenerateToken(*subject)
	if err != nil {
		log.Fatalf("Error signing token: %v", err)
	}
	fmt.Println(token)
	fmt.Printf("expires %s\n", expiresAt.Format(time.RFC3339))
}
