package main

import (
	"flag"
	"fmt"
	"log"

	"example.com/gomarketplace/app/internal/config"
	"example.com/gomarketplace/app/internal/infra/security"
)

// tokengen prints a device token for the cart API, signed with TOKEN_SECRET.
func main() {
	device := flag.String("device", "", "device id to embed in the token")
	ttl := flag.Duration("ttl", 0, "token lifetime (defaults to TOKEN_TTL)")
	flag.Parse()

	cfg := config.Load()
	if cfg.TokenSecret == "" {
		log.Fatal("TOKEN_SECRET is not set")
	}
	if *ttl <= 0 {
		*ttl = cfg.TokenTTL
	}

	token, err := security.NewJWTService(cfg.TokenSecret, *ttl).GenerateToken(*device)
	if err != nil {
		log.Fatalf("generate token: %v", err)
	}
	fmt.Println(token)
}
