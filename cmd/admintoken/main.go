// Command admintoken mints an access token with the admin role for the
// catalog staff endpoints. There is no user store; the id and email are
// recorded in the token and in request logs only.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/ikkim/atelier-catalog/config"
	"github.com/ikkim/atelier-catalog/internal/middleware"
	"github.com/ikkim/atelier-catalog/pkg/util"
)

func main() {
	userID := flag.Uint("id", 1, "staff user id")
	email := flag.String("email", "staff@example.com", "staff email")
	ttl := flag.Duration("ttl", 0, "token lifetime (default JWT_ACCESS_TOKEN_EXPIRY)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	expiry := cfg.JWT.AccessTokenExpiry
	if *ttl > 0 {
		expiry = *ttl
	}

	tokens, err := util.GenerateTokenPair(uint(*userID), *email, middleware.RoleAdmin, cfg.JWT.Secret, expiry, cfg.JWT.RefreshTokenExpiry)
	if err != nil {
		log.Fatal("Failed to sign token:", err)
	}

	fmt.Println(tokens.AccessToken)
	log.Printf("expires at %s", time.Now().Add(expiry).Format(time.RFC3339))
}
