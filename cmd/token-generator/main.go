// Command token-generator mints an access token for local development.
//
//	QUIZZER_AUTH_JWT_SECRET=... go run ./cmd/token-generator -user <uuid>
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/Abdoul54/ai-quizzer-sub000/internal/config"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/service/auth"
)

func main() {
	user := flag.String("user", "", "user id to embed in the token (random when empty)")
	lifetime := flag.Int("lifetime", 60, "token lifetime in minutes")
	flag.Parse()

	if err := run(*user, *lifetime); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(user string, lifetime int) error {
	userID := uuid.New()
	if user != "" {
		var err error
		if userID, err = uuid.Parse(user); err != nil {
			return fmt.Errorf("invalid user id: %w", err)
		}
	}

	svc, err := auth.NewJWTService(config.AuthConfig{
		JWTSecret:            os.Getenv(config.EnvPrefix + "_AUTH_JWT_SECRET"),
		TokenLifetimeMinutes: lifetime,
	})
	if err != nil {
		return err
	}

	token, err := svc.GenerateToken(context.Background(), userID)
	if err != nil {
		return err
	}
	fmt.Printf("user:  %s\ntoken: %s\n", userID, token)
	return nil
}
