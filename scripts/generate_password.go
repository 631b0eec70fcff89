// Prints a password hash for seeding accounts by hand, using the same
// policy and bcrypt cost as the running service.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/pkg/auth"
)

func main() {
	if len(os.Args) < 2 {
		logrus.Fatal("Usage: go run scripts/generate_password.go <password>")
	}

	_ = godotenv.Load()
	passwords := auth.NewPasswordManager(config.FromEnv())

	password := os.Args[1]
	hash, err := passwords.HashPassword(password)
	if err != nil {
		logrus.WithError(err).Fatal("Error generating hash")
	}

	if err := passwords.VerifyPassword(password, hash); err != nil {
		logrus.WithError(err).Fatal("Hash verification failed")
	}

	fmt.Printf("Hash: %s\n", hash)
}
