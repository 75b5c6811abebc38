package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func main() {
	// Check that a subject and the signing secret were provided.
	if len(os.Args) < 3 {
		log.Fatal("Usage: go run main.go <subject> <jwt-secret>")
	}

	subject := os.Args[1]
	secret := os.Args[2]

	// Issue an HS256 token valid for 24 hours, matching the middleware
	// configuration on the API group.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(24 * time.Hour).Unix(),
	})

	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}

	// Print the token to the console for use in an Authorization header.
	fmt.Println(signed)
}
