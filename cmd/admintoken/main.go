// Command admintoken prints a bearer token for the admin HTTP API, signed
// with JWT_SECRET.
package main

import (
	"fmt"
	"os"

	"example.com/wordgame/internal/auth"
	"example.com/wordgame/internal/config"
)

func main() {
	if len(os.Args) > 2 {
		fmt.Fprintf(os.Stderr, "usage: %s [subject]\n", os.Args[0])
		os.Exit(2)
	}
	subject := "admin"
	if len(os.Args) == 2 {
		subject = os.Args[1]
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}

	token, err := auth.NewService([]byte(cfg.Auth.Secret)).Sign(subject, cfg.Auth.TokenTTL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "sign:", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
