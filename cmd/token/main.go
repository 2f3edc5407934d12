package main

import (
	"flag"
	"fmt"
	"os"
	"room-lab/auth"
	"room-lab/errors"
	"time"

	"github.com/Netflix/go-env"
	"github.com/samber/lo"
)

type Config struct {
	JWTSecret         string        `env:"JWT_SECRET,required=true"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`
}

// Mints a token for local testing: token -username alice
func main() {
	username := flag.String("username", "", "Username carried by the token")
	flag.Parse()

	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	if lo.FromPtr(username) == "" {
		fmt.Fprintln(os.Stderr, errors.ErrInvalidUsername)
		os.Exit(2)
	}

	token, err := auth.GenerateToken(*username, []byte(config.JWTSecret), config.AuthTokenDuration)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v: %v\n", errors.ErrTokenGeneration, err)
		os.Exit(1)
	}
	fmt.Println(token)
}
