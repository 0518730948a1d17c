// Command devtoken mints a bearer token for calling the candidate service
// with auth enabled, signed with the configured secret and issuer.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/talentvault/talentvault-backend/internal/auth/jwt"
	"github.com/talentvault/talentvault-backend/pkg/config"
)

func main() {
	subject := pflag.String("subject", "", "token subject (required)")
	role := pflag.String("role", "", "optional role claim")
	expiry := pflag.Duration("expiry", 0, "override auth.token_expiry")
	pflag.Parse()

	if *subject == "" {
		fmt.Fprintln(os.Stderr, "devtoken: --subject is required")
		pflag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := config.Load("candidate-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "devtoken: failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *expiry > 0 {
		cfg.Auth.TokenExpiry = *expiry
	}

	token, expiresAt, err := jwt.NewManager(&cfg.Auth).GenerateToken(*subject, *role)
	if err != nil {
		fmt.Fprintf(os.Stderr, "devtoken: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "expires %s\n", expiresAt.UTC().Format(time.RFC3339))
	fmt.Println(token)
}
