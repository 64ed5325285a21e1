// Command gatekeeperctl administers a persistent gatekeeper user store.
//
// Usage:
//
//	gatekeeperctl create-admin -email admin@example.com
//
// The store is selected with the same environment variables as the server.
// The password is read from the terminal without echo.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/msomdec/gatekeeper/internal/config"
	"github.com/msomdec/gatekeeper/internal/domain"
	"github.com/msomdec/gatekeeper/internal/repository"
	"github.com/msomdec/gatekeeper/internal/service"
	"golang.org/x/term"
)

// Test seams for the terminal.
var (
	isTerminal   = term.IsTerminal
	readPassword = term.ReadPassword
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New("usage: gatekeeperctl create-admin -email <email>")
	}

	switch args[0] {
	case "create-admin":
		return createAdmin(args[1:], out)
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func createAdmin(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("create-admin", flag.ContinueOnError)
	email := fs.String("email", "", "admin email address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*email) == "" {
		return errors.New("-email is required")
	}

	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	if cfg.StoreDriver == config.DriverMemory {
		return errors.New("create-admin needs a persistent store; set STORE_DRIVER to sqlite or postgres")
	}

	password, err := promptPassword(out)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := repository.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	creds := service.NewCredentialStore(store.Users, cfg.BcryptCost)
	tokens := service.NewTokenService([]byte(cfg.JWTSecret), config.TokenTTL)
	auth := service.NewAuthService(creds, tokens, false)

	created, err := auth.SeedAdmin(ctx, *email, password)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("rejected: %s", verr.Error())
		}
		return err
	}
	if !created {
		return fmt.Errorf("%s is already registered", domain.NormalizeEmail(*email))
	}

	fmt.Fprintf(out, "admin %s created\n", domain.NormalizeEmail(*email))
	return nil
}

func promptPassword(out io.Writer) (string, error) {
	fd := int(os.Stdin.Fd())
	if !isTerminal(fd) {
		return "", errors.New("stdin is not a terminal")
	}

	fmt.Fprint(out, "Password: ")
	first, err := readPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	fmt.Fprint(out, "Confirm password: ")
	second, err := readPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	return string(first), nil
}
