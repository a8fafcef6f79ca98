// Command adduser creates a local account in the profile store without starting a
// session.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	appErrors "github.com/fatali-fataliyev/expense_manager/customErrors"
	"github.com/fatali-fataliyev/expense_manager/internal/auth"
	"github.com/fatali-fataliyev/expense_manager/internal/config"
	"github.com/fatali-fataliyev/expense_manager/internal/kv"
	"golang.org/x/term"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	fs.SetOutput(stderr)

	name := fs.String("name", "", "Display name (defaults to the part of the email before @)")
	email := fs.String("email", "", "Email address")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	driver := fs.String("driver", "", "Storage driver, overrides STORE_DRIVER")
	path := fs.String("path", "", "Storage path for the file and sqlite drivers, overrides STORE_PATH")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *email == "" {
		fmt.Fprintln(stdout, "Usage: adduser -email <email> [-name <name>] [-password <password>] [-driver <driver>] [-path <path>]")
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: email")
	}

	password := *passwordFlag
	if password == "" {
		fmt.Fprint(stdout, "Password: ")
		var err error
		password, err = readPassword(stdin)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(stdout)
	}

	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("password cannot be empty")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if *driver != "" {
		cfg.StoreDriver = strings.ToLower(*driver)
	}
	if *path != "" {
		cfg.StorePath = *path
	}
	if cfg.StoreDriver == config.DriverMemory {
		return fmt.Errorf("the memory driver does not persist accounts")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := context.Background()
	store, err := kv.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer store.Close()

	displayName := strings.TrimSpace(*name)
	if displayName == "" {
		displayName, _, _ = strings.Cut(strings.TrimSpace(*email), "@")
	}

	service := auth.NewService(store, nil)
	user, err := service.CreateLocalAccount(ctx, auth.NewUser{
		Name:          displayName,
		Email:         strings.TrimSpace(*email),
		PasswordPlain: password,
	})
	if err != nil {
		var appErr appErrors.ErrorResponse
		if errors.As(err, &appErr) && appErr.Code == appErrors.ErrConflict {
			return fmt.Errorf("user %s already exists", *email)
		}
		if errors.As(err, &appErr) && len(appErr.Fields) > 0 {
			return fmt.Errorf("%s: %s", appErr.Message, formatFields(appErr.Fields))
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Fprintf(stdout, "User %s created successfully with ID %s\n", user.Email, user.ID)
	return nil
}

func formatFields(fields map[string]string) string {
	parts := make([]string, 0, len(fields))
	for _, field := range []string{"name", "email", "password"} {
		if msg, ok := fields[field]; ok {
			parts = append(parts, msg)
		}
	}
	return strings.Join(parts, "; ")
}

func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}

	// pipes and tests
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
