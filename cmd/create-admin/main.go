// Package main provides a bootstrap CLI that creates an administrator
// account in the secure-drop database.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/ID-VerNe/secure-drop/internal/config"
	"github.com/ID-VerNe/secure-drop/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	username := flag.String("username", "", "admin username (required)")
	flag.Parse()

	if *username == "" {
		flag.Usage()
		return errors.New("username is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Print("Password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}

	hash, err := storage.HashPassword(string(password))
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	store, err := storage.New(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck

	admin, err := store.CreateAdmin(context.Background(), *username, hash)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return fmt.Errorf("admin %q already exists", *username)
		}
		return err
	}

	fmt.Printf("admin %q created (id %d)\n", admin.Username, admin.ID)
	return nil
}
