// Command seed creates the initial admin account or resets an admin password.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/neven/neven/internal/config"
	"github.com/neven/neven/internal/models"
	"github.com/neven/neven/internal/repository"
	"github.com/neven/neven/internal/service"
	"github.com/sirupsen/logrus"
)

func main() {
	email := flag.String("email", "admin@neven.com", "admin email")
	name := flag.String("name", "System Admin", "admin display name")
	password := flag.String("password", "", "admin password (generated when empty)")
	role := flag.String("role", string(models.AdminRoleSuperAdmin), "super_admin, manager or staff")
	reset := flag.Bool("reset", false, "reset the password of an existing admin")
	genSecret := flag.Bool("gen-secret", false, "print a new JWT_SECRET_KEY and exit")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	if *genSecret {
		secret, err := service.GenerateSecret(48)
		if err != nil {
			logger.WithError(err).Fatal("Failed to generate secret")
		}
		fmt.Println(secret)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	generated := false
	if *password == "" {
		*password, err = service.GenerateSecret(12)
		if err != nil {
			logger.WithError(err).Fatal("Failed to generate password")
		}
		generated = true
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stores, err := repository.OpenAccountStores(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize account store")
	}
	defer stores.Close()

	created, err := service.EnsureAdmin(ctx, stores.Admins, service.AdminSetup{
		Email:         *email,
		Name:          *name,
		Password:      *password,
		Role:          models.AdminRole(*role),
		ResetPassword: *reset,
	})
	if err != nil {
		logger.WithError(err).Error("Failed to set up admin")
		os.Exit(1)
	}

	action := "Admin password reset"
	if created {
		action = "Admin created"
	}
	logger.WithFields(logrus.Fields{"email": *email, "backend": cfg.Backend}).Info(action)

	if generated {
		fmt.Fprintf(os.Stdout, "password: %s\n", *password)
	}
}
