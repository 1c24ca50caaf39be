package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"contacts/internal/config"
	"contacts/internal/database"
	"contacts/internal/domain"
	"contacts/internal/pkg/logger"
	"contacts/internal/pkg/password"
	"contacts/internal/repository"
)

type seedUser struct {
	email    string
	name     string
	password string
	role     domain.UserRole
}

var users = []seedUser{
	{email: "admin@contacts.local", name: "Administrator", password: "admin123", role: domain.RoleAdmin},
	{email: "demo@contacts.local", name: "Demo User", password: "demo123", role: domain.RoleUser},
}

var demoContacts = []domain.Contact{
	{FirstName: "Allen", LastName: "Raymond", Email: "nulla.ante@vestibul.co.uk", PhoneNumber: "(992) 914-3792", Birthday: domain.NewDate(1988, time.March, 14)},
	{FirstName: "Chaim", LastName: "Lewis", Email: "dui.in@egetlacus.ca", PhoneNumber: "(294) 840-6685", Birthday: domain.NewDate(1992, time.February, 29), Notes: "leap day"},
	{FirstName: "Kennedy", LastName: "Lane", Email: "mattis.cras@nonenimmauris.net", PhoneNumber: "(542) 451-7038", Birthday: domain.NewDate(1979, time.July, 2)},
	{FirstName: "Wylie", LastName: "Pope", Email: "est@utquamvel.net", PhoneNumber: "(692) 802-2949", Birthday: domain.NewDate(2001, time.December, 31)},
	{FirstName: "Cyrus", LastName: "Jackson", Email: "nibh@semsempererat.com", PhoneNumber: "(501) 472-5218", Birthday: domain.NewDate(1995, time.January, 3)},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel, logger.Format(cfg.LogFormat))

	db, err := database.Connect(cfg.DatabaseURL, true)
	if err != nil {
		log.Error("db connection failed", "error", err)
		os.Exit(1)
	}
	if err := repository.Migrate(db); err != nil {
		log.Error("migrate failed", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	hasher := password.NewHasher(password.DefaultParams)
	userRepo := repository.NewUserRepository(db)
	contactRepo := repository.NewContactRepository(db)

	for _, su := range users {
		hash, err := hasher.Hash(su.password)
		if err != nil {
			log.Error("hash password", "error", err)
			os.Exit(1)
		}

		u := &domain.User{
			Email:         su.email,
			Name:          su.name,
			PasswordHash:  hash,
			EmailVerified: true,
			Role:          su.role,
		}
		if err := userRepo.Create(ctx, u); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				log.Info("user already exists, skipping", "email", su.email)
				continue
			}
			log.Error("create user", "email", su.email, "error", err)
			os.Exit(1)
		}
		log.Info("user created", "email", u.Email, "role", u.Role)

		if u.Role != domain.RoleUser {
			continue
		}
		for _, c := range demoContacts {
			c.OwnerID = u.ID
			if err := contactRepo.Create(ctx, &c); err != nil {
				log.Error("create contact", "email", c.Email, "error", err)
				os.Exit(1)
			}
		}
		log.Info("contacts created", "owner", u.Email, "count", len(demoContacts))
	}

	log.Info("seed completed")
}
