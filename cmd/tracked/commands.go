package main

import (
	"context"
	"errors"
	"fmt"

	"tracked/internal/app"
	"tracked/internal/domain"

	log "github.com/sirupsen/logrus"
)

// MigrateCmd applies the schema. Opening the postgres store migrates it.
type MigrateCmd struct{}

func (c *MigrateCmd) Run(g *Globals) error {
	if g.Store != "postgres" {
		return fmt.Errorf("migrate needs the postgres store, got %q", g.Store)
	}
	logger, err := g.logger()
	if err != nil {
		return err
	}
	st, err := g.openStores(logger)
	if err != nil {
		return err
	}
	defer func() { _ = st.close() }()
	logger.Info("schema up to date")
	return nil
}

// DemoUserCmd provisions an account and quick-adds catalog trackers to it.
type DemoUserCmd struct {
	Username string   `help:"Account name." default:"demo"`
	Password string   `help:"Account password; empty leaves an SSO-only account." env:"DEMO_PASSWORD"`
	Trackers []string `help:"Catalog slugs to add." default:"sleep,wakeup,mood,water,exercise,read,notes"`
}

func (c *DemoUserCmd) Run(g *Globals) error {
	logger, err := g.logger()
	if err != nil {
		return err
	}
	st, err := g.openStores(logger)
	if err != nil {
		return err
	}
	defer func() { _ = st.close() }()

	ctx := context.Background()
	auth := app.NewAuthService(st.users, st.profiles, st.sessions)
	trackers := app.NewTrackerService(st.trackers, nil, 0)

	user, err := auth.ProvisionUser(ctx, c.Username, c.Password, "")
	if err != nil {
		return err
	}
	for _, slug := range c.Trackers {
		t, err := trackers.QuickAdd(ctx, user.ID, slug)
		if errors.Is(err, domain.ErrConflict) {
			continue
		}
		if err != nil {
			return fmt.Errorf("add %s: %w", slug, err)
		}
		logger.WithFields(log.Fields{"tracker": t.Name, "type": t.Type}).Info("tracker added")
	}
	logger.WithFields(log.Fields{"user": user.Username, "id": user.ID}).Info("demo user ready")
	return nil
}
