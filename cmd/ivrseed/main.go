// Command ivrseed loads the mock reservation and loyalty records into
// the configured database so the simulator has data to serve.
package main

import (
	"context"
	"flag"
	"log"

	"github.com/saranya-muthuraj/ivrsim/internal/config"
	"github.com/saranya-muthuraj/ivrsim/internal/directory"
)

func main() {
	reset := flag.Bool("force", false, "reseed even if records already exist")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatalf("DATABASE_URL is required: an in-memory directory cannot be seeded ahead of time")
	}

	ctx := context.Background()
	dir, err := directory.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("directory init failed: %v", err)
	}
	defer dir.Close()

	if *reset {
		for _, r := range directory.SeedReservations() {
			if err := dir.InsertReservation(ctx, &r); err != nil {
				log.Fatalf("inserting reservation %s failed: %v", r.Key, err)
			}
		}
		for _, a := range directory.SeedLoyaltyAccounts() {
			if err := dir.UpsertLoyaltyAccount(ctx, &a); err != nil {
				log.Fatalf("upserting account %s failed: %v", a.Number, err)
			}
		}
	} else if err := directory.EnsureSeed(ctx, dir); err != nil {
		log.Fatalf("seeding failed: %v", err)
	}

	reservations, err := dir.ReservationCount(ctx)
	if err != nil {
		log.Fatalf("counting reservations failed: %v", err)
	}
	accounts, err := dir.LoyaltyAccountCount(ctx)
	if err != nil {
		log.Fatalf("counting accounts failed: %v", err)
	}
	log.Printf("seed complete: %d reservations, %d loyalty accounts", reservations, accounts)
}
