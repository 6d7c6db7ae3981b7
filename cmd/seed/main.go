// Command main loads reference data and demo content into the database.
package main

import (
	"context"
	"flag"
	"log"

	"nestling/internal/bootstrap"
	"nestling/internal/config"
	"nestling/internal/seed"
)

func main() {
	defaults := seed.DefaultOptions()
	numUsers := flag.Int("users", defaults.Users, "Number of demo users to create")
	numArticles := flag.Int("articles", defaults.Articles, "Number of articles to create")
	numEvents := flag.Int("events", defaults.Events, "Number of events to create")
	numComments := flag.Int("comments", defaults.Comments, "Number of comments to create")
	numCalendars := flag.Int("calendars", defaults.Calendars, "Number of pregnancy calendars to create")
	maxDays := flag.Int("days", defaults.MaxDays, "Spread of generated dates in days")
	randSeed := flag.Int64("seed", 0, "Random seed for a reproducible run (0 picks one)")
	shouldClean := flag.Bool("clean", false, "Remove previous demo content before seeding")
	referenceOnly := flag.Bool("reference-only", false, "Only ensure reference data")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	db, redisClient, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{SeedReference: true})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	if *referenceOnly {
		log.Println("Reference data is up to date")
		return
	}

	if *shouldClean {
		if err := seed.Clear(ctx, db); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	res, err := seed.NewFactory(db, seed.Options{
		Users:     *numUsers,
		Articles:  *numArticles,
		Events:    *numEvents,
		Comments:  *numComments,
		Calendars: *numCalendars,
		MaxDays:   *maxDays,
		Seed:      *randSeed,
	}).Demo(ctx)
	if err != nil {
		log.Fatalf("Demo seeding failed: %v", err)
	}

	log.Printf("Created %d users, %d articles, %d events, %d likes, %d registrations, %d comments, %d calendars",
		res.Users, res.Articles, res.Events, res.Likes, res.Registrations, res.Comments, res.Calendars)
	log.Printf("Demo accounts use the @%s domain and the password %s", seed.DemoEmailDomain, seed.DemoPassword)
}
