// Command main fills the configured store with generated users and exercise logs.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"exercisetracker/internal/bootstrap"
	"exercisetracker/internal/config"
	"exercisetracker/internal/seed"
	"exercisetracker/internal/service"
)

func main() {
	opts := seed.Options{}
	flag.IntVar(&opts.NumUsers, "users", 25, "Number of users to create")
	flag.IntVar(&opts.ExercisesPerUser, "exercises", 20, "Exercises to log per user")
	flag.IntVar(&opts.MaxDays, "days", 90, "How many days back exercise dates may go")
	flag.IntVar(&opts.Concurrency, "concurrency", 4, "Users written in parallel")
	flag.Int64Var(&opts.Seed, "seed", 0, "Random seed for reproducible data (0 = random)")
	flag.Parse()

	log.Printf("Target: %d users, %d exercises each\n", opts.NumUsers, opts.ExercisesPerUser)

	if err := run(opts); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
}

func run(opts seed.Options) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.InitRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(context.Background()); err != nil {
			log.Printf("Runtime close error: %v", err)
		}
	}()

	users, err := seed.NewSeeder(service.NewUserService(rt.Users, rt.Publisher), opts).Run(ctx)
	if err != nil {
		return err
	}

	log.Printf("Seeded %d users\n", len(users))
	return nil
}
