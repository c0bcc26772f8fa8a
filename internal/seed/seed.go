// Package seed generates demo users and exercise logs for development and load testing.
// Data goes through the user service, so it is validated and published like real traffic.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"exercisetracker/internal/middleware"
	"exercisetracker/internal/models"
	"exercisetracker/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/sync/errgroup"
)

// Options configuration for the seeder
type Options struct {
	NumUsers         int
	ExercisesPerUser int
	// MaxDays bounds how far back exercise dates go.
	MaxDays     int
	Concurrency int
	// Seed makes the generated data reproducible. Zero picks a random seed.
	Seed int64
}

var activities = []string{
	"Running", "Cycling", "Swimming", "Rowing", "Yoga", "Pilates", "Hiking",
	"Weightlifting", "Boxing", "Climbing", "Jump rope", "Stretching", "Walking",
	"HIIT", "Spinning", "Tennis", "Basketball", "Soccer", "Skating", "Dancing",
}

// plannedUser is one user and its exercises, generated before anything is written.
type plannedUser struct {
	Username  string
	Exercises []service.AddExerciseInput
}

// Seeder writes generated users through a UserService.
type Seeder struct {
	users *service.UserService
	faker *gofakeit.Faker
	opts  Options
	now   func() time.Time
}

// NewSeeder creates a Seeder with defaults filled in for unset options.
func NewSeeder(users *service.UserService, opts Options) *Seeder {
	if opts.MaxDays <= 0 {
		opts.MaxDays = 90
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	return &Seeder{
		users: users,
		faker: gofakeit.New(opts.Seed),
		opts:  opts,
		now:   time.Now,
	}
}

// Run creates every planned user and its log. Users are written concurrently;
// one user's exercises are appended in date order so its log reads chronologically.
// The first failure cancels the remaining work.
func (s *Seeder) Run(ctx context.Context) ([]*models.User, error) {
	plan := s.plan()
	created := make([]*models.User, len(plan))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)

	for i, p := range plan {
		i, p := i, p
		g.Go(func() error {
			user, err := s.users.CreateUser(gctx, p.Username)
			if err != nil {
				return fmt.Errorf("create user %q: %w", p.Username, err)
			}
			for _, in := range p.Exercises {
				in.UserID = user.ID
				if user, _, err = s.users.AddExercise(gctx, in); err != nil {
					return fmt.Errorf("add exercise for %q: %w", p.Username, err)
				}
			}
			created[i] = user
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "seeding complete",
		slog.Int("users", len(created)),
		slog.Int("exercises_per_user", s.opts.ExercisesPerUser),
	)
	return created, nil
}

func (s *Seeder) plan() []plannedUser {
	end := s.now().UTC()
	start := end.AddDate(0, 0, -s.opts.MaxDays)

	plan := make([]plannedUser, 0, s.opts.NumUsers)
	for i := 0; i < s.opts.NumUsers; i++ {
		dates := make([]time.Time, s.opts.ExercisesPerUser)
		for j := range dates {
			dates[j] = s.faker.DateRange(start, end)
		}
		sort.Slice(dates, func(a, b int) bool { return dates[a].Before(dates[b]) })

		p := plannedUser{Username: s.faker.Username()}
		for _, d := range dates {
			p.Exercises = append(p.Exercises, service.AddExerciseInput{
				Description: s.faker.RandomString(activities),
				Duration:    fmt.Sprint(s.faker.Number(5, 120)),
				Date:        d.Format("2006-01-02"),
			})
		}
		plan = append(plan, p)
	}
	return plan
}
