package main

import (
	"context"
	"errors"
	"os"
	"time"

	"onlearn-client/config"
	httpDelivery "onlearn-client/internal/delivery/http"
	"onlearn-client/internal/domain"
	"onlearn-client/internal/repository"
	"onlearn-client/pkg/logger"
	"onlearn-client/pkg/utils"

	"gorm.io/datatypes"
)

func main() {
	cfg, envFound := config.Load()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	if !envFound {
		log.Info("No .env file found, using environment variables")
	}
	if cfg.JWTSecret == "" {
		log.Warn("JWT_SECRET not set, using the built-in development secret")
	}

	// Connect to database
	db, err := config.ConnectDB(cfg)
	if err != nil {
		log.Fatal("database connection failed", "error", err)
	}

	// Auto migrate
	if err := config.AutoMigrate(db); err != nil {
		log.Fatal("migration failed", "error", err)
	}

	// Initialize repositories
	repos := httpDelivery.Repositories{
		Users:       repository.NewUserRepository(db),
		Courses:     repository.NewCourseRepository(db),
		Categories:  repository.NewCategoryRepository(db),
		Enrollments: repository.NewEnrollmentRepository(db),
		Progress:    repository.NewProgressRepository(db),
		Inbox:       repository.NewInboxRepository(db),
		Chats:       repository.NewChatRepository(db),
	}

	// Seed demo data
	ctx := context.Background()
	seedUsers(ctx, repos.Users, log)
	seedCatalog(ctx, repos, log)

	handler := httpDelivery.NewHandler(repos, log)
	router := httpDelivery.InitRouter(handler, log)

	log.Info("dev backend running", "port", cfg.Port, "api", "http://localhost:"+cfg.Port+"/api", "driver", cfg.DBDriver)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("failed to start server", "error", err)
	}
}

func seedUsers(ctx context.Context, users domain.UserRepository, log *logger.Logger) {
	demo := []domain.User{
		{Name: "Demo Student", Email: "student@onlearn.com", Role: domain.RoleStudent},
		{Name: "Demo Expert", Email: "expert@onlearn.com", Role: domain.RoleExpert},
		{Name: "Demo Admin", Email: "admin@onlearn.com", Role: domain.RoleAdmin},
	}
	for _, u := range demo {
		existing, err := users.GetByEmail(ctx, u.Email)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			log.Error("seed user lookup failed", "email", u.Email, "error", err)
			continue
		}
		if existing == nil {
			u := u
			if err := users.Create(ctx, &u); err != nil {
				log.Error("seed user failed", "email", u.Email, "error", err)
				continue
			}
			existing = &u
		}
		token, err := utils.GenerateJWT(existing.ID, string(existing.Role), 30*24*time.Hour)
		if err != nil {
			log.Error("seed token failed", "email", u.Email, "error", err)
			continue
		}
		// printed so the CLI can log in with: onlearn login --token <token>
		log.SugaredLogger.Infow("demo user", "email", existing.Email, "role", existing.Role, "token", token)
	}
}

func seedCatalog(ctx context.Context, repos httpDelivery.Repositories, log *logger.Logger) {
	courses, err := repos.Courses.GetAll(ctx)
	if err != nil || len(courses) > 0 {
		return
	}

	category := &domain.Category{Name: "Programming"}
	if err := repos.Categories.Create(ctx, category); err != nil {
		log.Error("seed category failed", "error", err)
		return
	}

	course := &domain.Course{
		Name:        "Go Fundamentals",
		Description: "Syntax, types and concurrency in Go.",
		Level:       "beginner",
		Language:    "en",
		CategoryID:  category.ID,
		Duration:    "4h",
		Status:      domain.CoursePublished,
		Topics: []domain.Topic{
			{Title: "Getting started"},
			{Title: "Types and interfaces"},
			{Title: "Goroutines and channels"},
		},
	}
	if err := repos.Courses.Create(ctx, course); err != nil {
		log.Error("seed course failed", "error", err)
		return
	}

	quiz := &domain.Quiz{
		CourseID:  course.ID,
		TopicID:   course.Topics[2].ID,
		Title:     "Concurrency check",
		Questions: datatypes.JSON(`[{"q":"What does a buffered channel of size 1 allow?","options":["one send without a receiver","nothing"],"answer":0}]`),
	}
	if err := repos.Inbox.CreateQuiz(ctx, quiz); err != nil {
		log.Error("seed quiz failed", "error", err)
		return
	}
	log.Info("seeded demo catalog", "course_id", course.ID)
}
