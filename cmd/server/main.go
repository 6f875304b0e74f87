package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/robfig/cron"

	"github.com/odialabs/coaching-api/internal/config"
	"github.com/odialabs/coaching-api/internal/database"
	"github.com/odialabs/coaching-api/internal/handler"
	"github.com/odialabs/coaching-api/internal/mail"
	"github.com/odialabs/coaching-api/internal/queue"
	"github.com/odialabs/coaching-api/internal/repository"
	"github.com/odialabs/coaching-api/internal/router"
	"github.com/odialabs/coaching-api/internal/service"
)

// Background job schedules (seconds-precision cron specs).
const (
	schedulePurgeLedger   = "0 0 3 * * *"  // daily at 03:00
	schedule24hReminders  = "0 0 2 * * *"  // daily at 02:00
	schedule2hReminders   = "0 15 * * * *" // hourly at :15
	scheduleUnreadNudges  = "0 0 10 * * *" // daily at 10:00
	backgroundJobTimeout  = 2 * time.Minute
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional: without it the canonical-admin cache, rate
	// limiting and response caching degrade to pass-through.
	rdb := config.NewRedisClient()

	mailer, err := mail.NewClient(cfg)
	if err != nil {
		log.Fatalf("mail: %v", err)
	}

	// Repositories.
	users := repository.NewUserRepo(db)
	revoked := repository.NewRevokedTokenRepo(db)
	profiles := repository.NewProfileRepo(db)
	messages := repository.NewMessageRepo(db)
	slots := repository.NewTimeSlotRepo(db)
	appointments := repository.NewAppointmentRepo(db)
	visio := repository.NewVisioRepo(db)
	education := repository.NewEducationRepo(db)
	leads := repository.NewLeadRepo(db)

	// Services.
	messaging := service.NewMessaging(users, messages, rdb)
	reminders := service.NewReminders(appointments, messages, mailer)
	publisher := service.NewPublisher(cfg.AMQPURL)

	// Mail consumer for appointment events.
	go queue.StartAppointmentConsumer(cfg.AMQPURL, cfg.AdminEmail, mailer)

	// Scheduled jobs: ledger purge, appointment reminders, unread
	// message nudges.
	c := cron.New()
	mustSchedule(c, schedulePurgeLedger, func() {
		ctx, cancel := context.WithTimeout(context.Background(), backgroundJobTimeout)
		defer cancel()
		n, err := revoked.PurgeExpired(ctx)
		if err != nil {
			log.Printf("ledger purge failed: %v", err)
			return
		}
		log.Printf("ledger purge: removed %d expired entries", n)
	})
	mustSchedule(c, schedule24hReminders, func() {
		ctx, cancel := context.WithTimeout(context.Background(), backgroundJobTimeout)
		defer cancel()
		if _, err := reminders.SendAppointmentReminders(ctx, service.Window24h); err != nil {
			log.Printf("24h reminders failed: %v", err)
		}
	})
	mustSchedule(c, schedule2hReminders, func() {
		ctx, cancel := context.WithTimeout(context.Background(), backgroundJobTimeout)
		defer cancel()
		if _, err := reminders.SendAppointmentReminders(ctx, service.Window2h); err != nil {
			log.Printf("2h reminders failed: %v", err)
		}
	})
	mustSchedule(c, scheduleUnreadNudges, func() {
		ctx, cancel := context.WithTimeout(context.Background(), backgroundJobTimeout)
		defer cancel()
		if _, err := reminders.SendUnreadMessageReminders(ctx); err != nil {
			log.Printf("unread nudges failed: %v", err)
		}
	})
	c.Start()
	defer c.Stop()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{cfg.FrontendBaseURL},
		AllowCredentials: true,
	}))

	router.Register(e, router.Deps{
		Cfg:     cfg,
		RDB:     rdb,
		Revoked: revoked,

		Auth:          handler.NewAuthHandler(cfg, users, revoked, mailer),
		Profile:       handler.NewProfileHandler(cfg, users, profiles, mailer),
		Slots:         handler.NewTimeSlotHandler(slots),
		Appointments:  handler.NewAppointmentHandler(appointments, publisher),
		Education:     handler.NewEducationHandler(education),
		UserMessages:  handler.NewUserMessageHandler(messaging),
		AdminMessages: handler.NewAdminMessageHandler(messaging),
		AdminUsers:    handler.NewAdminUserHandler(cfg, users, profiles, visio, messaging),
		Leads:         handler.NewLeadHandler(cfg, leads, mailer),
	})

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

func mustSchedule(c *cron.Cron, spec string, job func()) {
	if err := c.AddFunc(spec, job); err != nil {
		log.Fatalf("schedule %q: %v", spec, err)
	}
}
