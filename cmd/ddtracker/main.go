package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"diligence-tracker/internal/api"
	"diligence-tracker/internal/bot"
	"diligence-tracker/internal/cache"
	"diligence-tracker/internal/config"
	"diligence-tracker/internal/events"
	"diligence-tracker/internal/logger"
	"diligence-tracker/internal/notify"
	"diligence-tracker/internal/prefs"
	"diligence-tracker/internal/repository"
	"diligence-tracker/internal/service"
	"diligence-tracker/internal/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger.SetDebugMode(cfg.Debug)

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	blobs, err := storage.NewBlobStore(cfg.StorageDir)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}

	qc := cache.New(5 * time.Minute)
	bus := events.NewBus()
	toasts := notify.NewToasts(100)

	requestRepo := repository.NewRequestRepository(db)
	categorySvc := service.NewCategoryService(repository.NewCategoryRepository(db), qc)
	memberSvc := service.NewMemberService(repository.NewMemberRepository(db), qc)
	dealSvc := service.NewDealService(repository.NewDealRepository(db), requestRepo, qc)
	requestSvc := service.NewRequestService(requestRepo, categorySvc, dealSvc, qc, bus)
	// Customer sends reach the bot once it is connected below.
	customer := notify.Multi{notify.Log{}}
	commentSvc := service.NewCommentService(repository.NewCommentRepository(db), requestSvc, qc, bus, notify.Func(func(ctx context.Context, n notify.Notification) {
		customer.Notify(ctx, n)
	}))
	documentSvc := service.NewDocumentService(repository.NewDocumentRepository(db), requestSvc, blobs, cfg.MaxUploadBytes, qc, bus)
	messageSvc := service.NewMessageService(repository.NewMessageRepository(db), qc, bus)
	digestSvc := service.NewDigestService(dealSvc, requestSvc, categorySvc)
	requestSvc.OnDelete(commentSvc.RemoveForRequest)
	requestSvc.OnDelete(documentSvc.RemoveForRequest)

	notifier := notify.Multi{notify.Log{}, toasts}
	var telegramBot *bot.Bot
	if cfg.BotEnabled() {
		telegramBot, err = bot.New(cfg.TelegramToken, bot.Services{
			Members:    memberSvc,
			Deals:      dealSvc,
			Requests:   requestSvc,
			Categories: categorySvc,
			Digest:     digestSvc,
		})
		if err != nil {
			log.Fatalf("bot: %v", err)
		}
		notifier = append(notifier, telegramBot)
		customer = append(customer, telegramBot)
	}

	unsubscribe := service.WireRealtime(bus, qc, notifier)
	defer unsubscribe()

	mutator := service.NewMutator(requestSvc, notifier)
	handler := api.NewHandler(api.Services{
		Deals:      dealSvc,
		Categories: categorySvc,
		Members:    memberSvc,
		Requests:   requestSvc,
		Mutator:    mutator,
		Bulk:       service.NewBulkExecutor(requestSvc, notifier),
		Selections: service.NewSelections(),
		Comments:   commentSvc,
		Documents:  documentSvc,
		Dashboards: service.NewDashboardService(requestSvc, categorySvc),
		Messages:   messageSvc,
		Templates:  service.NewTemplateService(cfg.TemplatesDir, requestSvc),
		Reports:    service.NewReportService(dealSvc, requestSvc, categorySvc, commentSvc, documentSvc, memberSvc),
		Prefs:      prefs.NewStore(cfg.PrefsPath),
		Toasts:     toasts,
	})

	scheduler := service.NewSchedulerService(time.Local)
	if _, err := scheduler.ScheduleInterval("recompute progress", cfg.RecomputeInterval, func() {
		jobCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		if err := dealSvc.RecomputeAll(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("[error] recompute progress: %v", err)
		}
	}); err != nil {
		log.Fatalf("schedule recompute: %v", err)
	}
	if telegramBot != nil {
		if _, err := scheduler.ScheduleDaily("daily digest", cfg.DigestTime, func() {
			jobCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()
			if err := telegramBot.SendDailyDigest(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("[error] digest: %v", err)
			}
		}); err != nil {
			log.Fatalf("schedule digest: %v", err)
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       5 * time.Minute,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		log.Printf("[info] listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http: %v", err)
		}
	}()

	if telegramBot != nil {
		go func() {
			if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("[error] bot stopped: %v", err)
			}
		}()
	}

	log.Println("Diligence tracker started.")
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[error] http shutdown: %v", err)
	}
	mutator.Wait()
	bus.Wait()
	log.Println("Shutdown complete.")
}
