package main // Entry point package

import (
    "context"
    "image"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/labstack/echo/v4"
    echomw "github.com/labstack/echo/v4/middleware"
    "github.com/labstack/gommon/log"

    "github.com/iliyamo/event-ticketing/internal/config"
    "github.com/iliyamo/event-ticketing/internal/handler"
    "github.com/iliyamo/event-ticketing/internal/mail"
    "github.com/iliyamo/event-ticketing/internal/middleware"
    "github.com/iliyamo/event-ticketing/internal/queue"
    "github.com/iliyamo/event-ticketing/internal/render"
    "github.com/iliyamo/event-ticketing/internal/repository"
    "github.com/iliyamo/event-ticketing/internal/retry"
    "github.com/iliyamo/event-ticketing/internal/router"
    "github.com/iliyamo/event-ticketing/internal/service"
)

func main() {
    cfg, err := config.Load()
    if err != nil {
        log.Fatalf("config: %v", err)
    }
    log.SetLevel(logLevel(cfg.LogLevel))

    ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
    defer stop()

    store := openStore(ctx, cfg)
    remote := retry.Exponential(cfg.Cache.RetryMaxAttempts, cfg.Cache.RetryBackoff)
    cache := repository.NewRecordCache(store, cfg.Cache.TTL,
        repository.WithRetry(remote), repository.WithTimeout(cfg.Cache.RemoteTimeout))

    e := echo.New()
    e.HideBanner = true
    e.Logger.SetLevel(logLevel(cfg.LogLevel))
    e.Use(echomw.Recover(), echomw.RequestID(), echomw.Logger())

    files, closeFiles := openFileStore(ctx, cfg, e)
    defer closeFiles()

    renderer := render.NewTicketRenderer(loadTemplate(cfg.TemplateImage), image.Pt(cfg.QRX, cfg.QRY), cfg.QRSize)

    var events service.Publisher
    if cfg.EventsEnabled {
        events = queue.NewPublisher(cfg.RabbitMQURL)
        go func() {
            if err := queue.NewCheckinAuditConsumer(cfg.RabbitMQURL, cfg.AuditLogDir).Run(ctx); err != nil && ctx.Err() == nil {
                log.Errorf("checkin audit consumer stopped: %v", err)
            }
        }()
    }

    mailer, closeMailer := openMailer(cfg)
    defer closeMailer()

    pipeline := service.NewAllocationPipeline(service.PipelineDeps{
        Cache:     cache,
        Store:     store,
        Files:     files,
        Renderer:  renderer,
        Allocator: service.NewSlotAllocator(service.NewCodeGenerator(cfg.CodeLength)),
        Events:    events,
        Retry:     remote,
        Timeout:   cfg.Cache.RemoteTimeout,
    })
    dispatcher := service.NewNotificationDispatcher(cache, store, mailer, events, service.DispatcherConfig{
        Workers:     cfg.Dispatch.Workers,
        SendRetry:   retry.Constant(1+cfg.Dispatch.Retries, cfg.Dispatch.Backoff),
        StatusRetry: remote,
        Timeout:     cfg.Cache.RemoteTimeout,
    })
    checkin := service.NewCheckinService(cache, store, events, remote, cfg.Cache.RemoteTimeout)
    updater := service.NewRegistrationUpdater(cache, store, cfg.Cache.RemoteTimeout)

    limiter := middleware.NewDoorLimiter(config.LoadRateLimitConfig(), config.NewRedisClient(config.LoadRedisConfig()))

    router.RegisterRoutes(e)
    router.RegisterTickets(e, handler.NewTicketHandler(checkin, updater), cfg.JWTSecret, limiter)
    router.RegisterAdmin(e, handler.NewAdminHandler(pipeline, dispatcher), cfg.JWTSecret)

    addr := ":" + cfg.Port
    log.Infof("listening on %s (env=%s, store=%s)", addr, cfg.Env, cfg.StoreDriver)
    go func() {
        if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
            log.Fatal(err)
        }
    }()

    <-ctx.Done()
    shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
    defer cancel()
    if err := e.Shutdown(shutdownCtx); err != nil {
        log.Errorf("shutdown: %v", err)
    }
}

func openStore(ctx context.Context, cfg config.Config) repository.TicketStore {
    if cfg.StoreDriver == config.DriverMemory {
        log.Warnf("using the in-memory ticket store with %d slots; nothing is persisted", cfg.MemorySlots)
        return repository.NewMemoryStoreWithSlots(cfg.MemorySlots)
    }
    s, err := repository.NewSheetStore(ctx, cfg.CredentialsFile, cfg.SheetID, cfg.SheetName)
    if err != nil {
        log.Fatalf("sheets: %v", err)
    }
    return s
}

// openFileStore uploads to the bucket when one is configured and otherwise
// writes to a local directory served by this process.
func openFileStore(ctx context.Context, cfg config.Config, e *echo.Echo) (repository.FileStore, func()) {
    if cfg.GCSBucket != "" {
        g, err := repository.NewGCSFileStore(ctx, cfg.CredentialsFile, cfg.GCSBucket, cfg.GCSPrefix)
        if err != nil {
            log.Fatalf("gcs: %v", err)
        }
        return g, func() { _ = g.Close() }
    }
    d, err := repository.NewDirFileStore(cfg.ArtifactDir, cfg.PublicURL+"/artifacts")
    if err != nil {
        log.Fatalf("artifacts: %v", err)
    }
    router.RegisterArtifacts(e, cfg.ArtifactDir)
    return d, func() {}
}

// openMailer falls back to logging the mails when no SMTP host is set.
func openMailer(cfg config.Config) (service.Mailer, func()) {
    if cfg.Mail.Host == "" {
        log.Warnf("SMTP_HOST not set; ticket mails are logged, not sent")
        m, err := mail.NewLogMailer(cfg.Mail.Subject)
        if err != nil {
            log.Fatalf("mail: %v", err)
        }
        return m, func() {}
    }
    m, err := mail.NewSMTPMailer(mail.Options{
        Host:     cfg.Mail.Host,
        Port:     cfg.Mail.Port,
        User:     cfg.Mail.User,
        Password: cfg.Mail.Password,
        From:     cfg.Mail.From,
        Subject:  cfg.Mail.Subject,
        PoolSize: cfg.Dispatch.Workers,
    })
    if err != nil {
        log.Fatalf("mail: %v", err)
    }
    return m, m.Close
}

func loadTemplate(path string) image.Image {
    if path == "" {
        return nil
    }
    img, err := render.LoadTemplate(path)
    if err != nil {
        log.Fatalf("ticket template: %v", err)
    }
    return img
}

func logLevel(s string) log.Lvl {
    switch s {
    case "debug":
        return log.DEBUG
    case "warn":
        return log.WARN
    case "error":
        return log.ERROR
    }
    return log.INFO
}
