package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/locvowork/mywork_tools/internal/attendance/reader"
	"github.com/locvowork/mywork_tools/internal/attendance/writer"
	"github.com/locvowork/mywork_tools/internal/config"
	"github.com/locvowork/mywork_tools/internal/credential"
	"github.com/locvowork/mywork_tools/internal/database"
	"github.com/locvowork/mywork_tools/internal/domain"
	"github.com/locvowork/mywork_tools/internal/handler"
	"github.com/locvowork/mywork_tools/internal/logger"
	"github.com/locvowork/mywork_tools/internal/mail"
	"github.com/locvowork/mywork_tools/internal/repository"
	"github.com/locvowork/mywork_tools/internal/service"
	"github.com/locvowork/mywork_tools/internal/stamp"
	"github.com/locvowork/mywork_tools/internal/webmail"
)

const shutdownTimeout = 10 * time.Second

// App builds the components a command needs from one Config. Components are
// opened on first use and released by Close, newest first.
type App struct {
	cfg *config.Config

	secrets *credential.Store
	store   database.DocumentStore
	repo    domain.MailRepository
	index   *database.ElasticSearchClient
	client  *mail.Client

	closers []func() error
}

func NewApp(cfg *config.Config) *App {
	return &App{cfg: cfg}
}

// Initialize sets up logging.
func (a *App) Initialize(ctx context.Context) {
	logger.InitLogging(a.cfg.Log.File, a.cfg.Log.Level)
	logger.DebugLog(ctx, "configuration loaded")
}

func (a *App) Config() *config.Config { return a.cfg }

// Credentials opens the OS keyring.
func (a *App) Credentials() (*credential.Store, error) {
	if a.secrets != nil {
		return a.secrets, nil
	}
	s, err := credential.Open(a.cfg.Keyring)
	if err != nil {
		return nil, err
	}
	a.secrets = s
	return s, nil
}

// fillPassword takes an empty password from the keyring.
func (a *App) fillPassword(current *string, kind, user string) error {
	if *current != "" || user == "" {
		return nil
	}
	s, err := a.Credentials()
	if err != nil {
		return err
	}
	pw, err := s.Fill(*current, kind, user)
	if err != nil {
		return err
	}
	*current = pw
	return nil
}

// Store opens the configured document store.
func (a *App) Store(ctx context.Context) (database.DocumentStore, error) {
	if a.store != nil {
		return a.store, nil
	}
	cfg := a.cfg.DocStore
	if cfg.Driver == config.DriverSurrealDB {
		if err := a.fillPassword(&cfg.Password, credential.DocStoreKind, cfg.Username); err != nil {
			return nil, err
		}
	}
	store, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger.InfoLog(ctx, "document store %s connected", cfg.Driver)
	a.store = store
	a.closers = append(a.closers, store.Close)
	return store, nil
}

func (a *App) Repository(ctx context.Context) (domain.MailRepository, error) {
	if a.repo != nil {
		return a.repo, nil
	}
	store, err := a.Store(ctx)
	if err != nil {
		return nil, err
	}
	a.repo = repository.NewMailRepository(store)
	return a.repo, nil
}

// Index returns the search index, or nil when elastic is not configured.
func (a *App) Index() (*database.ElasticSearchClient, error) {
	if a.index != nil || !a.cfg.Elastic.Enabled() {
		return a.index, nil
	}
	idx, err := database.NewElasticSearchClient(a.cfg.Elastic)
	if err != nil {
		return nil, err
	}
	a.index = idx
	return idx, nil
}

// MailClient launches the browser. With persist the client saves through the
// repository and indexes saved messages when an index is configured.
func (a *App) MailClient(ctx context.Context, persist bool) (*mail.Client, error) {
	if a.client != nil {
		return a.client, nil
	}
	cfg := a.cfg.Webmail
	if err := a.fillPassword(&cfg.Password, credential.WebmailKind, cfg.Username); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, domain.Wrap(domain.ErrInvalidValue, "webmail config", err)
	}

	var (
		repo domain.MailRepository
		opts []mail.ClientOption
	)
	if persist {
		r, err := a.Repository(ctx)
		if err != nil {
			return nil, err
		}
		repo = r
		idx, err := a.Index()
		if err != nil {
			return nil, err
		}
		if idx != nil {
			opts = append(opts, mail.WithIndex(idx))
		}
	}

	d, err := webmail.New(a.cfg.Browser)
	if err != nil {
		return nil, err
	}
	a.client = mail.NewClient(d, cfg, repo, opts...)
	a.closers = append(a.closers, a.client.Close)
	return a.client, nil
}

// writerOptions carries the template layout and the seal generator.
func (a *App) writerOptions() ([]writer.Option, error) {
	layout := writer.DefaultLayout()
	if path := a.cfg.Attendance.LayoutFile; path != "" {
		l, err := writer.LoadLayout(path)
		if err != nil {
			return nil, domain.Wrap(domain.ErrInvalidValue, "layout file", err)
		}
		layout = *l
	} else if a.cfg.Attendance.StampCell != "" {
		layout.StampCell = a.cfg.Attendance.StampCell
	}

	gen, err := stamp.NewGenerator(a.cfg.Stamp.FontPath)
	if err != nil {
		return nil, err
	}
	return []writer.Option{writer.WithLayout(layout), writer.WithStamper(gen, a.cfg.Stamp.Size)}, nil
}

func (a *App) TransferService() (*service.TransferService, error) {
	opts, err := a.writerOptions()
	if err != nil {
		return nil, err
	}
	readers := func(source string) (domain.TimecardReader, error) {
		return reader.New(a.cfg, source)
	}
	return service.NewTransferService(readers, service.WithWriterOptions(opts...)), nil
}

func (a *App) PaidLeaveService() (*service.PaidLeaveService, error) {
	opts, err := a.writerOptions()
	if err != nil {
		return nil, err
	}
	return service.NewPaidLeaveService(opts...), nil
}

// Server builds the read API.
func (a *App) Server(ctx context.Context) (*echo.Echo, error) {
	repo, err := a.Repository(ctx)
	if err != nil {
		return nil, err
	}
	idx, err := a.Index()
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	a.RegisterMiddlewares(e)

	var index domain.MailIndex
	if idx != nil {
		index = idx
	}
	handler.NewMailHandler(repo, index).Register(e)
	return e, nil
}

func (a *App) RegisterMiddlewares(e *echo.Echo) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
}

// Serve runs the read API until ctx ends. When the store has a change feed
// and an index is configured, new messages are indexed as they arrive.
func (a *App) Serve(ctx context.Context, port int) error {
	e, err := a.Server(ctx)
	if err != nil {
		return err
	}
	httpCfg := a.cfg.HTTP
	if port > 0 {
		httpCfg.Port = port
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.InfoLog(gctx, "http server listening on %s", httpCfg.Address())
		if err := e.Start(httpCfg.Address()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(sctx)
	})
	g.Go(func() error {
		return a.indexChanges(gctx)
	})
	return g.Wait()
}

func (a *App) indexChanges(ctx context.Context) error {
	idx, err := a.Index()
	if err != nil || idx == nil {
		return err
	}
	events, err := a.WatchMessages(ctx)
	if errors.Is(err, domain.ErrUnsupported) {
		logger.WarnLog(ctx, "live indexing disabled: %v", err)
		return nil
	}
	if err != nil {
		return err
	}

	for ev := range events {
		m, err := a.repo.FindByID(ctx, ev.ID)
		if err != nil {
			logger.WarnLog(ctx, "load %s for indexing: %v", ev.ID, err)
			continue
		}
		if err := idx.Index(ctx, *m); err != nil {
			logger.WarnLog(ctx, "index %s: %v", ev.ID, err)
		}
	}
	return nil
}

// WatchMessages streams messages created in the store.
func (a *App) WatchMessages(ctx context.Context) (<-chan domain.ChangeEvent, error) {
	if _, err := a.Repository(ctx); err != nil {
		return nil, err
	}
	return database.Watch(ctx, a.store, domain.CollectionMessages)
}

// Close releases everything opened so far.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
