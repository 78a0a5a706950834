package cli

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"os"

	"github.com/dmitrijs2005/lessonvault/internal/client/api"
	"github.com/dmitrijs2005/lessonvault/internal/client/config"
	"github.com/dmitrijs2005/lessonvault/internal/client/history"
	"github.com/dmitrijs2005/lessonvault/internal/client/transfer"
	"github.com/dmitrijs2005/lessonvault/internal/logging"
)

// apiClient is the server surface used by the record commands.
type apiClient interface {
	Register(ctx context.Context, username, password string) (string, error)
	Login(ctx context.Context, username, password string) error
	LoggedIn() bool
	ListRecords(ctx context.Context) ([]api.Record, error)
	UpdateRecord(ctx context.Context, id string, patch api.RecordPatch) (*api.Record, error)
	DeleteRecord(ctx context.Context, id string) error
}

type uploader interface {
	SelectFiles(paths []string) ([]transfer.File, error)
	UploadPending(ctx context.Context, dst transfer.Destination) ([]transfer.Uploaded, error)
}

type historyStore interface {
	List(ctx context.Context, limit int) ([]*history.Entry, error)
	Remove(ctx context.Context, id string) error
	Close() error
}

type App struct {
	config   *config.Config
	api      apiClient
	uploader uploader
	history  historyStore
	log      logging.Logger
	reader   *bufio.Reader
	out      io.Writer
	progress *progressLine
	userName string
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	hist, err := history.Open(ctx, c.HistoryDir)
	if err != nil {
		return nil, err
	}

	logger := logging.NewJSONLogger(os.Stderr, c.LogLevel)
	client := api.New(c.ServerURL, &http.Client{})

	a := &App{
		config:   c,
		api:      client,
		history:  hist,
		log:      logger,
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
		progress: newProgressLine(os.Stdout, terminalWidth),
	}

	a.uploader = transfer.NewOrchestrator(transfer.Options{
		Server:     client,
		HTTPClient: &http.Client{},
		Timeout:    c.TransferTimeout,
		History:    hist,
		Logger:     logger,
		OnProgress: a.progress.render,
	})

	return a, nil
}

func (a *App) isLoggedIn() bool {
	return a.api.LoggedIn()
}

func (a *App) getStatus() string {
	if a.userName == "" {
		return "(guest)"
	}
	return "(" + a.userName + ")"
}

// Run starts the REPL on stdin and blocks until the user exits.
func (a *App) Run(ctx context.Context) {
	defer a.history.Close()

	printlnFn("Welcome to lessonvault (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, bufio.NewScanner(a.reader))
}
