package cli

import (
	"context"
	"io"
	"net/http"
	"os"

	"github.com/dmitrijs2005/mediagate/internal/client/client"
	"github.com/dmitrijs2005/mediagate/internal/client/config"
	"github.com/dmitrijs2005/mediagate/internal/client/widget"
	"github.com/dmitrijs2005/mediagate/internal/logging"
)

// App owns one widget and the status renderer attached to it.
type App struct {
	config *config.Config
	logger logging.Logger
	out    io.Writer
	status *statusPrinter
	widget *widget.Widget
}

// NewApp builds the transport clients and the widget. value is the media
// reference the widget starts with; onChange receives every new one.
func NewApp(c *config.Config, value string, out io.Writer, onChange func(string)) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.New(c.LogFormat, c.LogLevel, os.Stderr)
	if err != nil {
		return nil, err
	}

	status := newStatusPrinter(out)
	hc := &http.Client{Timeout: c.RequestTimeout}

	auth := client.NewHTTPAuthenticator(c.IssuerURL, c.AccessToken, hc)
	media := client.NewHTTPMediaClient(client.UploadOptions{
		Endpoint:  c.UploadEndpoint,
		PublicKey: c.PublicKey,
		Folder:    c.Folder,
		FileName:  c.FileName,
		Progress:  status.progress,
	}, hc)

	a := &App{config: c, logger: logger, out: out, status: status}
	a.widget = widget.New(auth, media, widget.Options{
		Value:    value,
		OnChange: onChange,
		OnTransition: func(from, to widget.State) {
			status.transition(from, to, a.widget.Snapshot())
		},
		Logger: logger,
	})
	return a, nil
}

// Close cancels any upload still in flight.
func (a *App) Close() {
	a.widget.Close()
}

// uploadPath opens path and hands it to the widget, through Drop when drop
// is set and Select otherwise.
func (a *App) uploadPath(ctx context.Context, path string, drop bool) (*widget.Attempt, *client.File, error) {
	if a.widget.Snapshot().State.Busy() {
		return nil, nil, widget.ErrBusy
	}

	f, err := client.OpenFile(path)
	if err != nil {
		return nil, nil, err
	}

	a.status.begin(f.Name)

	var at *widget.Attempt
	if drop {
		a.widget.DragEnter()
		at, err = a.widget.Drop(ctx, f)
	} else {
		at, err = a.widget.Select(ctx, f)
	}
	if err != nil {
		_ = f.Close()
		return nil, nil, err
	}
	return at, f, nil
}
