package clipresentation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	appcart "github.com/Zhima-Mochi/notafiscal-console/internal/application/cart"
	appcatalog "github.com/Zhima-Mochi/notafiscal-console/internal/application/catalog"
	appinvoice "github.com/Zhima-Mochi/notafiscal-console/internal/application/invoice"
	appnotification "github.com/Zhima-Mochi/notafiscal-console/internal/application/notification"
	"github.com/Zhima-Mochi/notafiscal-console/internal/config"
	domcatalog "github.com/Zhima-Mochi/notafiscal-console/internal/domain/catalog"
	"github.com/Zhima-Mochi/notafiscal-console/internal/domain/failure"
	"github.com/Zhima-Mochi/notafiscal-console/internal/observability"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"
)

const shutdownTimeout = 10 * time.Second

// Runtime is the wired console handed to commands.
type Runtime struct {
	Config   *config.Config
	Catalog  *appcatalog.Store
	Cart     *appcart.Aggregator
	Invoices *appinvoice.Workflow
	Feed     *appnotification.Feed
	Handler  http.Handler
	Logger   observability.Logger
	// Close flushes pending notifications and releases telemetry exporters.
	Close func(ctx context.Context)

	serving bool
}

// Builder wires a Runtime from configuration.
type Builder func(ctx context.Context, cfg *config.Config) (*Runtime, error)

type runtimeKey struct{}

// NewApp builds the console CLI. Output for humans goes to out.
func NewApp(build Builder, out io.Writer) *cli.App {
	return &cli.App{
		Name:      "notafiscal-console",
		Usage:     "browse stock, build a cart and issue invoices",
		Writer:    out,
		ErrWriter: out,
		// Exit codes are applied by the caller once RunContext returns, so
		// After always runs and releases the runtime.
		ExitErrHandler: func(*cli.Context, error) {},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env-file",
				Usage:   "dotenv file loaded before reading the environment",
				Value:   ".env",
				EnvVars: []string{"ENV_FILE"},
			},
		},
		Before: func(c *cli.Context) error {
			cfg, err := config.Load(c.String("env-file"))
			if err != nil {
				return cli.Exit(fmt.Sprintf("load config: %v", err), 1)
			}
			rt, err := build(c.Context, cfg)
			if err != nil {
				return cli.Exit(fmt.Sprintf("start console: %v", err), 1)
			}
			c.App.Metadata = map[string]any{"runtime": rt}
			c.Context = context.WithValue(c.Context, runtimeKey{}, rt)
			return nil
		},
		After: func(c *cli.Context) error {
			rt := runtimeFrom(c)
			if rt == nil {
				return nil
			}
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if rt.Close != nil {
				rt.Close(ctx)
			}
			if !rt.serving {
				printNotifications(c.App.Writer, rt.Feed)
			}
			return nil
		},
		Commands: []*cli.Command{
			serveCommand(),
			productsCommand(),
			invoicesCommand(),
		},
	}
}

func runtimeFrom(c *cli.Context) *Runtime {
	if rt, ok := c.Context.Value(runtimeKey{}).(*Runtime); ok {
		return rt
	}
	if rt, ok := c.App.Metadata["runtime"].(*Runtime); ok {
		return rt
	}
	return nil
}

func commandContext(c *cli.Context, rt *Runtime) context.Context {
	return WithCommandContext(c.Context, rt.Logger, c.Command.FullName(), nil)
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the console JSON API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "listen address (defaults to HTTP_ADDR)"},
		},
		Action: func(c *cli.Context) error {
			rt := runtimeFrom(c)
			addr := c.String("addr")
			if addr == "" {
				addr = rt.Config.Server.HTTPAddr
			}

			rt.serving = true
			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			ctx = WithCommandContext(ctx, rt.Logger, c.Command.FullName(), map[string]string{"addr": addr})

			// Initial catalog; a failure is already reported through the feed.
			_, _ = rt.Catalog.Load(ctx)

			server := &http.Server{
				Addr:              addr,
				Handler:           rt.Handler,
				ReadHeaderTimeout: 10 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() {
				rt.Logger.Info("http_server_start", observability.F("addr", addr))
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err, ok := <-errCh:
				if ok {
					rt.Logger.Error("http_server_error", observability.Err(err))
					return err
				}
				return nil
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				rt.Logger.Error("http_server_shutdown_error", observability.Err(err))
				return err
			}
			rt.Logger.Info("http_server_stopped")
			return nil
		},
	}
}

func productsCommand() *cli.Command {
	return &cli.Command{
		Name:  "products",
		Usage: "list or create products on the stock service",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "load and print the catalog",
				Action: func(c *cli.Context) error {
					rt := runtimeFrom(c)
					products, err := rt.Catalog.Load(commandContext(c, rt))
					if err != nil {
						return exitError(err)
					}
					printProducts(c.App.Writer, products)
					return nil
				},
			},
			{
				Name:  "create",
				Usage: "create a product",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "description", Required: true},
					&cli.StringFlag{Name: "price", Required: true, Usage: "unit price, e.g. 10.50"},
					&cli.IntFlag{Name: "balance", Value: 0},
				},
				Action: func(c *cli.Context) error {
					rt := runtimeFrom(c)
					price, err := decimal.NewFromString(c.String("price"))
					if err != nil {
						return cli.Exit(fmt.Sprintf("invalid price %q", c.String("price")), 2)
					}
					p, err := rt.Catalog.CreateProduct(commandContext(c, rt), domcatalog.Draft{
						Name:        c.String("name"),
						Description: c.String("description"),
						Price:       price,
						Balance:     c.Int("balance"),
					})
					if err != nil {
						return exitError(err)
					}
					printProducts(c.App.Writer, []*domcatalog.Product{p})
					return nil
				},
			},
		},
	}
}

func invoicesCommand() *cli.Command {
	return &cli.Command{
		Name:  "invoices",
		Usage: "list open invoices or close and print one",
		Subcommands: []*cli.Command{
			{
				Name:  "open",
				Usage: "print the open invoices",
				Action: func(c *cli.Context) error {
					rt := runtimeFrom(c)
					invoices, err := rt.Invoices.LoadOpenInvoices(commandContext(c, rt))
					if err != nil {
						return exitError(err)
					}
					w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
					fmt.Fprintln(w, "CODE\tSTATUS\tLINES\tTOTAL")
					for _, inv := range invoices {
						fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", inv.Code, inv.Status, len(inv.Products), inv.TotalValue.StringFixed(2))
					}
					return w.Flush()
				},
			},
			{
				Name:      "print",
				Usage:     "close an invoice and render it",
				ArgsUsage: "<code>",
				Action: func(c *cli.Context) error {
					rt := runtimeFrom(c)
					res, err := rt.Invoices.PrintInvoice(commandContext(c, rt), c.Args().First())
					if err != nil {
						return exitError(err)
					}
					fmt.Fprintf(c.App.Writer, "invoice %s %s\n", res.Invoice.Code, res.Invoice.Status)
					if res.File != "" {
						fmt.Fprintf(c.App.Writer, "written to %s\n", res.File)
					}
					return nil
				},
			},
		},
	}
}

func printProducts(out io.Writer, products []*domcatalog.Product) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPRICE\tBALANCE")
	for _, p := range products {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", p.ID, p.Name, p.Price.StringFixed(2), p.Balance)
	}
	_ = w.Flush()
}

func printNotifications(out io.Writer, feed *appnotification.Feed) {
	if feed == nil {
		return
	}
	for _, n := range feed.Drain() {
		fmt.Fprintf(out, "[%s] %s: %s\n", n.Severity, n.Title, n.Message)
	}
}

// ExitCode is the process status for an error returned by the app.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var coder cli.ExitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return 1
}

// exitError maps use case failures to exit codes: 2 for rejected input, 1 otherwise.
func exitError(err error) error {
	if failure.IsValidation(err) {
		return cli.Exit(failure.UserMessage(err), 2)
	}
	return cli.Exit(failure.UserMessage(err), 1)
}
