// Command preorder places a storefront pre-order from the terminal, or
// watches the live order feed.
//
//	preorder -name Alice -email alice@example.com -item p1 -item p2=2
//	preorder -watch
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/jcmexdev/storefront-preorders/internal/pkg/telemetry"
	"github.com/jcmexdev/storefront-preorders/internal/storefront/cart"
	"github.com/jcmexdev/storefront-preorders/internal/storefront/wire"
)

// itemFlags collects repeated -item id[=qty] flags.
type itemFlags []string

func (f *itemFlags) String() string     { return strings.Join(*f, ",") }
func (f *itemFlags) Set(v string) error { *f = append(*f, v); return nil }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("preorder", flag.ContinueOnError)
	var (
		server   = fs.String("server", envOr("STOREFRONT_URL", "http://localhost:3000"), "storefront base URL")
		name     = fs.String("name", "", "customer name")
		email    = fs.String("email", "", "email for the confirmation")
		phone    = fs.String("phone", "", "phone number for the SMS confirmation")
		watch    = fs.Bool("watch", false, "print new orders as they arrive")
		menu     = fs.Bool("menu", false, "print the catalog and exit")
		history  = fs.String("history", "", "append placed orders to this local JSON file")
		logLevel = fs.String("log-level", "warn", "log level")
		items    itemFlags
	)
	fs.Var(&items, "item", "product id to add, optionally id=qty; repeatable")
	if err := fs.Parse(args); err != nil {
		return err
	}
	telemetry.InitLogger(telemetry.ParseLevel(*logLevel))

	catalog := cart.DefaultCatalog()
	if *menu {
		printMenu(out, catalog)
		return nil
	}

	client, err := cart.NewClient(*server)
	if err != nil {
		return err
	}

	if *watch {
		return client.Watch(ctx, func(o wire.Order) {
			fmt.Fprintln(out, cart.ToastMessage(o))
		})
	}

	c := cart.New(catalog)
	if err := fill(c, items); err != nil {
		return err
	}
	printCart(out, c)

	submitCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	order, err := c.Submit(submitCtx, client, *name, *email, *phone)
	fmt.Fprintln(out, cart.UserMessage(order, err))
	if err != nil {
		return err
	}

	if *history != "" {
		if err := cart.SaveToHistory(*history, order, time.Now()); err != nil {
			slog.Warn("could not save local order copy", "path", *history, "error", err)
		}
	}
	return nil
}

// fill adds each id[=qty] argument to the cart.
func fill(c *cart.Cart, args []string) error {
	for _, arg := range args {
		id, qtyText, hasQty := strings.Cut(arg, "=")
		qty := 1
		if hasQty {
			n, err := strconv.Atoi(qtyText)
			if err != nil || n < 1 {
				return fmt.Errorf("item %q: quantity must be a positive integer", arg)
			}
			qty = n
		}
		for i := 0; i < qty; i++ {
			if err := c.Add(strings.TrimSpace(id)); err != nil {
				if errors.Is(err, cart.ErrUnknownProduct) {
					return fmt.Errorf("item %q: unknown product (see -menu)", id)
				}
				return err
			}
		}
	}
	return nil
}

func printMenu(out io.Writer, catalog cart.Catalog) {
	for _, p := range catalog.Products() {
		fmt.Fprintf(out, "%-4s %-24s %8s\n", p.ID, p.Name, p.Price.StringFixed(2))
	}
}

func printCart(out io.Writer, c *cart.Cart) {
	for _, l := range c.Lines() {
		fmt.Fprintf(out, "%-24s %8s x %-3d %9s\n", l.Name, l.Price.StringFixed(2), l.Qty, l.Total().StringFixed(2))
	}
	t := c.Totals()
	fmt.Fprintf(out, "Subtotal %s  Tax %s  Total %s\n",
		t.Subtotal.StringFixed(2), t.Tax.StringFixed(2), t.Total.StringFixed(2))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
