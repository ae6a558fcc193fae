package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"storefront/internal/api"
	"storefront/internal/checkout"
	"storefront/internal/config"
	"storefront/internal/logging"
	"storefront/internal/orders"
	"storefront/internal/profile"
	"storefront/internal/review"
	"storefront/internal/session"
	"storefront/internal/store"
)

// app wires the client-side services the way the SPA wires its providers:
// one session, one cart, one favourites list, all talking through one
// bearer-token API client.
type app struct {
	session    *session.Store
	client     *api.Client
	cart       *store.Cart
	favourites *store.Favourites
	checkout   *checkout.Service
	orders     *orders.Service
	reviews    *review.Service
	profile    *profile.Service
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := logging.New(cfg.LogLevel)

	db, err := session.OpenState(cfg.StatePath)
	if err != nil {
		return nil, fmt.Errorf("open state: %w", err)
	}

	sess := session.New(db, logger)
	client := api.NewClient(cfg.APIURL, sess.Token)
	sess.Client = client

	cart := store.NewCart(client, sess, logger)
	favs := store.NewFavourites(client, sess, logger)

	return &app{
		session:    sess,
		client:     client,
		cart:       cart,
		favourites: favs,
		checkout:   checkout.New(client, sess, cart, logger),
		orders:     orders.New(client, sess, logger),
		reviews:    review.New(client, sess, logger),
		profile:    profile.New(client, sess, logger),
	}, nil
}

func main() {
	root := &cobra.Command{
		Use:           "shopctl",
		Short:         "Storefront client: browse products, manage cart and favourites, place orders",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		loginCmd(),
		registerCmd(),
		logoutCmd(),
		whoamiCmd(),
		productsCmd(),
		cartCmd(),
		favouritesCmd(),
		checkoutCmd(),
		ordersCmd(),
		reviewCmd(),
		profileCmd(),
	)

	if err := root.Execute(); err != nil {
		log.SetFlags(0)
		log.Fatalf("shopctl: %v", err)
	}
}

func requireUser(a *app) error {
	if a.session.Current() == nil {
		return fmt.Errorf("not signed in, run `shopctl login` first")
	}
	return nil
}

func printTable(rows [][]string) {
	for _, row := range rows {
		for i, cell := range row {
			if i > 0 {
				fmt.Fprint(os.Stdout, "\t")
			}
			fmt.Fprint(os.Stdout, cell)
		}
		fmt.Fprintln(os.Stdout)
	}
}
