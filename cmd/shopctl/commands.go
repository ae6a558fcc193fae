package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"storefront/internal/api"
	"storefront/internal/orders"
	"storefront/internal/review"
	"storefront/internal/session"
)

func loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and persist the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if err := a.session.Login(cmd.Context(), email, password); err != nil {
				return err
			}
			user := a.session.Current()
			fmt.Printf("signed in as %s (%s)\n", user.Name, user.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	return cmd
}

func registerCmd() *cobra.Command {
	var email, password, confirm, name string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password != confirm {
				return session.ValidationError("passwords do not match")
			}
			a, err := newApp()
			if err != nil {
				return err
			}
			if err := a.session.Register(cmd.Context(), email, password, name); err != nil {
				return err
			}
			user := a.session.Current()
			fmt.Printf("registered %s (%s)\n", user.Name, user.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().StringVar(&confirm, "confirm", "", "password confirmation")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	cmd.MarkFlagRequired("confirm")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the persisted session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			a.session.Logout()
			fmt.Println("signed out")
			return nil
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			user := a.session.Current()
			if user == nil {
				fmt.Println("not signed in")
				return nil
			}
			fmt.Printf("%s <%s>\nphone: %s\naddress: %s\n", user.Name, user.Email, user.Phone, user.Address)
			return nil
		},
	}
}

func productsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "List the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			products, err := a.client.Products(cmd.Context())
			if err != nil {
				return err
			}
			rows := [][]string{{"ID", "NAME", "PRICE", "STOCK", "RATING"}}
			for _, p := range products {
				rows = append(rows, []string{
					strconv.FormatInt(p.ID, 10), p.Name,
					fmt.Sprintf("%.2f", p.Price),
					strconv.Itoa(p.Stock),
					fmt.Sprintf("%.1f", p.Rating),
				})
			}
			printTable(rows)
			return nil
		},
	}

	show := &cobra.Command{
		Use:   "show <product-id>",
		Short: "Show one product with its reviews",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid product id %q", args[0])
			}
			a, err := newApp()
			if err != nil {
				return err
			}
			p, err := a.client.Product(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Printf("%s %.2f (%s)\nstock: %d\n%s\n", p.Name, p.Price, p.Category, p.Stock, p.Description)
			for k, v := range p.Specs {
				fmt.Printf("  %s: %s\n", k, v)
			}

			reviews, err := a.reviews.ListForProduct(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Printf("rating: %.1f/5.0 (%d reviews)\n", review.AverageRating(reviews), len(reviews))
			for _, r := range reviews {
				fmt.Printf("  [%d/5] %s: %s\n", r.Rating, r.UserName, r.Comment)
			}
			return nil
		},
	}
	cmd.AddCommand(show)
	return cmd
}

func cartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show the cart",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if err := requireUser(a); err != nil {
				return err
			}
			a.cart.Load(cmd.Context(), false)
			rows := [][]string{{"ITEM", "PRODUCT", "QTY", "PRICE"}}
			for _, item := range a.cart.Items() {
				rows = append(rows, []string{
					strconv.FormatInt(item.ID, 10),
					item.Product.Name,
					strconv.Itoa(item.Quantity),
					fmt.Sprintf("%.2f", item.Product.Price),
				})
			}
			printTable(rows)
			fmt.Printf("total: %.2f\n", a.cart.TotalPrice())
			return nil
		},
	}

	add := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add one unit of a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid product id %q", args[0])
			}
			a, err := newApp()
			if err != nil {
				return err
			}
			if err := requireUser(a); err != nil {
				return err
			}
			product, err := a.client.Product(cmd.Context(), id)
			if err != nil {
				return err
			}
			a.cart.Load(cmd.Context(), true)
			a.cart.Add(cmd.Context(), product)
			fmt.Printf("added %s\n", product.Name)
			return nil
		},
	}

	set := &cobra.Command{
		Use:   "set <item-id> <quantity>",
		Short: "Set the quantity of a cart item (0 removes it)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid item id %q", args[0])
			}
			qty, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid quantity %q", args[1])
			}
			a, err := newApp()
			if err != nil {
				return err
			}
			if err := requireUser(a); err != nil {
				return err
			}
			a.cart.Load(cmd.Context(), true)
			a.cart.UpdateQuantity(cmd.Context(), id, qty)
			return nil
		},
	}

	rm := &cobra.Command{
		Use:   "rm <item-id>",
		Short: "Remove a cart item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid item id %q", args[0])
			}
			a, err := newApp()
			if err != nil {
				return err
			}
			if err := requireUser(a); err != nil {
				return err
			}
			a.cart.Load(cmd.Context(), true)
			a.cart.Remove(cmd.Context(), id)
			return nil
		},
	}

	clear := &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if err := requireUser(a); err != nil {
				return err
			}
			a.cart.Clear(cmd.Context())
			return nil
		},
	}

	cmd.AddCommand(add, set, rm, clear)
	return cmd
}

func favouritesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "favourites",
		Aliases: []string{"fav"},
		Short:   "Show favourites",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if err := requireUser(a); err != nil {
				return err
			}
			a.favourites.Load(cmd.Context(), false)
			rows := [][]string{{"ITEM", "PRODUCT", "PRICE"}}
			for _, item := range a.favourites.Items() {
				rows = append(rows, []string{
					strconv.FormatInt(item.ID, 10),
					item.Product.Name,
					fmt.Sprintf("%.2f", item.Product.Price),
				})
			}
			printTable(rows)
			return nil
		},
	}

	add := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Favourite a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid product id %q", args[0])
			}
			a, err := newApp()
			if err != nil {
				return err
			}
			if err := requireUser(a); err != nil {
				return err
			}
			product, err := a.client.Product(cmd.Context(), id)
			if err != nil {
				return err
			}
			a.favourites.Load(cmd.Context(), true)
			a.favourites.Add(cmd.Context(), product)
			fmt.Printf("favourited %s\n", product.Name)
			return nil
		},
	}

	rm := &cobra.Command{
		Use:   "rm <item-id>",
		Short: "Remove a favourite",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid item id %q", args[0])
			}
			a, err := newApp()
			if err != nil {
				return err
			}
			if err := requireUser(a); err != nil {
				return err
			}
			a.favourites.Load(cmd.Context(), true)
			a.favourites.Remove(cmd.Context(), id)
			return nil
		},
	}

	cmd.AddCommand(add, rm)
	return cmd
}

func checkoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checkout",
		Short: "Place an order from the cart",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if err := requireUser(a); err != nil {
				return err
			}
			a.cart.Load(cmd.Context(), false)
			order, err := a.checkout.Checkout(cmd.Context())
			if err != nil {
				return fmt.Errorf("checkout failed: %s", api.ErrorDetail(err))
			}
			fmt.Printf("order #%d placed, total %.2f\n", order.ID, order.Total)
			return nil
		},
	}
}

func ordersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "List your orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			list, err := a.orders.List(cmd.Context())
			if err != nil {
				return err
			}
			rows := [][]string{{"ID", "DATE", "STATUS", "TOTAL", "ITEMS"}}
			for _, o := range list {
				rows = append(rows, []string{
					strconv.FormatInt(o.ID, 10),
					o.Date.Format("2006-01-02"),
					string(o.Status),
					fmt.Sprintf("%.2f", o.Total),
					strconv.Itoa(len(o.Items)),
				})
			}
			printTable(rows)
			return nil
		},
	}

	cancel := &cobra.Command{
		Use:   "cancel <order-id>",
		Short: "Cancel a pending or processing order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid order id %q", args[0])
			}
			a, err := newApp()
			if err != nil {
				return err
			}
			list, err := a.orders.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, o := range list {
				if o.ID != id {
					continue
				}
				if !orders.CanCancel(o.Status) {
					return fmt.Errorf("order #%d is %s and cannot be cancelled", o.ID, o.Status)
				}
				if _, err := a.orders.Cancel(cmd.Context(), o); err != nil {
					return err
				}
				fmt.Printf("order #%d cancelled\n", o.ID)
				return nil
			}
			return fmt.Errorf("order #%d not found", id)
		},
	}

	rm := &cobra.Command{
		Use:   "rm <order-id>",
		Short: "Delete an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid order id %q", args[0])
			}
			a, err := newApp()
			if err != nil {
				return err
			}
			if err := a.orders.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Printf("order #%d deleted\n", id)
			return nil
		},
	}

	cmd.AddCommand(cancel, rm)
	return cmd
}

func reviewCmd() *cobra.Command {
	var rating int
	var comment string
	cmd := &cobra.Command{
		Use:   "review <product-id>",
		Short: "Write or update your review for a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid product id %q", args[0])
			}
			a, err := newApp()
			if err != nil {
				return err
			}
			r, err := a.reviews.Submit(cmd.Context(), id, rating, comment)
			if err != nil {
				return err
			}
			fmt.Printf("review #%d saved: %d/5\n", r.ID, r.Rating)
			return nil
		},
	}
	cmd.Flags().IntVar(&rating, "rating", 5, "rating from 1 to 5")
	cmd.Flags().StringVar(&comment, "comment", "", "review text")

	rm := &cobra.Command{
		Use:   "rm <review-id>",
		Short: "Delete your review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			yes, _ := cmd.Flags().GetBool("yes")
			if !yes {
				return fmt.Errorf("deleting a review cannot be undone, re-run with --yes to confirm")
			}
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid review id %q", args[0])
			}
			a, err := newApp()
			if err != nil {
				return err
			}
			if err := a.reviews.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Println("review deleted")
			return nil
		},
	}
	rm.Flags().Bool("yes", false, "confirm deletion")
	cmd.AddCommand(rm)
	return cmd
}

func profileCmd() *cobra.Command {
	var name, phone, address string
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Update profile fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			fields := map[string]any{}
			if cmd.Flags().Changed("name") {
				fields["name"] = name
			}
			if cmd.Flags().Changed("phone") {
				fields["phone"] = phone
			}
			if cmd.Flags().Changed("address") {
				fields["address"] = address
			}
			if len(fields) == 0 {
				return fmt.Errorf("nothing to update, pass --name, --phone or --address")
			}
			user, err := a.profile.Update(cmd.Context(), fields)
			if err != nil {
				return err
			}
			fmt.Printf("profile updated: %s <%s>\n", user.Name, user.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&address, "address", "", "address")
	return cmd
}
