// Package main runs the interactive storefront client: an optimistic
// local cart with remote reconciliation, session management, and order
// placement against the storefront API.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/evermart/storefront/internal/client/api"
	"github.com/evermart/storefront/internal/client/cart"
	"github.com/evermart/storefront/internal/client/catalog"
	"github.com/evermart/storefront/internal/client/orders"
	"github.com/evermart/storefront/internal/client/session"
	"github.com/evermart/storefront/internal/client/storage"
	"github.com/evermart/storefront/internal/logger"
)

var (
	version   string
	buildDate string
)

// printNotifier surfaces cart engine outcomes on the terminal.
type printNotifier struct{}

func (printNotifier) Success(msg string) { fmt.Println(msg) }
func (printNotifier) Failure(msg string) { fmt.Println("error:", msg) }

// repl runs the interactive shell loop, accepting commands to browse the
// catalog, manage the cart, and place orders.
func repl(sessions *session.Engine, carts *cart.Engine, products *catalog.Client, orderClient *orders.Client) {
	ctx := context.Background()
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("storefront> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		switch args[0] {
		case "help":
			fmt.Println("Available commands: help, login <email> [name], logout, whoami, profile,")
			fmt.Println("  show <productID>, add <productID> <variantID> [qty], qty <itemID> <n>, rm <itemID>,")
			fmt.Println("  clear, ls, totals, sync, validate, checkout <address>, orders, order <id>,")
			fmt.Println("  pay <id> <txn>, cancel <id>, exit")
		case "login":
			if len(args) < 2 {
				fmt.Println("Usage: login <email> [name]")
				continue
			}
			assertion := args[1]
			if len(args) > 2 {
				assertion += "|" + strings.Join(args[2:], " ")
			}
			user, err := sessions.SignIn(ctx, assertion)
			if err != nil {
				fmt.Println("sign-in failed:", err)
				continue
			}
			fmt.Printf("Signed in as %s <%s>\n", user.Name, user.Email)
		case "logout":
			sessions.SignOut()
			fmt.Println("Signed out")
		case "whoami":
			user, ok := sessions.Principal()
			if !ok {
				fmt.Println("Not signed in")
				continue
			}
			fmt.Printf("%s <%s>\n", user.Name, user.Email)
		case "profile":
			if err := sessions.RefreshPrincipal(ctx); err != nil {
				fmt.Println("profile unavailable:", err)
				continue
			}
			user, _ := sessions.Principal()
			b, _ := json.MarshalIndent(user, "", "  ")
			fmt.Println(string(b))
		case "show":
			if len(args) < 2 {
				fmt.Println("Usage: show <productID>")
				continue
			}
			product, err := products.Product(ctx, args[1])
			if err != nil {
				fmt.Println("product unavailable:", err)
				continue
			}
			fmt.Printf("%s (%s)\n", product.Name, product.ID)
			for _, v := range product.Variants {
				fmt.Printf("  %s  %s/%s  $%.2f  stock %d\n", v.VariantID, v.Color, v.Size, v.Price, v.Stock)
			}
		case "add":
			if len(args) < 3 {
				fmt.Println("Usage: add <productID> <variantID> [qty]")
				continue
			}
			quantity := 1
			if len(args) > 3 {
				n, err := strconv.Atoi(args[3])
				if err != nil || n < 1 {
					fmt.Println("quantity must be a positive number")
					continue
				}
				quantity = n
			}
			product, err := products.Product(ctx, args[1])
			if err != nil {
				fmt.Println("product unavailable:", err)
				continue
			}
			added := false
			for _, v := range product.Variants {
				if v.VariantID == args[2] {
					_ = carts.AddItem(ctx, product, v, quantity)
					added = true
					break
				}
			}
			if !added {
				fmt.Println("variant not found on product")
			}
		case "qty":
			if len(args) < 3 {
				fmt.Println("Usage: qty <itemID> <n>")
				continue
			}
			n, err := strconv.Atoi(args[2])
			if err != nil {
				fmt.Println("quantity must be a number")
				continue
			}
			if err := carts.UpdateQuantity(ctx, args[1], n); err != nil {
				if errors.Is(err, cart.ErrItemNotFound) {
					fmt.Println("item not in cart")
				}
				continue
			}
		case "rm":
			if len(args) < 2 {
				fmt.Println("Usage: rm <itemID>")
				continue
			}
			if err := carts.RemoveItem(ctx, args[1]); err != nil {
				if errors.Is(err, cart.ErrItemNotFound) {
					fmt.Println("item not in cart")
				}
				continue
			}
		case "clear":
			_ = carts.ClearCart(ctx)
		case "ls":
			items := carts.Items()
			if len(items) == 0 {
				fmt.Println("Cart is empty")
				continue
			}
			for _, item := range items {
				fmt.Printf("%s  %s %s/%s  $%.2f x%d\n",
					item.ItemID, item.ProductName, item.Color, item.Size, item.UnitPrice, item.Quantity)
			}
		case "totals":
			t := carts.Totals()
			fmt.Printf("Items:    %d\n", t.ItemCount)
			fmt.Printf("Subtotal: $%.2f\n", t.Subtotal)
			fmt.Printf("Tax:      $%.2f\n", t.Tax)
			fmt.Printf("Shipping: $%.2f\n", t.Shipping)
			fmt.Printf("Total:    $%.2f\n", t.Total)
		case "sync":
			if err := carts.SyncCart(ctx); err != nil {
				fmt.Println("sync failed:", err)
			}
		case "validate":
			result, err := carts.ValidateCart(ctx)
			if err != nil {
				fmt.Println("validation failed:", err)
				continue
			}
			if result.Valid {
				fmt.Println("Cart is valid")
				continue
			}
			for _, issue := range result.Issues {
				fmt.Printf("%s: %s\n", issue.ItemID, issue.Type)
			}
		case "checkout":
			checkout(ctx, sessions, carts, orderClient, strings.Join(args[1:], " "))
		case "orders":
			page, err := orderClient.List(ctx, 1)
			if err != nil {
				fmt.Println("orders unavailable:", err)
				continue
			}
			if len(page.Orders) == 0 {
				fmt.Println("No orders yet")
				continue
			}
			for _, o := range page.Orders {
				fmt.Printf("%s  %s  $%.2f  %s\n", o.ID, o.CreatedAt.Format("2006-01-02"), o.Total, o.Status)
			}
		case "order":
			if len(args) < 2 {
				fmt.Println("Usage: order <id>")
				continue
			}
			o, err := orderClient.Get(ctx, args[1])
			if err != nil {
				fmt.Println("order unavailable:", err)
				continue
			}
			b, _ := json.MarshalIndent(o, "", "  ")
			fmt.Println(string(b))
		case "pay":
			if len(args) < 3 {
				fmt.Println("Usage: pay <id> <txn>")
				continue
			}
			o, err := orderClient.Pay(ctx, args[1], args[2])
			if err != nil {
				fmt.Println("payment failed:", err)
				continue
			}
			fmt.Printf("Order %s is now %s\n", o.ID, o.Status)
		case "cancel":
			if len(args) < 2 {
				fmt.Println("Usage: cancel <id>")
				continue
			}
			o, err := orderClient.Cancel(ctx, args[1])
			if err != nil {
				fmt.Println("cancel failed:", err)
				continue
			}
			fmt.Printf("Order %s is now %s\n", o.ID, o.Status)
		case "exit":
			fmt.Println("Bye")
			return
		default:
			fmt.Println("Unknown command. Type 'help' for a list of commands.")
		}
	}
}

// checkout validates the cart, places an order from its lines, and clears
// the cart once the order is accepted.
func checkout(ctx context.Context, sessions *session.Engine, carts *cart.Engine, orderClient *orders.Client, street string) {
	user, ok := sessions.Principal()
	if !ok {
		fmt.Println("Sign in before checking out")
		return
	}
	items := carts.Items()
	if len(items) == 0 {
		fmt.Println("Cart is empty")
		return
	}
	if street == "" {
		street = user.Address
	}
	if street == "" {
		fmt.Println("Usage: checkout <address>")
		return
	}

	result, err := carts.ValidateCart(ctx)
	if err != nil {
		fmt.Println("validation failed:", err)
		return
	}
	if !result.Valid {
		fmt.Println("Cart has issues; run 'validate' and fix them first")
		return
	}

	req := orders.PlaceRequest{
		CustomerInfo: orders.CustomerInfo{
			Name:  user.Name,
			Email: user.Email,
			Phone: user.Phone,
		},
		ShippingAddress: orders.ShippingAddress{Street: street},
		PaymentMethod:   "card",
	}
	for _, item := range items {
		req.Items = append(req.Items, orders.PlacedItem{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
		})
	}

	order, err := orderClient.Place(ctx, req)
	if err != nil {
		fmt.Println("checkout failed:", err)
		return
	}
	fmt.Printf("Order %s placed, total $%.2f\n", order.ID, order.Total)
	_ = carts.ClearCart(ctx)
}

// main parses command-line flags, restores persisted state, and starts
// the interactive shell.
func main() {
	var (
		baseURL  string
		stateDir string
		showVer  bool
	)

	flag.StringVar(&baseURL, "url", "http://localhost:8080/api", "API base URL")
	flag.StringVar(&stateDir, "state-dir", defaultStateDir(), "directory for persisted session and cart state")
	flag.BoolVar(&showVer, "version", false, "show build version and date")
	flag.Parse()

	if showVer {
		fmt.Printf("Storefront Client\nVersion: %s\nBuild Date: %s\n", version, buildDate)
		return
	}

	zl := logger.New()
	defer func() { _ = zl.Log.Sync() }()

	store, err := storage.New(stateDir)
	if err != nil {
		log.Fatal(err)
	}

	var sessions *session.Engine
	remote := api.New(baseURL,
		func() string {
			if sessions == nil {
				return ""
			}
			return sessions.Token()
		},
		func() {
			if sessions != nil {
				sessions.SignOut()
				fmt.Println("Session expired, signed out")
			}
		},
		zl.Log,
	)

	sessions = session.New(remote, store, zl.Log)
	if err := sessions.Load(); err != nil {
		log.Fatal(err)
	}

	carts := cart.New(remote, store, sessions.Authenticated, printNotifier{}, zl.Log)
	sessions.AfterSignIn = func(ctx context.Context) {
		_ = carts.SyncCart(ctx)
	}

	// A cart the client cannot restore is not worth dying for: start
	// with an empty one and let later mutations rebuild the record.
	if err := carts.InitCart(context.Background()); err != nil {
		fmt.Println("warning: could not restore cart:", err)
	}

	repl(sessions, carts, catalog.New(remote), orders.New(remote))
}

// defaultStateDir places persisted records under the user's config
// directory, falling back to the working directory.
func defaultStateDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".storefront"
	}
	return dir + "/storefront"
}
