package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/dumu-tech/meta-webhook-gateway/internal/adapters/whatsapp"
	"github.com/dumu-tech/meta-webhook-gateway/internal/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if cfg.WhatsAppBusinessAccountID == "" {
		log.Fatalf("WHATSAPP_BUSINESS_ACCOUNT_ID is required")
	}

	client := whatsapp.NewClient(whatsapp.Config{
		BaseURL:    cfg.GraphAPIBaseURL,
		APIVersion: cfg.GraphAPIVersion,
		Token:      cfg.WhatsAppToken,
		Timeout:    30 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	fmt.Println("===========================================")
	fmt.Println("WhatsApp Webhook Subscription Tool")
	fmt.Println("===========================================")
	fmt.Printf("Graph API: %s\n", client.SubscribedAppsURL(cfg.WhatsAppBusinessAccountID))
	fmt.Println()

	// Step 1: Subscribe the app to the business account
	fmt.Println("Step 1: Subscribing app to WhatsApp Business Account webhooks...")
	if err := client.SubscribeApp(ctx, cfg.WhatsAppBusinessAccountID); err != nil {
		log.Fatalf("Failed to subscribe app: %v", err)
	}
	fmt.Println("✓ App subscribed successfully")
	fmt.Println()

	// Step 2: Confirm
	fmt.Println("Step 2: Listing subscribed apps...")
	apps, err := client.SubscribedApps(ctx, cfg.WhatsAppBusinessAccountID)
	if err != nil {
		log.Fatalf("Failed to list subscribed apps: %v", err)
	}
	for _, app := range apps {
		fmt.Printf("  ID: %s  Name: %s\n", app.WhatsAppBusinessAPIData.ID, app.WhatsAppBusinessAPIData.Name)
	}
	fmt.Println()
	fmt.Println("===========================================")
	fmt.Println("✅ Webhook subscription is now active!")
	fmt.Println("Set the callback URL and VERIFY_TOKEN in the Meta app dashboard")
	fmt.Println("so the handshake at GET /webhook can complete.")
	fmt.Println("===========================================")
}
