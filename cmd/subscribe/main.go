package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/ReplyHive/ReplyHive/internal/pkg/env"
	"github.com/ReplyHive/ReplyHive/internal/pkg/platform"
)

// Operator tool for managing the app-level webhook subscription. Run once
// per app during onboarding; the pipeline itself never calls these.
func main() {
	env.SetupEnvFile()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	client := platform.NewClientFromEnv()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch os.Args[1] {
	case "subscribe":
		appID, appToken := requireAppCredentials()
		callbackURL := env.GetEnv("WEBHOOK_CALLBACK_URL", "")
		verifyToken := env.GetEnv("WEBHOOK_VERIFY_TOKEN", "")
		if callbackURL == "" || verifyToken == "" {
			log.Fatal("WEBHOOK_CALLBACK_URL and WEBHOOK_VERIFY_TOKEN must be set")
		}
		fields := platform.DefaultWebhookFields
		if raw := env.GetEnv("WEBHOOK_FIELDS", ""); raw != "" {
			fields = strings.Split(raw, ",")
		}

		result, err := client.SubscribeWebhooks(ctx, appToken, appID, callbackURL, verifyToken, fields)
		if err != nil {
			log.Fatalf("Subscription failed: %v", err)
		}
		log.Printf("Subscribed: success=%t fields=%s", result.Success, strings.Join(fields, ","))

	case "list":
		appID, appToken := requireAppCredentials()
		result, err := client.ListSubscriptions(ctx, appToken, appID)
		if err != nil {
			log.Fatalf("Listing subscriptions failed: %v", err)
		}
		if len(result.Data) == 0 {
			log.Println("No active subscriptions")
			return
		}
		for _, sub := range result.Data {
			log.Printf("object=%s callback=%s active=%t fields=%s",
				sub.Object, sub.CallbackURL, sub.Active, strings.Join(sub.Fields, ","))
		}

	case "unsubscribe":
		appID, appToken := requireAppCredentials()
		result, err := client.DeleteSubscription(ctx, appToken, appID)
		if err != nil {
			log.Fatalf("Unsubscribe failed: %v", err)
		}
		log.Printf("Unsubscribed: success=%t", result.Success)

	case "profile":
		// Sanity check for a connected account's token during onboarding.
		accessToken := env.GetEnv("PLATFORM_ACCESS_TOKEN", "")
		accountID := env.GetEnv("PLATFORM_ACCOUNT_ID", "")
		if accessToken == "" || accountID == "" {
			log.Fatal("PLATFORM_ACCESS_TOKEN and PLATFORM_ACCOUNT_ID must be set")
		}
		profile, err := client.GetProfile(ctx, accessToken, accountID)
		if err != nil {
			log.Fatalf("Profile lookup failed: %v", err)
		}
		log.Printf("id=%s username=%s name=%s", profile.ID, profile.Username, profile.Name)

	default:
		printUsage()
		os.Exit(1)
	}
}

func requireAppCredentials() (string, string) {
	appID := env.GetEnv("PLATFORM_APP_ID", "")
	appToken := env.GetEnv("PLATFORM_APP_TOKEN", "")
	if appID == "" || appToken == "" {
		log.Fatal("PLATFORM_APP_ID and PLATFORM_APP_TOKEN must be set")
	}
	return appID, appToken
}

func printUsage() {
	fmt.Println("Usage: subscribe <command>")
	fmt.Println("Commands:")
	fmt.Println("  subscribe    register the webhook callback for the app")
	fmt.Println("  list         show active webhook subscriptions")
	fmt.Println("  unsubscribe  remove the app's webhook subscription")
	fmt.Println("  profile      fetch a connected account's public profile")
}
