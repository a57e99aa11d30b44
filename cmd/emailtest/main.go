package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/aigovpro/authcore/pkg/notification"
)

// Sends the real password-reset email with a throwaway token so SMTP
// settings can be verified end to end before enabling delivery.
func main() {
	host := flag.String("host", "localhost", "SMTP server host")
	port := flag.Int("port", 25, "SMTP server port")
	username := flag.String("user", "", "SMTP username")
	password := flag.String("pass", "", "SMTP password")
	from := flag.String("from", "", "From email address")
	to := flag.String("to", "", "To email address")
	useTLS := flag.Bool("tls", false, "Require TLS for the SMTP connection")
	baseURL := flag.String("base-url", "http://localhost:4000", "Base URL used in the reset link")
	flag.Parse()

	if *from == "" || *to == "" {
		fmt.Println("Error: from and to email addresses are required")
		os.Exit(1)
	}

	notifier, err := notification.NewEmailNotifier(notification.SMTPConfig{
		Host:     *host,
		Port:     *port,
		TLS:      *useTLS,
		Username: *username,
		Password: *password,
		From:     *from,
	})
	if err != nil {
		log.Fatalf("Failed to create email notifier: %v", err)
	}

	manager := notification.NewNotificationManager()
	manager.RegisterNotifier(notification.EmailSystem, notifier)

	mailer, err := notification.NewResetMailer(manager, *baseURL)
	if err != nil {
		log.Fatalf("Failed to create reset mailer: %v", err)
	}

	sent, err := mailer.SendResetEmail(*to, "email-test-token")
	if err != nil {
		log.Fatalf("Failed to send reset email: %v", err)
	}
	if !sent {
		fmt.Println("Reset email was not delivered, see the log above")
		os.Exit(1)
	}

	fmt.Println("Reset email sent successfully!")
}
