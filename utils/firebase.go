package utils

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/gather-app/gather-backend/config"
	"google.golang.org/api/option"
)

var (
	FirebaseClient *messaging.Client
	firebaseOnce   sync.Once
	initErr        error
)

// InitFirebase initializes the FCM client once. A missing credentials file
// is reported through the returned error and leaves push disabled.
func InitFirebase(cfg *config.Config) error {
	firebaseOnce.Do(func() {
		credentialsPath := cfg.FCMCredentialsPath
		if credentialsPath == "" {
			initErr = fmt.Errorf("FCM_CREDENTIALS_PATH not set")
			return
		}
		if _, err := os.Stat(credentialsPath); os.IsNotExist(err) {
			initErr = fmt.Errorf("firebase credentials file not found: %s", credentialsPath)
			return
		}

		ctx := context.Background()
		app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.FCMProjectID}, option.WithCredentialsFile(credentialsPath))
		if err != nil {
			initErr = fmt.Errorf("firebase app initialization failed: %w", err)
			return
		}

		client, err := app.Messaging(ctx)
		if err != nil {
			initErr = fmt.Errorf("FCM client initialization failed: %w", err)
			return
		}

		FirebaseClient = client
		log.Printf("✅ FCM client initialized for project %q", cfg.FCMProjectID)
	})
	return initErr
}

// IsFCMEnabled checks if FCM is available
func IsFCMEnabled() bool {
	return FirebaseClient != nil
}

// GetInitError returns the initialization error if any
func GetInitError() error {
	return initErr
}
