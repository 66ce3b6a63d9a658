package firebase

import (
	"context"

	firebasesdk "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"intuitive/config"
	"intuitive/internal/errors"
)

// NewAuthClient initializes the Firebase app and returns its Auth client.
// Without a credentials path the SDK falls back to application default credentials.
func NewAuthClient(cfg *config.Config) (*auth.Client, error) {
	ctx := context.Background()

	var opts []option.ClientOption
	if cfg.Firebase.CredentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.Firebase.CredentialsPath))
	}

	app, err := firebasesdk.NewApp(ctx, &firebasesdk.Config{ProjectID: cfg.Firebase.ProjectID}, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize Firebase app")
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get Firebase auth client")
	}

	return client, nil
}
