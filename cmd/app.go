package cmd

import (
	"context"
	"fmt"

	"github.com/josephgoksu/DocWing/internal/app"
	"github.com/josephgoksu/DocWing/internal/config"
)

// openApp loads configuration and builds the shared app context.
func openApp(ctx context.Context) (*app.Context, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	a, err := app.New(ctx, cfg, app.Options{Version: version})
	if err != nil {
		return nil, err
	}
	return a, nil
}
