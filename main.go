package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"

	"github.com/querypad/querypad/config"
	"github.com/querypad/querypad/store"
)

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "querypad", "config.toml")
}

func main() {
	configPath := flag.String("config", defaultConfigPath(), "path to TOML config file")
	flag.Parse()

	opts, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	st, err := store.New()
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer st.Close()

	fyneApp := app.New()

	// A theme toggled in a previous session wins over the config file.
	themeName := opts.Theme
	if saved, err := st.GetSetting("theme_variant"); err == nil && saved != "" {
		themeName = saved
	}
	appTheme.SetVariant(variantForConfig(themeName, fyneApp.Settings().ThemeVariant()))
	appTheme.SetTextSize(opts.FontSize)
	fyneApp.Settings().SetTheme(appTheme)

	window := fyneApp.NewWindow("QueryPad — SQL Editor")
	window.Resize(fyne.NewSize(1280, 800))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	application := NewApp(window, st, opts, ctx)

	window.SetContent(application.BuildUI())

	application.LoadSchema()
	go application.refreshSnippets()

	window.ShowAndRun()
}
