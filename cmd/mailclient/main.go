// Command mailclient is a terminal mail client that caches multiple
// IMAP accounts locally and groups mail by sender.
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vivasaayi/PersonalMailClient-sub001/internal/app"
	"github.com/vivasaayi/PersonalMailClient-sub001/internal/engine/local"
	"github.com/vivasaayi/PersonalMailClient-sub001/internal/model"
	"github.com/vivasaayi/PersonalMailClient-sub001/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "mailclient: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if os.Getenv("MAILCLIENT_DEBUG") != "" {
		f, err := tea.LogToFile("mailclient-debug.log", "debug")
		if err != nil {
			return fmt.Errorf("opening debug log: %w", err)
		}
		defer f.Close()
		log.SetOutput(f)
	}

	cfgPath := model.DefaultConfigPath()
	cfg, err := model.LoadConfig(cfgPath)
	if err != nil {
		return err
	}
	// First run: materialize the defaults so users have a file to edit.
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		if err := model.SaveConfig(cfgPath, cfg); err != nil {
			log.Printf("writing default config: %v", err)
		}
	}
	applyTheme(cfg.Display.Theme)

	dbPath, err := defaultDBPath()
	if err != nil {
		return err
	}
	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer s.Close()

	eng := local.New(s)

	p := tea.NewProgram(app.New(eng, cfg), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

// applyTheme forces the adaptive color palette onto one background
// when configured; "default" keeps terminal detection.
func applyTheme(name string) {
	switch name {
	case "light":
		lipgloss.SetHasDarkBackground(false)
	case "dark":
		lipgloss.SetHasDarkBackground(true)
	}
}

// defaultDBPath places the cache database next to the config file.
func defaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	dir := filepath.Join(home, ".config", "mailclient")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating data directory %s: %w", dir, err)
	}
	return filepath.Join(dir, "mail.db"), nil
}
