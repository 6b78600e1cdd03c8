package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rishabh0022/Statistical-Arbitrage/internal/config"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	reader := bufio.NewReader(os.Stdin)

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	for {
		fmt.Println("\n=== StatArb Control ===")
		fmt.Println("1) Show configuration summary")
		fmt.Println("2) Edit capital and sizing knobs")
		fmt.Println("3) Edit transaction costs")
		fmt.Println("4) Edit universe and dates")
		fmt.Println("5) Save config")
		fmt.Println("6) Run backtest")
		fmt.Println("7) Reload config from disk")
		fmt.Println("0) Exit")
		fmt.Print("Select option: ")

		input, _ := reader.ReadString('\n')
		choice := strings.TrimSpace(input)

		switch choice {
		case "1":
			printSummary(cfg)
		case "2":
			editSizing(reader, cfg)
		case "3":
			editCosts(reader, cfg)
		case "4":
			editUniverse(reader, cfg)
		case "5":
			if err := saveConfig(cfg); err != nil {
				fmt.Fprintf(os.Stderr, "save failed: %v\n", err)
			} else {
				fmt.Println("config saved")
			}
		case "6":
			runBacktest()
		case "7":
			reloaded, err := loadConfig()
			if err != nil {
				fmt.Fprintf(os.Stderr, "reload failed: %v\n", err)
			} else {
				cfg = reloaded
				fmt.Println("config reloaded")
			}
		case "0":
			return
		default:
			fmt.Println("unknown option")
		}
	}
}

func printSummary(cfg *config.Config) {
	b := cfg.Backtest
	fmt.Println("\n--- Configuration Summary ---")
	fmt.Println("Universe:", strings.Join(b.Universe, ", "))
	fmt.Printf("Window: %s to %s\n", b.Start, b.End)
	fmt.Printf("Capital: $%.2f\n", b.Capital)
	fmt.Printf("Target vol: %.2f%% | max pairs: %d | per-pair cap: %.0f%%\n", b.TargetVol*100, b.MaxPairs, b.MaxWeight*100)
	fmt.Printf("Half spread: %.2f bps | slippage coefficient: %.3f\n", b.HalfSpread*1e4, b.SlipCoef)
	fmt.Printf("Screen: overlap >= %d, corr >= %.2f, p < %.3f\n", cfg.Screener.MinOverlap, cfg.Screener.MinCorrelation, cfg.Screener.MaxPValue)
	fmt.Printf("Provider: %s\n", cfg.Data.Provider)
}

func editSizing(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n--- Edit Capital / Sizing ---")
	cfg.Backtest.Capital = promptFloat(reader, "Capital", cfg.Backtest.Capital)
	cfg.Backtest.TargetVol = promptPercent(reader, "Target portfolio vol (%)", cfg.Backtest.TargetVol)
	cfg.Backtest.MaxPairs = int(promptFloat(reader, "Max pairs", float64(cfg.Backtest.MaxPairs)))
	cfg.Backtest.MaxWeight = promptPercent(reader, "Per-pair notional cap (% of capital)", cfg.Backtest.MaxWeight)
}

func editCosts(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n--- Edit Costs ---")
	cfg.Backtest.HalfSpread = promptFloat(reader, "Half spread (bps)", cfg.Backtest.HalfSpread*1e4) / 1e4
	cfg.Backtest.SlipCoef = promptFloat(reader, "Slippage coefficient", cfg.Backtest.SlipCoef)
}

func editUniverse(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n--- Edit Universe ---")
	fmt.Printf("Current universe: %s\n", strings.Join(cfg.Backtest.Universe, ", "))
	fmt.Print("Enter symbols comma-separated (blank to keep): ")
	if line, _ := reader.ReadString('\n'); strings.TrimSpace(line) != "" {
		parts := strings.Split(strings.TrimSpace(line), ",")
		cfg.Backtest.Universe = nil
		for _, p := range parts {
			if trimmed := strings.ToUpper(strings.TrimSpace(p)); trimmed != "" {
				cfg.Backtest.Universe = append(cfg.Backtest.Universe, trimmed)
			}
		}
	}
	cfg.Backtest.Start = promptString(reader, "Start date (YYYY-MM-DD)", cfg.Backtest.Start)
	cfg.Backtest.End = promptString(reader, "End date (YYYY-MM-DD)", cfg.Backtest.End)
}

func runBacktest() {
	fmt.Println("Running backtest with the saved config (Ctrl+C to stop)...")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := exec.CommandContext(ctx, "go", "run", "./cmd/statarb", "backtest", "--config", locateConfig())
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "backtest failed: %v\n", err)
	}
}

func promptString(reader *bufio.Reader, label, current string) string {
	fmt.Printf("%s [%s]: ", label, current)
	line, _ := reader.ReadString('\n')
	if line = strings.TrimSpace(line); line != "" {
		return line
	}
	return current
}

func promptFloat(reader *bufio.Reader, label string, current float64) float64 {
	fmt.Printf("%s [%.4g]: ", label, current)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return current
	}
	val, err := strconv.ParseFloat(line, 64)
	if err != nil {
		fmt.Printf("invalid number, keeping %.4g\n", current)
		return current
	}
	return val
}

func promptPercent(reader *bufio.Reader, label string, current float64) float64 {
	pct := promptFloat(reader, label, current*100)
	return pct / 100
}

func loadConfig() (*config.Config, error) {
	path := locateConfig()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config.Default(), nil
	}
	return config.Load(path)
}

func saveConfig(cfg *config.Config) error {
	if err := config.Validate(cfg); err != nil {
		return err
	}
	return config.Save(locateConfig(), cfg)
}

func locateConfig() string {
	if filepath.IsAbs(defaultConfigPath) {
		return defaultConfigPath
	}
	return filepath.Clean(defaultConfigPath)
}
