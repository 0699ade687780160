// Command escanprobe connects to a scanner, prints its capability and
// status records, and exits. It performs no image acquisition: see
// SPEC_FULL.md's Non-goals for why this tool stays read-only.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/barnettlynn/escan/escan"
	"github.com/barnettlynn/escan/escan/transport"
	"github.com/barnettlynn/escan/internal/config"
)

const configFileName = "escanprobe.yaml"

func main() {
	configFlag := flag.String("config", "", "path to config file (default: next to the binary, or cwd)")
	verbose := flag.Bool("v", false, "enable debug logging")
	logFormat := flag.String("log-format", "text", "log format: text or json")
	timeout := flag.Duration("timeout", 5*time.Second, "per-command timeout")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if *logFormat == "json" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, opts)))
	} else {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, opts)))
	}

	configPath := *configFlag
	if configPath == "" {
		resolved, err := defaultConfigPath()
		if err != nil {
			log.Fatalf("resolve config path failed: %v", err)
		}
		configPath = resolved
	}
	fmt.Printf("Using config: %s\n", configPath)

	cfg, err := config.LoadWithMode(configPath, config.ValidationProbeOnly)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	runProbe(cfg, *timeout)
}

func runProbe(cfg *config.Config, perCommandTimeout time.Duration) {
	baud := 115200
	if cfg.Connexion.BaudRate != nil {
		baud = *cfg.Connexion.BaudRate
	}

	conn, err := transport.OpenSerial(cfg.Connexion.Address, uint32(baud))
	if err != nil {
		log.Fatalf("open connexion failed: %v", err)
	}
	defer conn.Close()
	fmt.Printf("Connected: %s\n", cfg.Connexion.Address)

	pedantic := cfg.Runtime.Pedantic != nil && *cfg.Runtime.Pedantic

	ctx, cancel := context.WithTimeout(context.Background(), perCommandTimeout)
	defer cancel()

	scanner, err := escan.Open(ctx, conn, pedantic)
	if err != nil {
		log.Fatalf("open scanner failed: %v", err)
	}
	defer scanner.Close(ctx)

	printCapability(scanner.Capability)

	status, err := escan.GetScannerStatus(ctx, conn, pedantic)
	if err != nil {
		fmt.Printf("\nWarning: could not read scanner status: %v\n", err)
		return
	}
	printStatus(status)

	params, err := escan.GetScanParameters(ctx, conn, pedantic)
	if err != nil {
		fmt.Printf("\nWarning: could not read scan parameters: %v\n", err)
		return
	}
	printParameters(params)

	fmt.Println("\nDone")
}

func printCapability(c *escan.Capability) {
	fmt.Println()
	fmt.Println("CAPABILITY")
	fmt.Printf("  command_level:   %s\n", c.CommandLevel())
	fmt.Printf("  product_name:    %s\n", c.ProductName())
	fmt.Printf("  rom_version:     %s\n", c.ROMVersion())
	fmt.Printf("  base_resolution: %d dpi\n", c.BaseResolution())
	fmt.Printf("  resolution:      %d..%d dpi\n", c.MinResolution(), c.MaxResolution())
	fmt.Printf("  max_scan_width:  %d px\n", c.MaxScanWidth())
	fmt.Printf("  flatbed:         %t\n", c.IsFlatbedType())
	fmt.Printf("  push_button:     %t\n", c.HasPushButton())
	if c.ADFIsPageType() || c.ADFIsDuplexType() {
		fmt.Printf("  adf:             page=%t duplex=%t auto_feed=%t\n",
			c.ADFIsPageType(), c.ADFIsDuplexType(), c.ADFIsAutoFormFeeder())
	}
}

func printStatus(s *escan.Status) {
	fmt.Println()
	fmt.Println("STATUS")
	fmt.Printf("  ready:      %t\n", s.IsReady())
	fmt.Printf("  fatal:      %t\n", s.FatalError())
	fmt.Printf("  warming_up: %t\n", s.IsWarmingUp())
	fmt.Printf("  main:       error=%t media_out=%t media_jam=%t cover_open=%t\n",
		s.MainError(), s.MainMediaOut(), s.MainMediaJam(), s.MainCoverOpen())
	if s.ADFDetected() {
		fmt.Printf("  adf:        enabled=%t error=%t media_out=%t media_jam=%t\n",
			s.ADFEnabled(), s.ADFError(), s.ADFMediaOut(), s.ADFMediaJam())
	}
}

func printParameters(p *escan.ScanParameters) {
	fmt.Println()
	fmt.Println("SCAN PARAMETERS")
	fmt.Printf("  film_type:        0x%02x (%s)\n", p.FilmType(), labelOr(escan.FilmTypeLabel(p.FilmType())))
	fmt.Printf("  gamma_correction: 0x%02x (%s)\n", p.GammaCorrection(), labelOr(escan.GammaCorrectionLabel(p.GammaCorrection())))
	fmt.Printf("  color_correction: 0x%02x (%s)\n", p.ColorCorrection(), labelOr(escan.ColorCorrectionLabel(p.ColorCorrection())))
	fmt.Printf("  dither_pattern:   0x%02x (%s)\n", p.HalftoneProcessing(), labelOr(escan.DitherPatternLabel(p.HalftoneProcessing())))
}

func labelOr(label string) string {
	if label == "" {
		return "undocumented"
	}
	return label
}

func defaultConfigPath() (string, error) {
	exePath, err := os.Executable()
	if err != nil {
		return "", err
	}
	exeConfigPath := filepath.Join(filepath.Dir(exePath), configFileName)
	if fileExists(exeConfigPath) {
		return exeConfigPath, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return exeConfigPath, nil
	}
	cwdConfigPath := filepath.Join(cwd, configFileName)
	if fileExists(cwdConfigPath) {
		return cwdConfigPath, nil
	}
	return exeConfigPath, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
