// spectrocheckd runs the spectrocheck daemon in the foreground. It is the
// entry point for service managers; interactive use normally goes through
// `spectrocheck start`, which launches the same runtime detached.
package main

import (
	"context"
	"flag"
	"log"

	"spectrocheck/internal/config"
	"spectrocheck/internal/daemonrun"
)

func main() {
	configPath := flag.String("config", "", "Configuration file path")
	socketPath := flag.String("socket", "", "IPC socket path override")
	logLevel := flag.String("log-level", "", "Override the configured log level")
	development := flag.Bool("development", false, "Enable development logging output")
	flag.Parse()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	opts := daemonrun.Options{
		LogLevel:    *logLevel,
		Development: *development,
		SocketPath:  *socketPath,
	}
	if err := daemonrun.Run(context.Background(), cfg, opts); err != nil {
		log.Fatalf("run daemon: %v", err)
	}
}
