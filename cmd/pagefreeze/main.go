package main

import (
	"context"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"pagefreeze/internal/capture"
	"pagefreeze/internal/service"
)

func main() {
	addrFlag := flag.String("addr", "", "listen address, e.g. :8080 (overrides config)")
	configFlag := flag.String("config", "", "optional YAML config file")
	urlFlag := flag.String("url", "", "one-shot mode: capture this URL and exit")
	outFlag := flag.String("out", "", "output directory for snapshots")
	thumbFlag := flag.Bool("thumb", false, "one-shot mode: also save a page thumbnail")
	flag.Parse()

	// A .env next to the binary feeds the PAGEFREEZE_* variables.
	_ = godotenv.Load()

	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.SetOutput(os.Stdout)

	cfg := service.DefaultConfig()
	if *configFlag != "" {
		var err error
		if cfg, err = service.LoadConfigFile(cfg, *configFlag); err != nil {
			log.Fatal(err)
		}
	}
	if *addrFlag != "" {
		cfg.Addr = *addrFlag
	}
	if env := os.Getenv("PORT"); env != "" {
		cfg.Addr = ":" + env
	}
	if *outFlag != "" {
		cfg.OutputDir = *outFlag
	}

	session, err := capture.NewSession(log.Default())
	if err != nil {
		log.Fatalf("browser session: %v", err)
	}
	defer session.Close()

	if *urlFlag != "" {
		oneShot(session, cfg, *urlFlag, *thumbFlag)
		return
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           service.New(cfg, session),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       60 * time.Second,
		ErrorLog:          log.New(os.Stdout, "HTTPERR ", log.LstdFlags|log.Lmicroseconds),
	}
	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		log.Fatalf("listen error on %s: %v", cfg.Addr, err)
	}
	log.Println("Listening on", cfg.Addr)
	log.Fatal(srv.Serve(ln))
}

func oneShot(session *capture.Session, cfg service.Config, target string, thumb bool) {
	result, shot, err := session.Capture(context.Background(), target, cfg.DefaultOptions, thumb)
	if err != nil {
		log.Fatalf("capture failed: %v", err)
	}
	for _, warn := range result.Warnings {
		log.Printf("warning: %s", warn.Message)
	}

	name := result.Title
	if name == "" {
		name = target
	}
	exports := service.NewExportStore(cfg.OutputDir)
	path, err := exports.Save(result.DocumentText, name)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("saved %s (%d bytes, %d warnings)", path, len(result.DocumentText), len(result.Warnings))

	if thumb && len(shot) > 0 {
		data, err := capture.Thumbnail(shot, capture.DefaultThumbnailEdge)
		if err != nil {
			log.Printf("thumbnail: %v", err)
			return
		}
		if tpath, err := exports.SaveThumbnail(data, name); err != nil {
			log.Printf("thumbnail: %v", err)
		} else {
			log.Printf("saved %s", tpath)
		}
	}
}
