package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dusk-indust/easel/internal/board"
	"github.com/dusk-indust/easel/internal/config"
	"github.com/dusk-indust/easel/internal/fusion"
	"github.com/dusk-indust/easel/internal/mcptools"
	"github.com/dusk-indust/easel/internal/orchestrator"
	"github.com/dusk-indust/easel/internal/realtime"
	"github.com/dusk-indust/easel/internal/recommend"
	"github.com/dusk-indust/easel/internal/retry"
	"github.com/dusk-indust/easel/internal/server"
)

// CLI flags parsed from command line.
type cliFlags struct {
	Addr      string
	MCPAddr   string
	StorePath string
	ConfigDir string
	ObjectDir string
	Images    int
	Verbose   bool
	Version   bool
}

// version is set by goreleaser at build time.
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var flags cliFlags

	fs := flag.NewFlagSet("easel", flag.ContinueOnError)
	fs.StringVar(&flags.Addr, "addr", "", "HTTP listen address (default :8080)")
	fs.StringVar(&flags.MCPAddr, "mcp-addr", "", "MCP listen address (empty disables the MCP server)")
	fs.StringVar(&flags.StorePath, "store", "", "path to the board database (empty uses in-memory storage)")
	fs.StringVar(&flags.ConfigDir, "config-dir", ".", "directory to read easel.yml from")
	fs.StringVar(&flags.ObjectDir, "object-dir", "", "directory for generated image files (default: temp dir)")
	fs.IntVar(&flags.Images, "images", 0, "images generated per iteration")
	fs.BoolVar(&flags.Verbose, "verbose", false, "enable verbose output")
	fs.BoolVar(&flags.Version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if flags.Version {
		fmt.Println(version)
		return nil
	}

	cfg, err := config.Load(flags.ConfigDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyFlags(cfg, flags)

	store, err := openStore(cfg.StorePath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	objects, err := newFileObjectStore(flags.ObjectDir)
	if err != nil {
		return fmt.Errorf("object store: %w", err)
	}

	hub := realtime.NewHub()
	registry := board.NewRegistry()

	iou := cfg.IoUThreshold
	if iou <= 0 {
		iou = fusion.DefaultIoUThreshold
	}
	orch := orchestrator.New(orchestrator.Deps{
		Store:   store,
		Hub:     hub,
		Images:  &placeholderGenerator{},
		Layouts: gridLayout{},
		Matcher: orderedMatcher{},
		Objects: objects,
	}, orchestrator.Options{
		Fuser:        fusion.NewFuser(iou),
		RetryPolicy:  retry.NewPolicy(cfg.RetryAttempts),
		ImagesPerRun: cfg.ImagesPerIteration,
	})

	rec := recommend.New(store, hub, paletteSuggester{}, cfg.RecommendDelay())
	srv := server.New(store, hub, orch, rec, registry)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx, cfg.Addr); err != nil {
		return fmt.Errorf("start http server: %w", err)
	}
	log.Printf("easel listening on %s", cfg.Addr)

	if cfg.MCPAddr != "" {
		svc := mcptools.NewBoardService(store, orch)
		go func() {
			if err := mcptools.RunMCPServer(ctx, svc, cfg.MCPAddr); err != nil {
				log.Printf("WARNING: MCP server stopped: %v", err)
			}
		}()
		log.Printf("easel MCP tools listening on %s", cfg.MCPAddr)
	}

	<-ctx.Done()
	log.Println("shutting down")
	return srv.Stop(context.Background())
}

// applyFlags overlays non-zero CLI flags onto the file config and fills the
// remaining defaults.
func applyFlags(cfg *config.Config, flags cliFlags) {
	if flags.Addr != "" {
		cfg.Addr = flags.Addr
	}
	if flags.MCPAddr != "" {
		cfg.MCPAddr = flags.MCPAddr
	}
	if flags.StorePath != "" {
		cfg.StorePath = flags.StorePath
	}
	if flags.Images > 0 {
		cfg.ImagesPerIteration = flags.Images
	}
	if flags.Verbose {
		cfg.Verbose = true
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
}
