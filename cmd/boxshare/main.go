package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/alphabot-ai/boxshare/internal/assets"
	"github.com/alphabot-ai/boxshare/internal/auth"
	"github.com/alphabot-ai/boxshare/internal/client"
	"github.com/alphabot-ai/boxshare/internal/config"
	httpapp "github.com/alphabot-ai/boxshare/internal/http"
	"github.com/alphabot-ai/boxshare/internal/logging"
	"github.com/alphabot-ai/boxshare/internal/model"
	"github.com/alphabot-ai/boxshare/internal/rate"
	"github.com/alphabot-ai/boxshare/internal/store"
	"github.com/alphabot-ai/boxshare/internal/store/jsonfile"
	"github.com/alphabot-ai/boxshare/internal/store/memory"
	"github.com/alphabot-ai/boxshare/internal/store/sqlite"
)

const defaultURL = "http://localhost:3000"

func main() {
	if len(os.Args) < 2 {
		runServer()
		return
	}

	cmd := os.Args[1]

	if cmd == "-h" || cmd == "--help" || cmd == "help" {
		printUsage()
		return
	}

	if cmd == "-v" || cmd == "--version" || cmd == "version" {
		fmt.Printf("boxshare %s (commit %s, built %s)\n", config.Version, config.Commit, config.BuildTime)
		return
	}

	if strings.HasPrefix(cmd, "-") {
		runServer()
		return
	}

	args := os.Args[2:]

	switch cmd {
	case "server", "serve":
		runServer()
	case "upload", "share":
		cmdUpload(args)
	case "random", "open":
		cmdRandom(args)
	case "flag", "report":
		cmdFlag(args)
	case "flagged":
		cmdFlagged(args)
	case "unflag":
		cmdUnflag(args)
	case "delete", "rm":
		cmdDelete(args)
	case "stats":
		cmdStats(args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`boxshare - Share mystery boxes of images, audio and code

Usage: boxshare <command> [options]

Client Commands:
  upload              Share a new box (file or code snippet)
  random              Open a random box
  flag <id>           Report a box for review
  stats               Show collection counters

Admin Commands (need BOXSHARE_ADMIN_SECRET or --secret <secret>):
  flagged             List boxes awaiting review
  unflag <id>         Clear the flag on a box
  delete <id>         Remove a box and its file

Server:
  server              Start the boxshare server (default if no command)

Examples:
  boxshare upload --title "Sunset" --type image --file sunset.jpg
  boxshare upload --title "Hello" --type code --code 'fmt.Println("hi")'
  boxshare random
  boxshare flag 2b7e1516-28ae-4d2a-a6d2-abf715880912

Environment Variables (client):
  BOXSHARE_URL              Server URL (default: http://localhost:3000)
  BOXSHARE_ADMIN_SECRET     Admin secret for moderation commands

Environment Variables (server):
  PORT / BOXSHARE_ADDR      Listen port or address (default: :3000)
  BOXSHARE_ADMIN_SECRET     Admin secret (falls back to ADMIN_PASSWORD)
  BOXSHARE_STORE            json, sqlite or memory (default: json)
  BOXSHARE_DATA             Snapshot path (default: boxes.json)
  BOXSHARE_ASSETS           disk or s3 (default: disk)
  BOXSHARE_UPLOADS          Upload directory (default: uploads)
  BOXSHARE_S3_BUCKET        S3 bucket, plus _REGION, _ENDPOINT, _ACCESS_KEY, _SECRET_KEY, _PREFIX
  BOXSHARE_REDIS_URL        Shared rate limiter (default: in-memory)
  BOXSHARE_TRUST_PROXY      Key rate limits on X-Forwarded-For (default: false)
  BOXSHARE_RL_UPLOAD_PER_MIN Uploads per minute per IP (default: 10)
  BOXSHARE_RL_FLAG_PER_MIN  Flags per minute per IP (default: 30)
  BOXSHARE_MAX_UPLOAD       Max upload size in bytes (default: 10485760)
  BOXSHARE_LOG_LEVEL        Log level (default: info)
  BOXSHARE_LOG_FORMAT       text or json (default: text)`)
}

// ============================================================================
// SERVER
// ============================================================================

func runServer() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	ctx := context.Background()

	snap, closeSnap, err := openSnapshot(cfg.Store)
	if err != nil {
		log.WithError(err).Fatal("failed to open store")
	}
	defer closeSnap()

	assetStore, err := openAssets(ctx, cfg.Assets)
	if err != nil {
		log.WithError(err).Fatal("failed to open asset storage")
	}

	boxes, err := store.Open(ctx, snap, store.WithAssets(assetStore), store.WithLogger(log))
	if err != nil {
		log.WithError(err).Fatal("failed to load boxes")
	}

	limiter, closeLimiter, err := openLimiter(cfg.RedisURL, log)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to redis")
	}
	defer closeLimiter()

	admin := auth.NewAdminGate(cfg.AdminSecret)
	if !admin.Enabled() {
		log.Warn("no admin secret configured, moderation endpoints are disabled")
	}

	server := httpapp.NewServer(boxes, assetStore, admin, limiter, cfg, log)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{
			"addr":   cfg.Addr,
			"store":  cfg.Store.Driver,
			"assets": cfg.Assets.Driver,
		}).Info("boxshare listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server error")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)
}

func openSnapshot(cfg config.StoreConfig) (store.Snapshotter, func(), error) {
	switch cfg.Driver {
	case "", "json":
		return jsonfile.New(cfg.Path), func() {}, nil
	case "sqlite":
		snap, err := sqlite.Open(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return snap, func() { _ = snap.Close() }, nil
	case "memory":
		return memory.New(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func openAssets(ctx context.Context, cfg config.AssetConfig) (assets.Storage, error) {
	switch cfg.Driver {
	case "", "disk":
		disk, err := assets.NewDisk(cfg.Dir)
		if err != nil {
			return nil, err
		}
		return disk, nil
	case "s3":
		s3, err := assets.DialS3(ctx, assets.S3Config{
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			KeyPrefix: cfg.KeyPrefix,
		})
		if err != nil {
			return nil, err
		}
		return s3, nil
	default:
		return nil, fmt.Errorf("unknown asset driver %q", cfg.Driver)
	}
}

func openLimiter(redisURL string, log logrus.FieldLogger) (rate.Limiter, func(), error) {
	if redisURL == "" {
		return rate.NewMemory(), func() {}, nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, nil, err
	}
	rdb := redis.NewClient(opts)
	return rate.NewRedis(rdb, "boxshare:rl:", log), func() { _ = rdb.Close() }, nil
}

// ============================================================================
// CLIENT COMMANDS
// ============================================================================

func cmdUpload(args []string) {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	title := fs.String("title", "", "Box title (required)")
	author := fs.String("author", "", "Author name")
	boxType := fs.String("type", "", "Box type: image, audio or code (required)")
	code := fs.String("code", "", "Code snippet for code boxes")
	file := fs.String("file", "", "Path of the file to share")
	fs.Parse(args)

	if *title == "" || *boxType == "" {
		fmt.Fprintln(os.Stderr, "Error: --title and --type are required")
		fmt.Fprintln(os.Stderr, "Usage: boxshare upload --title <title> --type <image|audio|code> [--file <path>] [--code <snippet>]")
		os.Exit(1)
	}

	in := client.Upload{
		Title:  *title,
		Author: *author,
		Type:   model.BoxType(*boxType),
		Code:   *code,
	}
	if *file != "" {
		f, err := os.Open(*file)
		if err != nil {
			fatalf("Error opening file: %v", err)
		}
		defer f.Close()
		in.File = f
		in.FileName = filepath.Base(*file)
	}

	box, err := newClient().Upload(context.Background(), in)
	if err != nil {
		fatalf("Error uploading: %v", err)
	}
	fmt.Printf("✓ Shared box %s\n", box.ID)
	printBox(box)
}

func cmdRandom(args []string) {
	fs := flag.NewFlagSet("random", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "Print the box as JSON")
	fs.Parse(args)

	box, err := newClient().RandomBox(context.Background())
	if err != nil {
		fatalf("Error: %v", err)
	}
	if *asJSON {
		printJSON(box)
		return
	}
	printBox(box)
}

func cmdFlag(args []string) {
	id := requireID("flag", args)
	if err := newClient().Flag(context.Background(), id); err != nil {
		fatalf("Error flagging: %v", err)
	}
	fmt.Printf("✓ Flagged box %s\n", id)
}

func cmdFlagged(args []string) {
	c, _ := newAdminClient("flagged", args)
	boxes, err := c.ListFlagged(context.Background())
	if err != nil {
		fatalf("Error: %v", err)
	}
	if len(boxes) == 0 {
		fmt.Println("No flagged boxes.")
		return
	}
	for i := range boxes {
		printBox(&boxes[i])
		fmt.Println()
	}
}

func cmdUnflag(args []string) {
	c, rest := newAdminClient("unflag", args)
	id := requireID("unflag", rest)
	if err := c.Unflag(context.Background(), id); err != nil {
		fatalf("Error unflagging: %v", err)
	}
	fmt.Printf("✓ Unflagged box %s\n", id)
}

func cmdDelete(args []string) {
	c, rest := newAdminClient("delete", args)
	id := requireID("delete", rest)
	if err := c.Delete(context.Background(), id); err != nil {
		fatalf("Error deleting: %v", err)
	}
	fmt.Printf("✓ Deleted box %s\n", id)
}

func cmdStats(args []string) {
	stats, err := newClient().Stats(context.Background())
	if err != nil {
		fatalf("Error: %v", err)
	}
	fmt.Printf("Total:     %d\n", stats.Total)
	fmt.Printf("Flagged:   %d\n", stats.Flagged)
	fmt.Printf("Available: %d\n", stats.Available)
}

// ============================================================================
// HELPERS
// ============================================================================

func newClient() *client.Client {
	baseURL := os.Getenv("BOXSHARE_URL")
	if baseURL == "" {
		baseURL = defaultURL
	}
	return client.New(baseURL)
}

// newAdminClient parses --secret and returns the positional args.
func newAdminClient(name string, args []string) (*client.Client, []string) {
	secret, rest, err := parseAdminArgs(name, args, os.Getenv("BOXSHARE_ADMIN_SECRET"))
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		os.Exit(2)
	}
	if secret == "" {
		fatalf("Error: admin secret required (set BOXSHARE_ADMIN_SECRET or pass --secret)")
	}
	c := newClient()
	c.AdminSecret = secret
	return c, rest
}

// parseAdminArgs accepts flags before or after the box id.
func parseAdminArgs(name string, args []string, defaultSecret string) (string, []string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	secret := fs.String("secret", defaultSecret, "Admin secret")

	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return "", nil, err
		}
		if fs.NArg() == 0 {
			break
		}
		positional = append(positional, fs.Arg(0))
		args = fs.Args()[1:]
	}
	return *secret, positional, nil
}

func requireID(name string, args []string) string {
	for _, arg := range args {
		if !strings.HasPrefix(arg, "-") {
			return arg
		}
	}
	fmt.Fprintf(os.Stderr, "Error: box id is required\nUsage: boxshare %s <id>\n", name)
	os.Exit(1)
	return ""
}

func printBox(box *model.Box) {
	fmt.Printf("%s [%s]\n", box.Title, box.Type)
	if box.Author != "" {
		fmt.Printf("  by %s\n", box.Author)
	}
	fmt.Printf("  id:      %s\n", box.ID)
	fmt.Printf("  created: %s\n", box.CreatedAt.Local().Format(time.DateTime))
	if box.FilePath != "" {
		fmt.Printf("  file:    %s%s\n", strings.TrimRight(newClient().BaseURL, "/"), box.FilePath)
	}
	if box.Code != "" {
		fmt.Println("  ---")
		for _, line := range strings.Split(box.Code, "\n") {
			fmt.Printf("  %s\n", line)
		}
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
