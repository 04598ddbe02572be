package main

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ayusman/whirling/internal/action"
	"github.com/ayusman/whirling/internal/app"
	"github.com/ayusman/whirling/internal/server"
	"github.com/ayusman/whirling/internal/trace"
	"github.com/ayusman/whirling/internal/tray"
)

type runOptions struct {
	configPath string
	addr       string
	camera     int
	tracePath  string
	tray       bool
}

func newRunCmd() *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Capture the camera, track the hand and serve the orbit UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(cmd, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "configuration file (.json)")
	cmd.Flags().StringVar(&opts.addr, "addr", "", "HTTP listen address (overrides config)")
	cmd.Flags().IntVar(&opts.camera, "camera", 0, "camera device id (overrides config)")
	cmd.Flags().StringVar(&opts.tracePath, "trace", "", "record the session to this sqlite file")
	cmd.Flags().BoolVar(&opts.tray, "tray", false, "show a system tray menu")
	return cmd
}

func runApp(cmd *cobra.Command, opts runOptions) error {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.Server.Addr = opts.addr
	}
	if flags.Changed("camera") {
		cfg.Camera.DeviceID = opts.camera
	}
	if flags.Changed("trace") {
		cfg.Trace.Path = opts.tracePath
	}

	var st *trace.Store
	if cfg.Trace.Path != "" {
		st, err = trace.Open(cfg.Trace.Path)
		if err != nil {
			return fmt.Errorf("failed to open trace: %w", err)
		}
		defer st.Close()
	}

	a, err := app.New(app.Options{Config: cfg, Trace: st})
	if err != nil {
		return err
	}
	defer a.Stop()
	if err := a.Start(); err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}

	webDir := findWebDir(cfg.Server.StaticDir)
	if webDir != "" {
		log.Printf("Serving static files from: %s", webDir)
	}
	srv := server.New(server.Config{
		StaticDir: webDir,
		Session:   a.Session(),
		Feed:      a.Feed(),
		Detection: a,
		Frames:    a.Frames(),
		Trace:     st,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("Starting server on %s", cfg.Server.Addr)
	if !opts.tray {
		return srv.ListenAndServe(ctx, cfg.Server.Addr)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(ctx, cfg.Server.Addr) }()

	t := newTray(a, uiURL(cfg.Server.Addr), stop)
	go func() {
		<-ctx.Done()
		t.Quit()
	}()
	t.Run()

	stop()
	return <-errCh
}

// newTray wires the tray menu to the running app.
func newTray(a *app.App, url string, quit func()) *tray.Tray {
	t := tray.New()
	t.SetKeepActive(a.Feed().Config().KeepActiveWithoutHand)
	t.OnToggle(a.SetEnabled)
	t.OnKeepActive(a.Feed().SetKeepActive)
	t.OnReset(a.Session().Reset)
	t.OnOpen(func() {
		if err := openBrowser(url); err != nil {
			log.Printf("Failed to open %s: %v", url, err)
		}
	})
	t.OnQuit(quit)
	a.OnSelection(func(sel action.Selection) {
		t.SetLastSelection(sel.Label)
	})
	return t
}

func uiURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/"
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

// findWebDir returns preferred if it is a directory, otherwise the first
// of "web", "../web", "../../web" and ~/.whirling/web that exists.
// Returns an empty string if none is found.
func findWebDir(preferred string) string {
	candidates := []string{"web", "../web", "../../web"}
	if preferred != "" {
		candidates = append([]string{preferred}, candidates...)
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(homeDir, ".whirling", "web"))
	}

	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if absPath, err := filepath.Abs(p); err == nil {
				return absPath
			}
			return p
		}
	}
	return ""
}
