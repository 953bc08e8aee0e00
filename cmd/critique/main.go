package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/anime-shed/ux-critique-go/internal/capture"
	"github.com/anime-shed/ux-critique-go/internal/capture/filesource"
	"github.com/anime-shed/ux-critique-go/internal/config"
	"github.com/anime-shed/ux-critique-go/internal/container"
	"github.com/anime-shed/ux-critique-go/internal/credentials"
	apperrors "github.com/anime-shed/ux-critique-go/internal/errors"
	"github.com/anime-shed/ux-critique-go/internal/factory"
	"github.com/anime-shed/ux-critique-go/internal/frame"
	"github.com/anime-shed/ux-critique-go/internal/logger"
	"github.com/anime-shed/ux-critique-go/internal/workspace"
	"github.com/anime-shed/ux-critique-go/pkg/models"

	"github.com/sirupsen/logrus"
)

const usage = `Usage: critique <command> [flags]

Commands:
  save-key      -provider openai|google -key SECRET
  use-provider  openai|google
  analyze       -file PATH [-context TEXT]
  watch         -source PATH [-context TEXT]
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		fatal(err)
	}
	logger.Configure(cfg.Logging.Level, "text")
	logger.Logger.SetOutput(os.Stderr)

	creds := credentials.NewFileStore(cfg.CredsFile)
	if err := creds.Load(); err != nil {
		fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	args := os.Args[2:]
	switch os.Args[1] {
	case "save-key":
		err = saveKey(creds, args)
	case "use-provider":
		err = useProvider(creds, args)
	case "analyze":
		err = analyzeFile(ctx, cfg, creds, args)
	case "watch":
		err = watch(ctx, cfg, creds, args, os.Stdin)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		fatal(err)
	}
}

func saveKey(creds *credentials.FileStore, args []string) error {
	fs := flag.NewFlagSet("save-key", flag.ExitOnError)
	providerName := fs.String("provider", "", "provider the key belongs to")
	key := fs.String("key", "", "API key; empty clears the saved key")
	_ = fs.Parse(args)

	provider, err := models.ParseProvider(*providerName)
	if err != nil {
		return err
	}
	if err := creds.Save(models.Credential{Provider: provider, Secret: *key}); err != nil {
		return err
	}
	fmt.Printf("Saved %s key to %s\n", provider, creds.Path())
	return nil
}

func useProvider(creds credentials.Store, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("use-provider takes exactly one provider name")
	}
	provider, err := models.ParseProvider(args[0])
	if err != nil {
		return err
	}
	if err := creds.SelectProvider(provider); err != nil {
		return err
	}
	if cred, ok := creds.Credential(provider); !ok || !cred.Configured() {
		fmt.Printf("Using %s (no key saved yet, run save-key)\n", provider)
		return nil
	}
	fmt.Printf("Using %s\n", provider)
	return nil
}

func newWorkspace(cfg *config.Config, creds credentials.Store, path string, preview capture.PreviewSink) (*workspace.Workspace, error) {
	pipeline, err := container.NewPipeline(cfg, factory.NewComponentFactory(cfg))
	if err != nil {
		return nil, err
	}
	session := capture.NewSession(filesource.New(path, filesource.DefaultPollInterval), preview)
	return workspace.New(session, creds, pipeline), nil
}

// analyzeFile runs a single capture and analysis against an image file
func analyzeFile(ctx context.Context, cfg *config.Config, creds credentials.Store, args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	path := fs.String("file", "", "screenshot to critique (png, jpeg or gif)")
	userContext := fs.String("context", "", "what the screen is for")
	_ = fs.Parse(args)
	if *path == "" {
		return fmt.Errorf("-file is required")
	}

	ws, err := newWorkspace(cfg, creds, *path, nil)
	if err != nil {
		return err
	}
	if err := ws.StartSharing(ctx); err != nil {
		return err
	}
	defer ws.StopSharing()

	_, report, err := ws.Capture()
	if err != nil {
		return err
	}
	warnBlank(report)
	// The frame is kept; the stream is not needed while the provider works
	ws.StopSharing()

	ctx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	defer cancel()
	result, err := ws.Analyze(ctx, *userContext)
	if err != nil {
		return err
	}
	printCards(os.Stdout, result)
	return nil
}

// watch keeps the source shared and critiques a fresh capture on every
// "c" line read from in
func watch(ctx context.Context, cfg *config.Config, creds credentials.Store, args []string, in io.Reader) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	path := fs.String("source", "", "image file kept current by a screen recorder")
	userContext := fs.String("context", "", "what the screen is for")
	_ = fs.Parse(args)
	if *path == "" {
		return fmt.Errorf("-source is required")
	}

	ws, err := newWorkspace(cfg, creds, *path, consolePreview{out: os.Stderr, path: *path})
	if err != nil {
		return err
	}
	if err := ws.StartSharing(ctx); err != nil {
		return err
	}
	defer ws.StopSharing()

	var analyses sync.WaitGroup
	defer analyses.Wait()

	fmt.Fprintln(os.Stderr, "c = capture and critique, s = start sharing again, q = quit")
	lines := bufio.NewScanner(in)
	for lines.Scan() {
		switch strings.TrimSpace(lines.Text()) {
		case "q":
			return nil
		case "s":
			if err := ws.StartSharing(ctx); err != nil {
				report(err)
			}
		case "c", "":
			artifact, quality, err := ws.Capture()
			if err != nil {
				report(err)
				continue
			}
			logger.WithFields(logrus.Fields{
				"artifact_id": artifact.ID,
				"bytes":       len(artifact.Bytes),
				"width":       quality.Width,
				"height":      quality.Height,
			}).Info("Captured frame")
			warnBlank(quality)

			if ws.Pending() {
				fmt.Fprintln(os.Stderr, "Previous analysis is still running; its result will be discarded")
				continue
			}
			analyses.Add(1)
			go func() {
				defer analyses.Done()
				actx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
				defer cancel()
				result, err := ws.Analyze(actx, *userContext)
				if err != nil {
					report(err)
					return
				}
				printCards(os.Stdout, result)
			}()
		}
		if ctx.Err() != nil {
			return nil
		}
	}
	return lines.Err()
}

// consolePreview reports stream lifecycle changes on the terminal
type consolePreview struct {
	out  io.Writer
	path string
}

func (p consolePreview) Attach(capture.Stream) { fmt.Fprintf(p.out, "Sharing %s\n", p.path) }
func (p consolePreview) Detach()               { fmt.Fprintln(p.out, "Sharing stopped") }

func warnBlank(r frame.Report) {
	if !r.Blank {
		return
	}
	if r.Dark {
		fmt.Fprintln(os.Stderr, "Warning: the captured frame is black; the window may be protected from capture")
		return
	}
	fmt.Fprintln(os.Stderr, "Warning: the captured frame is a single flat color")
}

func report(err error) {
	if errors.Is(err, workspace.ErrStaleResult) {
		fmt.Fprintln(os.Stderr, "Discarded the result for an older capture")
		return
	}
	fmt.Fprintln(os.Stderr, describe(err))
}

func describe(err error) string {
	if appErr, ok := apperrors.As(err); ok {
		if appErr.Type == apperrors.ErrorTypeMalformedResponse && appErr.Details != "" {
			return fmt.Sprintf("Error: %s\n  reply began: %s", appErr.Message, appErr.Details)
		}
		return "Error: " + appErr.Message
	}
	return "Error: " + err.Error()
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, describe(err))
	os.Exit(1)
}
