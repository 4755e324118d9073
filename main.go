// Command tulisin runs the Tulis.in rewrite service. It can serve the
// HTTP API, run a one-shot rewrite from the command line, or seed the
// local database with demo data.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/gin-gonic/gin"

	"github.com/galiihajiip/tulis.in/config"
	"github.com/galiihajiip/tulis.in/engine"
	"github.com/galiihajiip/tulis.in/logger"
	"github.com/galiihajiip/tulis.in/metrics"
	"github.com/galiihajiip/tulis.in/provider"
	"github.com/galiihajiip/tulis.in/server"
	"github.com/galiihajiip/tulis.in/store"
	"github.com/galiihajiip/tulis.in/types"
)

var cli struct {
	Serve   serveCmd   `cmd:"" default:"1" help:"Run the HTTP API server."`
	Rewrite rewriteCmd `cmd:"" help:"Rewrite text from stdin or an argument and print the result as JSON."`
	Seed    seedCmd    `cmd:"" help:"Seed the database with demo data."`
}

type serveCmd struct{}

type rewriteCmd struct {
	Text        string   `arg:"" optional:"" help:"Text to rewrite; reads stdin when omitted."`
	Mode        string   `help:"Rewrite mode." enum:"concise,formal,casual,academic,standardized," default:""`
	Tone        int      `help:"Tone level 1-5."`
	Readability int      `help:"Readability level 1-5."`
	Strictness  string   `help:"Validation strictness." enum:"low,medium,high," default:""`
	Glossary    []string `help:"Terms to protect from rewriting."`
}

type seedCmd struct{}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("tulisin"),
		kong.Description("AI-assisted paraphrasing service."))
	if err := ctx.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "tulisin: %v\n", err)
		os.Exit(1)
	}
}

func initLogger(cfg *config.Config) (*logger.Logger, error) {
	out := os.Stderr
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_RDWR, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		out = f
	}
	return logger.Init(out, logger.ParseLevel(cfg.LogLevel)), nil
}

func buildEngine(cfg *config.Config) (*engine.Engine, error) {
	pcfg := types.ProviderConfig{
		BaseURL:     cfg.BaseURL,
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		TimeoutMs:   cfg.TimeoutMs,
	}
	var p types.Provider
	switch cfg.Provider {
	case config.ProviderGroq:
		p = provider.NewGroq(pcfg)
	default:
		p = provider.NewOpenAI(pcfg)
	}
	return engine.New(p)
}

func (c *serveCmd) Run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := initLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Close()

	eng, err := buildEngine(cfg)
	if err != nil {
		return err
	}
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	gin.SetMode(gin.ReleaseMode)
	srv := server.New(eng, st, metrics.NewTracker())
	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: srv.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening on %s (provider %s)", httpSrv.Addr, cfg.Provider)
		errCh <- httpSrv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("received %s, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

func (c *rewriteCmd) Run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := initLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Close()

	text := c.Text
	if text == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		text = string(data)
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("no text to rewrite")
	}

	eng, err := buildEngine(cfg)
	if err != nil {
		return err
	}

	params := types.RewriteParams{
		Mode:        types.RewriteMode(c.Mode),
		Tone:        c.Tone,
		Readability: c.Readability,
		Strictness:  types.Strictness(c.Strictness),
		Glossary:    c.Glossary,
	}
	result, err := eng.Rewrite(context.Background(), text, params)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func (c *seedCmd) Run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Seed(); err != nil {
		return err
	}
	fmt.Println("seeded demo data")
	return nil
}
