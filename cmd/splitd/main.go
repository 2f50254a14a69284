package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	weave "github.com/iov-one/weave-splitter"
	"github.com/iov-one/weave-splitter/app"
	splitapp "github.com/iov-one/weave-splitter/cmd/splitd/app"
	"github.com/iov-one/weave-splitter/cmd/splitd/handlers"
	"github.com/tendermint/tendermint/libs/log"
)

var (
	varHome        *string
	varHTTP        *string
	varChainID     *string
	varGenesis     *string
	varLogLevel    *string
	varCORSOrigins *string
	varIssuer      *string
)

func init() {
	defaultHome := filepath.Join(os.ExpandEnv("$HOME"), ".splitd")
	varHome = flag.String("home", env("SPLITD_HOME", defaultHome), "directory to store files under")
	varHTTP = flag.String("http", env("SPLITD_HTTP", ":8000"), "address the HTTP API listens on")
	varChainID = flag.String("chain-id", env("SPLITD_CHAIN_ID", ""), "chain ID, must match the genesis file when set")
	varGenesis = flag.String("genesis", env("SPLITD_GENESIS", ""), "genesis file (default \"<home>/genesis.json\")")
	varLogLevel = flag.String("log-level", env("SPLITD_LOG_LEVEL", "info"), "one of debug, info, error or none")
	varCORSOrigins = flag.String("cors-origins", env("SPLITD_CORS_ORIGINS", ""), "comma separated origins allowed to call the API")
	varIssuer = flag.String("issuer", env("SPLITD_ISSUER", ""), "address allowed to register and issue tokens")

	flag.CommandLine.Usage = helpMessage
}

func env(name, fallback string) string {
	if v, ok := os.LookupEnv(name); ok {
		return v
	}
	return fallback
}

func helpMessage() {
	fmt.Fprintln(os.Stderr, "splitd")
	fmt.Fprintln(os.Stderr, "        Proportional distribution ledger")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "help    Print this message")
	fmt.Fprintln(os.Stderr, "init    Write an empty genesis file")
	fmt.Fprintln(os.Stderr, "start   Run the ledger and its HTTP API")
	fmt.Fprintln(os.Stderr, "version Print the app version")
	fmt.Fprintln(os.Stderr, "")
	flag.PrintDefaults()
}

func main() {
	flag.Parse()
	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Missing command:")
		helpMessage()
		os.Exit(1)
	}

	logger, err := newLogger(*varLogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	cmd := flag.Arg(0)
	switch cmd {
	case "help":
		helpMessage()
	case "init":
		err = initCmd(genesisPath(), *varChainID)
	case "start":
		err = startCmd(logger)
	case "version":
		fmt.Println(weave.Version())
	default:
		err = fmt.Errorf("unknown command: %s", cmd)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %+v\n\n", err)
		os.Exit(1)
	}
}

func newLogger(level string) (log.Logger, error) {
	logger := log.NewTMLogger(log.NewSyncWriter(os.Stdout)).With("module", "splitd")
	opt, err := log.AllowLevel(level)
	if err != nil {
		return nil, err
	}
	return log.NewFilter(logger, opt), nil
}

func genesisPath() string {
	if *varGenesis != "" {
		return *varGenesis
	}
	return filepath.Join(*varHome, "genesis.json")
}

// initCmd writes a genesis file with all extension sections empty. An
// existing file is never overwritten.
func initCmd(path, chainID string) error {
	if chainID == "" {
		return fmt.Errorf("chain-id is required")
	}
	if !weave.IsValidChainID(chainID) {
		return fmt.Errorf("invalid chain ID %q", chainID)
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("genesis file %q already exists", path)
	}

	genesis := map[string]interface{}{
		"chain_id":  chainID,
		"app_state": map[string]interface{}{
			"cash":         []interface{}{},
			"token":        map[string]interface{}{"tokens": []interface{}{}, "holdings": []interface{}{}},
			"distribution": []interface{}{},
		},
	}
	raw, err := json.MarshalIndent(genesis, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0600)
}

func startCmd(logger log.Logger) error {
	gen, err := app.LoadGenesis(genesisPath())
	if err != nil {
		return err
	}
	if *varChainID != "" && *varChainID != gen.ChainID {
		return fmt.Errorf("chain ID %q does not match genesis %q", *varChainID, gen.ChainID)
	}

	var issuer weave.Address
	if *varIssuer != "" {
		issuer, err = weave.ParseAddress(*varIssuer)
		if err != nil {
			return fmt.Errorf("issuer: %s", err)
		}
		if err := issuer.Validate(); err != nil {
			return fmt.Errorf("issuer: %s", err)
		}
	}

	kv, err := splitapp.CommitKVStore(*varHome)
	if err != nil {
		return err
	}
	defer kv.Close()

	ledger := splitapp.Application(kv, issuer, logger.With("module", "ledger"))
	if err := ledger.InitChain(gen.ChainID, gen.AppState, splitapp.Initializers()); err != nil {
		return err
	}

	var origins []string
	for _, o := range strings.Split(*varCORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	srv := &http.Server{
		Addr:              *varHTTP,
		Handler:           handlers.NewRouter(ledger, origins, logger.With("module", "http")),
		ReadHeaderTimeout: 10 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	failed := make(chan error, 1)
	go func() {
		logger.Info("HTTP server started", "addr", *varHTTP, "chain", gen.ChainID)
		failed <- srv.ListenAndServe()
	}()

	select {
	case err := <-failed:
		return fmt.Errorf("http server: %s", err)
	case sig := <-stop:
		logger.Info("Shutting down", "signal", sig.String())
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
