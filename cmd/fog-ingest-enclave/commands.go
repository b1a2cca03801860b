// Copyright 2024 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.


package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/mccoysc/fog-ingest/buildinfo"
	"github.com/mccoysc/fog-ingest/types"
	"github.com/rs/cors"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

var (
	runCommand = &cli.Command{
		Name:   "run",
		Usage:  "Initialize the enclave and serve JSON-RPC",
		Action: runEnclave,
	}
	ingestCommand = &cli.Command{
		Name:      "ingest",
		Usage:     "Ingest a JSON chunk file and print the resulting records",
		ArgsUsage: "<chunk.json>",
		Action:    ingestFile,
	}
	keysCommand = &cli.Command{
		Name:   "keys",
		Usage:  "Print the ingress public key and the egress announcement",
		Action: printKeys,
	}
	buildInfoCommand = &cli.Command{
		Name:   "buildinfo",
		Usage:  "Print build information",
		Action: printBuildInfo,
	}
	dumpConfigCommand = &cli.Command{
		Name:   "dumpconfig",
		Usage:  "Print the effective configuration as TOML",
		Action: dumpConfig,
	}
)

const shutdownTimeout = 5 * time.Second

func runEnclave(ctx *cli.Context) error {
	cfg, flush, err := prepare(ctx)
	if err != nil {
		return err
	}
	defer flush()

	n, err := newNode(cfg, nil)
	if err != nil {
		return err
	}
	defer n.Close()
	server := rpc.NewServer()
	defer server.Stop()
	if err := buildinfo.Register(server, n.logger); err != nil {
		return err
	}
	if err := registerAPIs(server, n); err != nil {
		return err
	}

	listener, err := net.Listen("tcp", net.JoinHostPort(cfg.RPC.Host, strconv.Itoa(cfg.RPC.Port)))
	if err != nil {
		return err
	}
	httpServer := &http.Server{
		Handler:           newCorsHandler(server, cfg.RPC.CORSDomains),
		ReadHeaderTimeout: 10 * time.Second,
	}

	pub, err := n.enclave.IngressPublicKey()
	if err != nil {
		listener.Close()
		return err
	}
	log.Info("Ingest enclave serving JSON-RPC", "addr", listener.Addr(), "ingress", pub)

	sigctx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(sigctx)
	g.Go(func() error {
		if err := httpServer.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newCorsHandler(srv http.Handler, allowedOrigins []string) http.Handler {
	if len(allowedOrigins) == 0 {
		return srv
	}
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodPost, http.MethodGet},
		AllowedHeaders: []string{"*"},
		MaxAge:         600,
	})
	return c.Handler(srv)
}

func ingestFile(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("expected one chunk file, got %d arguments", ctx.NArg())
	}
	data, err := os.ReadFile(ctx.Args().First())
	if err != nil {
		return err
	}
	var chunk types.TxsForIngest
	if err := json.Unmarshal(data, &chunk); err != nil {
		return fmt.Errorf("failed to parse chunk: %w", err)
	}

	cfg, flush, err := prepare(ctx)
	if err != nil {
		return err
	}
	defer flush()
	n, err := newNode(cfg, nil)
	if err != nil {
		return err
	}
	defer n.Close()
	res, err := (&IngestAPI{n: n}).IngestTxs(chunk)
	if err != nil {
		return err
	}
	return writeJSON(ctx, res)
}

func printKeys(ctx *cli.Context) error {
	cfg, flush, err := prepare(ctx)
	if err != nil {
		return err
	}
	defer flush()
	n, err := newNode(cfg, nil)
	if err != nil {
		return err
	}
	defer n.Close()
	api := &IngestAPI{n: n}
	ingress, err := api.IngressPublicKey()
	if err != nil {
		return err
	}
	kex, err := api.KexRngPubkey()
	if err != nil {
		return err
	}
	return writeJSON(ctx, map[string]any{
		"ingressPublicKey": ingress,
		"kexRngPubkey":     kex,
	})
}

func printBuildInfo(ctx *cli.Context) error {
	return writeJSON(ctx, buildinfo.Get())
}

func dumpConfig(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	out, err := cfg.Marshal()
	if err != nil {
		return err
	}
	_, err = ctx.App.Writer.Write(out)
	return err
}

func writeJSON(ctx *cli.Context, v any) error {
	enc := json.NewEncoder(ctx.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
