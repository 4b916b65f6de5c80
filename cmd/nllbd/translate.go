package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"nllbd/internal/rpcapi"
	"nllbd/pkg/types"
)

type translateFlags struct {
	addr      string
	transport string
	srcLang   string
	tgtLang   string
	apiKey    string
	timeout   time.Duration
}

func newTranslateCmd(st *cliState) *cobra.Command {
	f := &translateFlags{}
	cmd := &cobra.Command{
		Use:   "translate [text...]",
		Short: "Send texts to a running server; reads lines from stdin when no text is given",
		RunE: func(cmd *cobra.Command, args []string) error {
			sources := args
			if len(sources) == 0 {
				var err error
				if sources, err = readLines(cmd.InOrStdin()); err != nil {
					return err
				}
			}
			cfg := st.cfg
			if !cmd.Flags().Changed("transport") {
				f.transport = cfg.Transport
			}
			if !cmd.Flags().Changed("addr") {
				f.addr = dialAddr(cfg.Host, cfg.Port)
			}
			if !cmd.Flags().Changed("api-key") {
				f.apiKey = cfg.APIKey
			}
			req := types.TranslateRequest{Sources: sources, SrcLang: f.srcLang, TgtLang: f.tgtLang}

			ctx, cancel := context.WithTimeout(cmd.Context(), f.timeout)
			defer cancel()
			var (
				resp types.TranslateResponse
				err  error
			)
			if f.transport == "grpc" {
				resp, err = translateGRPC(ctx, f, req)
			} else {
				resp, err = translateHTTP(ctx, f, req)
			}
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, t := range resp.Translations {
				fmt.Fprintln(out, t)
			}
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.addr, "addr", "", "Server host:port (default from HOST and PORT)")
	fl.StringVar(&f.transport, "transport", "http", "Protocol: http|grpc")
	fl.StringVar(&f.srcLang, "src", "", "Source language (FLORES-200 tag or ISO alias)")
	fl.StringVar(&f.tgtLang, "tgt", "", "Target language (FLORES-200 tag or ISO alias)")
	fl.StringVar(&f.apiKey, "api-key", "", "Bearer token (default NLLB_API_KEY)")
	fl.DurationVar(&f.timeout, "timeout", 60*time.Second, "Request timeout")
	return cmd
}

// dialAddr turns a listen address into one a client can reach.
func dialAddr(host string, port int) string {
	switch host {
	case "", "::", "0.0.0.0":
		host = "localhost"
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		if s := strings.TrimRight(sc.Text(), "\r"); s != "" {
			lines = append(lines, s)
		}
	}
	return lines, sc.Err()
}

func translateHTTP(ctx context.Context, f *translateFlags, req types.TranslateRequest) (types.TranslateResponse, error) {
	var (
		out  types.TranslateResponse
		fail types.ErrorResponse
	)
	r := resty.New().R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		SetError(&fail)
	if f.apiKey != "" {
		r.SetAuthToken(f.apiKey)
	}
	resp, err := r.Post("http://" + f.addr + "/translate")
	if err != nil {
		return out, err
	}
	if resp.IsError() {
		if fail.Error != "" {
			return out, fmt.Errorf("server: %d %s", resp.StatusCode(), fail.Error)
		}
		return out, fmt.Errorf("server: %s", resp.Status())
	}
	return out, nil
}

func translateGRPC(ctx context.Context, f *translateFlags, req types.TranslateRequest) (types.TranslateResponse, error) {
	conn, err := grpc.NewClient(f.addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return types.TranslateResponse{}, err
	}
	defer conn.Close()
	return rpcapi.NewClient(conn, f.apiKey).Translate(ctx, req)
}
