package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"http-engine/application/http"
	"http-engine/application/http/actor/client"
	"http-engine/application/http/cache"
	"http-engine/config"
	"http-engine/logging"
	"http-engine/transport/tcp"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type fetchFlags struct {
	target   string
	headers  []string
	noFollow bool
	// repeat sends the request again over one kept-alive connection,
	// which exercises conditional revalidation.
	repeat int
}

func (f *fetchFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.target, "target", "", "host:port to connect to (overrides client.target)")
	cmd.Flags().StringArrayVarP(&f.headers, "header", "H", nil, `extra request header, "Name: value"`)
	cmd.Flags().BoolVar(&f.noFollow, "no-follow", false, "do not follow redirects")
	cmd.Flags().IntVar(&f.repeat, "repeat", 1, "number of times to send the request on one connection")
}

func newGetCmd(load func() (*config.Config, error)) *cobra.Command {
	var flags fetchFlags

	cmd := &cobra.Command{
		Use:   "get <path>",
		Short: "Send a GET request and print the response",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			return fetch(cmd.Context(), cmd.OutOrStdout(), cfg, flags, http.NewRequest(http.MethodGet, args[0], nil))
		},
	}
	flags.register(cmd)

	return cmd
}

func newPostCmd(load func() (*config.Config, error)) *cobra.Command {
	var (
		flags       fetchFlags
		data        string
		contentType string
	)

	cmd := &cobra.Command{
		Use:   "post <path>",
		Short: "Send a POST request and print the response",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			req := http.NewRequest(http.MethodPost, args[0], []byte(data))
			req.Headers.Set("Content-Type", contentType)

			return fetch(cmd.Context(), cmd.OutOrStdout(), cfg, flags, req)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&data, "data", "d", "", "request body")
	cmd.Flags().StringVar(&contentType, "content-type", "application/x-www-form-urlencoded", "Content-Type of the body")

	return cmd
}

func fetch(ctx context.Context, out io.Writer, cfg *config.Config, flags fetchFlags, req *http.Request) error {
	logger := logging.Setup(logging.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty, Output: os.Stderr})

	if flags.target != "" {
		cfg.Client.Target = flags.target
	}

	for _, h := range flags.headers {
		name, value, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return errors.Errorf("malformed header %q", h)
		}
		req.Headers.Set(strings.TrimSpace(name), strings.TrimSpace(value))
	}

	opts := clientOptions(cfg.Client)
	if flags.noFollow {
		opts.FollowRedirects = false
	}

	clk := clock.New()
	c := client.New(
		cfg.Client.Target,
		tcp.Dialer{Timeout: cfg.Client.DialTimeout},
		cache.New(cfg.Client.CacheTTL, clk),
		logging.Component(logger, "client"),
		clk,
		opts,
	)

	sess, err := c.Connect(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	for i := 0; i < max(flags.repeat, 1); i++ {
		res, err := sess.Send(ctx, req)
		if err != nil {
			return err
		}

		if i > 0 {
			fmt.Fprintln(out)
		}
		if _, err := out.Write(http.SerializeResponse(*res)); err != nil {
			return errors.Wrap(err, "printing response")
		}
		fmt.Fprintln(out)
	}

	return nil
}

func clientOptions(cfg config.ClientConfig) client.Options {
	opts := client.DefaultOptions()

	opts.FollowRedirects = cfg.FollowRedirects
	opts.Timeout.DialTimeout = cfg.DialTimeout
	opts.Timeout.ReadTimeout = cfg.ReadTimeout
	if cfg.UserAgent != "" {
		opts.UserAgent = cfg.UserAgent
	}

	return opts
}
