package servecmder

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/tapechat/pkg/logger"
	"github.com/papercomputeco/tapechat/server"
)

const serveLongDesc string = `Run a local development chat server.

Serves POST /api/v1/chat, GET /api/v1/history/:user_id and GET /health.
Arithmetic messages are answered by a calculator tool; anything else is
echoed back. Conversations are recorded per user.

Flags fall back to environment variables, which may also be set in a
.env file:
  TAPECHAT_LISTEN, TAPECHAT_AUTH_TOKEN, TAPECHAT_DB, TAPECHAT_RATE_LIMIT

Examples:
  tapechat serve
  tapechat serve --auth-token secret --db ~/.tapechat/server.db`

const serveShortDesc string = "Run a local development chat server"

type serveCommander struct {
	listen    string
	authToken string
	dbPath    string
	rateLimit int
	envFile   string
	debug     bool
}

func NewServeCmd() *cobra.Command {
	cmd, _ := newServeCmd()
	return cmd
}

func newServeCmd() (*cobra.Command, *serveCommander) {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := cmder.config(cmd)
			if err != nil {
				return err
			}
			return cmder.run(config)
		},
	}

	cmd.Flags().StringVarP(&cmder.listen, "listen", "l", ":8000", "Address to listen on")
	cmd.Flags().StringVar(&cmder.authToken, "auth-token", "", "Require this bearer token on chat requests")
	cmd.Flags().StringVar(&cmder.dbPath, "db", "", "Path to SQLite database (default: in-memory)")
	cmd.Flags().IntVar(&cmder.rateLimit, "rate-limit", 10, "Chat requests per second per client (0 disables)")
	cmd.Flags().StringVar(&cmder.envFile, "env-file", ".env", "Environment file to load")
	cmd.Flags().BoolVar(&cmder.debug, "debug", false, "Enable debug logging")

	return cmd, cmder
}

// config merges flags with the environment. Explicit flags win.
func (c *serveCommander) config(cmd *cobra.Command) (server.Config, error) {
	if err := godotenv.Load(c.envFile); err != nil {
		// A missing default .env is normal; a missing explicit one is not.
		if !errors.Is(err, fs.ErrNotExist) || cmd.Flags().Changed("env-file") {
			return server.Config{}, fmt.Errorf("could not load %s: %w", c.envFile, err)
		}
	}

	flags := cmd.Flags()
	config := server.Config{
		ListenAddr: c.listen,
		AuthToken:  c.authToken,
		DBPath:     c.dbPath,
		RateLimit:  c.rateLimit,
	}

	if v := os.Getenv("TAPECHAT_LISTEN"); v != "" && !flags.Changed("listen") {
		config.ListenAddr = v
	}
	if v := os.Getenv("TAPECHAT_AUTH_TOKEN"); v != "" && !flags.Changed("auth-token") {
		config.AuthToken = v
	}
	if v := os.Getenv("TAPECHAT_DB"); v != "" && !flags.Changed("db") {
		config.DBPath = v
	}
	if v := os.Getenv("TAPECHAT_RATE_LIMIT"); v != "" && !flags.Changed("rate-limit") {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return server.Config{}, fmt.Errorf("invalid TAPECHAT_RATE_LIMIT %q", v)
		}
		config.RateLimit = n
	}

	return config, nil
}

func (c *serveCommander) run(config server.Config) error {
	// Set up logger
	log := logger.NewLogger(c.debug)
	defer log.Sync()

	log.Info("tapechat server starting",
		zap.String("listen", config.ListenAddr),
		zap.Bool("auth", config.AuthToken != ""),
		zap.Bool("debug", c.debug),
	)

	s, err := server.New(config, log)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	defer s.Close()

	if err := s.Run(); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
