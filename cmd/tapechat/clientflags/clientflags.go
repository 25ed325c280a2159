// Package clientflags holds the flags shared by commands that talk to a
// chat server.
package clientflags

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/tapechat/cmd/tapechat/settingspath"
	"github.com/papercomputeco/tapechat/pkg/chat"
	"github.com/papercomputeco/tapechat/pkg/logger"
	"github.com/papercomputeco/tapechat/pkg/settings"
)

// DefaultServer is the chat server used when --server is not given.
const DefaultServer = "http://localhost:8000"

// Options are the parsed client flags.
type Options struct {
	Server       string
	SettingsPath string
	LogFile      string
	Timeout      time.Duration
	Ephemeral    bool
	Debug        bool
}

// Register adds the client flags to cmd.
func (o *Options) Register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.Server, "server", "S", DefaultServer, "Chat server base URL")
	cmd.Flags().StringVarP(&o.SettingsPath, "settings", "s", "", "Path to the settings file (.toml, or .db/.sqlite for SQLite)")
	cmd.Flags().StringVar(&o.LogFile, "log-file", "", "Path to the log file (default ~/.tapechat/tapechat.log)")
	cmd.Flags().DurationVar(&o.Timeout, "timeout", 0, "Abort a turn after this long (0 waits indefinitely)")
	cmd.Flags().BoolVar(&o.Ephemeral, "ephemeral", false, "Keep settings in memory only for this session")
	cmd.Flags().BoolVar(&o.Debug, "debug", false, "Enable debug logging")
}

// Session is everything a client command needs to run turns.
type Session struct {
	Logger *zap.Logger
	Store  settings.Store
	Client *chat.Client

	logSink io.Closer
}

// Open sets up logging, the settings store and the chat client.
// Logs go to a file because the terminal belongs to the transcript.
func (o *Options) Open() (*Session, error) {
	logPath, err := settingspath.ResolveLogPath(o.LogFile)
	if err != nil {
		return nil, err
	}
	log, sink, err := logger.NewFileLogger(logPath, o.Debug)
	if err != nil {
		return nil, fmt.Errorf("could not open log file %s: %w", logPath, err)
	}
	log = log.With(zap.String("session_id", uuid.NewString()))

	store, settingsPath, err := o.openStore(log)
	if err != nil {
		sink.Close()
		return nil, err
	}

	log.Info("client session starting",
		zap.String("server", o.Server),
		zap.String("settings", settingsPath),
		zap.Duration("timeout", o.Timeout),
	)

	return &Session{
		Logger:  log,
		Store:   store,
		Client:  chat.NewClient(o.Server, chat.WithTimeout(o.Timeout)),
		logSink: sink,
	}, nil
}

func (o *Options) openStore(log *zap.Logger) (settings.Store, string, error) {
	if o.Ephemeral {
		return settings.NewMemoryStore(), "memory", nil
	}

	path, err := settingspath.ResolveSettingsPath(o.SettingsPath)
	if err != nil {
		return nil, "", fmt.Errorf("could not resolve settings: %w", err)
	}
	store, err := settings.Open(path, log)
	if err != nil {
		return nil, "", fmt.Errorf("could not open settings %s: %w", path, err)
	}
	return store, path, nil
}

// Close flushes logs and releases the settings store.
func (s *Session) Close() error {
	s.Logger.Sync()
	storeErr := s.Store.Close()
	if err := s.logSink.Close(); err != nil {
		return err
	}
	return storeErr
}
