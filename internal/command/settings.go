package command

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/joeycumines/goap/internal/condition"
	"github.com/joeycumines/goap/internal/config"
	"github.com/joeycumines/goap/internal/domain"
	"github.com/joeycumines/goap/internal/goap"
)

// plannerFlags are the flags shared by every command that loads a domain.
// Unset flags (empty strings, negative numbers) defer to the config.
type plannerFlags struct {
	heuristic     string
	match         string
	setMode       string
	maxIterations int
	timeout       time.Duration
	logLevel      string
	logFile       string
}

func (f *plannerFlags) setup(fs *flag.FlagSet) {
	fs.StringVar(&f.heuristic, "heuristic", "", "Search heuristic: hamming, zero (default from config)")
	fs.StringVar(&f.match, "match", "", "Goal and precondition matching: subset, exact (default from config)")
	fs.StringVar(&f.setMode, "set-mode", "", "Fact updates: assign, toggle (default from config)")
	fs.IntVar(&f.maxIterations, "max-iterations", -1, "Node expansion limit per search, 0 for none (default from config)")
	fs.DurationVar(&f.timeout, "timeout", -1, "Time limit per search (default from config)")
	fs.StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn, error (default from config)")
	fs.StringVar(&f.logFile, "log-file", "", "Write JSON logs to this file instead of stderr")
}

// settings is the effective planning configuration of one invocation.
type settings struct {
	heuristic     goap.Heuristic
	match         goap.MatchMode
	setMode       goap.SetMode
	maxIterations int
	timeout       time.Duration
	tickInterval  time.Duration
	maxReplans    int
	cacheSize     int
}

// resolveSettings merges flags over the config, which itself honours
// environment overrides and schema defaults.
func (f *plannerFlags) resolveSettings(cfg *config.Config) (settings, error) {
	schema := config.DefaultSchema()
	if cfg == nil {
		cfg = config.NewConfig()
	}
	var (
		s   settings
		err error
	)

	str := func(flagValue, key string) string {
		if flagValue != "" {
			return flagValue
		}
		return schema.Resolve(cfg, config.SectionPlanner, key)
	}
	if s.heuristic, err = goap.ParseHeuristic(str(f.heuristic, "heuristic")); err != nil {
		return s, err
	}
	if s.match, err = goap.ParseMatchMode(str(f.match, "match")); err != nil {
		return s, err
	}
	if s.setMode, err = goap.ParseSetMode(str(f.setMode, "set-mode")); err != nil {
		return s, err
	}

	s.maxIterations = f.maxIterations
	if s.maxIterations < 0 {
		if s.maxIterations, err = schema.ResolveInt(cfg, config.SectionPlanner, "max-iterations"); err != nil {
			return s, err
		}
	}
	s.timeout = f.timeout
	if s.timeout < 0 {
		if s.timeout, err = schema.ResolveDuration(cfg, config.SectionPlanner, "timeout"); err != nil {
			return s, err
		}
	}

	if s.tickInterval, err = schema.ResolveDuration(cfg, config.SectionRun, "tick-interval"); err != nil {
		return s, err
	}
	if s.maxReplans, err = schema.ResolveInt(cfg, config.SectionRun, "max-replans"); err != nil {
		return s, err
	}
	if s.cacheSize, err = schema.ResolveInt(cfg, config.SectionExpr, "cache-size"); err != nil {
		return s, err
	}
	return s, nil
}

// plannerOptions returns the planner options of s, logging to logger.
func (s settings) plannerOptions(logger *slog.Logger) []goap.Option {
	return []goap.Option{
		goap.WithHeuristic(s.heuristic),
		goap.WithMatch(s.match),
		goap.WithSetMode(s.setMode),
		goap.WithMaxIterations(s.maxIterations),
		goap.WithLogger(logger),
	}
}

// searchContext bounds ctx by the search timeout, if any.
func (s settings) searchContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(ctx, s.timeout)
	}
	return context.WithCancel(ctx)
}

// session is a loaded domain plus everything needed to plan over it.
type session struct {
	settings settings
	logs     logConfig
	logger   *slog.Logger
	domain   *domain.Domain
}

// openSession resolves settings and logging, then loads and builds the
// domain file at path. The caller must Close the session.
func (f *plannerFlags) openSession(cfg *config.Config, path string, stderr io.Writer) (*session, error) {
	s, err := f.resolveSettings(cfg)
	if err != nil {
		return nil, err
	}
	logs, err := resolveLogConfig(f.logFile, f.logLevel, cfg)
	if err != nil {
		return nil, err
	}
	logger := logs.logger(stderr)

	if s.cacheSize > 0 && s.cacheSize != condition.CacheSize() {
		condition.SetCacheSize(s.cacheSize)
	}

	file, err := domain.Load(path)
	if err != nil {
		_ = logs.Close()
		return nil, err
	}
	d, err := file.Build(s.plannerOptions(logger)...)
	if err != nil {
		_ = logs.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logger.Debug("domain loaded", "path", path, "facts", len(d.Planner.Facts()), "actions", len(d.Actions))
	return &session{settings: s, logs: logs, logger: logger, domain: d}, nil
}

// Close releases the session's log file.
func (s *session) Close() error {
	return s.logs.Close()
}

// domainArg returns the single domain path argument.
func domainArg(args []string, stderr io.Writer) (string, error) {
	if len(args) != 1 {
		_, _ = fmt.Fprintln(stderr, "expected exactly one domain file argument")
		return "", fmt.Errorf("invalid arguments")
	}
	return args[0], nil
}
