package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Config is the on-disk TOML configuration.
type Config struct {
	Logging  LoggingConfig  `toml:"logging"`
	Board    BoardConfig    `toml:"board"`
	UI       UIConfig       `toml:"ui"`
	Server   ServerConfig   `toml:"server"`
	Activity ActivityConfig `toml:"activity"`
}

type LoggingConfig struct {
	Level   string        `toml:"level"`
	DevFile DevFileConfig `toml:"dev_file"`
}

// DevFileConfig controls the dev-mode log file. An empty Dir uses the per-user log dir.
type DevFileConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// BoardConfig holds the initial board and the titles given to untitled items.
type BoardConfig struct {
	DefaultColumnTitle string         `toml:"default_column_title"`
	DefaultTaskTitle   string         `toml:"default_task_title"`
	Columns            []ColumnConfig `toml:"columns"`
}

type ColumnConfig struct {
	ID    string       `toml:"id"`
	Title string       `toml:"title"`
	Tasks []TaskConfig `toml:"tasks"`
}

type TaskConfig struct {
	ID          string `toml:"id"`
	Title       string `toml:"title"`
	Description string `toml:"description"`
}

type UIConfig struct {
	ShowDescriptions bool `toml:"show_descriptions"`
	MarkdownWrap     int  `toml:"markdown_wrap"`
	WatchConfig      bool `toml:"watch_config"`
}

type ServerConfig struct {
	Bind        string `toml:"bind"`
	APIEndpoint string `toml:"api_endpoint"`
	MCPEndpoint string `toml:"mcp_endpoint"`
}

type ActivityConfig struct {
	Enabled bool `toml:"enabled"`
	Limit   int  `toml:"limit"`
}

var validLogLevels = []string{"debug", "info", "warn", "error", "fatal"}

// DefaultColumns returns the starter board.
func DefaultColumns() []ColumnConfig {
	return []ColumnConfig{
		{
			ID:    "todo",
			Title: "To Do",
			Tasks: []TaskConfig{
				{ID: "task-1", Title: "Design landing page", Description: "Create wireframes and mockups for the new landing page"},
				{ID: "task-2", Title: "Setup authentication", Description: "Implement user login and registration system"},
			},
		},
		{
			ID:    "in-progress",
			Title: "In Progress",
			Tasks: []TaskConfig{
				{ID: "task-3", Title: "Database integration", Description: "Connect the app to the database and setup CRUD operations"},
			},
		},
		{
			ID:    "done",
			Title: "Done",
			Tasks: []TaskConfig{
				{ID: "task-4", Title: "Project setup", Description: "Initialize the project with React and necessary dependencies"},
			},
		},
	}
}

func Default() Config {
	return Config{
		Logging: LoggingConfig{
			Level: "info",
			DevFile: DevFileConfig{Enabled: true},
		},
		Board: BoardConfig{
			DefaultColumnTitle: "New Column",
			DefaultTaskTitle:   "New Task",
			Columns:            DefaultColumns(),
		},
		UI: UIConfig{
			ShowDescriptions: true,
			MarkdownWrap:     72,
			WatchConfig:      true,
		},
		Server: ServerConfig{
			Bind:        "127.0.0.1:5437",
			APIEndpoint: "/api/v1",
			MCPEndpoint: "/mcp",
		},
		Activity: ActivityConfig{
			Enabled: true,
			Limit:   50,
		},
	}
}

// Load reads path over defaults. A missing or empty file yields defaults. A file that
// declares board columns replaces the default board instead of extending it.
func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	cfg.Board.Columns = nil
	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}
	if cfg.Board.Columns == nil {
		cfg.Board.Columns = cloneColumns(defaults.Board.Columns)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	level := strings.TrimSpace(strings.ToLower(c.Logging.Level))
	if !slices.Contains(validLogLevels, level) {
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}

	if strings.TrimSpace(c.Board.DefaultColumnTitle) == "" {
		return errors.New("board.default_column_title is required")
	}
	if strings.TrimSpace(c.Board.DefaultTaskTitle) == "" {
		return errors.New("board.default_task_title is required")
	}
	seenIDs := map[string]string{}
	for idx, column := range c.Board.Columns {
		id := strings.TrimSpace(column.ID)
		if id == "" {
			return fmt.Errorf("board.columns[%d].id is required", idx)
		}
		if strings.TrimSpace(column.Title) == "" {
			return fmt.Errorf("board.columns[%d].title is required", idx)
		}
		if prev, ok := seenIDs[id]; ok {
			return fmt.Errorf("board.columns[%d].id is duplicated: %s (already used by %s)", idx, id, prev)
		}
		seenIDs[id] = fmt.Sprintf("board.columns[%d]", idx)
		for taskIdx, task := range column.Tasks {
			taskID := strings.TrimSpace(task.ID)
			if taskID == "" {
				return fmt.Errorf("board.columns[%d].tasks[%d].id is required", idx, taskIdx)
			}
			if strings.TrimSpace(task.Title) == "" {
				return fmt.Errorf("board.columns[%d].tasks[%d].title is required", idx, taskIdx)
			}
			if prev, ok := seenIDs[taskID]; ok {
				return fmt.Errorf("board.columns[%d].tasks[%d].id is duplicated: %s (already used by %s)", idx, taskIdx, taskID, prev)
			}
			seenIDs[taskID] = fmt.Sprintf("board.columns[%d].tasks[%d]", idx, taskIdx)
		}
	}

	if c.UI.MarkdownWrap < 0 {
		return errors.New("ui.markdown_wrap must be >= 0")
	}

	if strings.TrimSpace(c.Server.Bind) == "" {
		return errors.New("server.bind is required")
	}
	api := strings.TrimSpace(c.Server.APIEndpoint)
	mcp := strings.TrimSpace(c.Server.MCPEndpoint)
	if !strings.HasPrefix(api, "/") {
		return fmt.Errorf("server.api_endpoint must start with '/': %q", c.Server.APIEndpoint)
	}
	if !strings.HasPrefix(mcp, "/") {
		return fmt.Errorf("server.mcp_endpoint must start with '/': %q", c.Server.MCPEndpoint)
	}
	if strings.TrimRight(api, "/") == strings.TrimRight(mcp, "/") {
		return fmt.Errorf("server.api_endpoint and server.mcp_endpoint must differ: %q", api)
	}

	if c.Activity.Limit < 0 {
		return errors.New("activity.limit must be >= 0")
	}

	return nil
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// WriteDefault writes the default configuration to path unless a file already exists there.
// It reports whether a file was written.
func WriteDefault(path string, cfg Config) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat config: %w", err)
	}
	if err := EnsureConfigDir(path); err != nil {
		return false, fmt.Errorf("create config dir: %w", err)
	}
	content, err := toml.Marshal(cfg)
	if err != nil {
		return false, fmt.Errorf("encode toml: %w", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return false, fmt.Errorf("write config: %w", err)
	}
	return true, nil
}

func cloneColumns(in []ColumnConfig) []ColumnConfig {
	if in == nil {
		return nil
	}
	out := make([]ColumnConfig, 0, len(in))
	for _, column := range in {
		column.Tasks = append([]TaskConfig(nil), column.Tasks...)
		out = append(out, column)
	}
	return out
}
