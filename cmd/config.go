package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage stillmind configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a config file with commented defaults",
	RunE:  configInitRun,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration and where each value comes from",
	RunE:  configShowRun,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open the config file in $EDITOR",
	RunE:  configEditRun,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(configFilePath())
	},
}

var configInitForce bool

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "Overwrite an existing config file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

const configTemplate = `# stillmind configuration
# Values may also be set via STILLMIND_* environment variables,
# e.g. STILLMIND_API_BASE_URL overrides api.base_url.

# Directory for local state (database, downloaded assets).
state_dir: {{ .StateDir }}

# SQLite database holding the credential, session journal, and stats cache.
db_path: {{ .DBPath }}

# Directory containing meditation audio files referenced by the catalog.
assets_dir: {{ .AssetsDir }}

api:
  # Base URL of the stillmind backend.
  base_url: {{ .APIBaseURL }}

session:
  # Default session length, as a Go duration string.
  duration: {{ .SessionDuration }}

audio:
  # Command used to play meditation audio. The file path is appended.
  player_cmd: "{{ .PlayerCmd }}"

notify:
  # Desktop notification when a session completes.
  enabled: {{ .NotifyEnabled }}

anthropic:
  # API key for 'stillmind affirm'. Leave empty to use ANTHROPIC_API_KEY.
  api_key: "{{ .AnthropicAPIKey }}"
  model: {{ .AnthropicModel }}
`

type configTemplateData struct {
	StateDir        string
	DBPath          string
	AssetsDir       string
	APIBaseURL      string
	SessionDuration string
	PlayerCmd       string
	NotifyEnabled   bool
	AnthropicAPIKey string
	AnthropicModel  string
}

// configFilePath returns the path of the config file in use, falling back
// to the default location when none has been read.
func configFilePath() string {
	if f := viper.ConfigFileUsed(); f != "" {
		return f
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "stillmind", "config.yaml")
}

func configInitRun(cmd *cobra.Command, args []string) error {
	path := configFilePath()

	if _, err := os.Stat(path); err == nil && !configInitForce {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	tmpl, err := template.New("config").Parse(configTemplate)
	if err != nil {
		return fmt.Errorf("parse config template: %w", err)
	}

	data := configTemplateData{
		StateDir:        viper.GetString("state_dir"),
		DBPath:          viper.GetString("db_path"),
		AssetsDir:       viper.GetString("assets_dir"),
		APIBaseURL:      viper.GetString("api.base_url"),
		SessionDuration: viper.GetString("session.duration"),
		PlayerCmd:       viper.GetString("audio.player_cmd"),
		NotifyEnabled:   viper.GetBool("notify.enabled"),
		AnthropicAPIKey: viper.GetString("anthropic.api_key"),
		AnthropicModel:  viper.GetString("anthropic.model"),
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create config file: %w", err)
	}
	defer f.Close()

	if err := tmpl.Execute(f, data); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	ui.Success("Wrote %s", path)
	return nil
}

// configKeys is the set of keys shown by 'config show', in display order.
var configKeys = []string{
	"state_dir",
	"db_path",
	"assets_dir",
	"api.base_url",
	"session.duration",
	"audio.player_cmd",
	"notify.enabled",
	"anthropic.api_key",
	"anthropic.model",
}

func configShowRun(cmd *cobra.Command, args []string) error {
	fileValues := readConfigFileValues()

	table := ui.Table([]string{"KEY", "VALUE", "SOURCE"})
	for _, key := range configKeys {
		value := viper.GetString(key)
		if key == "anthropic.api_key" && value != "" {
			value = "********"
		}
		table.Append([]string{key, value, detectSource(key, fileValues)})
	}
	table.Render()

	if f := viper.ConfigFileUsed(); f != "" {
		ui.Info("Config file: %s", f)
	} else {
		ui.Info("No config file found (run 'stillmind config init' to create one)")
	}
	return nil
}

// readConfigFileValues parses the config file directly so file-set keys can
// be told apart from defaults and environment overrides.
func readConfigFileValues() map[string]bool {
	keys := make(map[string]bool)

	data, err := os.ReadFile(configFilePath())
	if err != nil {
		return keys
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return keys
	}

	flattenKeys(raw, "", keys)
	return keys
}

func flattenKeys(m map[string]any, prefix string, out map[string]bool) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			flattenKeys(nested, key, out)
			continue
		}
		out[key] = true
	}
}

func detectSource(key string, fileValues map[string]bool) string {
	envKey := "STILLMIND_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
	if _, ok := os.LookupEnv(envKey); ok {
		return "env"
	}
	if fileValues[key] {
		return "file"
	}
	return "default"
}

func configEditRun(cmd *cobra.Command, args []string) error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	path := configFilePath()
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("no config file at %s (run 'stillmind config init' first)", path)
	}

	parts := strings.Fields(editor)
	parts = append(parts, path)
	edit := exec.Command(parts[0], parts[1:]...)
	edit.Stdin = os.Stdin
	edit.Stdout = os.Stdout
	edit.Stderr = os.Stderr
	return edit.Run()
}
