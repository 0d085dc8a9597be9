package cli

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/OpenGG/jbtool/internal/jbt"
	"github.com/OpenGG/jbtool/internal/jbt/switcher"
	"github.com/OpenGG/jbtool/internal/report"
)

// Global flag names. main reads them before the manager is built.
const (
	FlagVerbose = "verbose"
	FlagLogJSON = "log-json"
)

// NewRootCommand constructs the root Cobra command for jbtool.
// A nil prompter disables every interactive prompt.
func NewRootCommand(mgr *jbt.Manager, prompter Prompter, stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jbtool",
		Short: "JetBrains IDE config tool",
		Long: "jbtool edits the interpreter table of a JetBrains IDE config directory and\n" +
			"switches the directory with a parked .test/.prod alternate.",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	cmd.PersistentFlags().BoolP(FlagVerbose, "v", false, "Enable debug logging on stderr")
	cmd.PersistentFlags().Bool(FlagLogJSON, false, "Write logs as JSON")

	cmd.AddCommand(newFreeVenvCommand(mgr, prompter, stdout))
	cmd.AddCommand(newClearRemotesCommand(mgr, prompter, stdout))
	cmd.AddCommand(newSwitchCommand(mgr, prompter, stdout))
	cmd.AddCommand(newListCommand(mgr, stdout))
	cmd.AddCommand(newPruneCommand(mgr, prompter, stdout))

	return cmd
}

const configDirUsage = "IDE configuration directory, e.g. ~/.config/JetBrains/PyCharm2024.1"

func newFreeVenvCommand(mgr *jbt.Manager, prompter Prompter, stdout io.Writer) *cobra.Command {
	var configDir string

	cmd := &cobra.Command{
		Use:   "free-venv [config-dir]",
		Short: "Un-associate venv interpreters from their projects",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := resolveConfigDir(mgr, prompter, configDir, args)
			if err != nil {
				return err
			}
			res, err := mgr.FreeVenv(dir)
			if err != nil {
				return err
			}

			p := report.New(stdout)
			if len(res.Freed) == 0 {
				p.Info("No venv associations found in %s", res.TablePath)
				return nil
			}
			p.Success("Freed %d interpreter(s) from their projects:", len(res.Freed))
			for _, name := range res.Freed {
				p.Item("%s", name)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configDir, "config-dir", "", configDirUsage)
	return cmd
}

func newClearRemotesCommand(mgr *jbt.Manager, prompter Prompter, stdout io.Writer) *cobra.Command {
	var configDir string

	cmd := &cobra.Command{
		Use:   "clear-remotes [config-dir]",
		Short: "Remove remote interpreters and all deployments",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := resolveConfigDir(mgr, prompter, configDir, args)
			if err != nil {
				return err
			}
			res, err := mgr.ClearRemotes(dir)

			p := report.New(stdout)
			if res.DeploymentRemoved {
				p.Success("Removed deployment settings %s", res.DeploymentPath)
			} else if res.DeploymentPath != "" && err == nil {
				p.Info("No deployment settings at %s", res.DeploymentPath)
			}
			if err != nil {
				return err
			}

			if len(res.Removed) == 0 {
				p.Info("No remote interpreters found in %s", res.TablePath)
				return nil
			}
			p.Success("Removed %d remote interpreter(s):", len(res.Removed))
			for _, name := range res.Removed {
				p.Item("%s", name)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configDir, "config-dir", "", configDirUsage)
	return cmd
}

func newSwitchCommand(mgr *jbt.Manager, prompter Prompter, stdout io.Writer) *cobra.Command {
	var configDir string
	var resume bool

	cmd := &cobra.Command{
		Use:   "switch-config [config-dir]",
		Short: "Swap the config directory with its parked .test/.prod alternate",
		Long: "switch-config swaps the active config directory with <dir>.test or <dir>.prod,\n" +
			"whichever exists. The first run copies the directory to <dir>.prod.\n" +
			"Nothing is changed while the IDE is running.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := resolveConfigDir(mgr, prompter, configDir, args)
			if err != nil {
				return err
			}
			p := report.New(stdout)

			if resume {
				res, err := mgr.ResumeSwitch(dir)
				if err != nil {
					return err
				}
				switch res.Action {
				case switcher.ResumeCompleted:
					p.Success("Finished interrupted switch: %s is now active", filepath.Base(res.Promoted))
				case switcher.ResumeDiscarded:
					p.Info("Interrupted switch had not started; %s is unchanged", res.Active)
				case switcher.ResumeAlreadyDone:
					p.Info("Interrupted switch had already completed; %s parked as %s", res.Active, filepath.Base(res.ParkedAt))
				}
				return nil
			}

			res, err := mgr.SwitchConfig(dir)
			if res.LeftoverRemoved != "" {
				p.Warn("Removed %s left behind by an interrupted switch", res.LeftoverRemoved)
			}
			if err != nil {
				return err
			}
			if res.From == switcher.StateUninitialized {
				p.Success("Saved a copy of %s as %s", filepath.Base(res.Active), filepath.Base(res.ParkedAt))
				p.Info("Run switch-config again to park the current configuration as .test")
				return nil
			}
			p.Success("Switched %s: %s is now active, previous configuration parked as %s",
				res.Product, filepath.Base(res.PromotedFrom), filepath.Base(res.ParkedAt))
			return nil
		},
	}

	cmd.Flags().StringVar(&configDir, "config-dir", "", configDirUsage)
	cmd.Flags().BoolVar(&resume, "resume", false, "Finish or discard a switch that was interrupted")
	return cmd
}

func newListCommand(mgr *jbt.Manager, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List IDE config directories and their parked alternates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := mgr.ListConfigs()
			if err != nil {
				return err
			}
			for _, entry := range entries {
				qualifier := ""
				if len(entry.Qualifiers) > 0 {
					qualifier = " (" + strings.Join(entry.Qualifiers, ", ") + ")"
				}
				fmt.Fprintf(stdout, "%s [%s]%s\n", entry.Prefix, entry.Name, qualifier)
			}
			if len(entries) == 0 {
				fmt.Fprintf(stdout, "No IDE config directories found in %s.\n", mgr.ConfigRoot())
			}
			return nil
		},
	}
}

func newPruneCommand(mgr *jbt.Manager, prompter Prompter, stdout io.Writer) *cobra.Command {
	var olderThanStr string
	var force bool

	cmd := &cobra.Command{
		Use:   "prune-backups",
		Short: "Remove outdated jdk.table.xml backups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var duration time.Duration
			var err error
			p := report.New(stdout)

			if olderThanStr != "" {
				duration, err = parseHumanDuration(olderThanStr)
				if err != nil {
					return err
				}
			} else {
				if prompter == nil {
					return errors.New("--older-than is required when prompting is disabled")
				}
				options := []string{"30d", "90d", "180d", "Cancel"}
				_, choice, err := prompter.Select("Prune backups older than", options, "30d")
				if err != nil {
					return err
				}
				if choice == "Cancel" {
					p.Info("Prune cancelled.")
					return nil
				}
				duration, err = parseHumanDuration(choice)
				if err != nil {
					return err
				}
			}

			if !force {
				if prompter == nil {
					return errors.New("--force is required when prompting is disabled")
				}
				confirm, err := prompter.Confirm(fmt.Sprintf("Delete backups older than %s? (y/N)", duration), false)
				if err != nil {
					return err
				}
				if !confirm {
					p.Info("Prune cancelled.")
					return nil
				}
			}

			count, err := mgr.PruneBackups(duration)
			if err != nil {
				return err
			}
			p.Success("Deleted %d backup(s).", count)
			return nil
		},
	}

	cmd.Flags().StringVar(&olderThanStr, "older-than", "", "Delete backups older than the specified duration (e.g. 30d)")
	cmd.Flags().BoolVar(&force, "force", false, "Do not prompt for confirmation")

	return cmd
}

// resolveConfigDir picks the config directory from, in order: --config-dir, the
// positional argument, $JBTOOL_CONFIG_DIR, or an interactive selection among the
// directories under the config root. With nothing to select from, the path is typed in.
func resolveConfigDir(mgr *jbt.Manager, prompter Prompter, flagValue string, args []string) (string, error) {
	flagValue = strings.TrimSpace(flagValue)
	if len(args) > 0 {
		arg := strings.TrimSpace(args[0])
		if flagValue != "" && filepath.Clean(flagValue) != filepath.Clean(arg) {
			return "", fmt.Errorf("conflicting config directories: --config-dir %s and argument %s", flagValue, arg)
		}
		flagValue = arg
	}
	if flagValue != "" {
		if valid, err := mgr.ValidateConfigDir(flagValue); !valid {
			return "", fmt.Errorf("invalid config directory: %w", err)
		}
		return flagValue, nil
	}
	if dir, ok := jbt.ConfigDirFromEnv(); ok {
		return dir, nil
	}
	if prompter == nil {
		return "", ErrConfigDirRequired
	}

	dirs, err := mgr.ConfigDirs()
	if err != nil {
		return "", err
	}
	if len(dirs) == 0 {
		dir, err := prompter.Prompt(fmt.Sprintf("No IDE config directories in %s. Enter a path", mgr.ConfigRoot()))
		if err != nil {
			return "", err
		}
		if valid, err := mgr.ValidateConfigDir(dir); !valid {
			return "", fmt.Errorf("invalid config directory: %w", err)
		}
		return strings.TrimSpace(dir), nil
	}

	byName := make(map[string]string, len(dirs))
	names := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		name := filepath.Base(dir)
		byName[name] = dir
		names = append(names, name)
	}
	// Version suffixes sort ascending, so the newest install is last.
	latest := names[len(names)-1]
	names = reorderWithDefault(names, latest)
	_, selected, err := prompter.Select("Select IDE config directory", names, latest)
	if err != nil {
		return "", err
	}
	dir, ok := byName[selected]
	if !ok {
		return "", fmt.Errorf("unknown config directory %q", selected)
	}
	return dir, nil
}

func parseHumanDuration(value string) (time.Duration, error) {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return 0, errors.New("duration cannot be empty")
	}
	if strings.HasSuffix(value, "d") {
		days := strings.TrimSuffix(value, "d")
		v, err := parseDays(days)
		if err != nil {
			return 0, fmt.Errorf("invalid day duration: %w", err)
		}
		return v, nil
	}
	if strings.HasSuffix(value, "h") || strings.HasSuffix(value, "m") || strings.HasSuffix(value, "s") {
		dur, err := time.ParseDuration(value)
		if err != nil {
			return 0, err
		}
		if dur < 0 {
			return 0, fmt.Errorf("duration cannot be negative")
		}
		return dur, nil
	}
	return 0, fmt.Errorf("unsupported duration format: %s", value)
}

func parseDays(value string) (time.Duration, error) {
	d, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid day duration: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid day duration: %d", d)
	}
	return time.Duration(d) * 24 * time.Hour, nil
}

// reorderWithDefault moves the default value to the front of the list.
// If defaultValue is empty or not found, or already first, returns items unchanged.
func reorderWithDefault(items []string, defaultValue string) []string {
	if defaultValue == "" {
		return items
	}

	idx := -1
	for i, item := range items {
		if item == defaultValue {
			idx = i
			break
		}
	}

	if idx <= 0 {
		return items
	}

	reordered := make([]string, 0, len(items))
	reordered = append(reordered, defaultValue)
	reordered = append(reordered, items[:idx]...)
	reordered = append(reordered, items[idx+1:]...)

	return reordered
}
