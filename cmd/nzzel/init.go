package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vmunix/nzzel/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a server config file",
	Long: `Write a config file for nzzeld. By default the commented example
config is written to the standard location. With --interactive the main
settings are prompted for.`,
	Args: cobra.NoArgs,
	RunE: runInitCmd,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().String("path", config.DefaultPath(), "Where to write the config")
	initCmd.Flags().Bool("force", false, "Overwrite an existing config")
	initCmd.Flags().BoolP("interactive", "i", false, "Prompt for settings")
}

func runInitCmd(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("path")
	force, _ := cmd.Flags().GetBool("force")
	interactive, _ := cmd.Flags().GetBool("interactive")

	out := cmd.OutOrStdout()
	if !interactive {
		if err := config.WriteDefault(path, force); err != nil {
			if errors.Is(err, os.ErrExist) {
				return fmt.Errorf("%s already exists, use --force to overwrite", path)
			}
			return err
		}
		fmt.Fprintf(out, "Wrote %s\n", path)
		return nil
	}

	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists, use --force to overwrite", path)
		}
	}

	fmt.Fprintln(out, "nzzel setup")
	fmt.Fprintln(out)
	cfg, err := promptConfig(bufio.NewReader(cmd.InOrStdin()), out)
	if err != nil {
		return err
	}
	if err := cfg.Write(path); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nWrote %s\n", path)
	return nil
}

func promptConfig(in *bufio.Reader, out io.Writer) (*config.Config, error) {
	cfg := config.Default()

	port := promptWithDefault(in, out, "Server port", strconv.Itoa(cfg.Server.Port))
	p, err := strconv.Atoi(port)
	if err != nil || p < 1 || p > 65535 {
		return nil, fmt.Errorf("invalid port %q", port)
	}
	cfg.Server.Port = p

	cfg.Database.Path = promptWithDefault(in, out, "Database path", cfg.Database.Path)
	cfg.YtDlp.Path = promptWithDefault(in, out, "yt-dlp executable", cfg.YtDlp.Path)
	cfg.YtDlp.OutputDir = promptWithDefault(in, out, "Download directory", cfg.YtDlp.OutputDir)
	return cfg, nil
}

// promptWithDefault shows a prompt with default value in brackets.
// Returns the user's input, or the default if input is empty.
func promptWithDefault(in *bufio.Reader, out io.Writer, label, defaultVal string) string {
	if defaultVal != "" {
		fmt.Fprintf(out, "%s [%s]: ", label, defaultVal)
	} else {
		fmt.Fprintf(out, "%s: ", label)
	}
	input, _ := in.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return defaultVal
	}
	return input
}
