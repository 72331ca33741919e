package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gogpu/spvfront/ir"
	"github.com/gogpu/spvfront/lower"
	"github.com/gogpu/spvfront/spirv"
)

var lowerCmd = &cobra.Command{
	Use:   "lower [flags] file.spvasm",
	Short: "Lower a SPIR-V assembly file to IR",
	Long:  `Lower reads SPIR-V assembly, lowers every function to IR and prints the result as text or writes it as msgpack`,
	Args:  cobra.ExactArgs(1),
	RunE:  runLower,
}

func init() {
	lowerCmd.Flags().String("config", "", "config file (default: nearest "+configFileName+")")
	lowerCmd.Flags().Int("jobs", 1, "number of functions lowered in parallel")
	lowerCmd.Flags().String("on-error", "abort", "what to do with a failing function (abort|skip)")
	lowerCmd.Flags().String("format", "text", "output format (text|msgpack)")
	lowerCmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
	lowerCmd.Flags().Bool("no-validate", false, "skip IR validation")
}

func runLower(cmd *cobra.Command, args []string) error {
	path := args[0]

	cfg, err := resolveConfig(cmd, filepath.Dir(path))
	if err != nil {
		return err
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	module, err := spirv.ParseAssembly(string(source))
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	opts := cfg.lowerOptions()
	opts.Logger = newLogger(cmd)
	result, err := lower.Lower(cmd.Context(), module, opts)
	if err != nil {
		return describeLowerError(path, err)
	}
	stderr := cmd.ErrOrStderr()
	for _, skipped := range result.Skipped {
		fmt.Fprintf(stderr, "%s %s: skipped %v\n", warningColor.Sprint("warning:"), path, skipped)
	}

	if cfg.Lower.Validate {
		problems, err := ir.Validate(result.Module)
		if err != nil {
			return err
		}
		for _, p := range problems {
			fmt.Fprintf(stderr, "%s %s: %v\n", errorColor.Sprint("invalid:"), path, p)
		}
		if len(problems) > 0 {
			return fmt.Errorf("%s: %d validation errors", path, len(problems))
		}
	}

	outPath, _ := cmd.Flags().GetString("output")
	if outPath == "" {
		return writeModule(cmd.OutOrStdout(), result.Module, cfg.Output.Format)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", outPath, err)
	}
	if err := writeModule(f, result.Module, cfg.Output.Format); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}
	return f.Close()
}

func writeModule(w io.Writer, m *ir.Module, format string) error {
	switch format {
	case "text":
		_, err := io.WriteString(w, ir.Disassemble(m))
		return err
	case "msgpack":
		data, err := ir.Encode(m)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}
	return fmt.Errorf("unknown format: %s", format)
}

// describeLowerError prefixes a lowering failure with a short category so
// the diagnostic names the unsupported construct.
func describeLowerError(path string, err error) error {
	category := "lowering failed"
	switch {
	case errors.Is(err, lower.ErrUnsupportedType):
		category = "unsupported type"
	case errors.Is(err, lower.ErrUnknownOpcode):
		category = "unsupported instruction"
	case errors.Is(err, lower.ErrUnresolvedOperand):
		category = "undefined value"
	case errors.Is(err, lower.ErrControlFlow):
		category = "unsupported control flow"
	}
	return fmt.Errorf("%s: %s: %w", path, category, err)
}

// resolveConfig merges defaults, the config file and explicit flags, in
// that order.
func resolveConfig(cmd *cobra.Command, dir string) (config, error) {
	cfg := defaultConfig()

	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		found, ok, err := findConfig(dir)
		if err != nil {
			return config{}, err
		}
		if ok {
			path = found
		}
	}
	if path != "" {
		loaded, err := loadConfig(path)
		if err != nil {
			return config{}, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("jobs") {
		cfg.Lower.Jobs, _ = flags.GetInt("jobs")
	}
	if flags.Changed("on-error") {
		cfg.Lower.OnError, _ = flags.GetString("on-error")
	}
	if flags.Changed("format") {
		cfg.Output.Format, _ = flags.GetString("format")
	}
	if noValidate, _ := flags.GetBool("no-validate"); noValidate {
		cfg.Lower.Validate = false
	}
	if err := cfg.check(); err != nil {
		return config{}, err
	}
	return cfg, nil
}
