package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"cssinline/internal/state"
	"cssinline/pkg/inliner"
)

// inlineOptions carries the per-run switches of the inline command
type inlineOptions struct {
	charset   string
	stats     bool
	warnings  bool
	overwrite bool
}

func runInline(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("inline")

	cfg := *env.Cfg
	if cmd.IsSet("target") {
		cfg.TargetEmailClient = cmd.String("target")
	}
	if cmd.IsSet("email-optimizations") {
		cfg.EmailClientOptimizations = cmd.Bool("email-optimizations")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	opts := inlineOptions{
		charset:   cmd.String("charset"),
		stats:     cmd.Bool("stats"),
		warnings:  cmd.Bool("warnings"),
		overwrite: cmd.Bool("overwrite"),
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	engine := inliner.New(cfg, log)
	src, dst := cmd.Args().Get(0), cmd.Args().Get(1)

	defer func(start time.Time) {
		log.Debug("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	if len(src) > 0 && src != "-" {
		fi, err := os.Stat(src)
		if err != nil {
			return fmt.Errorf("input source was not found: %w", err)
		}
		if fi.IsDir() {
			if len(dst) == 0 {
				return errors.New("destination directory is required when source is a directory")
			}
			return processDir(ctx, engine, src, dst, opts, log)
		}
		if len(dst) > 0 {
			if di, err := os.Stat(dst); err == nil && di.IsDir() {
				dst = filepath.Join(dst, filepath.Base(src))
			}
		}
	}
	return processFile(engine, src, dst, opts, log)
}

// processFile inlines one document. Empty dst means STDOUT.
func processFile(engine *inliner.Inliner, src, dst string, opts inlineOptions, log *zap.Logger) error {
	data, err := readSource(src, os.Stdin)
	if err != nil {
		return err
	}
	doc, err := decodeDocument(data, opts.charset)
	if err != nil {
		return err
	}

	result := engine.Inline(doc.content)

	out, err := doc.encode(result.HTML)
	if err != nil {
		return err
	}
	if len(dst) == 0 {
		if _, err := os.Stdout.Write(out); err != nil {
			return fmt.Errorf("unable to write STDOUT: %w", err)
		}
	} else if err := writeDestination(dst, out, opts.overwrite); err != nil {
		return err
	}

	name := src
	if len(name) == 0 || name == "-" {
		name = "STDIN"
	}
	reportResult(name, doc.name, result, opts, log)
	return nil
}

// processDir inlines every HTML file under dir keeping the directory structure in dst.
// Failures do not stop processing, they are collected and returned together.
func processDir(ctx context.Context, engine *inliner.Inliner, dir, dst string, opts inlineOptions, log *zap.Logger) (err error) {
	files, err := findHTMLFiles(dir)
	if err != nil {
		return fmt.Errorf("unable to list directory '%s': %w", dir, err)
	}
	if len(files) == 0 {
		log.Warn("Nothing to process", zap.String("dir", dir))
		return nil
	}

	processed := 0
	for _, path := range files {
		if er := ctx.Err(); er != nil {
			return multierr.Append(err, er)
		}

		rel, er := filepath.Rel(dir, path)
		if er != nil {
			err = multierr.Append(err, fmt.Errorf("unable to process file '%s': %w", path, er))
			continue
		}
		if er := processFile(engine, path, filepath.Join(dst, rel), opts, log); er != nil {
			log.Error("Unable to process file", zap.String("file", path), zap.Error(er))
			err = multierr.Append(err, er)
			continue
		}
		processed++
	}

	log.Info("Directory processed", zap.String("dir", dir), zap.Int("files", len(files)), zap.Int("succeeded", processed))
	return err
}

// reportResult logs statistics and warnings of one document as requested
func reportResult(name, encoding string, result *inliner.InlineResult, opts inlineOptions, log *zap.Logger) {
	if opts.stats {
		log.Info("Processing statistics",
			zap.String("file", name),
			zap.String("charset", encoding),
			zap.Int("rules", result.RulesParsed),
			zap.Int("skipped", len(result.SkippedRules)),
			zap.Int("elements", result.ElementsProcessed),
			zap.Int("styled", result.ElementsStyled),
			zap.Int("matches", result.SelectorsMatched),
			zap.Int("declarations", result.InlinedStyles),
			zap.Duration("elapsed", result.ProcessingTime))
	}
	if opts.warnings {
		for _, skipped := range result.SkippedRules {
			log.Warn("CSS not inlined", zap.String("file", name), zap.String("reason", skipped))
		}
		for _, warning := range result.Warnings {
			log.Warn("Compatibility warning",
				zap.String("file", name),
				zap.String("severity", strings.ToUpper(warning.Severity)),
				zap.String("property", warning.Property),
				zap.String("value", warning.Value),
				zap.String("message", warning.Message))
		}
	}
}

func runValidate(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("validate")

	src := cmd.Args().Get(0)
	data, err := readSource(src, os.Stdin)
	if err != nil {
		return err
	}
	doc, err := decodeDocument(data, cmd.String("charset"))
	if err != nil {
		return err
	}

	issues, err := inliner.New(*env.Cfg, log).ValidateHTML(doc.content)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if len(src) == 0 || src == "-" {
		src = "STDIN"
	}
	printIssues(os.Stdout, src, issues)
	return nil
}

// printIssues writes the audit report, one issue per line
func printIssues(w io.StringWriter, name string, issues []inliner.ValidationIssue) {
	if len(issues) == 0 {
		_, _ = w.WriteString(fmt.Sprintf("%s: no email compatibility issues found\n", name))
		return
	}
	_, _ = w.WriteString(fmt.Sprintf("%s: found %d email compatibility issues:\n", name, len(issues)))
	for _, issue := range issues {
		_, _ = w.WriteString("  " + issue.String() + "\n")
	}
}
