package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"treekit/internal/audit"
	"treekit/internal/config"
	treecopy "treekit/internal/copy"
	"treekit/internal/disk"
	"treekit/internal/exitcodes"
	"treekit/internal/fsops"
	"treekit/internal/limiter"
	"treekit/internal/logging"
	"treekit/internal/metrics"
	"treekit/internal/mktree"
	"treekit/internal/paths"
	"treekit/internal/remove"
	"treekit/internal/safety"
	"treekit/internal/walk"
)

func usage() {
	fmt.Println("Usage: treekit [flags] <command> [args]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  list <path>        List a subtree in breadth-first order")
	fmt.Println("  remove <path>      Remove a subtree bottom-up")
	fmt.Println("  mktree <path>      Create a directory chain shallow-to-deep")
	fmt.Println("  copy <src> <dst>   Copy a file or a whole subtree")
	fmt.Println("  usage <path>       Report disk and subtree usage")
	fmt.Println()
	fmt.Println("Flags:")
	flag.PrintDefaults()
}

func main() {
	configPath := flag.String("config", "/etc/treekit/config.yaml", "Path to configuration file")
	serveMetrics := flag.Bool("metrics", false, "Expose Prometheus metrics while running")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(exitcodes.InvalidConfig)
	}

	cmd := flag.Arg(0)
	args := flag.Args()[1:]

	// Configuration is mandatory only for destructive commands; everything
	// else degrades to built-in defaults when the file is absent.
	cfg, cfgErr := config.Load(*configPath)

	logger := logging.NewWithConfig(cfg)
	metrics.Init()

	if *serveMetrics && cfg != nil && cfg.Prometheus.Port > 0 {
		metrics.StartServer(cfg.PrometheusAddress(), logger)
	}

	var code int
	switch cmd {
	case "list":
		code = runList(args, cfg, logger)
	case "remove":
		if cfgErr != nil {
			logger.Printf("ERROR: remove requires a valid config: %v", cfgErr)
			os.Exit(exitcodes.InvalidConfig)
		}
		code = runRemove(args, cfg, logger)
	case "mktree":
		code = runMktree(args, cfg, logger)
	case "copy":
		code = runCopy(args, cfg, logger)
	case "usage":
		code = runUsage(args, logger)
	default:
		usage()
		code = exitcodes.InvalidConfig
	}

	os.Exit(code)
}

// isSafetyError reports whether err came from the safety validator
func isSafetyError(err error) bool {
	return errors.Is(err, safety.ErrProtectedPath) ||
		errors.Is(err, safety.ErrOutsideAllowed) ||
		errors.Is(err, safety.ErrTraversal) ||
		errors.Is(err, safety.ErrSymlinkEscape) ||
		errors.Is(err, safety.ErrInvalidPath)
}

func asPartial(err error, target **remove.PartialError) bool {
	return errors.As(err, target)
}

// resolveArg normalizes a command-line path against the working directory
func resolveArg(arg string) (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return paths.Resolve(wd, arg)
}

// openAudit opens the operation history log when configured
func openAudit(cfg *config.Config, logger *log.Logger) *audit.Log {
	if cfg == nil || cfg.DatabasePath == "" {
		return nil
	}
	l, err := audit.Open(cfg.DatabasePath)
	if err != nil {
		logger.Printf("WARN: audit log unavailable: %v", err)
		return nil
	}
	return l
}

func throttleFor(cfg *config.Config) *limiter.Throttle {
	if cfg == nil {
		return nil
	}
	return limiter.New(cfg.ResourceLimits.MaxCPUPercent)
}

func runList(args []string, cfg *config.Config, logger *log.Logger) int {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	recursive := fs.Bool("recursive", true, "Descend into subdirectories")
	details := fs.Bool("details", false, "Print full metadata records")
	fs.Parse(args)

	if fs.NArg() != 1 {
		logger.Println("ERROR: list requires exactly one path")
		return exitcodes.InvalidConfig
	}

	root, err := resolveArg(fs.Arg(0))
	if err != nil {
		logger.Printf("ERROR: %v", err)
		return exitcodes.InvalidConfig
	}

	opts := walk.Options{Recursive: *recursive}
	if cfg != nil {
		opts.Exclude = cfg.List.ExcludePatterns
	}

	lister := walk.NewLister(fsops.OSFilesystem{}, logger)
	if t := throttleFor(cfg); t != nil {
		lister.Walker().SetThrottle(t)
	}

	start := time.Now()
	if *details {
		records, err := lister.Records(root, opts)
		if err != nil {
			logger.Printf("ERROR: list failed: %v", err)
			metrics.ErrorsTotal.Inc()
			return exitcodes.RuntimeError
		}
		for _, r := range records {
			fmt.Printf("%s\t%s\t%d\t%s\n", r.Kind.String(), r.Mode, r.Size, r.Path)
		}
		metrics.NodesVisitedTotal.Add(float64(len(records)))
	} else {
		listed, err := lister.Paths(root, opts)
		if err != nil {
			logger.Printf("ERROR: list failed: %v", err)
			metrics.ErrorsTotal.Inc()
			return exitcodes.RuntimeError
		}
		for _, p := range listed {
			fmt.Println(p)
		}
		metrics.NodesVisitedTotal.Add(float64(len(listed)))
	}
	metrics.WalkDuration.Observe(time.Since(start).Seconds())
	metrics.RecordOperation("list", "success")

	return exitcodes.Success
}

func runRemove(args []string, cfg *config.Config, logger *log.Logger) int {
	fs := flag.NewFlagSet("remove", flag.ExitOnError)
	recursive := fs.Bool("recursive", true, "Descend into subdirectories")
	dryRun := fs.Bool("dry-run", false, "Report what would be removed without deleting")
	fs.Parse(args)

	if fs.NArg() != 1 {
		logger.Println("ERROR: remove requires exactly one path")
		return exitcodes.InvalidConfig
	}

	root, err := resolveArg(fs.Arg(0))
	if err != nil {
		logger.Printf("ERROR: %v", err)
		return exitcodes.InvalidConfig
	}

	auditLog := openAudit(cfg, logger)
	if auditLog != nil {
		defer auditLog.Close()
	}

	remover := remove.NewRemover(fsops.OSFilesystem{}, logger)
	remover.SetValidator(safety.NewValidator(cfg.AllowedRoots, cfg.ProtectedPaths))
	remover.SetDryRun(*dryRun)
	if auditLog != nil {
		remover.SetAudit(auditLog)
	}
	if t := throttleFor(cfg); t != nil {
		remover.Lister().Walker().SetThrottle(t)
	}

	res, err := remover.RemoveTree(root, *recursive)
	if err != nil {
		logger.Printf("ERROR: remove failed: %v", err)
		metrics.RecordOperation("remove", "error")
		var partial *remove.PartialError
		switch {
		case isSafetyError(err):
			return exitcodes.SafetyViolation
		case asPartial(err, &partial):
			return exitcodes.PartialFailure
		default:
			return exitcodes.RuntimeError
		}
	}

	metrics.RecordOperation("remove", "success")
	logger.Printf("Removed %d nodes, freed %d bytes", res.Removed, res.BytesFreed)
	return exitcodes.Success
}

func runMktree(args []string, cfg *config.Config, logger *log.Logger) int {
	fs := flag.NewFlagSet("mktree", flag.ExitOnError)
	modeStr := fs.String("mode", "755", "Octal permission bits for created directories")
	fs.Parse(args)

	if fs.NArg() != 1 {
		logger.Println("ERROR: mktree requires exactly one path")
		return exitcodes.InvalidConfig
	}

	target, err := resolveArg(fs.Arg(0))
	if err != nil {
		logger.Printf("ERROR: %v", err)
		return exitcodes.InvalidConfig
	}

	mode, err := strconv.ParseUint(*modeStr, 8, 32)
	if err != nil {
		logger.Printf("ERROR: invalid mode %q: %v", *modeStr, err)
		return exitcodes.InvalidConfig
	}

	auditLog := openAudit(cfg, logger)
	if auditLog != nil {
		defer auditLog.Close()
	}

	creator := mktree.NewCreator(fsops.OSFilesystem{})
	if auditLog != nil {
		creator.SetAudit(auditLog)
	}

	if err := creator.MakeTreePath(target, os.FileMode(mode)); err != nil {
		logger.Printf("ERROR: mktree failed: %v", err)
		metrics.RecordOperation("mktree", "error")
		return exitcodes.RuntimeError
	}

	metrics.RecordOperation("mktree", "success")
	return exitcodes.Success
}

func runCopy(args []string, cfg *config.Config, logger *log.Logger) int {
	fs := flag.NewFlagSet("copy", flag.ExitOnError)
	tree := fs.Bool("tree", false, "Copy a whole subtree instead of a single file")
	fs.Parse(args)

	if fs.NArg() != 2 {
		logger.Println("ERROR: copy requires a source and a destination")
		return exitcodes.InvalidConfig
	}

	source, err := resolveArg(fs.Arg(0))
	if err != nil {
		logger.Printf("ERROR: %v", err)
		return exitcodes.InvalidConfig
	}
	destination, err := resolveArg(fs.Arg(1))
	if err != nil {
		logger.Printf("ERROR: %v", err)
		return exitcodes.InvalidConfig
	}

	auditLog := openAudit(cfg, logger)
	if auditLog != nil {
		defer auditLog.Close()
	}

	copier := treecopy.NewCopier(fsops.OSFilesystem{}, logger)
	if cfg != nil {
		copier.SetBufferSize(cfg.CopyBufferBytes())
	}
	if auditLog != nil {
		copier.SetAudit(auditLog)
	}
	if t := throttleFor(cfg); t != nil {
		copier.SetThrottle(t)
	}

	if *tree {
		res, err := copier.CopyTree(source, destination)
		if err != nil {
			logger.Printf("ERROR: copy failed: %v", err)
			metrics.RecordOperation("copy", "error")
			return exitcodes.RuntimeError
		}
		logger.Printf("Copied %d files, %d directories, %d bytes", res.Files, res.Directories, res.Bytes)
	} else {
		n, err := copier.CopyFile(source, destination)
		if err != nil {
			logger.Printf("ERROR: copy failed: %v", err)
			metrics.RecordOperation("copy", "error")
			return exitcodes.RuntimeError
		}
		logger.Printf("Copied %d bytes", n)
	}

	metrics.RecordOperation("copy", "success")
	return exitcodes.Success
}

func runUsage(args []string, logger *log.Logger) int {
	if len(args) != 1 {
		logger.Println("ERROR: usage requires exactly one path")
		return exitcodes.InvalidConfig
	}

	root, err := resolveArg(args[0])
	if err != nil {
		logger.Printf("ERROR: %v", err)
		return exitcodes.InvalidConfig
	}

	usedPercent, freeBytes, totalBytes, err := disk.GetDiskUsage(root)
	if err != nil {
		logger.Printf("ERROR: disk usage failed: %v", err)
		return exitcodes.RuntimeError
	}

	bytes, files, err := disk.TreeSize(root)
	if err != nil {
		logger.Printf("ERROR: subtree size failed: %v", err)
		return exitcodes.RuntimeError
	}

	fmt.Printf("Filesystem:  %.1f%% used, %d free of %d bytes\n", usedPercent, freeBytes, totalBytes)
	fmt.Printf("Subtree:     %d bytes across %d files\n", bytes, files)
	return exitcodes.Success
}
