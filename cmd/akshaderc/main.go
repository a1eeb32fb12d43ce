package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ternarybob/arbor"

	"github.com/Derthenier/Akhanda-sub004/internal/common"
	"github.com/Derthenier/Akhanda-sub004/internal/interfaces"
	badgerstore "github.com/Derthenier/Akhanda-sub004/internal/storage/badger"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	configFiles  configPaths // multiple -config flags supported
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")

	config *common.Config
	logger arbor.ILogger
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: akshaderc [flags] <command> [args]

Commands:
  compile   Compile a shader source file
  entries   List entry points declared in a shader source file
  variants  Show the variants generated for a shader source file
  watch     Watch shader sources and recompile on change
  cache     Inspect or clear the shader cache

Flags:
`)
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("akshaderc version %s\n", common.GetFullVersion())
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	// Startup sequence (REQUIRED ORDER):
	// 1. Load config (defaults -> files -> env)
	// 2. Initialize logger
	// 3. Print banner
	var err error

	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, statErr := os.Stat("akshader.toml"); statErr == nil {
			configFiles = append(configFiles, "akshader.toml")
		}
	}

	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	logger = common.InitLogger(config)
	common.PrintBanner(common.GetVersion())

	logger.Debug().
		Str("backend", config.Compiler.Backend).
		Bool("cache_enabled", config.Cache.Enabled).
		Bool("hotreload_enabled", config.HotReload.Enabled).
		Strs("search_paths", config.Shaders.SearchPaths).
		Msg("Resolved configuration")

	command, commandArgs := args[0], args[1:]
	if err := dispatch(command, commandArgs); err != nil {
		logger.Error().Str("command", command).Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

func dispatch(command string, args []string) error {
	switch command {
	case "compile":
		return runCompile(args)
	case "entries":
		return runEntries(args)
	case "variants":
		return runVariants(args)
	case "watch":
		return runWatch(args)
	case "cache":
		return runCache(args)
	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

// openStorage opens the badger-backed cache store when caching is enabled.
// Callers must Close the returned DB; both returns are nil when caching is
// off.
func openStorage() (*badgerstore.DB, interfaces.CacheStorage, error) {
	if !config.Cache.Enabled {
		return nil, nil, nil
	}
	db, err := badgerstore.NewDB(logger, &config.Cache)
	if err != nil {
		return nil, nil, err
	}
	return db, badgerstore.NewCacheStorage(db, logger), nil
}
