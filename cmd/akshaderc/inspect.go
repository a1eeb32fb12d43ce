package main

import (
	"flag"
	"fmt"
	"strings"

	"github.com/Derthenier/Akhanda-sub004/internal/models"
)

// runEntries lists the entry points declared in a shader source file.
func runEntries(args []string) error {
	fs := flag.NewFlagSet("entries", flag.ContinueOnError)
	stageName := fs.String("stage", "pixel", "Default stage for sources without stage attributes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("entries expects exactly one source file")
	}

	stage, err := models.ParseShaderStage(*stageName)
	if err != nil {
		return err
	}

	manager, db, err := newManager()
	if err != nil {
		return err
	}
	defer func() {
		manager.Stop()
		if db != nil {
			db.Close()
		}
	}()

	entries, err := manager.GetAvailableEntryPoints(fs.Arg(0), stage)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		fmt.Printf("%s\t%s\n", entry.Name, entry.Stage)
	}
	return nil
}

// runVariants shows the variants the generator produces for a source file.
func runVariants(args []string) error {
	fs := flag.NewFlagSet("variants", flag.ContinueOnError)
	candidates := fs.String("candidates", "", "Comma-separated candidate define names")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("variants expects exactly one source file")
	}

	var names []string
	for _, name := range strings.Split(*candidates, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}

	manager, db, err := newManager()
	if err != nil {
		return err
	}
	defer func() {
		manager.Stop()
		if db != nil {
			db.Close()
		}
	}()

	variants, err := manager.GenerateVariants(fs.Arg(0), names)
	if err != nil {
		return err
	}
	fmt.Printf("%d variants:\n", len(variants))
	for _, variant := range variants {
		fmt.Printf("  %s\n", variant.Key())
	}
	return nil
}

// runCache inspects or clears the persisted shader cache.
func runCache(args []string) error {
	if len(args) != 1 || (args[0] != "stats" && args[0] != "clear") {
		return fmt.Errorf("cache expects 'stats' or 'clear'")
	}

	db, storage, err := openStorage()
	if err != nil {
		return err
	}
	if storage == nil {
		return fmt.Errorf("cache is disabled in configuration")
	}
	defer db.Close()

	switch args[0] {
	case "stats":
		entries, err := storage.LoadAll()
		if err != nil {
			return err
		}
		var totalBytes int64
		for _, entry := range entries {
			totalBytes += int64(len(entry.Bytecode))
		}
		fmt.Printf("%d entries, %d bytecode bytes\n", len(entries), totalBytes)
		for _, entry := range entries {
			fmt.Printf("  %s (%d bytes, stored %s)\n", entry.Key, len(entry.Bytecode),
				entry.StoredAt.Format("2006-01-02 15:04:05"))
		}
	case "clear":
		if err := storage.DeleteAll(); err != nil {
			return err
		}
		fmt.Println("cache cleared")
	}
	return nil
}
