package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/Derthenier/Akhanda-sub004/internal/models"
	"github.com/Derthenier/Akhanda-sub004/internal/services/shaders"
)

// runCompile compiles one shader source file, optionally writing the SPIR-V
// blob to disk.
func runCompile(args []string) error {
	fs := flag.NewFlagSet("compile", flag.ContinueOnError)
	entry := fs.String("entry", "main", "Entry point function name")
	stageName := fs.String("stage", "pixel", "Shader stage (vertex, pixel, compute, ...)")
	optName := fs.String("opt", "release", "Optimization level (debug, release, speed, size)")
	defines := fs.String("defines", "", "Comma-separated variant defines (NAME or NAME=VALUE)")
	output := fs.String("o", "", "Output file for the compiled bytecode")
	debugInfo := fs.Bool("debug-info", false, "Embed debug information in the bytecode")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("compile expects exactly one source file")
	}
	sourcePath := fs.Arg(0)

	stage, err := models.ParseShaderStage(*stageName)
	if err != nil {
		return err
	}
	opt, err := models.ParseOptimizationLevel(*optName)
	if err != nil {
		return err
	}
	variant, err := parseDefines(*defines)
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
	manager.Start()

	shader, err := manager.CompileShader(models.CompileRequest{
		SourcePath:   sourcePath,
		EntryPoint:   *entry,
		Stage:        stage,
		Variant:      variant,
		Optimization: opt,
		DebugInfo:    *debugInfo,
	})
	if err != nil {
		return err
	}

	fmt.Printf("compiled %s (%s, %s): %d bytes, %d instructions\n",
		shader.Name, shader.Stage, variant.Key(), shader.BytecodeSize(),
		shader.Reflection.InstructionCount)
	for _, cb := range shader.Reflection.ConstantBufferBindings() {
		fmt.Printf("  cbuffer %s at b%d (space %d, %d bytes)\n",
			cb.Name, cb.BindPoint, cb.RegisterSpace, cb.Size)
	}
	for _, finding := range shaders.ValidateRegisterLayout(shader.Reflection) {
		fmt.Printf("  warning: %s\n", finding)
	}

	if *output != "" {
		if err := os.WriteFile(*output, shader.Bytecode(), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", *output, err)
		}
		fmt.Printf("wrote %s\n", *output)
	}
	return nil
}

// newManager builds a shader manager with storage per configuration.
func newManager() (*shaders.Manager, interface{ Close() error }, error) {
	db, storage, err := openStorage()
	if err != nil {
		return nil, nil, err
	}
	manager, err := shaders.NewManager(config, storage, logger)
	if err != nil {
		if db != nil {
			db.Close()
		}
		return nil, nil, err
	}
	if db != nil {
		return manager, db, nil
	}
	return manager, nil, nil
}

// parseDefines parses "NAME,OTHER=2" into a canonical variant.
func parseDefines(spec string) (models.ShaderVariant, error) {
	if strings.TrimSpace(spec) == "" {
		return models.ShaderVariant{}, nil
	}
	var defines []models.MacroDefine
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, found := strings.Cut(part, "=")
		if !found {
			value = "1"
		}
		defines = append(defines, models.MacroDefine{Name: strings.TrimSpace(name), Value: strings.TrimSpace(value)})
	}
	return models.NewShaderVariant(defines...)
}
