package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nodewee/docrag/pkg/config"
	"github.com/nodewee/docrag/pkg/constants"
	"github.com/nodewee/docrag/pkg/interfaces"
	"github.com/nodewee/docrag/pkg/logger"
	"github.com/nodewee/docrag/pkg/types"
	"github.com/nodewee/docrag/pkg/utils"
)

// Step is one stage of a pipeline run with its input and output paths
type Step struct {
	Processor interfaces.StageProcessor
	Input     string
	Output    string
}

// StageRunner validates inputs, runs stage processors with retries and logs progress
type StageRunner struct {
	config       *config.Config
	logger       *logger.Logger
	errorHandler *utils.ErrorHandler
	attempts     int
}

// NewStageRunner creates a new stage runner
func NewStageRunner(cfg *config.Config, log *logger.Logger) *StageRunner {
	r := &StageRunner{
		config:       cfg,
		logger:       log,
		errorHandler: utils.NewErrorHandler(),
		attempts:     constants.DefaultMaxRetries,
	}
	r.setupErrorRecovery()
	return r
}

// setupErrorRecovery configures error recovery strategies
func (r *StageRunner) setupErrorRecovery() {
	r.errorHandler.RegisterRecoveryStrategy(utils.ErrorTypeUpstream, func(err error) error {
		r.logger.Warn("Model service error, retrying stage: %v", err)
		return nil
	})
	r.errorHandler.RegisterRecoveryStrategy(utils.ErrorTypeNetwork, func(err error) error {
		r.logger.Warn("Network error, retrying stage: %v", err)
		return nil
	})
	r.errorHandler.RegisterRecoveryStrategy(utils.ErrorTypeTimeout, func(err error) error {
		r.logger.Warn("Timeout detected, retrying stage")
		return nil
	})
}

// Run runs one stage from input to output
func (r *StageRunner) Run(ctx context.Context, p interfaces.StageProcessor, input, output string) (*interfaces.StageResult, error) {
	startTime := time.Now()
	stage := p.Stage()

	r.logger.Info("=== Starting %s stage ===", stage)
	r.logger.Info("Input file: %s", input)
	r.logger.Info("Output: %s", output)

	if err := r.validateInputFile(input); err != nil {
		return nil, err
	}
	if output == "" {
		return nil, utils.NewValidationError(fmt.Sprintf("%s stage needs an output path", stage), nil)
	}

	fingerprint := r.fingerprint(p, input)
	if r.shouldSkip(stage, output, fingerprint) {
		r.logger.ProgressAlways("⏭️", "%s: input and settings unchanged, skipping (%s)", stage, output)
		return &interfaces.StageResult{Stage: stage, Source: input, Output: output, Skipped: true}, nil
	}

	var result *interfaces.StageResult
	err := utils.WithRetry(func() error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return utils.NewSystemError(fmt.Sprintf("%s stage cancelled", stage), ctxErr)
		}
		res, err := p.ProcessFile(ctx, input, output)
		if err != nil {
			return err
		}
		result = res
		return nil
	}, r.attempts, r.errorHandler)
	if err != nil {
		r.logger.Error("%s stage failed: %v", stage, err)
		return nil, err
	}

	r.recordFingerprint(stage, output, fingerprint)

	result.Stage = stage
	result.Source = input
	result.Output = output
	result.ProcessTime = time.Since(startTime).Milliseconds()

	if result.Skipped {
		r.logger.ProgressAlways("⏭️", "%s: nothing changed, skipped", stage)
	} else {
		r.logger.ProgressAlways("✅", "%s completed in %dms: %s", stage, result.ProcessTime, output)
	}
	r.logger.Info("=== %s stage completed ===", stage)
	return result, nil
}

// RunPipeline runs steps in order and stops at the first failure
func (r *StageRunner) RunPipeline(ctx context.Context, steps []Step) ([]*interfaces.StageResult, error) {
	results := make([]*interfaces.StageResult, 0, len(steps))
	for i, step := range steps {
		r.logger.Progress("🚀", "Stage %d/%d: %s", i+1, len(steps), step.Processor.Stage())
		res, err := r.Run(ctx, step.Processor, step.Input, step.Output)
		if err != nil {
			return results, utils.WrapError(err, "", fmt.Sprintf("pipeline stopped at %s", step.Processor.Stage()))
		}
		results = append(results, res)
	}
	return results, nil
}

// fingerprint identifies one run of a stage: the stage name, its settings and
// the MD5 of the input file. It is "" when the input cannot be hashed.
func (r *StageRunner) fingerprint(p interfaces.StageProcessor, input string) string {
	inputHash, err := utils.CalculateFileMD5(input)
	if err != nil {
		r.logger.Debug("cannot fingerprint %s: %v", input, err)
		return ""
	}
	settings := ""
	if s, ok := p.(interfaces.StageSettings); ok {
		settings = s.Settings()
	}
	return utils.CalculateTextMD5(fmt.Sprintf("%s\n%s\n%s", p.Stage(), settings, inputHash))
}

// fingerprintPath is the hidden file next to output recording the fingerprint
// of the run that wrote it
func fingerprintPath(output string) string {
	return filepath.Join(filepath.Dir(output), "."+filepath.Base(output)+".fingerprint")
}

// shouldSkip reports whether a file-producing stage can reuse its output: the
// output exists and was written from the same input with the same settings.
// The index stage decides for itself by comparing source fingerprints.
func (r *StageRunner) shouldSkip(stage types.Stage, output, fingerprint string) bool {
	if !r.config.SkipExisting || stage == types.StageIndex || fingerprint == "" {
		return false
	}
	if !utils.FileExists(output) {
		return false
	}
	recorded, err := utils.ReadTextFile(fingerprintPath(output))
	return err == nil && recorded == fingerprint
}

func (r *StageRunner) recordFingerprint(stage types.Stage, output, fingerprint string) {
	if stage == types.StageIndex || fingerprint == "" {
		return
	}
	if err := utils.WriteTextFile(fingerprintPath(output), fingerprint); err != nil {
		r.logger.Warn("cannot record fingerprint for %s: %v", output, err)
	}
}

// validateInputFile validates the input file
func (r *StageRunner) validateInputFile(inputFile string) error {
	if inputFile == "" {
		return utils.NewValidationError("input file path cannot be empty", nil)
	}

	stat, err := os.Stat(inputFile)
	if err != nil {
		return utils.NewFileAccessError(inputFile, err)
	}
	if stat.IsDir() {
		return utils.NewValidationError(fmt.Sprintf("expected a file, got a directory: %s", inputFile), nil)
	}

	if file, err := os.Open(inputFile); err != nil {
		return utils.NewPermissionError(fmt.Sprintf("cannot read input file: %s", inputFile), err)
	} else {
		file.Close()
	}

	return r.validateFileSize(stat.Size())
}

// validateFileSize validates that the file size is within acceptable limits
func (r *StageRunner) validateFileSize(size int64) error {
	if size > constants.MaxFileSize {
		return utils.NewValidationError(
			fmt.Sprintf("file size (%d bytes) exceeds maximum limit (%d bytes)",
				size, constants.MaxFileSize), nil)
	}

	if size > constants.WarnFileSizeLimit {
		r.logger.Warn("Large file detected (%d bytes), processing may take longer", size)
	}

	return nil
}
