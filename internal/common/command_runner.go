package common

import (
	"context"
	"fmt"

	"atsscore/internal/errors"
	"atsscore/internal/extract"
)

// CreateInputFunc builds the operation input from the documents named on the
// command line, in argument order.
type CreateInputFunc[Input any] func(docs []*extract.Document) (Input, error)

// LogDetailsFunc defines how to log the start of an operation.
type LogDetailsFunc[Input any] func(input Input, cfg CommandConfig)

// OperationFunc is the work a command performs on its input.
type OperationFunc[Input, Output any] func(context.Context, Input) (Output, error)

// RunCommand encapsulates the common logic for file-based CLI commands:
// read the input files, build the input, run the operation and write the
// formatted result.
func RunCommand[Input, Output any](
	ctx context.Context,
	logger *errors.Logger,
	cmdConfig CommandConfig,
	args []string,
	createInput CreateInputFunc[Input],
	operation OperationFunc[Input, Output],
	logDetails LogDetailsFunc[Input],
) error {
	fileProcessor := NewFileProcessor(logger)
	outputHandler := NewOutputHandler(logger)

	if err := fileProcessor.ValidateOutputFile(cmdConfig.OutputFile); err != nil {
		return err
	}

	docs, err := fileProcessor.ValidateAndReadFiles(ctx, args...)
	if err != nil {
		return err
	}

	input, err := createInput(docs)
	if err != nil {
		return fmt.Errorf("failed to create input from file contents: %w", err)
	}

	if logDetails != nil {
		logDetails(input, cmdConfig)
	}

	result, err := operation(ctx, input)
	if err != nil {
		return err
	}

	return outputHandler.HandleOutput(result, cmdConfig)
}
