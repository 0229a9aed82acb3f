package chat

import "errors"

var (
	// ErrRetrieverRequired indicates a missing retriever.
	ErrRetrieverRequired = errors.New("retriever required")

	// ErrAssemblerRequired indicates a missing prompt assembler.
	ErrAssemblerRequired = errors.New("prompt assembler required")

	// ErrGeneratorRequired indicates a missing generator.
	ErrGeneratorRequired = errors.New("generator required")
)
