// Package pipeline orchestrates the processing of a single e-cheque: record
// the document, call the extraction model, validate, classify, synthesize the
// output filename and write everything back for audit.
package pipeline

import (
	"context"
	"fmt"
)

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []Step
}

// New creates a pipeline with the given steps.
func New(steps ...Step) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps sequentially, stopping at the first failure.
func (p *Pipeline) Execute(ctx context.Context, state *State) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d failed: %w", i+1, err)
		}
	}
	return nil
}

// NewChequeProcessingPipeline creates the standard 11-step pipeline for
// processing an e-cheque from GCS.
func NewChequeProcessingPipeline(deps Deps) *Pipeline {
	return New(
		&CreateDocumentStep{deps},
		&StartRunStep{deps},
		&FetchPDFStep{deps},
		&ExtractStep{deps},
		&StoreModelOutputStep{deps},
		&ValidateStep{deps},
		&ClassifyStep{deps},
		&SynthesizeFilenameStep{deps},
		&UploadRenamedCopyStep{deps},
		&InsertResultStep{deps},
		&MarkSuccessStep{deps},
	)
}

// ProcessChequeFromGCS runs the full pipeline for one cheque PDF stored in
// GCS and returns the final state, including the synthesized filename and the
// classification result.
func ProcessChequeFromGCS(ctx context.Context, deps Deps, gcsURI string) (*State, error) {
	state := &State{GCSURI: gcsURI}
	if err := NewChequeProcessingPipeline(deps).Execute(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}
