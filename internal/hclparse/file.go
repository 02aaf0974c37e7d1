package hclparse

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"

	"github.com/runstack-io/runstack/internal/errors"
)

// File is a parsed HCL file, tied back to the Parser that produced it.
type File struct {
	*Parser
	*hcl.File

	ConfigPath string
}

// Decode decodes the file body into the given output struct using the given evaluation context.
func (file *File) Decode(out any, evalContext *hcl.EvalContext) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = errors.New(PanicWhileParsingError{RecoveredValue: recovered, ConfigFile: file.ConfigPath})
		}
	}()

	if diags := gohcl.DecodeBody(file.Body, evalContext, out); diags.HasErrors() {
		return errors.New(diags)
	}

	return nil
}

// Blocks returns the top-level blocks with the given name. If expectLabels is true, blocks are expected to carry
// exactly one label.
func (file *File) Blocks(name string, expectLabels bool) ([]*Block, error) {
	labelNames := []string{}
	if expectLabels {
		labelNames = append(labelNames, "name")
	}

	schema := &hcl.BodySchema{
		Blocks: []hcl.BlockHeaderSchema{
			{Type: name, LabelNames: labelNames},
		},
	}

	content, _, diags := file.Body.PartialContent(schema)
	if diags.HasErrors() {
		return nil, errors.New(diags)
	}

	var blocks []*Block

	for _, block := range content.Blocks {
		blocks = append(blocks, &Block{
			File:  file,
			Block: block,
		})
	}

	return blocks, nil
}

// JustAttributes returns the attributes of the file body, for files that are flat key/value mappings.
func (file *File) JustAttributes() (hcl.Attributes, error) {
	attrs, diags := file.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, errors.New(diags)
	}

	return attrs, nil
}

// Block is an HCL block tied back to the file it came from.
type Block struct {
	*File
	*hcl.Block
}

// JustAttributes returns the attributes of the block body.
func (block *Block) JustAttributes() (hcl.Attributes, error) {
	attrs, diags := block.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, errors.New(diags)
	}

	return attrs, nil
}
