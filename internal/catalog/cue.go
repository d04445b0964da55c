package catalog

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
)

// schema constrains CUE catalogs. #Item is closed, so misspelled fields
// are rejected just as KnownFields rejects them in YAML.
const schema = `
#Item: {
	id?:             string
	legacy_id?:      string
	name:            string & !=""
	category:        string & !=""
	qty:             int | *0
	threshold:       int | *1
	last_refill_at?: string
	next_refill_at?: string
	created_at?:     string
	updated_at?:     string
	deleted:         bool | *false
	version:         int | *1
}

items: [...#Item]
`

func decodeCUE(path string, data []byte) (*file, error) {
	ctx := cuecontext.New()

	s := ctx.CompileString(schema, cue.Filename("catalog-schema.cue"))
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("compiling catalog schema: %w", err)
	}

	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("loading CUE catalog: %w", firstCUEError(err))
	}

	v = s.Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("invalid CUE catalog: %w", firstCUEError(err))
	}

	var f file
	if err := v.Decode(&f); err != nil {
		return nil, fmt.Errorf("decoding CUE catalog: %w", firstCUEError(err))
	}
	return &f, nil
}

// firstCUEError keeps the first of possibly many CUE errors, prefixed with
// its source position when known.
func firstCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if pos := errors.Positions(first); len(pos) > 0 && pos[0].IsValid() {
		return fmt.Errorf("%s:%d:%d: %w", pos[0].Filename(), pos[0].Line(), pos[0].Column(), first)
	}
	return first
}
