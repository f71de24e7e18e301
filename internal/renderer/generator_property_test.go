//go:build property
// +build property

package renderer

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/conneroisu/ogcard/internal/templates"
	"github.com/conneroisu/ogcard/internal/types"
)

// TestGenerationProperties checks that generation is a pure function of its
// parameters.
func TestGenerationProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(1357)
	parameters.MinSuccessfulTests = 15

	properties := gopter.NewProperties(parameters)
	g := newTestGenerator(t, smallPNG)
	ctx := context.Background()

	// Property: identical parameters produce byte-identical images
	properties.Property("generation is deterministic", prop.ForAll(
		func(title, description string) bool {
			p := templates.Params{Title: title, Description: description, SiteName: "Field Notes"}
			a, err := g.Generate(ctx, templates.VariantPost, p)
			if err != nil {
				return false
			}
			b, err := g.Generate(ctx, templates.VariantPost, p)
			if err != nil {
				return false
			}
			return bytes.Equal(a.Data, b.Data)
		},
		gen.Identifier(),
		gen.AlphaString(),
	))

	// Property: a render in between does not leak into the next one
	properties.Property("renders are independent", prop.ForAll(
		func(first, second int) bool {
			postA := &types.Post{ID: "a", Title: fmt.Sprintf("Post %d", first)}
			postB := &types.Post{ID: "b", Title: fmt.Sprintf("Post %d", second)}

			before, err := g.GeneratePost(ctx, postA)
			if err != nil {
				return false
			}
			other, err := g.GeneratePost(ctx, postB)
			if err != nil {
				return false
			}
			after, err := g.GeneratePost(ctx, postA)
			if err != nil {
				return false
			}

			if !bytes.Equal(before.Data, after.Data) {
				return false
			}
			return (first == second) == bytes.Equal(before.Data, other.Data)
		},
		gen.IntRange(0, 9999),
		gen.IntRange(0, 9999),
	))

	properties.TestingRun(t)
}
